package analytics

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func TestComputeWindowStats(t *testing.T) {
	stats, err := ComputeWindowStats([]float64{10, 12, 11, 13, 15}, 3)
	if err != nil {
		t.Fatalf("ComputeWindowStats: %v", err)
	}
	assertClose(t, "mean", stats.Mean, 13, 1e-9)
	assertClose(t, "min", stats.Min, 11, 1e-9)
	assertClose(t, "max", stats.Max, 15, 1e-9)
	assertClose(t, "percent change", stats.PercentChange, 50, 1e-9)
	if stats.Count != 3 {
		t.Errorf("count = %d, want 3", stats.Count)
	}
}

func TestComputeWindowStats_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		series  []float64
		window  int
		want    WindowStats
		wantErr bool
	}{
		{name: "empty series", series: nil, window: 3, want: WindowStats{}},
		{name: "window longer than series", series: []float64{2, 4}, window: 10,
			want: WindowStats{Mean: 3, Min: 2, Max: 4, Count: 2, PercentChange: 100}},
		{name: "zero window covers all", series: []float64{1, 2, 3}, window: 0,
			want: WindowStats{Mean: 2, Min: 1, Max: 3, Count: 3, PercentChange: 200}},
		{name: "zero first value", series: []float64{0, 5}, window: 2,
			want: WindowStats{Mean: 2.5, Min: 0, Max: 5, Count: 2, PercentChange: 0}},
		{name: "negative window", series: []float64{1}, window: -1, wantErr: true},
		{name: "NaN observation", series: []float64{1, math.NaN()}, window: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeWindowStats(tt.series, tt.window)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ComputeWindowStats() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error %v does not match ErrValidation", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ComputeWindowStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeWindowStats_DoesNotMutate(t *testing.T) {
	series := []float64{5, 3, 9}
	if _, err := ComputeWindowStats(series, 2); err != nil {
		t.Fatal(err)
	}
	if series[0] != 5 || series[1] != 3 || series[2] != 9 {
		t.Errorf("series mutated: %v", series)
	}
}

func TestMeanPercentChange(t *testing.T) {
	// Last five: 100, 101, 102.01, 103.0301, 104.060401 -> four steps of 1%.
	series := []float64{50, 100, 101, 102.01, 103.0301, 104.060401}
	assertClose(t, "mean pct", MeanPercentChange(series, 5), 1, 1e-6)
	if got := MeanPercentChange([]float64{7}, 5); got != 0 {
		t.Errorf("single value: got %v, want 0", got)
	}
}

func TestMovingAverage_SMA(t *testing.T) {
	seq, err := MovingAverage([]float64{100, 102, 104, 103, 105}, 3, Simple)
	if err != nil {
		t.Fatalf("MovingAverage: %v", err)
	}
	got := Collect(seq)
	want := []Sample{{}, {}, {102, true}, {103, true}, {104, true}}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Ready != want[i].Ready {
			t.Errorf("index %d: Ready=%v, want %v", i, got[i].Ready, want[i].Ready)
		}
		assertClose(t, "sma", got[i].Value, want[i].Value, 1e-9)
	}
}

func TestMovingAverage_EMA(t *testing.T) {
	// Seed = SMA(3) of 10,11,12 = 11; k = 0.5.
	// idx3: 13*0.5 + 11*0.5 = 12; idx4: 14*0.5 + 12*0.5 = 13.
	seq, err := MovingAverage([]float64{10, 11, 12, 13, 14}, 3, Exponential)
	if err != nil {
		t.Fatalf("MovingAverage: %v", err)
	}
	got := Collect(seq)
	if got[0].Ready || got[1].Ready {
		t.Errorf("EMA ready before window filled: %+v", got[:2])
	}
	assertClose(t, "ema[2]", got[2].Value, 11, 1e-9)
	assertClose(t, "ema[3]", got[3].Value, 12, 1e-9)
	assertClose(t, "ema[4]", got[4].Value, 13, 1e-9)
}

func TestMovingAverage_UnavailableBeforeWindow(t *testing.T) {
	series := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	for _, kind := range []MAKind{Simple, Exponential} {
		for w := 2; w <= len(series); w++ {
			seq, err := MovingAverage(series, w, kind)
			if err != nil {
				t.Fatalf("%v w=%d: %v", kind, w, err)
			}
			for i, s := range seq {
				if i < w-1 && s.Ready {
					t.Errorf("%v w=%d index %d ready before window filled", kind, w, i)
				}
				if i >= w-1 && !s.Ready {
					t.Errorf("%v w=%d index %d not ready after window filled", kind, w, i)
				}
			}
		}
	}
}

func TestMovingAverage_CopiesInput(t *testing.T) {
	series := []float64{1, 2, 3}
	seq, err := MovingAverage(series, 3, Simple)
	if err != nil {
		t.Fatal(err)
	}
	series[2] = 300
	last, ok := Last(seq)
	if !ok {
		t.Fatal("empty sequence")
	}
	assertClose(t, "sma after caller mutation", last.Value, 2, 1e-9)
}

func TestMovingAverage_Validation(t *testing.T) {
	if _, err := MovingAverage([]float64{1}, 0, Simple); !errors.Is(err, ErrValidation) {
		t.Errorf("window 0: got %v, want ErrValidation", err)
	}
	if _, err := MovingAverage([]float64{1}, -2, Exponential); !errors.Is(err, ErrValidation) {
		t.Errorf("window -2: got %v, want ErrValidation", err)
	}
	if _, err := MovingAverage([]float64{1}, 1, MAKind(9)); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown kind: got %v, want ErrValidation", err)
	}
	if _, err := MovingAverage([]float64{math.Inf(1)}, 1, Simple); !errors.Is(err, ErrValidation) {
		t.Errorf("Inf value: got %v, want ErrValidation", err)
	}
}

func TestRSI_Readiness(t *testing.T) {
	series := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1}
	seq, err := RSI(series, 3)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	for i, s := range seq {
		if i < 3 && s.Ready {
			t.Errorf("index %d ready before %d changes", i, 3)
		}
		if i >= 3 && !s.Ready {
			t.Errorf("index %d not ready", i)
		}
	}
}

func TestRSI_KnownValues(t *testing.T) {
	// Changes: +1, -1, +2 -> avgGain 1, avgLoss 1/3, RS 3, RSI 75.
	// Next change -1: avgGain (1*2+0)/3 = 2/3, avgLoss (1/3*2+1)/3 = 5/9, RS 1.2, RSI 54.5454...
	seq, err := RSI([]float64{10, 11, 10, 12, 11}, 3)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	got := Collect(seq)
	assertClose(t, "rsi[3]", got[3].Value, 75, 1e-9)
	assertClose(t, "rsi[4]", got[4].Value, 100-100/2.2, 1e-9)
}

func TestRSI_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
	}{
		{name: "only gains", series: []float64{1, 2, 3, 4, 5}, want: 100},
		{name: "only losses", series: []float64{5, 4, 3, 2, 1}, want: 0},
		{name: "flat", series: []float64{3, 3, 3, 3, 3}, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := RSI(tt.series, 2)
			if err != nil {
				t.Fatal(err)
			}
			last, _ := Last(seq)
			assertClose(t, "rsi", last.Value, tt.want, 1e-9)
		})
	}

	series := []float64{5, 7, 3, 9, 9, 1, 8, 2, 6, 4, 10, 0.5, 7, 7.5}
	seq, _ := RSI(series, 4)
	for i, s := range seq {
		if s.Ready && (s.Value < 0 || s.Value > 100) {
			t.Errorf("index %d: RSI %v outside [0,100]", i, s.Value)
		}
	}
}

func TestBollingerBands(t *testing.T) {
	constant := []float64{100, 100, 100, 100, 100}
	for _, v := range []float64{100, 0.1, 1.1, 3.3, 27.35} {
		flat := []float64{v, v, v, v, v, v, v}
		for w := 2; w <= len(flat); w++ {
			seq, err := BollingerBands(flat, w, 2)
			if err != nil {
				t.Fatal(err)
			}
			for i, b := range seq {
				if !b.Ready {
					continue
				}
				if b.Upper != v || b.Lower != v || b.Middle != v {
					t.Errorf("v=%v w=%d index %d: upper=%v middle=%v lower=%v, want all %v",
						v, w, i, b.Upper, b.Middle, b.Lower, v)
				}
			}
		}
	}

	// Window 2,4: mean 3, population sd 1 -> 1 and 5 at k=2.
	seq, err := BollingerBands([]float64{2, 4}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	got := Collect(seq)
	if got[0].Ready {
		t.Error("first band ready before window filled")
	}
	assertClose(t, "middle", got[1].Middle, 3, 1e-9)
	assertClose(t, "upper", got[1].Upper, 5, 1e-9)
	assertClose(t, "lower", got[1].Lower, 1, 1e-9)

	if _, err := BollingerBands(constant, 2, -1); !errors.Is(err, ErrValidation) {
		t.Errorf("negative k: got %v, want ErrValidation", err)
	}
}

func TestConfusionMetrics_Scenario(t *testing.T) {
	metrics, err := ConfusionMetrics(Counts{TP: 50, FP: 10, FN: 5, TN: 35})
	if err != nil {
		t.Fatalf("ConfusionMetrics: %v", err)
	}
	if len(metrics) != 13 {
		t.Fatalf("got %d metrics, want 13", len(metrics))
	}
	if metrics[0].Name != MetricTotal || metrics[len(metrics)-1].Name != MetricKappa {
		t.Errorf("unexpected order: first=%q last=%q", metrics[0].Name, metrics[len(metrics)-1].Name)
	}

	// Kappa chance agreement is (55*60 + 45*40) / 100^2 = 0.51.
	want := map[string]float64{
		MetricTotal:            100,
		MetricAccuracy:         0.85,
		MetricPrecision:        50.0 / 60.0,
		MetricSensitivity:      50.0 / 55.0,
		MetricF1:               100.0 / 115.0,
		MetricSpecificity:      35.0 / 45.0,
		MetricMCC:              (50.0*35 - 10*5) / math.Sqrt(60*55*45*40),
		MetricNPV:              35.0 / 40.0,
		MetricFPR:              10.0 / 45.0,
		MetricFNR:              5.0 / 55.0,
		MetricFDR:              10.0 / 60.0,
		MetricBalancedAccuracy: (50.0/55.0 + 35.0/45.0) / 2,
		MetricKappa:            (0.85 - 0.51) / (1 - 0.51),
	}
	for name, w := range want {
		got, ok := Lookup(metrics, name)
		if !ok {
			t.Errorf("metric %q missing", name)
			continue
		}
		assertClose(t, name, got, w, 1e-9)
	}
}

func TestConfusionMetrics_Degenerate(t *testing.T) {
	metrics, err := ConfusionMetrics(Counts{})
	if err != nil {
		t.Fatalf("ConfusionMetrics: %v", err)
	}
	for _, m := range metrics {
		if m.Value != 0 {
			t.Errorf("%s = %v, want 0", m.Name, m.Value)
		}
	}

	metrics, err = ConfusionMetrics(Counts{FN: 4, TN: 6})
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := Lookup(metrics, MetricPrecision); p != 0 {
		t.Errorf("precision with tp+fp == 0: got %v, want 0", p)
	}
	if mcc, _ := Lookup(metrics, MetricMCC); mcc != 0 {
		t.Errorf("mcc with zero product: got %v, want 0", mcc)
	}
}

func TestConfusionMetrics_AccuracyProperty(t *testing.T) {
	for tp := 0; tp <= 4; tp++ {
		for fp := 0; fp <= 4; fp++ {
			for fn := 0; fn <= 4; fn++ {
				for tn := 0; tn <= 4; tn++ {
					c := Counts{tp, fp, fn, tn}
					if c.Total() == 0 {
						continue
					}
					metrics, err := ConfusionMetrics(c)
					if err != nil {
						t.Fatal(err)
					}
					acc, _ := Lookup(metrics, MetricAccuracy)
					if acc < 0 || acc > 1 {
						t.Fatalf("%+v: accuracy %v outside [0,1]", c, acc)
					}
					assertClose(t, "accuracy", acc, float64(tp+tn)/float64(c.Total()), 1e-12)
				}
			}
		}
	}
}

func TestConfusionMetrics_NegativeCount(t *testing.T) {
	_, err := ConfusionMetrics(Counts{TP: 1, FP: -1})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if verr.Field != "fp" {
		t.Errorf("field = %q, want fp", verr.Field)
	}
}

func TestClassifySignal(t *testing.T) {
	rsi := RSIThresholds(30, 70)
	tests := []struct {
		value float64
		want  Signal
	}{
		{10, Oversold},
		{29.99, Oversold},
		{30, Neutral},
		{50, Neutral},
		{70, Neutral},
		{70.01, Overbought},
		{math.NaN(), Unavailable},
	}
	for _, tt := range tests {
		got, err := ClassifySignal(tt.value, rsi)
		if err != nil {
			t.Fatalf("ClassifySignal(%v): %v", tt.value, err)
		}
		if got != tt.want {
			t.Errorf("ClassifySignal(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}

	if got, _ := ClassifySample(Sample{}, rsi); got != Unavailable {
		t.Errorf("unready sample: got %s, want unavailable", got)
	}
	if _, err := ClassifySignal(1, RSIThresholds(70, 30)); !errors.Is(err, ErrValidation) {
		t.Errorf("inverted thresholds: got %v, want ErrValidation", err)
	}
	if got, _ := ClassifySignal(-2, TrendThresholds(-1, 1)); got != TrendDown {
		t.Errorf("trend -2%%: got %s, want trend_down", got)
	}
}
