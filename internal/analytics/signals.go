package analytics

import (
	"fmt"
	"time"
)

// Bar is one OHLCV candle.
type Bar struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// AnalysisConfig holds the indicator windows and signal thresholds used by Analyze.
type AnalysisConfig struct {
	SMAWindow         int        `mapstructure:"sma_window"`
	EMAWindow         int        `mapstructure:"ema_window"`
	RSIWindow         int        `mapstructure:"rsi_window"`
	BollingerWindow   int        `mapstructure:"bollinger_window"`
	BollingerStdDev   float64    `mapstructure:"bollinger_std_dev"`
	VolumeWindow      int        `mapstructure:"volume_window"`
	VolumeSpikeFactor float64    `mapstructure:"volume_spike_factor"`
	TrendLookback     int        `mapstructure:"trend_lookback"`
	RSI               Thresholds `mapstructure:"rsi"`
	Trend             Thresholds `mapstructure:"trend"`
}

// DefaultAnalysisConfig returns the dashboard defaults: SMA/EMA 20, RSI 14,
// Bollinger 20x2, volume spike at twice the 20-bar volume average, and a
// five-bar trend classified at +/-1%.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		SMAWindow:         20,
		EMAWindow:         20,
		RSIWindow:         14,
		BollingerWindow:   20,
		BollingerStdDev:   2.0,
		VolumeWindow:      20,
		VolumeSpikeFactor: 2.0,
		TrendLookback:     5,
		RSI:               RSIThresholds(30, 70),
		Trend:             TrendThresholds(-1, 1),
	}
}

// Finding is one signal raised by Analyze.
type Finding struct {
	Kind    string  `json:"kind"`
	Signal  Signal  `json:"signal"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// Analysis is the latest-bar indicator snapshot plus the findings derived from it.
type Analysis struct {
	Bars           int       `json:"bars"`
	Close          float64   `json:"close"`
	SMA            Sample    `json:"sma"`
	EMA            Sample    `json:"ema"`
	RSI            Sample    `json:"rsi"`
	Bands          Band      `json:"bands"`
	VolumeSMA      Sample    `json:"volume_sma"`
	ShortTermTrend float64   `json:"short_term_trend"`
	BarChange      float64   `json:"bar_change"`
	Findings       []Finding `json:"findings"`
}

// Analyze computes indicators over bars and derives findings for the last bar.
// Fewer than two bars produce an Analysis without findings.
func Analyze(bars []Bar, cfg AnalysisConfig) (Analysis, error) {
	if err := cfg.RSI.Validate(); err != nil {
		return Analysis{}, err
	}
	if err := cfg.Trend.Validate(); err != nil {
		return Analysis{}, err
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	smaSeq, err := MovingAverage(closes, cfg.SMAWindow, Simple)
	if err != nil {
		return Analysis{}, fmt.Errorf("sma: %w", err)
	}
	emaSeq, err := MovingAverage(closes, cfg.EMAWindow, Exponential)
	if err != nil {
		return Analysis{}, fmt.Errorf("ema: %w", err)
	}
	rsiSeq, err := RSI(closes, cfg.RSIWindow)
	if err != nil {
		return Analysis{}, fmt.Errorf("rsi: %w", err)
	}
	bandSeq, err := BollingerBands(closes, cfg.BollingerWindow, cfg.BollingerStdDev)
	if err != nil {
		return Analysis{}, fmt.Errorf("bollinger: %w", err)
	}
	volSeq, err := MovingAverage(volumes, cfg.VolumeWindow, Simple)
	if err != nil {
		return Analysis{}, fmt.Errorf("volume sma: %w", err)
	}

	a := Analysis{Bars: len(bars)}
	if len(bars) == 0 {
		return a, nil
	}

	smas := Collect(smaSeq)
	a.SMA = smas[len(smas)-1]
	a.EMA, _ = Last(emaSeq)
	a.RSI, _ = Last(rsiSeq)
	a.Bands, _ = Last(bandSeq)
	a.VolumeSMA, _ = Last(volSeq)

	last := bars[len(bars)-1]
	a.Close = last.Close
	a.ShortTermTrend = MeanPercentChange(closes, cfg.TrendLookback)
	a.BarChange = PercentChange(last.Open, last.Close)

	if len(bars) < 2 {
		return a, nil
	}
	prev := bars[len(bars)-2]
	prevSMA := smas[len(smas)-2]

	if a.RSI.Ready {
		sig, _ := ClassifySignal(a.RSI.Value, cfg.RSI)
		if sig != cfg.RSI.Within {
			a.Findings = append(a.Findings, Finding{
				Kind: "rsi", Signal: sig, Value: a.RSI.Value,
				Message: fmt.Sprintf("RSI %s (%.2f)", sig, a.RSI.Value),
			})
		}
	}

	if a.SMA.Ready && prevSMA.Ready {
		switch {
		case last.Close > a.SMA.Value && prev.Close <= prevSMA.Value:
			a.Findings = append(a.Findings, Finding{
				Kind: "sma_cross", Signal: CrossAbove, Value: a.SMA.Value,
				Message: fmt.Sprintf("close crossed above SMA-%d", cfg.SMAWindow),
			})
		case last.Close < a.SMA.Value && prev.Close >= prevSMA.Value:
			a.Findings = append(a.Findings, Finding{
				Kind: "sma_cross", Signal: CrossBelow, Value: a.SMA.Value,
				Message: fmt.Sprintf("close crossed below SMA-%d", cfg.SMAWindow),
			})
		}
	}

	// A zero-width band (constant window) carries no touch signal.
	if a.Bands.Ready && a.Bands.Upper > a.Bands.Lower {
		switch {
		case last.Close <= a.Bands.Lower:
			a.Findings = append(a.Findings, Finding{
				Kind: "bollinger", Signal: BelowBand, Value: a.Bands.Lower,
				Message: "close at or below the lower Bollinger band",
			})
		case last.Close >= a.Bands.Upper:
			a.Findings = append(a.Findings, Finding{
				Kind: "bollinger", Signal: AboveBand, Value: a.Bands.Upper,
				Message: "close at or above the upper Bollinger band",
			})
		}
	}

	if a.VolumeSMA.Ready && last.Volume > cfg.VolumeSpikeFactor*a.VolumeSMA.Value {
		a.Findings = append(a.Findings, Finding{
			Kind: "volume", Signal: VolumeSpike, Value: last.Volume,
			Message: fmt.Sprintf("volume %.0f above %.1fx average %.0f", last.Volume, cfg.VolumeSpikeFactor, a.VolumeSMA.Value),
		})
	}

	if sig, _ := ClassifySignal(a.ShortTermTrend, cfg.Trend); sig != cfg.Trend.Within {
		a.Findings = append(a.Findings, Finding{
			Kind: "trend", Signal: sig, Value: a.ShortTermTrend,
			Message: fmt.Sprintf("short-term trend %.1f%%", a.ShortTermTrend),
		})
	}

	return a, nil
}
