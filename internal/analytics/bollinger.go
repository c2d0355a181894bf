package analytics

import (
	"iter"
	"math"
)

// Band is one Bollinger Bands point.
type Band struct {
	Middle float64 `json:"middle"`
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
	Ready  bool    `json:"ready"`
}

// BollingerBands yields the simple moving average of each window plus and minus
// numStdDev population standard deviations. Points before the window is full
// are not ready.
func BollingerBands(series []float64, window int, numStdDev float64) (iter.Seq2[int, Band], error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	if numStdDev < 0 || math.IsNaN(numStdDev) || math.IsInf(numStdDev, 0) {
		return nil, invalid("num_std_dev", "must be a non-negative finite number, got %v", numStdDev)
	}
	if err := checkSeries(series); err != nil {
		return nil, err
	}
	values := clone(series)

	return func(yield func(int, Band) bool) {
		for i := range values {
			if i < window-1 {
				if !yield(i, Band{}) {
					return
				}
				continue
			}
			mean, sd := meanStdDev(values[i-window+1 : i+1])
			b := Band{
				Middle: mean,
				Upper:  mean + numStdDev*sd,
				Lower:  mean - numStdDev*sd,
				Ready:  true,
			}
			if !yield(i, b) {
				return
			}
		}
	}, nil
}

// meanStdDev works on values shifted by the first element, so a constant
// window yields exactly its value and zero deviation.
func meanStdDev(window []float64) (float64, float64) {
	origin := window[0]
	var sum float64
	for _, v := range window {
		sum += v - origin
	}
	shifted := sum / float64(len(window))

	var variance float64
	for _, v := range window {
		d := v - origin - shifted
		variance += d * d
	}
	return origin + shifted, math.Sqrt(variance / float64(len(window)))
}
