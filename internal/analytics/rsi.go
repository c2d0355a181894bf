package analytics

import "iter"

// RSI yields the Relative Strength Index with Wilder's smoothing, one Sample
// per input index. The first value is available once window price changes have
// been seen (index window); earlier samples are not ready.
//
// When the average loss is 0 the index is 100, or 50 if the average gain is
// also 0 (flat series). Ready values always lie in [0, 100].
func RSI(series []float64, window int) (iter.Seq2[int, Sample], error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	if err := checkSeries(series); err != nil {
		return nil, err
	}
	values := clone(series)
	p := float64(window)

	return func(yield func(int, Sample) bool) {
		var avgGain, avgLoss float64
		for i, v := range values {
			if i == 0 {
				if !yield(i, Sample{}) {
					return
				}
				continue
			}

			gain, loss := 0.0, 0.0
			if delta := v - values[i-1]; delta > 0 {
				gain = delta
			} else {
				loss = -delta
			}

			switch {
			case i < window:
				avgGain += gain
				avgLoss += loss
				if !yield(i, Sample{}) {
					return
				}
				continue
			case i == window:
				avgGain = (avgGain + gain) / p
				avgLoss = (avgLoss + loss) / p
			default:
				avgGain = (avgGain*(p-1) + gain) / p
				avgLoss = (avgLoss*(p-1) + loss) / p
			}

			if !yield(i, Sample{Value: relativeStrength(avgGain, avgLoss), Ready: true}) {
				return
			}
		}
	}, nil
}

func relativeStrength(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
