package analytics

// WindowStats summarises the trailing window of a series.
type WindowStats struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
	// PercentChange spans the whole series, first to last observation.
	PercentChange float64 `json:"percent_change"`
}

// ComputeWindowStats returns mean, min and max over the last window elements of
// series. A window of 0, or one longer than the series, covers the whole series.
// An empty series yields the zero WindowStats.
func ComputeWindowStats(series []float64, window int) (WindowStats, error) {
	if window < 0 {
		return WindowStats{}, invalid("window", "must not be negative, got %d", window)
	}
	if err := checkSeries(series); err != nil {
		return WindowStats{}, err
	}
	if len(series) == 0 {
		return WindowStats{}, nil
	}

	tail := series
	if window > 0 && window < len(series) {
		tail = series[len(series)-window:]
	}

	stats := WindowStats{Min: tail[0], Max: tail[0], Count: len(tail)}
	var sum float64
	for _, v := range tail {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Mean = sum / float64(len(tail))
	stats.PercentChange = PercentChange(series[0], series[len(series)-1])
	return stats, nil
}

// PercentChange returns (to-from)/from*100, or 0 when from is 0.
func PercentChange(from, to float64) float64 {
	return safeDiv(to-from, from) * 100
}

// MeanPercentChange averages the step-to-step percent changes of the last n
// values. Steps whose base is 0 are skipped. Fewer than two values yields 0.
func MeanPercentChange(series []float64, n int) float64 {
	if n > 0 && n < len(series) {
		series = series[len(series)-n:]
	}
	var sum float64
	var steps int
	for i := 1; i < len(series); i++ {
		if series[i-1] == 0 {
			continue
		}
		sum += PercentChange(series[i-1], series[i])
		steps++
	}
	return safeDiv(sum, float64(steps))
}
