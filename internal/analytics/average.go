package analytics

import (
	"fmt"
	"iter"
)

// Sample is one output point aligned with an input index. Ready is false while
// the window is still filling; Value is then 0 and carries no information.
type Sample struct {
	Value float64 `json:"value"`
	Ready bool    `json:"ready"`
}

// MAKind selects the moving average flavour.
type MAKind int

const (
	Simple MAKind = iota
	Exponential
)

func (k MAKind) String() string {
	switch k {
	case Simple:
		return "SMA"
	case Exponential:
		return "EMA"
	default:
		return fmt.Sprintf("MAKind(%d)", int(k))
	}
}

// MovingAverage yields one Sample per input index. The first window-1 samples
// are not ready. The exponential average is seeded with the simple average of
// the first window values and uses the multiplier 2/(window+1).
//
// The series is copied, so later changes by the caller do not leak into the
// sequence.
func MovingAverage(series []float64, window int, kind MAKind) (iter.Seq2[int, Sample], error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	if kind != Simple && kind != Exponential {
		return nil, invalid("kind", "unknown moving average %v", kind)
	}
	if err := checkSeries(series); err != nil {
		return nil, err
	}
	values := clone(series)

	if kind == Simple {
		return sma(values, window), nil
	}
	return ema(values, window), nil
}

// sma keeps its running sum relative to the first value so that a constant
// stretch of input averages to exactly that value.
func sma(values []float64, window int) iter.Seq2[int, Sample] {
	return func(yield func(int, Sample) bool) {
		if len(values) == 0 {
			return
		}
		origin := values[0]
		var sum float64
		for i, v := range values {
			sum += v - origin
			if i >= window {
				sum -= values[i-window] - origin
			}
			s := Sample{}
			if i >= window-1 {
				s = Sample{Value: origin + sum/float64(window), Ready: true}
			}
			if !yield(i, s) {
				return
			}
		}
	}
}

func ema(values []float64, window int) iter.Seq2[int, Sample] {
	multiplier := 2.0 / float64(window+1)
	return func(yield func(int, Sample) bool) {
		var sum, current float64
		for i, v := range values {
			switch {
			case i < window-1:
				sum += v - values[0]
				if !yield(i, Sample{}) {
					return
				}
				continue
			case i == window-1:
				sum += v - values[0]
				current = values[0] + sum/float64(window)
			default:
				current += (v - current) * multiplier
			}
			if !yield(i, Sample{Value: current, Ready: true}) {
				return
			}
		}
	}
}

// Collect drains a sequence into a slice indexed like the input.
func Collect[T any](seq iter.Seq2[int, T]) []T {
	var out []T
	for _, v := range seq {
		out = append(out, v)
	}
	return out
}

// Last returns the final element of a sequence and whether there was one.
func Last[T any](seq iter.Seq2[int, T]) (T, bool) {
	var last T
	var ok bool
	for _, v := range seq {
		last, ok = v, true
	}
	return last, ok
}

func clone(series []float64) []float64 {
	out := make([]float64, len(series))
	copy(out, series)
	return out
}
