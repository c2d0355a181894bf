package analytics

import "math"

// Signal is a qualitative label attached to a computed value for display.
type Signal string

const (
	Oversold    Signal = "oversold"
	Neutral     Signal = "neutral"
	Overbought  Signal = "overbought"
	TrendUp     Signal = "trend_up"
	TrendFlat   Signal = "trend_flat"
	TrendDown   Signal = "trend_down"
	BelowBand   Signal = "below_band"
	InsideBand  Signal = "inside_band"
	AboveBand   Signal = "above_band"
	CrossAbove  Signal = "cross_above"
	CrossBelow  Signal = "cross_below"
	VolumeSpike Signal = "volume_spike"
	Unavailable Signal = "unavailable"
)

// Thresholds splits the real line into three labelled zones. Values strictly
// below Lower map to Below, values strictly above Upper map to Above, anything
// else maps to Within.
type Thresholds struct {
	Lower  float64 `json:"lower" mapstructure:"lower"`
	Upper  float64 `json:"upper" mapstructure:"upper"`
	Below  Signal  `json:"below" mapstructure:"below"`
	Within Signal  `json:"within" mapstructure:"within"`
	Above  Signal  `json:"above" mapstructure:"above"`
}

// RSIThresholds labels an oscillator as oversold/neutral/overbought.
func RSIThresholds(oversold, overbought float64) Thresholds {
	return Thresholds{Lower: oversold, Upper: overbought, Below: Oversold, Within: Neutral, Above: Overbought}
}

// TrendThresholds labels a percent change as down/flat/up.
func TrendThresholds(down, up float64) Thresholds {
	return Thresholds{Lower: down, Upper: up, Below: TrendDown, Within: TrendFlat, Above: TrendUp}
}

// Validate rejects inverted or non-finite bounds and missing labels.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Lower) || math.IsNaN(t.Upper) {
		return invalid("thresholds", "bounds must not be NaN")
	}
	if t.Lower > t.Upper {
		return invalid("thresholds", "lower %v exceeds upper %v", t.Lower, t.Upper)
	}
	if t.Below == "" || t.Within == "" || t.Above == "" {
		return invalid("thresholds", "every zone needs a label")
	}
	return nil
}

// ClassifySignal maps value to the label of the zone it falls in.
func ClassifySignal(value float64, t Thresholds) (Signal, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if math.IsNaN(value) {
		return Unavailable, nil
	}
	switch {
	case value < t.Lower:
		return t.Below, nil
	case value > t.Upper:
		return t.Above, nil
	default:
		return t.Within, nil
	}
}

// ClassifySample is ClassifySignal for a Sample; samples that are not ready
// are Unavailable.
func ClassifySample(s Sample, t Thresholds) (Signal, error) {
	if !s.Ready {
		if err := t.Validate(); err != nil {
			return "", err
		}
		return Unavailable, nil
	}
	return ClassifySignal(s.Value, t)
}
