// Package analytics computes descriptive, technical and classification statistics
// over in-memory observations.
//
// Every function is a pure function of its arguments: inputs are never mutated,
// no state is retained between calls, and all functions are safe for concurrent
// use. Numerical edge cases (empty windows, zero denominators) resolve to
// documented sentinels instead of errors; only contract violations return a
// *ValidationError.
package analytics

import (
	"errors"
	"fmt"
	"math"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a caller contract violation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func checkWindow(window int) error {
	if window < 1 {
		return invalid("window", "must be at least 1, got %d", window)
	}
	return nil
}

func checkSeries(series []float64) error {
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("series", "non-finite value at index %d", i)
		}
	}
	return nil
}

// safeDiv returns num/den, or 0 when den is 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
