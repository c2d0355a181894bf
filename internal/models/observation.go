// Package models defines the core domain entities: observations, reports and alerts.
package models

import (
	"errors"
	"math"
	"time"

	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/kerim47/quantdesk/internal/series"
)

// Observation is one polled value of a tracked symbol, e.g. "USD/TRY".
type Observation struct {
	Symbol     string    `json:"symbol" db:"symbol"`
	Value      float64   `json:"value" db:"value"`
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
}

// Validate checks observation field constraints.
func (o *Observation) Validate() error {
	if o.Symbol == "" {
		return errors.New("observation symbol must not be empty")
	}
	if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return errors.New("observation value must be finite")
	}
	if o.ObservedAt.IsZero() {
		return errors.New("observation time must be set")
	}
	if o.ObservedAt.After(time.Now().Add(time.Minute)) {
		return errors.New("observation time must not be in the future")
	}
	return nil
}

// CurrencyQuote is the tracker view of one currency against the quote currency.
type CurrencyQuote struct {
	Code   string                `json:"code"`
	Value  float64               `json:"value"`
	Stats  analytics.WindowStats `json:"stats"`
	Trend  series.Direction      `json:"trend"`
	Arrow  string                `json:"arrow"`
	Signal analytics.Signal      `json:"signal"`
}

// CurrencyReport is one tracker refresh.
type CurrencyReport struct {
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	Quotes    []CurrencyQuote `json:"quotes"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Find returns the entry for code.
func (r *CurrencyReport) Find(code string) (CurrencyQuote, bool) {
	for _, q := range r.Quotes {
		if q.Code == code {
			return q, true
		}
	}
	return CurrencyQuote{}, false
}

// AnalysisReport is one technical-analysis refresh of a kline stream.
type AnalysisReport struct {
	Symbol      string             `json:"symbol"`
	Market      string             `json:"market"`
	Interval    string             `json:"interval"`
	Analysis    analytics.Analysis `json:"analysis"`
	GeneratedAt time.Time          `json:"generated_at"`
}
