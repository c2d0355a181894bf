package models

import (
	"errors"
	"time"

	"github.com/kerim47/quantdesk/internal/analytics"
)

// Alert is a persisted signal worth notifying about.
type Alert struct {
	ID         string           `json:"id" db:"id"`
	Symbol     string           `json:"symbol" db:"symbol"`
	Market     string           `json:"market" db:"market"`
	Interval   string           `json:"interval" db:"kline_interval"`
	Kind       string           `json:"kind" db:"kind"`
	Signal     analytics.Signal `json:"signal" db:"signal"`
	Value      float64          `json:"value" db:"value"`
	Detail     string           `json:"detail" db:"detail"`
	DetectedAt time.Time        `json:"detected_at" db:"detected_at"`
	Notified   bool             `json:"notified" db:"notified"`
}

// Validate checks alert field constraints.
func (a *Alert) Validate() error {
	if a.ID == "" {
		return errors.New("alert ID must not be empty")
	}
	if a.Symbol == "" {
		return errors.New("alert symbol must not be empty")
	}
	if a.Signal == "" || a.Signal == analytics.Unavailable {
		return errors.New("alert signal must be a concrete label")
	}
	if a.DetectedAt.IsZero() {
		return errors.New("alert detection time must be set")
	}
	return nil
}

// Key identifies the condition an alert reports, for cooldown tracking. Streams
// of one symbol on different markets or intervals keep separate cooldowns.
func (a *Alert) Key() string {
	return a.Symbol + ":" + a.Market + ":" + a.Interval + ":" + a.Kind
}

// AlertGroup is the alerts of one symbol sent together.
type AlertGroup struct {
	Symbol string  `json:"symbol"`
	Alerts []Alert `json:"alerts"`
}
