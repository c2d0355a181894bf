// Package monitor turns polled market data into reports and deduplicated alerts.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/kerim47/quantdesk/internal/binance"
	"github.com/kerim47/quantdesk/internal/logger"
	"github.com/kerim47/quantdesk/internal/models"
)

// KlineSource provides OHLCV candles.
type KlineSource interface {
	Klines(ctx context.Context, market binance.Market, symbol, interval string, limit int) ([]analytics.Bar, error)
}

// AlertStore persists alerts.
type AlertStore interface {
	AddAlert(alert *models.Alert) error
	MarkNotified(ids ...string) error
}

// Sender delivers grouped alerts.
type Sender interface {
	Send(groups []models.AlertGroup) error
}

// Stream is one symbol/market/interval kline feed.
type Stream struct {
	Symbol   string
	Market   binance.Market
	Interval string
}

func (s Stream) String() string {
	return fmt.Sprintf("%s %s %s", s.Symbol, s.Market, s.Interval)
}

// key identifies a stream regardless of symbol case.
func (s Stream) key() string {
	return fmt.Sprintf("%s %s %s", strings.ToUpper(s.Symbol), s.Market, s.Interval)
}

type Config struct {
	Analysis analytics.AnalysisConfig
	Limit    int
	Cooldown time.Duration
}

type notifiedRecord struct {
	Signal analytics.Signal
	SentAt time.Time
}

// Monitor analyses kline streams and decides which findings become alerts.
type Monitor struct {
	source KlineSource
	alerts AlertStore
	config Config
	now    func() time.Time

	mu              sync.RWMutex
	reports         map[string]*models.AnalysisReport
	notifiedSignals map[string]notifiedRecord
}

func New(source KlineSource, alerts AlertStore, config Config) *Monitor {
	return &Monitor{
		source:          source,
		alerts:          alerts,
		config:          config,
		now:             time.Now,
		reports:         make(map[string]*models.AnalysisReport),
		notifiedSignals: make(map[string]notifiedRecord),
	}
}

// Poll analyses one stream and returns its report with the alerts that
// survived the cooldown filter. Returned alerts are already persisted.
func (m *Monitor) Poll(ctx context.Context, stream Stream) (*models.AnalysisReport, []models.Alert, error) {
	bars, err := m.source.Klines(ctx, stream.Market, stream.Symbol, stream.Interval, m.config.Limit)
	if err != nil {
		return nil, nil, err
	}
	analysis, err := analytics.Analyze(bars, m.config.Analysis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to analyse %s: %w", stream, err)
	}

	now := m.now()
	report := &models.AnalysisReport{
		Symbol:      stream.Symbol,
		Market:      string(stream.Market),
		Interval:    stream.Interval,
		Analysis:    analysis,
		GeneratedAt: now,
	}
	m.mu.Lock()
	m.reports[stream.key()] = report
	m.mu.Unlock()

	logger.Debug("Analysed %s: %d bars close=%.4f rsi=%.2f findings=%d",
		stream, analysis.Bars, analysis.Close, analysis.RSI.Value, len(analysis.Findings))

	candidates := make([]models.Alert, 0, len(analysis.Findings))
	for _, f := range analysis.Findings {
		candidates = append(candidates, models.Alert{
			Symbol:     stream.Symbol,
			Market:     string(stream.Market),
			Interval:   stream.Interval,
			Kind:       f.Kind,
			Signal:     f.Signal,
			Value:      f.Value,
			Detail:     f.Message,
			DetectedAt: now,
		})
	}

	fresh := m.FilterRecentlySent(candidates)
	stored := fresh[:0]
	for i := range fresh {
		if m.alerts != nil {
			if err := m.alerts.AddAlert(&fresh[i]); err != nil {
				logger.Warn("Failed to store alert %s: %v", fresh[i].Key(), err)
				continue
			}
		}
		stored = append(stored, fresh[i])
	}
	return report, stored, nil
}

// SymbolReports returns the latest analysis of every stream of symbol.
func (m *Monitor) SymbolReports(symbol string) []*models.AnalysisReport {
	var out []*models.AnalysisReport
	for _, r := range m.Reports() {
		if strings.EqualFold(r.Symbol, symbol) {
			out = append(out, r)
		}
	}
	return out
}

// Reports returns the latest analysis of every stream, ordered by symbol,
// market and interval.
func (m *Monitor) Reports() []*models.AnalysisReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.AnalysisReport, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		return a.Interval < b.Interval
	})
	return out
}

// GroupBySymbol groups alerts per symbol, symbols in alphabetical order.
func GroupBySymbol(alerts []models.Alert) []models.AlertGroup {
	groups := make(map[string]*models.AlertGroup)
	for _, alert := range alerts {
		if _, exists := groups[alert.Symbol]; !exists {
			groups[alert.Symbol] = &models.AlertGroup{Symbol: alert.Symbol}
		}
		groups[alert.Symbol].Alerts = append(groups[alert.Symbol].Alerts, alert)
	}

	result := make([]models.AlertGroup, 0, len(groups))
	for _, group := range groups {
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}

// FilterRecentlySent drops alerts that repeat the signal last sent for the
// same stream and kind within the cooldown. A changed signal always passes.
func (m *Monitor) FilterRecentlySent(alerts []models.Alert) []models.Alert {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Alert
	for _, alert := range alerts {
		rec, exists := m.notifiedSignals[alert.Key()]
		if exists && now.Sub(rec.SentAt) < m.config.Cooldown && rec.Signal == alert.Signal {
			continue
		}
		result = append(result, alert)
	}
	return result
}

// RecordNotified starts the cooldown of every alert in groups.
func (m *Monitor) RecordNotified(groups []models.AlertGroup) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, group := range groups {
		for _, alert := range group.Alerts {
			m.notifiedSignals[alert.Key()] = notifiedRecord{Signal: alert.Signal, SentAt: now}
		}
	}
}

// Deliver starts the cooldown of alerts and then sends them grouped by symbol.
// The cooldown starts even when the send fails, so the next poll does not
// store the same alerts again. Sent alerts are marked notified in the store.
func (m *Monitor) Deliver(alerts []models.Alert, sender Sender) error {
	if len(alerts) == 0 {
		return nil
	}
	groups := GroupBySymbol(alerts)
	m.RecordNotified(groups)
	if sender == nil {
		return nil
	}
	if err := sender.Send(groups); err != nil {
		return fmt.Errorf("failed to send %d alerts: %w", len(alerts), err)
	}
	if m.alerts == nil {
		return nil
	}
	ids := make([]string, len(alerts))
	for i, alert := range alerts {
		ids[i] = alert.ID
	}
	if err := m.alerts.MarkNotified(ids...); err != nil {
		logger.Warn("Failed to mark alerts notified: %v", err)
	}
	return nil
}
