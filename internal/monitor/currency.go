package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/kerim47/quantdesk/internal/logger"
	"github.com/kerim47/quantdesk/internal/models"
	"github.com/kerim47/quantdesk/internal/rates"
	"github.com/kerim47/quantdesk/internal/series"
)

// RateSource provides conversion tables.
type RateSource interface {
	Latest(ctx context.Context, base string) (*rates.Table, error)
}

// ObservationStore persists tracker history.
type ObservationStore interface {
	AddObservation(o *models.Observation) error
	RecentObservations(symbol string, n int) ([]models.Observation, error)
}

type CurrencyConfig struct {
	Base       string
	Quote      string
	Currencies []string
	History    int
	Trend      analytics.Thresholds
}

// Currency tracks a set of currencies against one quote currency.
type Currency struct {
	source RateSource
	store  ObservationStore
	config CurrencyConfig
	now    func() time.Time

	mu     sync.RWMutex
	series map[string]*series.Series
	last   *models.CurrencyReport
}

// NewCurrency creates the tracker and restores each currency's history from store.
func NewCurrency(source RateSource, store ObservationStore, config CurrencyConfig) *Currency {
	c := &Currency{
		source: source,
		store:  store,
		config: config,
		now:    time.Now,
		series: make(map[string]*series.Series, len(config.Currencies)),
	}

	restored := 0
	for _, code := range config.Currencies {
		s := series.New(config.History)
		c.series[code] = s
		if store == nil {
			continue
		}
		obs, err := store.RecentObservations(c.Symbol(code), s.Cap())
		if err != nil {
			logger.Warn("Failed to load history for %s: %v", c.Symbol(code), err)
			continue
		}
		for _, o := range obs {
			s.Append(o.ObservedAt, o.Value)
		}
		restored += len(obs)
	}
	logger.Info("Loaded %d persisted observations for %d currencies", restored, len(config.Currencies))
	return c
}

// Symbol is the storage key of code, e.g. "USD/TRY".
func (c *Currency) Symbol(code string) string {
	return code + "/" + c.config.Quote
}

// Poll fetches one table, extends every series and builds a report. A currency
// missing from the table is skipped with a warning.
func (c *Currency) Poll(ctx context.Context) (*models.CurrencyReport, error) {
	table, err := c.source.Latest(ctx, c.config.Base)
	if err != nil {
		return nil, err
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	report := &models.CurrencyReport{
		Base:      strings.ToUpper(c.config.Base),
		Quote:     c.config.Quote,
		Quotes:    make([]models.CurrencyQuote, 0, len(c.config.Currencies)),
		FetchedAt: now,
	}
	for _, code := range c.config.Currencies {
		value, err := table.Cross(code, c.config.Quote)
		if err != nil {
			logger.Warn("Skipping %s: %v", code, err)
			continue
		}
		s := c.series[code]
		s.Append(now, value)

		if c.store != nil {
			obs := &models.Observation{Symbol: c.Symbol(code), Value: value, ObservedAt: now}
			if err := c.store.AddObservation(obs); err != nil {
				logger.Warn("Failed to persist %s: %v", obs.Symbol, err)
			}
		}

		q, err := c.quote(code, s)
		if err != nil {
			return nil, fmt.Errorf("failed to summarise %s: %w", code, err)
		}
		report.Quotes = append(report.Quotes, q)
	}
	if len(report.Quotes) == 0 {
		return nil, fmt.Errorf("no tracked currency found in %s table", table.Base)
	}

	c.last = report
	logger.Debug("Currency report: %d quotes against %s", len(report.Quotes), c.config.Quote)
	return report, nil
}

func (c *Currency) quote(code string, s *series.Series) (models.CurrencyQuote, error) {
	stats, err := analytics.ComputeWindowStats(s.Values(), 0)
	if err != nil {
		return models.CurrencyQuote{}, err
	}
	signal, err := analytics.ClassifySignal(stats.PercentChange, c.config.Trend)
	if err != nil {
		return models.CurrencyQuote{}, err
	}
	last, _ := s.Last()
	trend := s.Trend()
	return models.CurrencyQuote{
		Code:   code,
		Value:  last.Value,
		Stats:  stats,
		Trend:  trend,
		Arrow:  trend.Arrow(),
		Signal: signal,
	}, nil
}

// Latest returns the most recent report.
func (c *Currency) Latest() (*models.CurrencyReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.last != nil
}

// Prime serves report as the latest one until the first poll completes.
// It reports false when a report is already present.
func (c *Currency) Prime(report *models.CurrencyReport) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if report == nil || c.last != nil {
		return false
	}
	c.last = report
	return true
}

// History returns the stored points of code, oldest first.
func (c *Currency) History(code string) ([]series.Point, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.series[code]
	if !ok {
		return nil, false
	}
	return s.Points(), true
}
