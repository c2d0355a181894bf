// Package telemetry exposes Prometheus metrics for polling, alerts and the API.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kerim47/quantdesk/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal   *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec
	AlertsTotal   *prometheus.CounterVec
	LastValue     *prometheus.GaugeVec
	RequestsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantdesk_poll_cycles_total",
			Help: "Poll cycles by task and result",
		}, []string{"task", "result"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantdesk_poll_cycle_duration_seconds",
			Help:    "Poll cycle duration by task",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantdesk_alerts_total",
			Help: "Alerts raised by symbol and kind",
		}, []string{"symbol", "kind"}),
		LastValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quantdesk_last_observation",
			Help: "Latest observed value by symbol",
		}, []string{"symbol"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantdesk_http_requests_total",
			Help: "API requests by route and status",
		}, []string{"route", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CyclesTotal,
		m.CycleDuration,
		m.AlertsTotal,
		m.LastValue,
		m.RequestsTotal,
	)
	return m
}

// ObserveCycle records one scheduler cycle.
func (m *Metrics) ObserveCycle(task string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CyclesTotal.WithLabelValues(task, result).Inc()
	m.CycleDuration.WithLabelValues(task).Observe(duration.Seconds())
}

func (m *Metrics) ObserveAlerts(alerts []models.Alert) {
	for _, a := range alerts {
		m.AlertsTotal.WithLabelValues(a.Symbol, a.Kind).Inc()
	}
}

// ObserveCurrencies sets the gauge of every quote in report.
func (m *Metrics) ObserveCurrencies(report *models.CurrencyReport) {
	for _, q := range report.Quotes {
		m.LastValue.WithLabelValues(q.Code + "/" + report.Quote).Set(q.Value)
	}
}

func (m *Metrics) ObserveAnalysis(report *models.AnalysisReport) {
	m.LastValue.WithLabelValues(report.Symbol).Set(report.Analysis.Close)
}

func (m *Metrics) ObserveRequest(route string, status int) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
