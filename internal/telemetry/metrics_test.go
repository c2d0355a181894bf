package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kerim47/quantdesk/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCycle(t *testing.T) {
	m := New()
	m.ObserveCycle("rates", 20*time.Millisecond, nil)
	m.ObserveCycle("rates", 10*time.Millisecond, errors.New("boom"))
	m.ObserveCycle("rates", 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(m.CyclesTotal.WithLabelValues("rates", "ok")); got != 2 {
		t.Errorf("ok cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CyclesTotal.WithLabelValues("rates", "error")); got != 1 {
		t.Errorf("error cycles = %v, want 1", got)
	}
}

func TestObserveReports(t *testing.T) {
	m := New()
	m.ObserveCurrencies(&models.CurrencyReport{
		Quote:  "TRY",
		Quotes: []models.CurrencyQuote{{Code: "USD", Value: 32.1}},
	})
	m.ObserveAlerts([]models.Alert{{Symbol: "BTCUSDT", Kind: "rsi"}, {Symbol: "BTCUSDT", Kind: "rsi"}})

	if got := testutil.ToFloat64(m.LastValue.WithLabelValues("USD/TRY")); got != 32.1 {
		t.Errorf("USD/TRY gauge = %v", got)
	}
	if got := testutil.ToFloat64(m.AlertsTotal.WithLabelValues("BTCUSDT", "rsi")); got != 2 {
		t.Errorf("alerts = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("/health", 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `quantdesk_http_requests_total{route="/health",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}
