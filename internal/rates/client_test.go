package rates

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kerim47/quantdesk/internal/httpx"
)

const latestUSD = `{
  "result": "success",
  "base_code": "USD",
  "time_last_update_unix": 1700000000,
  "conversion_rates": {"USD": 1, "TRY": 32, "EUR": 0.8, "JPY": 160}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "secret", httpx.Config{MaxRetries: 1, RetryDelayBase: time.Millisecond})
}

func TestLatest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/secret/latest/USD" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(latestUSD))
	})

	table, err := c.Latest(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if table.Base != "USD" || len(table.Rates) != 4 {
		t.Errorf("table = %+v", table)
	}
	if !table.UpdatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("UpdatedAt = %v", table.UpdatedAt)
	}
}

func TestLatest_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
	})
	if _, err := c.Latest(context.Background(), "USD"); err == nil {
		t.Error("expected error for API error result")
	}
}

func TestTableCross(t *testing.T) {
	table := &Table{Base: "USD", Rates: map[string]float64{"USD": 1, "TRY": 32, "EUR": 0.8, "JPY": 160}}

	tests := []struct {
		code, quote string
		want        float64
	}{
		{"USD", "TRY", 32},
		{"EUR", "TRY", 40},
		{"JPY", "TRY", 0.2},
		{"TRY", "TRY", 1},
		{"EUR", "USD", 1.25},
	}
	for _, tt := range tests {
		got, err := table.Cross(tt.code, tt.quote)
		if err != nil {
			t.Fatalf("Cross(%s, %s): %v", tt.code, tt.quote, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Cross(%s, %s) = %v, want %v", tt.code, tt.quote, got, tt.want)
		}
	}

	if _, err := table.Cross("GBP", "TRY"); !errors.Is(err, ErrUnknownCurrency) {
		t.Errorf("missing code: err = %v", err)
	}
	if _, err := table.Cross("USD", "GBP"); !errors.Is(err, ErrUnknownCurrency) {
		t.Errorf("missing quote: err = %v", err)
	}
}
