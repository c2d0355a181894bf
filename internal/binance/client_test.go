package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kerim47/quantdesk/internal/httpx"
)

const klinesBody = `[
  [1700000000000, "100.0", "110.5", "95.25", "105.0", "12.5", 1700000059999, "0", 10, "0", "0", "0"],
  [1700000060000, "105.0", "106.0", "104.0", "104.5", "3", 1700000119999, "0", 4, "0", "0", "0"],
  [1700000120000]
]`

func newTestServer(t *testing.T, wantPath string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "1m" || q.Get("limit") != "100" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(klinesBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestKlines(t *testing.T) {
	tests := []struct {
		market Market
		path   string
	}{
		{Spot, "/api/v3/klines"},
		{Futures, "/fapi/v1/klines"},
	}
	for _, tt := range tests {
		t.Run(string(tt.market), func(t *testing.T) {
			srv := newTestServer(t, tt.path)
			c := NewClient(srv.URL, srv.URL, httpx.Config{MaxRetries: 1})

			bars, err := c.Klines(context.Background(), tt.market, "btcusdt", "1m", 100)
			if err != nil {
				t.Fatalf("Klines: %v", err)
			}
			if len(bars) != 2 {
				t.Fatalf("got %d bars, want 2 (short rows skipped)", len(bars))
			}
			b := bars[0]
			if b.Open != 100 || b.High != 110.5 || b.Low != 95.25 || b.Close != 105 || b.Volume != 12.5 {
				t.Errorf("bar = %+v", b)
			}
			if !b.OpenTime.Equal(time.UnixMilli(1700000000000)) {
				t.Errorf("open time = %v", b.OpenTime)
			}
		})
	}
}

func TestKlines_UnknownMarket(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "http://127.0.0.1:1", httpx.Config{MaxRetries: 1})
	if _, err := c.Klines(context.Background(), Market("MARGIN"), "BTCUSDT", "1m", 10); err == nil {
		t.Error("expected error for unknown market")
	}
}

func TestParseMarket(t *testing.T) {
	if m, err := ParseMarket("futures"); err != nil || m != Futures {
		t.Errorf("ParseMarket(futures) = %v, %v", m, err)
	}
	if _, err := ParseMarket("options"); err == nil {
		t.Error("expected error for unknown market")
	}
}

func TestPollInterval(t *testing.T) {
	tests := []struct {
		interval string
		want     time.Duration
	}{
		{"1m", 10 * time.Second},
		{"5m", 30 * time.Second},
		{"15m", time.Minute},
		{"1h", 5 * time.Minute},
		{"4h", 10 * time.Minute},
		{"1d", time.Hour},
		{"3d", time.Minute},
	}
	for _, tt := range tests {
		if got := PollInterval(tt.interval); got != tt.want {
			t.Errorf("PollInterval(%s) = %v, want %v", tt.interval, got, tt.want)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"1.5", 1.5},
		{2.25, 2.25},
		{json.Number("3"), 3},
		{"bad", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := toFloat(tt.in); got != tt.want {
			t.Errorf("toFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
