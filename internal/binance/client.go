// Package binance fetches OHLCV candles from the public Binance spot and
// USD-M futures REST endpoints.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/kerim47/quantdesk/internal/httpx"
)

// Market selects the REST endpoint family.
type Market string

const (
	Spot    Market = "SPOT"
	Futures Market = "FUTURES"
)

// ParseMarket accepts market names case-insensitively.
func ParseMarket(s string) (Market, error) {
	switch m := Market(strings.ToUpper(s)); m {
	case Spot, Futures:
		return m, nil
	default:
		return "", fmt.Errorf("unknown market %q", s)
	}
}

// Client provides access to the kline endpoints
type Client struct {
	spotURL    string
	futuresURL string
	http       *httpx.Client
}

// NewClient creates a new kline client
func NewClient(spotURL, futuresURL string, cfg httpx.Config) *Client {
	return &Client{
		spotURL:    strings.TrimRight(spotURL, "/"),
		futuresURL: strings.TrimRight(futuresURL, "/"),
		http:       httpx.New(cfg),
	}
}

// Klines returns up to limit most recent candles, oldest first.
func (c *Client) Klines(ctx context.Context, market Market, symbol, interval string, limit int) ([]analytics.Bar, error) {
	var endpoint string
	switch market {
	case Spot:
		endpoint = c.spotURL + "/api/v3/klines"
	case Futures:
		endpoint = c.futuresURL + "/fapi/v1/klines"
	default:
		return nil, fmt.Errorf("unknown market %q", market)
	}

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("interval", interval)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var raw [][]any
	if err := c.http.GetJSON(ctx, endpoint, params, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s klines: %w", market, symbol, err)
	}

	bars := make([]analytics.Bar, 0, len(raw))
	for _, item := range raw {
		// open time, open, high, low, close, volume, close time, ...
		if len(item) < 6 {
			continue
		}
		bars = append(bars, analytics.Bar{
			OpenTime: time.UnixMilli(toInt64(item[0])),
			Open:     toFloat(item[1]),
			High:     toFloat(item[2]),
			Low:      toFloat(item[3]),
			Close:    toFloat(item[4]),
			Volume:   toFloat(item[5]),
		})
	}
	return bars, nil
}

var pollIntervals = map[string]time.Duration{
	"1m":  10 * time.Second,
	"5m":  30 * time.Second,
	"15m": time.Minute,
	"1h":  5 * time.Minute,
	"4h":  10 * time.Minute,
	"1d":  time.Hour,
}

// PollInterval returns how often a stream of the given kline interval is
// refreshed. Unlisted intervals refresh every minute.
func PollInterval(interval string) time.Duration {
	if d, ok := pollIntervals[interval]; ok {
		return d
	}
	return time.Minute
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case json.Number:
		i, _ := t.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(t, 10, 64)
		return i
	default:
		return 0
	}
}
