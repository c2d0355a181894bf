// Package rates fetches currency conversion tables from an exchangerate-api
// compatible endpoint.
package rates

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kerim47/quantdesk/internal/httpx"
)

// ErrUnknownCurrency is returned when a conversion table lacks a currency.
var ErrUnknownCurrency = errors.New("unknown currency")

// Client provides access to the exchange rate API
type Client struct {
	apiURL string
	apiKey string
	http   *httpx.Client
}

// NewClient creates a new exchange rate client
func NewClient(apiURL, apiKey string, cfg httpx.Config) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		http:   httpx.New(cfg),
	}
}

// latestResponse is the /latest payload.
type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	TimeLastUpdate  int64              `json:"time_last_update_unix"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// Table is one conversion table: units of each currency per one unit of Base.
type Table struct {
	Base      string
	Rates     map[string]float64
	UpdatedAt time.Time
}

// Latest retrieves the current conversion table for base.
func (c *Client) Latest(ctx context.Context, base string) (*Table, error) {
	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s", c.apiURL, url.PathEscape(c.apiKey), url.PathEscape(strings.ToUpper(base)))

	var resp latestResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	if resp.Result != "success" {
		return nil, fmt.Errorf("rate API error: %s", resp.ErrorType)
	}
	if len(resp.ConversionRates) == 0 {
		return nil, errors.New("rate API returned an empty table")
	}

	return &Table{
		Base:      resp.BaseCode,
		Rates:     resp.ConversionRates,
		UpdatedAt: time.Unix(resp.TimeLastUpdate, 0),
	}, nil
}

// Cross returns the price of one unit of code expressed in quote.
func (t *Table) Cross(code, quote string) (float64, error) {
	from, ok := t.Rates[code]
	if !ok || from == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	to, ok := t.Rates[quote]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, quote)
	}
	return to / from, nil
}
