// Package tmdb searches and lists movies through The Movie Database v3 API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kerim47/quantdesk/internal/httpx"
)

// ImageBaseURL prefixes poster paths.
const ImageBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie is one search or listing result.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
	PosterPath    string  `json:"poster_path"`
}

// Year returns the release year, or "N/A" when the date is unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return "N/A"
	}
	return m.ReleaseDate[:4]
}

// PosterURL returns the full poster URL, or "" when the movie has none.
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return ImageBaseURL + m.PosterPath
}

// Page is one page of results.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// Client provides access to the TMDB API
type Client struct {
	apiURL   string
	apiKey   string
	language string
	http     *httpx.Client
}

// NewClient creates a new TMDB client. An empty language selects tr-TR.
func NewClient(apiURL, apiKey, language string, cfg httpx.Config) *Client {
	if language == "" {
		language = "tr-TR"
	}
	return &Client{
		apiURL:   strings.TrimRight(apiURL, "/"),
		apiKey:   apiKey,
		language: language,
		http:     httpx.New(cfg),
	}
}

// Search finds movies whose title matches query.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	return c.get(ctx, "/search/movie", params, page)
}

// Popular lists the currently popular movies.
func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	return c.get(ctx, "/movie/popular", url.Values{}, page)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	params.Set("page", strconv.Itoa(page))

	var p Page
	if err := c.http.GetJSON(ctx, c.apiURL+endpoint, params, &p); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	return &p, nil
}
