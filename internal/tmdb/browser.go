package tmdb

import (
	"context"

	"github.com/kerim47/quantdesk/internal/scheduler"
)

// Result is what a Browser shows: the request that produced it and its page.
type Result struct {
	Query string `json:"query"` // empty for the popular listing
	Page  *Page  `json:"page"`
}

// Browser keeps the result of the most recently issued request. Requests may
// overlap; a slow older request never replaces the result of a newer one.
type Browser struct {
	client *Client
	latest *scheduler.Latest[Result]
}

// NewBrowser wraps client. onResult, if non-nil, sees every accepted result.
func NewBrowser(client *Client, onResult func(Result)) *Browser {
	return &Browser{client: client, latest: scheduler.NewLatest(onResult)}
}

// Search runs a search and reports whether its result became current.
func (b *Browser) Search(ctx context.Context, query string, page int) (Result, bool, error) {
	ticket := b.latest.Submit()
	p, err := b.client.Search(ctx, query, page)
	if err != nil {
		return Result{}, false, err
	}
	r := Result{Query: query, Page: p}
	return r, b.latest.Deliver(ticket, r), nil
}

// Popular loads the popular listing and reports whether it became current.
func (b *Browser) Popular(ctx context.Context, page int) (Result, bool, error) {
	ticket := b.latest.Submit()
	p, err := b.client.Popular(ctx, page)
	if err != nil {
		return Result{}, false, err
	}
	r := Result{Page: p}
	return r, b.latest.Deliver(ticket, r), nil
}

// Current returns the newest accepted result.
func (b *Browser) Current() (Result, bool) {
	return b.latest.Value()
}
