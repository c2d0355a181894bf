package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kerim47/quantdesk/internal/httpx"
)

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "k" || q.Get("language") != "tr-TR" {
			t.Errorf("query = %v", q)
		}
		switch r.URL.Path {
		case "/search/movie":
			if q.Get("query") != "matrix" || q.Get("page") != "2" {
				t.Errorf("search query = %v", q)
			}
			_, _ = w.Write([]byte(`{"page":2,"total_pages":3,"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-30","vote_average":8.2,"poster_path":"/p.jpg"}]}`))
		case "/movie/popular":
			_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "", httpx.Config{MaxRetries: 1})

	page, err := c.Search(context.Background(), " matrix ", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != 603 {
		t.Fatalf("results = %+v", page.Results)
	}
	m := page.Results[0]
	if m.Year() != "1999" || m.PosterURL() != ImageBaseURL+"/p.jpg" {
		t.Errorf("Year=%s PosterURL=%s", m.Year(), m.PosterURL())
	}

	popular, err := c.Popular(context.Background(), 0)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(popular.Results) != 2 {
		t.Errorf("popular results = %d, want 2", len(popular.Results))
	}

	if _, err := c.Search(context.Background(), "   ", 1); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestMovieDefaults(t *testing.T) {
	var m Movie
	if m.Year() != "N/A" || m.PosterURL() != "" {
		t.Errorf("zero movie: Year=%q PosterURL=%q", m.Year(), m.PosterURL())
	}
}

func TestBrowser_NewerSearchWins(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "slow" {
			<-release
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"` + r.URL.Query().Get("query") + `"}]}`))
	}))
	defer srv.Close()

	var applied []string
	b := NewBrowser(NewClient(srv.URL, "k", "en-US", httpx.Config{MaxRetries: 1}), func(r Result) {
		applied = append(applied, r.Query)
	})

	slowDone := make(chan bool, 1)
	go func() {
		_, ok, err := b.Search(context.Background(), "slow", 1)
		if err != nil {
			t.Errorf("slow search: %v", err)
		}
		slowDone <- ok
	}()

	// Let the slow request take its ticket first.
	time.Sleep(50 * time.Millisecond)
	_, ok, err := b.Search(context.Background(), "fast", 1)
	if err != nil || !ok {
		t.Fatalf("fast search: ok=%v err=%v", ok, err)
	}
	close(release)

	if ok := <-slowDone; ok {
		t.Error("slow older search replaced the newer result")
	}
	cur, _ := b.Current()
	if cur.Query != "fast" {
		t.Errorf("current query = %q, want fast", cur.Query)
	}
	if len(applied) != 1 || applied[0] != "fast" {
		t.Errorf("applied = %v, want [fast]", applied)
	}
}
