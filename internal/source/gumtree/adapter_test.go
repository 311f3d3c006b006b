package gumtree

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/source"
)

const resultsPage = `<html><body>
<article data-q="search-result">
  <a href="/p/guitar-pedal/strymon-ob-1/1234"><h2 data-q="tile-title">Strymon OB-1 compressor</h2></a>
  <span data-q="tile-price">£200</span>
  <p data-q="tile-description">Boost and compressor pedal, boxed</p>
  <span data-q="tile-location">Bristol</span>
  <span data-q="tile-datePosted">3 days ago</span>
  <img src="https://img.gumtree.com/1.jpg">
</article>
<article data-q="search-result">
  <a href="https://www.gumtree.com/p/amps/old-amp/5678"><h2 data-q="tile-title">Old amp</h2></a>
  <span data-q="tile-price">£50</span>
</article>
<article data-q="search-result">
  <a href="/p/broken/9999"><h2 data-q="tile-title"></h2></a>
</article>
</body></html>`

func TestSearch(t *testing.T) {
	t.Run("extracts listings and resolves relative links", func(t *testing.T) {
		var gotQuery, gotLocation string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			gotLocation = r.URL.Query().Get("search_location")
			w.Write([]byte(resultsPage))
		}))
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL}, zap.NewNop())

		listings, err := a.Search(context.Background(), "strymon ob-1", "bristol", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotQuery != "strymon ob-1" || gotLocation != "bristol" {
			t.Errorf("query = %q, location = %q", gotQuery, gotLocation)
		}
		if len(listings) != 2 {
			t.Fatalf("got %d listings, want 2", len(listings))
		}

		first := listings[0]
		if first.Title != "Strymon OB-1 compressor" {
			t.Errorf("title = %q", first.Title)
		}
		if first.Link != srv.URL+"/p/guitar-pedal/strymon-ob-1/1234" {
			t.Errorf("relative link not resolved: %q", first.Link)
		}
		if first.Description != "Boost and compressor pedal, boxed" {
			t.Errorf("description = %q", first.Description)
		}
		if first.Location != "Bristol" {
			t.Errorf("location = %q", first.Location)
		}

		if listings[1].Link != "https://www.gumtree.com/p/amps/old-amp/5678" {
			t.Errorf("absolute link changed: %q", listings[1].Link)
		}
	})

	t.Run("bad status fails the search", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL}, zap.NewNop())

		if _, err := a.Search(context.Background(), "anything", "", 1); !errors.Is(err, source.ErrBadStatus) {
			t.Errorf("got %v, want ErrBadStatus", err)
		}
	})
}

func TestGeoPinnedUK(t *testing.T) {
	if !New(Config{}, zap.NewNop()).GeoPinnedUK() {
		t.Error("gumtree is always UK-scoped")
	}
}
