package jsonapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/source"
)

func TestSearch(t *testing.T) {
	t.Run("envelope response", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{"listings": [
				{"title": "Strymon OB-1", "price": "£220", "link": "https://market.example/1", "location": "Leeds"}
			]}`))
		}))
		defer srv.Close()

		a := New(Config{Name: "market", BaseURL: srv.URL}, zap.NewNop())

		listings, err := a.Search(context.Background(), "strymon ob-1", "", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotPath != "/api/search" {
			t.Errorf("path = %q", gotPath)
		}
		if len(listings) != 1 || listings[0].Title != "Strymon OB-1" || listings[0].Location != "Leeds" {
			t.Errorf("got %v", listings)
		}
	})

	t.Run("bare array response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"title": "Old amp", "url": "https://market.example/2"}]`))
		}))
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL}, zap.NewNop())

		listings, err := a.Search(context.Background(), "amp", "", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listings) != 1 || listings[0].URL != "https://market.example/2" {
			t.Errorf("got %v", listings)
		}
	})

	t.Run("paginates until an empty page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "1" {
				w.Write([]byte(`[{"title": "Item", "link": "https://market.example/3"}]`))
				return
			}
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL}, zap.NewNop())

		listings, err := a.Search(context.Background(), "item", "", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listings) != 1 {
			t.Errorf("got %d listings, want 1", len(listings))
		}
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL}, zap.NewNop())

		if _, err := a.Search(context.Background(), "item", "", 1); !errors.Is(err, source.ErrBadStatus) {
			t.Errorf("got %v, want ErrBadStatus", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL}, zap.NewNop())

		if _, err := a.Search(context.Background(), "item", "", 1); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing base url", func(t *testing.T) {
		a := New(Config{}, zap.NewNop())

		if _, err := a.Search(context.Background(), "item", "", 1); !errors.Is(err, source.ErrSearchFailed) {
			t.Errorf("got %v, want ErrSearchFailed", err)
		}
	})
}

func TestDefaults(t *testing.T) {
	a := New(Config{}, zap.NewNop())
	if a.Name() != "market-api" {
		t.Errorf("name = %q", a.Name())
	}
	if a.GeoPinnedUK() {
		t.Error("GeoUK defaults to false")
	}
}
