package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/llm"
)

func TestCompleteWithSystem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotAuth string
		var gotReq llm.ChatRequest

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotReq)
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"expanded"}}]}`))
		}))
		defer srv.Close()

		c := New(Config{APIKey: "key", BaseURL: srv.URL, Model: "test/model"}, zap.NewNop())

		got, err := c.CompleteWithSystem(context.Background(), "system", "prompt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "expanded" {
			t.Errorf("got %q", got)
		}
		if gotAuth != "Bearer key" {
			t.Errorf("auth header = %q", gotAuth)
		}
		if gotReq.Model != "test/model" || len(gotReq.Messages) != 2 {
			t.Errorf("request = %+v", gotReq)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL}, zap.NewNop())

		if _, err := c.CompleteWithSystem(context.Background(), "s", "p"); !errors.Is(err, llm.ErrAuthFailed) {
			t.Errorf("got %v, want ErrAuthFailed", err)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL}, zap.NewNop())

		if _, err := c.CompleteWithSystem(context.Background(), "s", "p"); !errors.Is(err, llm.ErrRateLimit) {
			t.Errorf("got %v, want ErrRateLimit", err)
		}
	})

	t.Run("API error in 200 body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL}, zap.NewNop())

		if _, err := c.CompleteWithSystem(context.Background(), "s", "p"); !errors.Is(err, llm.ErrRequestFailed) {
			t.Errorf("got %v, want ErrRequestFailed", err)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL}, zap.NewNop())

		if _, err := c.CompleteWithSystem(context.Background(), "s", "p"); !errors.Is(err, llm.ErrEmptyResponse) {
			t.Errorf("got %v, want ErrEmptyResponse", err)
		}
	})
}
