package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.LLM.Provider != "mock" {
			t.Errorf("provider = %q", cfg.LLM.Provider)
		}
		if cfg.Search.MaxResults != 40 {
			t.Errorf("max results = %d", cfg.Search.MaxResults)
		}
		if cfg.Search.Concurrency != 3 {
			t.Errorf("concurrency = %d", cfg.Search.Concurrency)
		}
		if cfg.Search.TotalTimeout != 60*time.Second {
			t.Errorf("total timeout = %v", cfg.Search.TotalTimeout)
		}
		if cfg.Adapters.EbayBaseURL != "https://www.ebay.co.uk" {
			t.Errorf("ebay base url = %q", cfg.Adapters.EbayBaseURL)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "openrouter")
		t.Setenv("MAX_RESULTS", "20")
		t.Setenv("UK_ONLY", "true")
		t.Setenv("SOURCE_WEIGHTS", "ebay:1.0,gumtree:0.9")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.LLM.Provider != "openrouter" {
			t.Errorf("provider = %q", cfg.LLM.Provider)
		}
		if cfg.Search.MaxResults != 20 {
			t.Errorf("max results = %d", cfg.Search.MaxResults)
		}
		if !cfg.Search.UKOnly {
			t.Error("UKOnly should be set")
		}
		if cfg.Search.SourceWeights["gumtree"] != 0.9 {
			t.Errorf("weights = %v", cfg.Search.SourceWeights)
		}
	})

	t.Run("invalid provider", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "gigabrain")

		if _, err := Load(); !errors.Is(err, ErrInvalidProvider) {
			t.Errorf("got %v, want ErrInvalidProvider", err)
		}
	})

	t.Run("invalid weights", func(t *testing.T) {
		t.Setenv("SOURCE_WEIGHTS", "ebay:2.0")

		if _, err := Load(); !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("got %v, want ErrInvalidWeights", err)
		}
	})

	t.Run("malformed int falls back to default", func(t *testing.T) {
		t.Setenv("MAX_RESULTS", "plenty")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Search.MaxResults != 40 {
			t.Errorf("max results = %d", cfg.Search.MaxResults)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LLM:    LLMConfig{Provider: "mock"},
			Search: SearchConfig{Concurrency: 3, MaxResults: 40},
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("zero concurrency", func(t *testing.T) {
		cfg := valid()
		cfg.Search.Concurrency = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("zero max results", func(t *testing.T) {
		cfg := valid()
		cfg.Search.MaxResults = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxResults) {
			t.Errorf("got %v", err)
		}
	})
}

func TestParseSourceWeights(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		weights, err := parseSourceWeights("")
		if err != nil || len(weights) != 0 {
			t.Errorf("got %v, %v", weights, err)
		}
	})

	t.Run("normalizes names", func(t *testing.T) {
		weights, err := parseSourceWeights(" Ebay :1.0, gumtree:0.9 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if weights["ebay"] != 1.0 || weights["gumtree"] != 0.9 {
			t.Errorf("weights = %v", weights)
		}
	})

	t.Run("rejects out-of-range weight", func(t *testing.T) {
		if _, err := parseSourceWeights("ebay:0"); !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("rejects malformed pair", func(t *testing.T) {
		if _, err := parseSourceWeights("ebay"); !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("got %v", err)
		}
	})
}
