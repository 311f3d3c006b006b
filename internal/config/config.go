package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingToken       = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrInvalidProvider    = errors.New("invalid llm provider")
	ErrInvalidConcurrency = errors.New("fan-out concurrency must be at least 1")
	ErrInvalidMaxResults  = errors.New("max results must be at least 1")
	ErrInvalidWeights     = errors.New("invalid source weights")
)

type Config struct {
	Telegram  TelegramConfig
	LLM       LLMConfig
	Log       LogConfig
	Search    SearchConfig
	Adapters  AdapterConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type TelegramConfig struct {
	Token string
}

type LLMConfig struct {
	Provider   string
	OpenRouter OpenRouterConfig
	Timeout    time.Duration
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type LogConfig struct {
	Level string
}

// SearchConfig carries the pipeline knobs: fan-out size, term cap,
// result cap and the per-source trust weights used by the ranker.
type SearchConfig struct {
	MaxTerms      int
	MaxResults    int
	MaxPages      int
	Concurrency   int
	SourceTimeout time.Duration
	TotalTimeout  time.Duration
	UKOnly        bool
	SourceWeights map[string]float64
}

type AdapterConfig struct {
	EbayBaseURL      string
	GumtreeBaseURL   string
	MarketAPIBaseURL string
	MarketAPIGeoUK   bool
}

type CacheConfig struct {
	TTL time.Duration
}

type RateLimitConfig struct {
	SourcePerMinute int
	UserPerMinute   int
}

type MetricsConfig struct {
	Addr string
}

func Load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", "mock"),
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				Model:   getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
				BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			},
			Timeout: time.Duration(getEnvIntOrDefault("LLM_TIMEOUT_SEC", 20)) * time.Second,
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Search: SearchConfig{
			MaxTerms:      getEnvIntOrDefault("MAX_SEARCH_TERMS", 4),
			MaxResults:    getEnvIntOrDefault("MAX_RESULTS", 40),
			MaxPages:      getEnvIntOrDefault("MAX_PAGES", 2),
			Concurrency:   getEnvIntOrDefault("FANOUT_CONCURRENCY", 3),
			SourceTimeout: time.Duration(getEnvIntOrDefault("SOURCE_TIMEOUT_SEC", 15)) * time.Second,
			TotalTimeout:  time.Duration(getEnvIntOrDefault("TOTAL_TIMEOUT_SEC", 60)) * time.Second,
			UKOnly:        getEnvBoolOrDefault("UK_ONLY", false),
			SourceWeights: map[string]float64{},
		},
		Adapters: AdapterConfig{
			EbayBaseURL:      getEnvOrDefault("EBAY_BASE_URL", "https://www.ebay.co.uk"),
			GumtreeBaseURL:   getEnvOrDefault("GUMTREE_BASE_URL", "https://www.gumtree.com"),
			MarketAPIBaseURL: os.Getenv("MARKET_API_BASE_URL"),
			MarketAPIGeoUK:   getEnvBoolOrDefault("MARKET_API_GEO_UK", true),
		},
		Cache: CacheConfig{
			TTL: time.Duration(getEnvIntOrDefault("CACHE_TTL_SEC", 3600)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			SourcePerMinute: getEnvIntOrDefault("SOURCE_RATE_LIMIT_PER_MINUTE", 30),
			UserPerMinute:   getEnvIntOrDefault("USER_RATE_LIMIT_PER_MINUTE", 10),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ""),
		},
	}

	weights, err := parseSourceWeights(os.Getenv("SOURCE_WEIGHTS"))
	if err != nil {
		return nil, err
	}
	cfg.Search.SourceWeights = weights

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fails fast on startup-level misconfiguration. The Telegram
// token is deliberately not checked here: the one-shot CLI mode runs
// without a bot, so the check belongs to the bot constructor.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "mock", "openrouter":
	default:
		return ErrInvalidProvider
	}
	if c.Search.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Search.MaxResults < 1 {
		return ErrInvalidMaxResults
	}
	return nil
}

// parseSourceWeights parses "ebay:1.0,gumtree:0.9". Weights outside (0,1]
// are rejected; sources not listed fall back to the ranker default.
func parseSourceWeights(raw string) (map[string]float64, error) {
	weights := map[string]float64{}
	if strings.TrimSpace(raw) == "" {
		return weights, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeights, pair)
		}
		w, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || w <= 0 || w > 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeights, pair)
		}
		weights[strings.ToLower(strings.TrimSpace(parts[0]))] = w
	}
	return weights, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
