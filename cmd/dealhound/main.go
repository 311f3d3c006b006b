package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/cache/memory"
	"github.com/dealhound/dealhound/internal/config"
	"github.com/dealhound/dealhound/internal/domain"
	"github.com/dealhound/dealhound/internal/llm"
	llmmock "github.com/dealhound/dealhound/internal/llm/mock"
	"github.com/dealhound/dealhound/internal/llm/openrouter"
	"github.com/dealhound/dealhound/internal/metrics"
	"github.com/dealhound/dealhound/internal/pipeline"
	"github.com/dealhound/dealhound/internal/planner"
	"github.com/dealhound/dealhound/internal/ratelimit"
	"github.com/dealhound/dealhound/internal/source"
	"github.com/dealhound/dealhound/internal/source/ebay"
	"github.com/dealhound/dealhound/internal/source/gumtree"
	"github.com/dealhound/dealhound/internal/source/jsonapi"
	"github.com/dealhound/dealhound/internal/telegram"
)

func main() {
	once := flag.String("once", "", "run a single search for the given term, print JSON and exit")
	ukOnly := flag.Bool("uk", false, "restrict the one-shot search to UK listings")
	strict := flag.Bool("strict", false, "use strict precision filtering for the one-shot search")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	m := metrics.New()

	expansionCache := memory.New()
	defer expansionCache.Stop()

	sourceLimiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.SourcePerMinute,
	})

	registry := buildRegistry(cfg, logger)

	dispatcher := source.NewDispatcher(source.DispatcherConfig{
		Concurrency: cfg.Search.Concurrency,
	}, sourceLimiter, logger, m)

	plan := planner.New(buildLLMClient(cfg, logger), expansionCache, logger, m, planner.Config{
		MaxTerms: cfg.Search.MaxTerms,
		Timeout:  cfg.LLM.Timeout,
		CacheTTL: cfg.Cache.TTL,
	})

	search := pipeline.New(plan, registry, dispatcher, logger, m, pipeline.Config{
		MaxResults:    cfg.Search.MaxResults,
		MaxPages:      cfg.Search.MaxPages,
		TotalTimeout:  cfg.Search.TotalTimeout,
		UKOnly:        cfg.Search.UKOnly,
		SourceWeights: cfg.Search.SourceWeights,
	})

	if *once != "" {
		runOnce(search, *once, *ukOnly, *strict, logger)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startMetricsServer(ctx, cfg.Metrics.Addr, logger)

	bot, err := telegram.New(telegram.BotConfig{
		Token:             cfg.Telegram.Token,
		RequestsPerMinute: cfg.RateLimit.UserPerMinute,
	}, search, registry, logger, m)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	logger.Info("dealhound starting",
		zap.Strings("sources", registry.Names()),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", zap.Error(err))
	}

	logger.Info("dealhound stopped")
}

func buildRegistry(cfg *config.Config, logger *zap.Logger) *source.Registry {
	registry := source.NewRegistry(
		ebay.New(ebay.Config{
			BaseURL: cfg.Adapters.EbayBaseURL,
			Timeout: cfg.Search.SourceTimeout,
		}, logger),
		gumtree.New(gumtree.Config{
			BaseURL: cfg.Adapters.GumtreeBaseURL,
			Timeout: cfg.Search.SourceTimeout,
		}, logger),
	)

	if cfg.Adapters.MarketAPIBaseURL != "" {
		registry.Register(jsonapi.New(jsonapi.Config{
			BaseURL: cfg.Adapters.MarketAPIBaseURL,
			GeoUK:   cfg.Adapters.MarketAPIGeoUK,
			Timeout: cfg.Search.SourceTimeout,
		}, logger))
	}

	return registry
}

func buildLLMClient(cfg *config.Config, logger *zap.Logger) llm.Client {
	switch cfg.LLM.Provider {
	case "openrouter":
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.LLM.OpenRouter.APIKey,
			Model:   cfg.LLM.OpenRouter.Model,
			BaseURL: cfg.LLM.OpenRouter.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	default:
		logger.Warn("using mock llm client, query expansion is disabled")
		return llmmock.New()
	}
}

// runOnce executes a single search and prints the result as JSON, for
// scripting and smoke testing without a bot token.
func runOnce(search *pipeline.Pipeline, term string, ukOnly, strict bool, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := search.Search(ctx, domain.SearchRequest{
		Term: term,
		Options: domain.SearchOptions{
			UKOnly: ukOnly,
			Strict: strict,
		},
	})
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatal("encode result", zap.Error(err))
	}
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}
