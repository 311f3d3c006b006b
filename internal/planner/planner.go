package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/cache/memory"
	"github.com/dealhound/dealhound/internal/domain"
	"github.com/dealhound/dealhound/internal/llm"
	"github.com/dealhound/dealhound/internal/metrics"
)

const (
	defaultMaxTerms = 4
	maxListItems    = 8
)

const systemPrompt = `You are a search term generator for a second-hand marketplace aggregator.

Given a product query, produce alternative search terms a seller might have
used in a listing title, plus product categories and known aliases or
nicknames of the product.

Rules:
1. Terms must be short keyword phrases, not sentences
2. Include common misspellings or separator variants if they are widely used
3. Do not broaden to sibling products or different models
4. 2-4 search terms is plenty

Response format (JSON only, no markdown):
{"search_terms": ["..."], "categories": ["..."], "aliases": ["..."]}`

type Config struct {
	MaxTerms int
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Planner expands a raw query into a bounded set of search terms. It never
// fails: any expander error degrades to the deterministic fallback of the
// raw term alone.
type Planner struct {
	llm     llm.Client
	cache   *memory.Cache
	logger  *zap.Logger
	metrics *metrics.Metrics
	cfg     Config
}

func New(client llm.Client, cache *memory.Cache, logger *zap.Logger, m *metrics.Metrics, cfg Config) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = defaultMaxTerms
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}

	return &Planner{
		llm:     client,
		cache:   cache,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
	}
}

// Plan returns the expansion and the deduplicated term list for fan-out:
// the raw term first, then expansion terms, capped at MaxTerms.
func (p *Planner) Plan(ctx context.Context, rawTerm string) (domain.ExpansionResult, []string) {
	expansion := p.expand(ctx, rawTerm)
	return expansion, p.buildTerms(rawTerm, expansion)
}

func (p *Planner) expand(ctx context.Context, rawTerm string) domain.ExpansionResult {
	fallback := domain.ExpansionResult{SearchTerms: []string{rawTerm}}

	cacheKey := "expand:" + normalizeTerm(rawTerm)
	if p.cache != nil {
		if cached, ok := p.cache.Get(cacheKey); ok {
			if expansion, ok := cached.(domain.ExpansionResult); ok {
				if p.metrics != nil {
					p.metrics.RecordCacheHit()
				}
				return expansion
			}
		}
		if p.metrics != nil {
			p.metrics.RecordCacheMiss()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	response, err := p.llm.CompleteWithSystem(ctx, systemPrompt, "Product query: "+rawTerm)
	if err != nil {
		p.logger.Warn("query expansion failed, using raw term",
			zap.Error(err),
			zap.String("term", rawTerm),
		)
		if p.metrics != nil {
			p.metrics.RecordExpansion("error")
		}
		return fallback
	}

	expansion, err := parseExpansion(response)
	if err != nil {
		p.logger.Warn("malformed expansion response, using raw term",
			zap.Error(err),
			zap.String("term", rawTerm),
		)
		if p.metrics != nil {
			p.metrics.RecordExpansion("malformed")
		}
		return fallback
	}

	if p.metrics != nil {
		p.metrics.RecordExpansion("success")
	}
	if p.cache != nil {
		p.cache.Set(cacheKey, expansion, p.cfg.CacheTTL)
	}

	return expansion
}

// parseExpansion tolerates markdown fences and leading prose around the
// JSON object.
func parseExpansion(response string) (domain.ExpansionResult, error) {
	raw := extractJSONObject(response)
	if raw == "" {
		return domain.ExpansionResult{}, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		SearchTerms []string `json:"search_terms"`
		Categories  []string `json:"categories"`
		Aliases     []string `json:"aliases"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.ExpansionResult{}, fmt.Errorf("unmarshal expansion: %w", err)
	}

	return domain.ExpansionResult{
		SearchTerms: cleanList(parsed.SearchTerms),
		Categories:  cleanList(parsed.Categories),
		Aliases:     cleanList(parsed.Aliases),
	}, nil
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		item = strings.Join(strings.Fields(item), " ")
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) >= maxListItems {
			break
		}
	}
	return out
}

// buildTerms keeps the raw term in front so the fan-out always queries it,
// whatever the expander returned.
func (p *Planner) buildTerms(rawTerm string, expansion domain.ExpansionResult) []string {
	seen := make(map[string]bool)
	var terms []string

	for _, t := range append([]string{rawTerm}, expansion.SearchTerms...) {
		key := normalizeTerm(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, t)
		if len(terms) >= p.cfg.MaxTerms {
			break
		}
	}

	return terms
}

func normalizeTerm(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), " ")
}
