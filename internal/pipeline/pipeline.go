package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/domain"
	"github.com/dealhound/dealhound/internal/metrics"
	"github.com/dealhound/dealhound/internal/planner"
	"github.com/dealhound/dealhound/internal/source"
)

type Config struct {
	MaxResults    int
	MaxPages      int
	TotalTimeout  time.Duration
	UKOnly        bool
	SourceWeights map[string]float64
}

// Pipeline is the search root: plan -> fan out -> normalize -> dedupe ->
// region filter -> staged precision filter -> rank. Everything inside it
// degrades toward fewer or zero listings; the caller always gets a
// well-formed SearchResult for valid input.
type Pipeline struct {
	planner    *planner.Planner
	registry   *source.Registry
	dispatcher *source.Dispatcher
	ranker     *Ranker
	logger     *zap.Logger
	metrics    *metrics.Metrics
	cfg        Config
}

func New(p *planner.Planner, registry *source.Registry, dispatcher *source.Dispatcher, logger *zap.Logger, m *metrics.Metrics, cfg Config) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.TotalTimeout <= 0 {
		cfg.TotalTimeout = 60 * time.Second
	}

	return &Pipeline{
		planner:    p,
		registry:   registry,
		dispatcher: dispatcher,
		ranker:     NewRanker(cfg.SourceWeights, cfg.MaxResults),
		logger:     logger,
		metrics:    m,
		cfg:        cfg,
	}
}

// Search runs one search. It returns an error only for invalid input or
// an unknown requested source; source failures, expansion failures and
// empty marketplaces all degrade to a smaller (possibly empty) result.
func (p *Pipeline) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	start := time.Now()

	if p.metrics != nil {
		p.metrics.IncSearchesInFlight()
		defer p.metrics.DecSearchesInFlight()
	}

	if err := req.Validate(); err != nil {
		if p.metrics != nil {
			p.metrics.RecordSearch("validation_error", time.Since(start))
		}
		return nil, err
	}
	req.Sanitize()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.TotalTimeout)
	defer cancel()

	if p.registry.Len() == 0 {
		return nil, domain.ErrNoSources
	}

	adapters, err := p.registry.Select(req.Options.Sources)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordSearch("unknown_source", time.Since(start))
		}
		return nil, err
	}

	expansion, terms := p.planner.Plan(ctx, req.Term)

	p.logger.Info("search planned",
		zap.String("term", req.Term),
		zap.Strings("search_terms", terms),
		zap.Int("sources", len(adapters)),
	)

	maxPages := req.Options.MaxPages
	if maxPages <= 0 {
		maxPages = p.cfg.MaxPages
	}

	raw := p.dispatcher.Dispatch(ctx, terms, adapters, req.Location, maxPages)

	listings := NormalizeAll(raw)
	listings = Dedupe(listings)
	listings = FilterRegion(listings, req.Location, req.Options.UKOnly || p.cfg.UKOnly, pinnedSources(adapters), p.logger)

	listings, mode := p.filterStaged(listings, req.Term, expansion, req.Options.Strict)

	result := &domain.SearchResult{
		Listings:      p.ranker.Rank(listings, req.Term, expansion),
		Expansion:     expansion,
		PrecisionMode: mode,
	}

	p.logger.Info("search completed",
		zap.String("term", req.Term),
		zap.Int("raw_listings", len(raw)),
		zap.Int("listings", len(result.Listings)),
		zap.String("precision_mode", mode.String()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if p.metrics != nil {
		p.metrics.RecordSearch("success", time.Since(start))
		p.metrics.RecordListings(len(result.Listings))
		p.metrics.RecordPrecisionMode(mode.String())
	}

	return result, nil
}

// filterStaged applies the precision filter at decreasing strictness
// until something survives: requested tier, then relaxed, then no filter
// at all. The tier that produced the output is recorded on the result.
// Preferring a noisy result over an empty one is a deliberate product
// decision, same as the region filter's fail-open.
func (p *Pipeline) filterStaged(listings []domain.Listing, rawTerm string, expansion domain.ExpansionResult, strict bool) ([]domain.Listing, domain.PrecisionMode) {
	if len(listings) == 0 {
		return listings, domain.PrecisionNone
	}

	if strict {
		if filtered := FilterPrecision(listings, rawTerm, expansion, true); len(filtered) > 0 {
			return filtered, domain.PrecisionStrict
		}
		p.logger.Debug("strict precision filter emptied the result, relaxing",
			zap.String("term", rawTerm),
		)
	}

	if filtered := FilterPrecision(listings, rawTerm, expansion, false); len(filtered) > 0 {
		return filtered, domain.PrecisionRelaxed
	}

	p.logger.Warn("precision filter bypassed, returning unfiltered listings",
		zap.String("term", rawTerm),
		zap.Int("listings", len(listings)),
	)
	return listings, domain.PrecisionNone
}

// pinnedSources collects adapters whose fetches are already geo-scoped.
func pinnedSources(adapters []source.Adapter) map[string]bool {
	pinned := make(map[string]bool)
	for _, a := range adapters {
		if g, ok := a.(source.GeoPinned); ok && g.GeoPinnedUK() {
			pinned[strings.ToLower(a.Name())] = true
		}
	}
	return pinned
}
