package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dealhound/dealhound/internal/metrics"
	"github.com/dealhound/dealhound/internal/ratelimit"
)

const defaultConcurrency = 3

type DispatcherConfig struct {
	Concurrency int
}

// Dispatcher executes the terms × adapters task set under a fixed
// concurrency cap. Every task is isolated: an error or panic in one
// source call is logged and contributes an empty result, never aborting
// siblings.
type Dispatcher struct {
	concurrency int64
	limiter     *ratelimit.Limiter
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewDispatcher(cfg DispatcherConfig, limiter *ratelimit.Limiter, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	return &Dispatcher{
		concurrency: int64(concurrency),
		limiter:     limiter,
		logger:      logger,
		metrics:     m,
	}
}

type task struct {
	term     string
	adapter  Adapter
	location string
	maxPages int
}

// Dispatch joins the results in task-list order (terms outer, adapters
// inner), so the concatenation downstream of the dedup stage is
// deterministic regardless of completion timing.
func (d *Dispatcher) Dispatch(ctx context.Context, terms []string, adapters []Adapter, location string, maxPages int) []RawListing {
	if len(terms) == 0 || len(adapters) == 0 {
		return nil
	}

	tasks := make([]task, 0, len(terms)*len(adapters))
	for _, term := range terms {
		for _, a := range adapters {
			tasks = append(tasks, task{term: term, adapter: a, location: location, maxPages: maxPages})
		}
	}

	// one result slot per task; no shared slice is mutated concurrently
	results := make([][]RawListing, len(tasks))
	sem := semaphore.NewWeighted(d.concurrency)
	var wg sync.WaitGroup

	for i, t := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			// context gone: remaining tasks count as failed contributions
			d.logger.Warn("fan-out cancelled before completion",
				zap.Error(err),
				zap.Int("tasks_skipped", len(tasks)-i),
			)
			break
		}

		wg.Add(1)
		go func(slot int, t task) {
			defer wg.Done()
			defer sem.Release(1)
			results[slot] = d.run(ctx, t)
		}(i, t)
	}

	wg.Wait()

	var joined []RawListing
	for _, r := range results {
		joined = append(joined, r...)
	}
	return joined
}

func (d *Dispatcher) run(ctx context.Context, t task) (listings []RawListing) {
	name := t.adapter.Name()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("source adapter panicked",
				zap.Any("panic", r),
				zap.String("source", name),
				zap.String("term", t.term),
			)
			if d.metrics != nil {
				d.metrics.RecordSourceRequest(name, "panic", 0)
			}
			listings = nil
		}
	}()

	if d.limiter != nil && !d.limiter.Allow(name) {
		if d.metrics != nil {
			d.metrics.RecordRateLimitHit(name)
		}
		if err := d.limiter.Wait(ctx, name); err != nil {
			d.logger.Warn("rate limit wait cancelled",
				zap.String("source", name),
				zap.String("term", t.term),
			)
			return nil
		}
	}

	start := time.Now()
	found, err := t.adapter.Search(ctx, t.term, t.location, t.maxPages)
	if err != nil {
		d.logger.Warn("source search failed",
			zap.Error(err),
			zap.String("source", name),
			zap.String("term", t.term),
		)
		if d.metrics != nil {
			d.metrics.RecordSourceRequest(name, "error", time.Since(start))
		}
		return nil
	}

	if d.metrics != nil {
		d.metrics.RecordSourceRequest(name, "success", time.Since(start))
	}

	for i := range found {
		if found[i].Source == "" {
			found[i].Source = name
		}
	}

	d.logger.Debug("source search completed",
		zap.String("source", name),
		zap.String("term", t.term),
		zap.Int("listings", len(found)),
	)

	return found
}
