package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SearchesTotal     *prometheus.CounterVec
	SearchDuration    *prometheus.HistogramVec
	SearchesInFlight  prometheus.Gauge
	ListingsReturned  prometheus.Histogram
	PrecisionModeUsed *prometheus.CounterVec

	SourceRequestsTotal   *prometheus.CounterVec
	SourceRequestDuration *prometheus.HistogramVec

	ExpansionRequestsTotal *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RateLimitHitsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		SearchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealhound_searches_total",
				Help: "Total number of searches processed",
			},
			[]string{"status"},
		),
		SearchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dealhound_search_duration_seconds",
				Help:    "End-to-end search duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{},
		),
		SearchesInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dealhound_searches_in_flight",
				Help: "Number of searches currently being processed",
			},
		),
		ListingsReturned: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dealhound_listings_returned",
				Help:    "Number of listings in the final result",
				Buckets: []float64{0, 1, 5, 10, 20, 40},
			},
		),
		PrecisionModeUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealhound_precision_mode_total",
				Help: "Which precision filter tier produced the result",
			},
			[]string{"mode"},
		),

		SourceRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealhound_source_requests_total",
				Help: "Total number of marketplace source requests",
			},
			[]string{"source", "status"},
		),
		SourceRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dealhound_source_request_duration_seconds",
				Help:    "Marketplace source request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"source"},
		),

		ExpansionRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealhound_expansion_requests_total",
				Help: "Total number of query expansion calls",
			},
			[]string{"status"},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dealhound_cache_hits_total",
				Help: "Total number of expansion cache hits",
			},
		),
		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dealhound_cache_misses_total",
				Help: "Total number of expansion cache misses",
			},
		),

		RateLimitHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealhound_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"key"},
		),
	}

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordSearch(status string, duration time.Duration) {
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *Metrics) RecordListings(count int) {
	m.ListingsReturned.Observe(float64(count))
}

func (m *Metrics) RecordPrecisionMode(mode string) {
	m.PrecisionModeUsed.WithLabelValues(mode).Inc()
}

func (m *Metrics) RecordSourceRequest(source, status string, duration time.Duration) {
	m.SourceRequestsTotal.WithLabelValues(source, status).Inc()
	m.SourceRequestDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Metrics) RecordExpansion(status string) {
	m.ExpansionRequestsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordCacheHit()  { m.CacheHitsTotal.Inc() }
func (m *Metrics) RecordCacheMiss() { m.CacheMissesTotal.Inc() }

func (m *Metrics) RecordRateLimitHit(key string) {
	m.RateLimitHitsTotal.WithLabelValues(key).Inc()
}

func (m *Metrics) IncSearchesInFlight() { m.SearchesInFlight.Inc() }
func (m *Metrics) DecSearchesInFlight() { m.SearchesInFlight.Dec() }
