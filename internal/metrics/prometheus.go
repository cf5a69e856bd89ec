package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeCacheHit = "cache_hit"
	OutcomeUnknown  = "unknown"
	OutcomeFailed   = "failed"
)

var (
	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studentbot_query_total",
			Help: "Total number of queries processed by outcome",
		},
		[]string{"outcome"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studentbot_query_duration_seconds",
			Help:    "Query processing duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"intent"},
	)

	IntentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studentbot_intent_total",
			Help: "Classified intents",
		},
		[]string{"intent"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studentbot_cache_hits_total",
			Help: "Total response cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studentbot_cache_misses_total",
			Help: "Total response cache misses",
		},
		[]string{"cache_type"},
	)

	StoreErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studentbot_store_errors_total",
			Help: "Store lookups that failed and were reported as not found",
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studentbot_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Calling it
// more than once is harmless.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			QueryTotal,
			QueryDuration,
			IntentTotal,
			CacheHits,
			CacheMisses,
			StoreErrors,
			RateLimited,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
