package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floatchat_query_duration_seconds",
			Help:    "End-to-end question processing duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"intent"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_query_total",
			Help: "Total number of questions processed",
		},
		[]string{"status"},
	)

	IntentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_intent_total",
			Help: "Classified questions by intent and classification source",
		},
		[]string{"intent", "source"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "floatchat_classification_confidence",
			Help:    "Confidence of the final parsed query",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	OracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_oracle_calls_total",
			Help: "LLM oracle calls by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	OracleBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "floatchat_oracle_breaker_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	ResultRows = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floatchat_result_rows",
			Help:    "Rows returned per question",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 2000},
		},
		[]string{"intent"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_store_errors_total",
			Help: "Data store accessor failures",
		},
		[]string{"operation"},
	)

	RetrievalHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floatchat_retrieval_hits",
			Help:    "Vector retrieval hits per question",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"collection"},
	)

	registerOnce sync.Once
)

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			QueryDuration,
			QueryTotal,
			IntentTotal,
			ConfidenceScore,
			OracleCalls,
			OracleBreakerState,
			ResultRows,
			StoreErrors,
			RetrievalHits,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
