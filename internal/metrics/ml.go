package metrics

import "github.com/prometheus/client_golang/prometheus"

// ML collaborator metrics.
var (
	MLRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ml_requests_total",
			Help:      "Total number of ML provider requests",
		},
		[]string{"operation", "model", "status"},
	)

	MLRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ml_request_duration_seconds",
			Help:      "ML provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "model"},
	)

	MLTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ml_tokens_total",
			Help:      "Total tokens consumed by ML provider requests",
		},
		[]string{"operation", "model", "type"},
	)

	MLErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ml_errors_total",
			Help:      "Total ML provider errors",
		},
		[]string{"operation", "error_type"},
	)

	MLCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ml_cache_total",
			Help:      "ML cache hits and misses",
		},
		[]string{"operation", "result"}, // embed/predict, hit/miss
	)
)

var mlMetricsRegistered bool

// RegisterMLMetrics registers the ML metrics. Must be called once from main.
func RegisterMLMetrics() {
	if mlMetricsRegistered {
		return
	}
	prometheus.MustRegister(MLRequestsTotal, MLRequestDuration, MLTokensTotal, MLErrorsTotal, MLCacheTotal)
	mlMetricsRegistered = true
}
