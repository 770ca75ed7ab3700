package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline metrics.
var (
	QueryBuildErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "query_build_errors_total",
			Help:      "Content queries rejected during construction",
		},
		[]string{"reason"},
	)

	KeywordExpansionDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "keyword_expansion_degraded_total",
			Help:      "Queries built without keyword expansion after a prediction failure",
		},
	)

	HighlightSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "highlight_skipped_total",
			Help:      "Highlighted field paths that could not be reconciled",
		},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "store_request_duration_seconds",
			Help:      "Document store request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryBuildErrorsTotal, KeywordExpansionDegradedTotal, HighlightSkippedTotal, StoreRequestDuration)
	searchMetricsRegistered = true
}
