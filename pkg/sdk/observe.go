package conceptualsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
)

// searchOutcome describes one finished SDK search for logs and metrics.
type searchOutcome struct {
	term    string
	results int64
}

// searchMetrics holds the prometheus collectors for SDK searches.
type searchMetrics struct {
	searches    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	zeroResults *prometheus.CounterVec
}

func newSearchMetrics(reg prometheus.Registerer) (*searchMetrics, error) {
	m := &searchMetrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conceptual_search",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK searches by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conceptual_search",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK search latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		zeroResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conceptual_search",
			Subsystem: "sdk",
			Name:      "zero_results_total",
			Help:      "Successful SDK searches that matched no documents.",
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.searches); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.zeroResults); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or points c at the collector already
// registered under the same name so several clients can share a registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("conceptualsearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("conceptualsearch: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer records the outcome of SDK searches.
type observer struct {
	logger  *slog.Logger
	metrics *searchMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSearchMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records op. The search term itself is never logged, only its length.
func (o *observer) observe(op string, start time.Time, out searchOutcome, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.searches.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
		if err == nil && out.results == 0 {
			o.metrics.zeroResults.WithLabelValues(op).Inc()
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []any{
		slog.String("op", op),
		slog.Int("term_length", utf8.RuneCountInString(out.term)),
		slog.Duration("duration", dur),
	}
	if err != nil {
		o.logger.Warn("search failed", append(attrs, slog.Any("error", err))...)
		return
	}
	o.logger.Debug("search completed", append(attrs, slog.Int64("results", out.results))...)
}
