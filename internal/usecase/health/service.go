package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; searches still run.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unusable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names.
const (
	ComponentElasticsearch = "elasticsearch"
	ComponentCache         = "cache"
	ComponentML            = "ml"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store   ClusterHealth
	cache   CachePinger
	model   ModelChecker
	timeout time.Duration
}

// New creates a Service. cache and model can be nil.
func New(store ClusterHealth, cache CachePinger, model ModelChecker) *Service {
	return &Service{store: store, cache: cache, model: model, timeout: defaultCheckTimeout}
}

// Check runs the component checks concurrently. A red or unreachable
// cluster is unhealthy; a failing cache or ML provider only degrades.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var storeRes, cacheRes, modelRes CheckResult
	var g errgroup.Group

	g.Go(func() error {
		status, err := s.store.ClusterHealth(ctx)
		storeRes = result(err == nil && (status == "green" || status == "yellow"))
		return nil
	})
	if s.cache != nil {
		g.Go(func() error {
			cacheRes = result(s.cache.Ping(ctx) == nil)
			return nil
		})
	}
	if s.model != nil {
		g.Go(func() error {
			modelRes = result(s.model.HealthCheck(ctx) == nil)
			return nil
		})
	}
	_ = g.Wait()

	checks := map[string]CheckResult{ComponentElasticsearch: storeRes}
	if s.cache != nil {
		checks[ComponentCache] = cacheRes
	}
	if s.model != nil {
		checks[ComponentML] = modelRes
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if storeRes == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
