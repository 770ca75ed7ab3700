package health

import "context"

// ClusterHealth reports the document store cluster status.
type ClusterHealth interface {
	ClusterHealth(ctx context.Context) (string, error)
}

// CachePinger checks ML cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks ML provider availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
