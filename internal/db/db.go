package db

import (
	"context"
	"time"
)

// Cache is the key-value cache facade.
type Cache interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Searcher executes search request bodies against the document index.
type Searcher interface {
	Search(ctx context.Context, body []byte) (*SearchResult, error)
}

// ClusterHealth reports the document store cluster status (green, yellow, red).
type ClusterHealth interface {
	ClusterHealth(ctx context.Context) (string, error)
}
