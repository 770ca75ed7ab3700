package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/databill86/dp-conceptual-search/internal/db"
)

// Compile-time checks.
var (
	_ db.Searcher      = (*Store)(nil)
	_ db.ClusterHealth = (*Store)(nil)
	_ db.Pinger        = (*Store)(nil)
)

// Config holds connection parameters for the document store.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	Timeout   time.Duration
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Store executes search requests against one Elasticsearch index.
type Store struct {
	client  *es.Client
	index   string
	timeout time.Duration
}

// NewStore creates an Elasticsearch-backed store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, index: cfg.Index, timeout: cfg.Timeout}, nil
}

// Index returns the searched index name.
func (s *Store) Index() string { return s.index }

// Search runs a search request body against the index.
func (s *Store) Search(ctx context.Context, body []byte) (*db.SearchResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: statusError(res)}
	}

	var raw searchResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode response: %w", err)}
	}
	return raw.toResult(), nil
}

// ClusterHealth returns the cluster status: green, yellow or red.
func (s *Store) ClusterHealth(ctx context.Context) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Cluster.Health(s.client.Cluster.Health.WithContext(ctx))
	if err != nil {
		return "", &db.Error{Op: db.OpClusterHealth, Err: err}
	}
	defer closeBody(res)

	if res.IsError() {
		return "", &db.Error{Op: db.OpClusterHealth, Err: statusError(res)}
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return "", &db.Error{Op: db.OpClusterHealth, Err: fmt.Errorf("decode response: %w", err)}
	}
	return health.Status, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer closeBody(res)

	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: statusError(res)}
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func statusError(res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	switch res.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", db.ErrIndexNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", db.ErrBadRequest, msg)
	default:
		return fmt.Errorf("status %d: %s", res.StatusCode, msg)
	}
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}
