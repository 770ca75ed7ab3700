package conceptualsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	dbES "github.com/databill86/dp-conceptual-search/internal/db/elasticsearch"
	dbValkey "github.com/databill86/dp-conceptual-search/internal/db/valkey"
	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/highlight"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/query"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/response"
	"github.com/databill86/dp-conceptual-search/internal/repository/mlcache"
	healthuc "github.com/databill86/dp-conceptual-search/internal/usecase/health"
	searchuc "github.com/databill86/dp-conceptual-search/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 24 * time.Hour
)

// Results is one page of content search results.
type Results = response.Envelope

// Counts holds the number of matches per content type.
type Counts = response.Counts

// ContentQuery holds the parameters of a content search. Zero values select
// page 1, the default page size, relevance order and every content type.
type ContentQuery struct {
	Query      string
	Page       int
	Size       int
	SortBy     string
	Types      []string
	UserVector []float32
}

// Internal interfaces, replaced in tests.
type searchUseCase interface {
	Content(ctx context.Context, req request.Request) (response.Envelope, error)
	Counts(ctx context.Context, term string, types []contenttype.ContentType) (response.Counts, error)
	Featured(ctx context.Context, term string) (response.Envelope, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the conceptual search SDK entry point.
type Client struct {
	cache     *dbValkey.Store
	searchSvc searchUseCase
	healthSvc healthUseCase
	limits    request.Limits
	obs       *observer
}

// New creates a Client. The provided context is used for the cache
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	defaults := domain.DefaultModelConfig()
	cfg := &clientConfig{
		vectorDimensions: defaults.Dimensions,
		numLabels:        defaults.NumLabels,
		threshold:        defaults.Threshold,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addresses) == 0 || cfg.index == "" {
		return nil, errors.New("conceptualsearch: index and addresses required (use WithElasticsearch)")
	}

	store, err := dbES.NewStore(dbES.Config{
		Addresses: cfg.addresses,
		Username:  cfg.username,
		Password:  cfg.password,
		Index:     cfg.index,
	})
	if err != nil {
		return nil, fmt.Errorf("conceptualsearch: create store: %w", err)
	}

	var cache *dbValkey.Store
	if cfg.cacheAddr != "" && cfg.model != nil {
		cache, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    []string{cfg.cacheAddr},
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("conceptualsearch: create cache: %w", err)
		}
		if err := cache.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			cache.Close()
			return nil, fmt.Errorf("conceptualsearch: cache not ready: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}
	return wireClient(store, cache, cfg, obs), nil
}

func wireClient(store *dbES.Store, cache *dbValkey.Store, cfg *clientConfig, obs *observer) *Client {
	// Nil model: content searches use the lexical baseline.
	var model searchuc.Model
	if cfg.model != nil {
		var m domain.Model = &modelAdapter{inner: cfg.model}
		if cache != nil {
			ttl := cfg.cacheTTL
			if ttl <= 0 {
				ttl = defaultCacheTTL
			}
			m = mlcache.New(m, cache, ttl, fmt.Sprintf("sdk:%d", cfg.vectorDimensions), nil, zap.NewNop())
		}
		model = m
	}

	searchSvc := searchuc.New(store, model, field.Default(cfg.vectorDimensions), searchuc.Config{
		NumLabels:       cfg.numLabels,
		Threshold:       cfg.threshold,
		MinTokenSize:    highlight.DefaultMinTokenSize,
		BoostMode:       query.ModeAvg,
		LexicalFallback: true,
	})

	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}

	return &Client{
		cache:     cache,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(store, cachePinger, nil),
		limits:    request.Limits{DefaultPageSize: cfg.defaultPageSize, MaxPageSize: cfg.maxPageSize},
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Content runs a paged content search.
func (c *Client) Content(ctx context.Context, q ContentQuery) (res Results, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("content", start, searchOutcome{term: q.Query, results: res.NumberOfResults}, err)
	}()

	req, err := request.New(request.Params{
		Query:      q.Query,
		Page:       q.Page,
		Size:       q.Size,
		SortBy:     q.SortBy,
		Types:      q.Types,
		UserVector: q.UserVector,
	}, c.limits)
	if err != nil {
		return Results{}, fmt.Errorf("content: %w", err)
	}

	res, err = c.searchSvc.Content(ctx, req)
	if err != nil {
		return Results{}, fmt.Errorf("content: %w", err)
	}
	return res, nil
}

// Counts returns the number of matches per content type. No types means
// every content type.
func (c *Client) Counts(ctx context.Context, term string, types ...string) (res Counts, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("counts", start, searchOutcome{term: term, results: res.NumberOfResults}, err)
	}()

	found, unknown := contenttype.Lookup(types)
	if len(unknown) > 0 {
		return Counts{}, fmt.Errorf("counts: %w: unknown content types: %s",
			domain.ErrMalformedInput, strings.Join(unknown, ", "))
	}

	res, err = c.searchSvc.Counts(ctx, term, found)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", err)
	}
	return res, nil
}

// Featured returns the top product or census home page matching term.
func (c *Client) Featured(ctx context.Context, term string) (res Results, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("featured", start, searchOutcome{term: term, results: res.NumberOfResults}, err)
	}()

	res, err = c.searchSvc.Featured(ctx, term)
	if err != nil {
		return Results{}, fmt.Errorf("featured: %w", err)
	}
	return res, nil
}
