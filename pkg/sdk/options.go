package conceptualsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	index     string
	addresses []string
	username  string
	password  string

	cacheAddr     string
	cachePassword string
	cacheTTL      time.Duration

	model            Model
	vectorDimensions int
	numLabels        int
	threshold        float64

	defaultPageSize int
	maxPageSize     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch sets the searched index and the cluster addresses.
func WithElasticsearch(index string, addresses ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = index
		c.addresses = addresses
	})
}

// WithBasicAuth sets Elasticsearch credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithModel sets the keyword and embedding model used for relevance searches.
func WithModel(m Model) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = m
	})
}

// WithValkeyCache caches model results in Valkey for ttl.
// Has no effect without WithModel.
func WithValkeyCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddr = addr
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithVectorDimensions sets the dimensions of the indexed embedding vector.
// Defaults to 300.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithKeywordLabels sets how many predicted labels expand a query and the
// minimum confidence a label needs. Defaults: 10 and 0.1.
func WithKeywordLabels(n int, threshold float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.numLabels = n
		c.threshold = threshold
	})
}

// WithPageSize sets the default and maximum page size. Defaults: 10 and 250.
func WithPageSize(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
