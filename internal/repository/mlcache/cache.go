// Package mlcache caches ML collaborator answers in a key-value store.
package mlcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/db"
	"github.com/databill86/dp-conceptual-search/internal/domain"
)

const keyPrefix = "conceptual_search:ml:"

var _ domain.Model = (*Cache)(nil)

// store is the consumer interface for the cache backend.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache decorates a domain.Model with read-through caching of sentence
// vectors and predicted labels. Cache failures are logged and never fail
// the call.
type Cache struct {
	inner      domain.Model
	store      store
	ttl        time.Duration
	namespace  string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. namespace separates entries written by
// different model versions. cacheTotal has labels operation and result.
func New(
	inner domain.Model,
	s store,
	ttl time.Duration,
	namespace string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		namespace:  namespace,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached vector or calls the inner model.
// Cache hit: TotalTokens = 0. Absent vectors are not cached.
func (c *Cache) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key("emb", text)

	if data, ok := c.get(ctx, key); ok {
		vec, err := bytesToVector(data)
		switch {
		case err != nil:
			c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		case len(vec) > 0:
			c.inc("embed", "hit")
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
	}
	c.inc("embed", "miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if !result.Absent() {
		c.put(ctx, key, vectorToBytes(result.Embedding))
	}
	return result, nil
}

// Predict returns cached labels or calls the inner model.
// The key covers topK and threshold as well as the text.
func (c *Cache) Predict(ctx context.Context, text string, topK int, threshold float64) ([]domain.Label, error) {
	key := c.key("kw", strconv.Itoa(topK)+"|"+strconv.FormatFloat(threshold, 'g', -1, 64)+"|"+text)

	if data, ok := c.get(ctx, key); ok {
		var cached []cachedLabel
		err := json.Unmarshal(data, &cached)
		if err == nil {
			c.inc("predict", "hit")
			return fromCached(cached), nil
		}
		c.logger.Warn("Failed to parse cached labels", zap.String("key", key), zap.Error(err))
	}
	c.inc("predict", "miss")

	labels, err := c.inner.Predict(ctx, text, topK, threshold)
	if err != nil {
		return nil, fmt.Errorf("predict labels: %w", err)
	}
	data, err := json.Marshal(toCached(labels))
	if err == nil {
		c.put(ctx, key, data)
	}
	return labels, nil
}

type cachedLabel struct {
	Name       string  `json:"n"`
	Confidence float64 `json:"c"`
}

func toCached(labels []domain.Label) []cachedLabel {
	out := make([]cachedLabel, len(labels))
	for i, l := range labels {
		out[i] = cachedLabel{Name: l.Name, Confidence: l.Confidence}
	}
	return out
}

func fromCached(cached []cachedLabel) []domain.Label {
	out := make([]domain.Label, len(cached))
	for i, l := range cached {
		out[i] = domain.Label{Name: l.Name, Confidence: l.Confidence}
	}
	return out
}

func (c *Cache) inc(op, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(op, result).Inc()
	}
}

func (c *Cache) key(kind, text string) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix + c.namespace + ":" + kind + ":" + hex.EncodeToString(h[:])
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read ML cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, len(data) > 0
}

func (c *Cache) put(ctx context.Context, key string, data []byte) {
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to write ML cache", zap.String("key", key), zap.Error(err))
	}
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
