package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/metrics"
)

// Compile-time checks.
var (
	_ domain.Model         = (*Client)(nil)
	_ domain.HealthChecker = (*Client)(nil)
)

// Operation labels for ML metrics.
const (
	opEmbed   = "embed"
	opPredict = "predict"
)

// Config holds the ML provider settings.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	Dimensions     int
	KeywordModel   string
	Logger         *zap.Logger
}

// Client is the ML collaborator backed by an OpenAI-compatible API: sentence
// vectors come from the embeddings endpoint, keyword labels from a chat model
// answering in JSON mode.
type Client struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	dimensions     int
	keywordModel   string
	logger         *zap.Logger
}

// NewClient creates an OpenAI-compatible ML client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		dimensions:     cfg.Dimensions,
		keywordModel:   cfg.KeywordModel,
		logger:         logger,
	}
}

// HealthCheck verifies API availability via ListModels.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(err))
	}
	return nil
}

func observe(op, model, status string, start time.Time) {
	metrics.MLRequestsTotal.WithLabelValues(op, model, status).Inc()
	if status == "success" {
		metrics.MLRequestDuration.WithLabelValues(op, model).Observe(time.Since(start).Seconds())
	}
}

func recordTokens(op, model string, usage openai.Usage) {
	if usage.TotalTokens <= 0 {
		return
	}
	metrics.MLTokensTotal.WithLabelValues(op, model, "prompt").Add(float64(usage.PromptTokens))
	metrics.MLTokensTotal.WithLabelValues(op, model, "total").Add(float64(usage.TotalTokens))
}
