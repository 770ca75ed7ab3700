package openai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/metrics"
)

// Embed implements domain.Embedder. A response without data means the model
// has no vector for the text and yields an absent result, not an error.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	model := string(c.embeddingModel)
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          c.embeddingModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           domain.RequestIDFromContext(ctx),
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		observe(opEmbed, model, "error", start)
		metrics.MLErrorsTotal.WithLabelValues(opEmbed, "api_error").Inc()
		return domain.EmbeddingResult{}, parseAPIError(err)
	}
	observe(opEmbed, model, "success", start)
	recordTokens(opEmbed, model, resp.Usage)

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		c.logger.Debug("no sentence vector for term", zap.String("model", model))
		return domain.EmbeddingResult{}, nil
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}
