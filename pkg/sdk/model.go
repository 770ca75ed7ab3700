package conceptualsearch

import (
	"context"
	"fmt"

	"github.com/databill86/dp-conceptual-search/internal/domain"
)

// Model predicts keyword labels for a search term and embeds it as a
// sentence vector. An empty vector with a nil error means the model has no
// vector for the text.
type Model interface {
	Predict(ctx context.Context, text string, topK int, threshold float64) ([]Label, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Label is a predicted keyword label. Underscores in Name stand for spaces.
type Label struct {
	Name       string
	Confidence float64
}

// modelAdapter wraps a public Model to satisfy domain.Model.
type modelAdapter struct {
	inner Model
}

func (a *modelAdapter) Predict(ctx context.Context, text string, topK int, threshold float64) ([]domain.Label, error) {
	labels, err := a.inner.Predict(ctx, text, topK, threshold)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	out := make([]domain.Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, domain.Label{Name: l.Name, Confidence: l.Confidence})
	}
	return out, nil
}

func (a *modelAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}
