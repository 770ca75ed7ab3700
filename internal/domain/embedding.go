package domain

import "context"

// Embedder turns a search term into a sentence vector.
// An empty Embedding with a nil error means the model has no vector for the text.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// KeywordPredictor predicts keyword labels for a search term.
type KeywordPredictor interface {
	Predict(ctx context.Context, text string, topK int, threshold float64) ([]Label, error)
}

// Model is the full ML collaborator contract.
type Model interface {
	Embedder
	KeywordPredictor
}

// HealthChecker verifies ML provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Absent reports whether the model returned no vector.
func (r EmbeddingResult) Absent() bool { return len(r.Embedding) == 0 }

// Label is a predicted keyword with the model's confidence.
type Label struct {
	Name       string
	Confidence float64
}
