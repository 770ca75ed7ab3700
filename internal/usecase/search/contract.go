package search

import (
	"context"

	"github.com/databill86/dp-conceptual-search/internal/db"
	"github.com/databill86/dp-conceptual-search/internal/domain"
)

// Store executes search request bodies against the document index.
type Store interface {
	Search(ctx context.Context, body []byte) (*db.SearchResult, error)
}

// Embedder returns the sentence vector of a search term.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Predictor predicts keyword labels for a search term.
type Predictor interface {
	Predict(ctx context.Context, text string, topK int, threshold float64) ([]domain.Label, error)
}

// Model is the ML collaborator used for relevance-sorted content searches.
type Model interface {
	Embedder
	Predictor
}
