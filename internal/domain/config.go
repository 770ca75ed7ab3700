package domain

// ModelConfig holds ML collaborator defaults, not exposed to clients.
type ModelConfig struct {
	EmbeddingModel string
	Dimensions     int
	KeywordModel   string
	NumLabels      int
	Threshold      float64
}

// DefaultModelConfig returns defaults matching the indexed 300-dimension sentence vectors.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		EmbeddingModel: "text-embedding-3-small",
		Dimensions:     300,
		KeywordModel:   "gpt-4o-mini",
		NumLabels:      10,
		Threshold:      0.1,
	}
}
