package driven

import (
	"context"
)

// EmbeddingService generates text embeddings.
// Returned vectors are L2-normalized and have exactly Dimensions() entries.
type EmbeddingService interface {
	// Embed generates the embedding of a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available and its model is loaded
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
