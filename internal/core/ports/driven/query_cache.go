package driven

import "context"

// QueryCache maps query strings to their embeddings.
// Implementations are bounded and safe for concurrent use.
type QueryCache interface {
	// Get returns the cached embedding of a query
	Get(ctx context.Context, query string) ([]float32, bool)

	// Put stores the embedding of a query
	Put(ctx context.Context, query string, vector []float32)

	// Len returns the number of cached queries
	Len() int
}
