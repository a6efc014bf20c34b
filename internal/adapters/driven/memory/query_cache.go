package memory

import (
	"context"

	lru "github.com/hashicorp/golang-lru"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryCache = (*QueryCache)(nil)

// DefaultQueryCacheSize bounds the number of cached query embeddings
const DefaultQueryCacheSize = 256

// QueryCache is a bounded LRU of query embeddings
type QueryCache struct {
	cache *lru.Cache
}

// NewQueryCache creates a cache holding at most size queries
func NewQueryCache(size int) (*QueryCache, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &QueryCache{cache: c}, nil
}

// Get returns a copy of the cached embedding
func (q *QueryCache) Get(ctx context.Context, query string) ([]float32, bool) {
	v, ok := q.cache.Get(query)
	if !ok {
		return nil, false
	}
	vec := v.([]float32)
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

func (q *QueryCache) Put(ctx context.Context, query string, vector []float32) {
	vec := make([]float32, len(vector))
	copy(vec, vector)
	q.cache.Add(query, vec)
}

func (q *QueryCache) Len() int {
	return q.cache.Len()
}
