package mocks

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*MockEmbeddingService)(nil)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing.
// Texts are embedded as hashed bags of lower-cased words, so texts sharing
// words score higher than unrelated texts.
type MockEmbeddingService struct {
	dimensions int
	model      string
	calls      atomic.Int64

	mu sync.Mutex
	// FailOn returns an error for a given text (optional)
	FailOn func(text string) error
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 64,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)

	m.mu.Lock()
	failOn := m.FailOn
	m.mu.Unlock()
	if failOn != nil {
		if err := failOn(text); err != nil {
			return nil, err
		}
	}
	return m.generateEmbedding(text), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding hashes each word into a bucket and normalizes the result
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	embedding := make([]float32, m.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		embedding[h.Sum32()%uint32(m.dimensions)] += 1
	}

	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		embedding[0] = 1
		return embedding
	}
	norm = math.Sqrt(norm)
	for i := range embedding {
		embedding[i] = float32(float64(embedding[i]) / norm)
	}
	return embedding
}

// Helper methods for testing

// SetFailOn installs a failure hook
func (m *MockEmbeddingService) SetFailOn(fn func(text string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailOn = fn
}

// Calls returns the number of Embed calls
func (m *MockEmbeddingService) Calls() int {
	return int(m.calls.Load())
}
