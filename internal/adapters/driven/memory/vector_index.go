// Package memory provides in-process implementations of the vector index
// and the query-embedding cache.
package memory

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

type entry struct {
	chunkID    int64
	documentID int64
	vector     []float32
	norm       float64
}

// VectorIndex is an exact brute-force cosine index. Every entry is scanned
// on each search and a bounded heap keeps the best k.
type VectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	entries    []entry
}

// NewVectorIndex creates an index for vectors of the given dimension.
// A zero dimension adopts the size of the first vector added.
func NewVectorIndex(dimensions int) *VectorIndex {
	return &VectorIndex{dimensions: dimensions}
}

// Add appends entries. Either all entries are added or none.
func (x *VectorIndex) Add(entries ...driven.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	dims := x.dimensions
	for _, e := range entries {
		if dims == 0 {
			dims = len(e.Vector)
		}
		if len(e.Vector) != dims || dims == 0 {
			return fmt.Errorf("%w: chunk %d has %d dimensions, index expects %d",
				domain.ErrConfiguration, e.ChunkID, len(e.Vector), dims)
		}
	}
	x.dimensions = dims

	for _, e := range entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		x.entries = append(x.entries, entry{
			chunkID:    e.ChunkID,
			documentID: e.DocumentID,
			vector:     vec,
			norm:       norm(vec),
		})
	}
	return nil
}

// RemoveDocument removes all entries of a document
func (x *VectorIndex) RemoveDocument(documentID int64) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.entries[:0]
	for _, e := range x.entries {
		if e.documentID != documentID {
			kept = append(kept, e)
		}
	}
	removed := len(x.entries) - len(kept)

	// Clear the tail so removed vectors can be collected
	for i := len(kept); i < len(x.entries); i++ {
		x.entries[i] = entry{}
	}
	x.entries = kept
	return removed
}

// Search returns the top k entries by cosine similarity, best first.
// Equal scores are ordered by chunk id.
func (x *VectorIndex) Search(query []float32, k int) ([]driven.ScoredChunk, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.entries) == 0 {
		return nil, nil
	}
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrConfiguration, len(query), x.dimensions)
	}

	qnorm := norm(query)
	if qnorm == 0 {
		return nil, nil
	}

	h := make(scoreHeap, 0, min(k, len(x.entries)))
	for _, e := range x.entries {
		if e.norm == 0 {
			continue
		}
		s := driven.ScoredChunk{
			ChunkID:    e.chunkID,
			DocumentID: e.documentID,
			Score:      float32(dot(query, e.vector) / (qnorm * e.norm)),
		}
		if len(h) < k {
			heap.Push(&h, s)
		} else if better(s, h[0]) {
			h[0] = s
			heap.Fix(&h, 0)
		}
	}

	out := []driven.ScoredChunk(h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out, nil
}

// Len returns the number of entries
func (x *VectorIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Reset drops every entry. The dimension is kept.
func (x *VectorIndex) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = nil
}

func better(a, b driven.ScoredChunk) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ChunkID < b.ChunkID
}

// scoreHeap is a min-heap on ranking, so the root is the worst kept match
type scoreHeap []driven.ScoredChunk

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return better(h[j], h[i]) }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(driven.ScoredChunk)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
