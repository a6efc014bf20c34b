package driven

// IndexEntry is one chunk vector held by the index
type IndexEntry struct {
	ChunkID    int64
	DocumentID int64
	Vector     []float32
}

// ScoredChunk is a ranked index match
type ScoredChunk struct {
	ChunkID    int64
	DocumentID int64
	Score      float32
}

// VectorIndex holds all chunk vectors resident in memory.
// Callers depend only on this interface so an approximate index can be
// substituted without changing them.
type VectorIndex interface {
	// Add appends entries. Fails with domain.ErrConfiguration on a dimension mismatch.
	Add(entries ...IndexEntry) error

	// RemoveDocument removes all entries of a document and returns how many were removed
	RemoveDocument(documentID int64) int

	// Search returns the top k entries by cosine similarity, best first
	Search(query []float32, k int) ([]ScoredChunk, error)

	// Len returns the number of entries
	Len() int

	// Reset drops every entry
	Reset()
}
