package driven

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL).
// Deleted documents are invisible to every read.
type DocumentStore interface {
	// CreateWithChunks inserts a document and all of its chunks in one
	// transaction. IDs and timestamps are assigned on the passed values.
	CreateWithChunks(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error

	// ReplaceContent updates title and content and swaps the chunk set in one transaction
	ReplaceContent(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error

	// SoftDelete marks a document deleted and removes its chunks in one transaction
	SoftDelete(ctx context.Context, id int64) error

	// SoftDeleteMany marks every listed document deleted and removes their
	// chunks in one transaction. Either all are deleted or none are.
	SoftDeleteMany(ctx context.Context, ids []int64) error

	// Purge physically removes a document and its chunks
	Purge(ctx context.Context, id int64) error

	// Get retrieves an active document by ID
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// ListRecent returns active documents ordered by creation time descending
	ListRecent(ctx context.Context, limit int) ([]*domain.Document, error)

	// ListActive returns every active document
	ListActive(ctx context.Context) ([]*domain.Document, error)

	// ExistsByURL reports whether an active document has this source URL
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// Count returns the active document count
	Count(ctx context.Context) (int, error)
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// InsertChunks inserts chunks for a document in a single transaction
	InsertChunks(ctx context.Context, documentID int64, chunks []*domain.Chunk) error

	// DeleteByDocument deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID int64) error

	// GetByDocument retrieves all chunks for a document ordered by ordinal
	GetByDocument(ctx context.Context, documentID int64) ([]*domain.Chunk, error)

	// ScanEmbeddings streams every chunk of every active document with its
	// embedding. Used to rebuild the vector index.
	ScanEmbeddings(ctx context.Context, fn func(*domain.Chunk) error) error
}
