package driving

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// DocumentService ingests, edits and lists documents
type DocumentService interface {
	// Ingest chunks, embeds, persists and indexes a document. All or nothing.
	Ingest(ctx context.Context, req domain.IngestRequest) (int64, error)

	// Update replaces title and content, re-chunking and re-embedding
	Update(ctx context.Context, id int64, req domain.UpdateDocumentRequest) (*domain.Document, error)

	// Delete soft-deletes a document and removes it from the index
	Delete(ctx context.Context, id int64) error

	// Get retrieves an active document by ID
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// Exists reports whether an active document was ingested from url
	Exists(ctx context.Context, url string) (bool, error)

	// Chunks retrieves the chunks of an active document in ordinal order
	Chunks(ctx context.Context, id int64) ([]*domain.Chunk, error)

	// Recent returns the most recently created active documents
	Recent(ctx context.Context, limit int) ([]domain.DocumentSummary, error)

	// Reindex re-chunks and re-embeds every active document and returns how many were processed
	Reindex(ctx context.Context) (int, error)
}
