package driving

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// ExclusionService manages folder and domain exclusion rules
type ExclusionService interface {
	// GetRules returns the current folder-id and domain-pattern sets
	GetRules(ctx context.Context) (domain.ExclusionRules, error)

	// SaveRules validates every pattern before accepting any, persists the
	// rules and sweeps already-ingested documents that now match
	SaveRules(ctx context.Context, rules domain.ExclusionRules) (*domain.SweepResult, error)

	// Folders returns the external bookmark folder tree
	Folders(ctx context.Context) ([]*domain.BookmarkFolder, error)
}

// BookmarkService ingests pages from the external bookmark tree
type BookmarkService interface {
	// IngestBookmarks fetches and ingests every bookmark that is neither
	// excluded nor already stored
	IngestBookmarks(ctx context.Context) (*domain.BookmarkSyncResult, error)
}
