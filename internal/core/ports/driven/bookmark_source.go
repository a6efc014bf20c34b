package driven

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// BookmarkSource reads the external bookmark tree. The engine never writes to it.
type BookmarkSource interface {
	// Folders returns the folder tree roots
	Folders(ctx context.Context) ([]*domain.BookmarkFolder, error)

	// Bookmarks returns every URL bookmark with its folder chain
	Bookmarks(ctx context.Context) ([]*domain.Bookmark, error)
}
