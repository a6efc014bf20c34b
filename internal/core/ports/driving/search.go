package driving

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// SearchService handles semantic search over the corpus
type SearchService interface {
	// Search embeds the query and returns per-document hits at or above the
	// cutoff. A nil opts.Cutoff selects the adaptive threshold.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// LoadMore lowers the cutoff by one step and re-filters the cached
	// candidate set of the same query string
	LoadMore(ctx context.Context, query string, currentCutoff float64) (*domain.SearchResult, error)
}
