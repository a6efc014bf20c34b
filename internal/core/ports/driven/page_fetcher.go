package driven

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// PageFetcher downloads a web page and extracts its readable text.
// A dead link fails with domain.ErrNotFound.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.Page, error)
}
