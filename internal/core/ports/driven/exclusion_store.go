package driven

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// ExclusionStore persists the exclusion rule sets
type ExclusionStore interface {
	// GetRules returns the current rules; empty sets when none were saved
	GetRules(ctx context.Context) (domain.ExclusionRules, error)

	// SaveRules replaces both rule sets atomically
	SaveRules(ctx context.Context, rules domain.ExclusionRules) error
}
