package driving

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// CaptureService accepts documents from the browser capture client
type CaptureService interface {
	// Capture normalises the payload, substitutes video transcripts and ingests it
	Capture(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureResult, error)
}
