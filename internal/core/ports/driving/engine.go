package driving

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// EngineService exposes the engine lifecycle
type EngineService interface {
	// Initialize opens the store and rebuilds the vector index
	Initialize(ctx context.Context) error

	// State returns the current lifecycle state
	State() domain.EngineState

	// Stats returns corpus size and lifecycle state
	Stats(ctx context.Context) (*domain.EngineStats, error)

	// Close releases the engine lock
	Close(ctx context.Context) error
}
