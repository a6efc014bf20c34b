package domain

import (
	"fmt"
	"time"
)

// EngineState is the lifecycle state of the retrieval engine
type EngineState string

const (
	EngineUninitialized EngineState = "uninitialized"
	EngineInitializing  EngineState = "initializing"
	EngineReady         EngineState = "ready"
	EngineError         EngineState = "error"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
// Error is terminal.
func (s EngineState) CanTransition(next EngineState) bool {
	switch s {
	case EngineUninitialized:
		return next == EngineInitializing
	case EngineInitializing:
		return next == EngineReady || next == EngineError
	default:
		return false
	}
}

// EngineConfig holds the tunables of the retrieval engine
type EngineConfig struct {
	// ChunkSize is the window size W in characters
	ChunkSize int

	// ChunkOverlap is the overlap O shared by consecutive windows
	ChunkOverlap int

	// MaxInputChars is the embedding backend's input limit in characters
	MaxInputChars int

	// MinThreshold is the floor of the adaptive cutoff
	MinThreshold float64

	// MaxResults caps the candidate set of a search
	MaxResults int

	// LoadMoreStep is subtracted from the cutoff on load more
	LoadMoreStep float64

	// EmbedConcurrency bounds parallel chunk embedding during ingest
	EmbedConcurrency int

	// CandidateCacheSize bounds the per-query candidate sets kept for load more
	CandidateCacheSize int

	// SnippetLength is the snippet size used in list and search views
	SnippetLength int

	// LockTTL is the lifetime of the single-owner engine lock
	LockTTL time.Duration
}

// DefaultEngineConfig returns sensible defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ChunkSize:          500,
		ChunkOverlap:       50,
		MaxInputChars:      2048,
		MinThreshold:       0.3,
		MaxResults:         100,
		LoadMoreStep:       0.1,
		EmbedConcurrency:   4,
		CandidateCacheSize: 64,
		SnippetLength:      200,
		LockTTL:            time.Minute,
	}
}

// Validate checks the engine configuration
func (c EngineConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrConfiguration)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrConfiguration)
	}
	if c.MaxInputChars <= 0 {
		return fmt.Errorf("%w: embedding input limit must be positive", ErrConfiguration)
	}
	if c.MinThreshold < 0 || c.MinThreshold > 1 {
		return fmt.Errorf("%w: minimum threshold must be in [0, 1]", ErrConfiguration)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive", ErrConfiguration)
	}
	if c.LoadMoreStep <= 0 || c.LoadMoreStep > 1 {
		return fmt.Errorf("%w: load more step must be in (0, 1]", ErrConfiguration)
	}
	return nil
}
