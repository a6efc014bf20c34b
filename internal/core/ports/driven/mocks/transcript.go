package mocks

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

var _ driven.TranscriptFetcher = (*MockTranscriptFetcher)(nil)

// MockTranscriptFetcher is a mock implementation of TranscriptFetcher for testing
type MockTranscriptFetcher struct {
	FetchFn func(ctx context.Context, videoURL string) (string, error)
}

func (m *MockTranscriptFetcher) Fetch(ctx context.Context, videoURL string) (string, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, videoURL)
	}
	return "", nil
}
