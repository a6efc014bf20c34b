package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

var _ driven.PageFetcher = (*MockPageFetcher)(nil)

// MockPageFetcher serves pages from a map keyed by URL
type MockPageFetcher struct {
	mu      sync.Mutex
	fetched []string

	Pages   map[string]*domain.Page
	FetchFn func(ctx context.Context, url string) (*domain.Page, error)
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) (*domain.Page, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()

	if m.FetchFn != nil {
		return m.FetchFn(ctx, url)
	}
	page, ok := m.Pages[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return page, nil
}

// Fetched returns the URLs requested so far, in order
func (m *MockPageFetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.fetched...)
}
