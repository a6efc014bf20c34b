package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

var _ driven.ExclusionStore = (*MockExclusionStore)(nil)

// MockExclusionStore keeps exclusion rules in memory
type MockExclusionStore struct {
	mu    sync.RWMutex
	rules domain.ExclusionRules
	saves int

	SaveErr error
}

// NewMockExclusionStore creates a new MockExclusionStore
func NewMockExclusionStore() *MockExclusionStore {
	return &MockExclusionStore{
		rules: domain.ExclusionRules{Folders: []string{}, Domains: []string{}},
	}
}

func (m *MockExclusionStore) GetRules(ctx context.Context) (domain.ExclusionRules, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.ExclusionRules{
		Folders: append([]string{}, m.rules.Folders...),
		Domains: append([]string{}, m.rules.Domains...),
	}, nil
}

func (m *MockExclusionStore) SaveRules(ctx context.Context, rules domain.ExclusionRules) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.rules = domain.ExclusionRules{
		Folders: append([]string{}, rules.Folders...),
		Domains: append([]string{}, rules.Domains...),
	}
	m.saves++
	return nil
}

// Saves returns how many times rules were saved
func (m *MockExclusionStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
