package mocks

import (
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

var _ driven.Normaliser = (*MockNormaliser)(nil)

// MockNormaliser is a mock implementation of Normaliser for testing
type MockNormaliser struct {
	MethodsFn   func() []string
	PriorityFn  func() int
	NormaliseFn func(content string) string
}

func NewMockNormaliser() *MockNormaliser {
	return &MockNormaliser{}
}

func (m *MockNormaliser) Normalise(content string) string {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(content)
	}
	return content
}

func (m *MockNormaliser) Methods() []string {
	if m.MethodsFn != nil {
		return m.MethodsFn()
	}
	return []string{"dom"}
}

func (m *MockNormaliser) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 50
}
