// Package runtime tracks the engine lifecycle shared by every caller.
package runtime

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// Lifecycle holds the engine state machine.
// Thread-safe for concurrent access.
type Lifecycle struct {
	mu    sync.RWMutex
	state domain.EngineState
	cause error
}

// NewLifecycle starts in the uninitialized state
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: domain.EngineUninitialized}
}

// State returns the current state
func (l *Lifecycle) State() domain.EngineState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Cause returns the error that moved the engine to the error state
func (l *Lifecycle) Cause() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cause
}

// Begin moves to initializing. Fails unless the engine is uninitialized.
func (l *Lifecycle) Begin() error {
	return l.transition(domain.EngineInitializing, nil)
}

// Ready moves from initializing to ready
func (l *Lifecycle) Ready() error {
	return l.transition(domain.EngineReady, nil)
}

// Fail moves from initializing to the terminal error state
func (l *Lifecycle) Fail(cause error) error {
	return l.transition(domain.EngineError, cause)
}

func (l *Lifecycle) transition(next domain.EngineState, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.CanTransition(next) {
		return fmt.Errorf("%w: cannot move from %s to %s", domain.ErrConfiguration, l.state, next)
	}
	l.state = next
	l.cause = cause
	return nil
}

// CheckReady returns nil when the engine accepts work, domain.ErrNotReady
// while it is starting and domain.ErrEngineFailed after a failed start.
func (l *Lifecycle) CheckReady() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch l.state {
	case domain.EngineReady:
		return nil
	case domain.EngineError:
		return fmt.Errorf("%w: %v", domain.ErrEngineFailed, l.cause)
	default:
		return domain.ErrNotReady
	}
}
