// Package worker runs the background loops of the engine process.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// LockKeeper extends a held lock on an interval so a TTL-based lock
// (Redis) does not lapse while the engine owns the store.
type LockKeeper struct {
	lock     driven.DistributedLock
	name     string
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger

	// OnLost is called once when the lock can no longer be extended
	onLost func(error)

	// Internal state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// LockKeeperConfig holds configuration for the lock keeper.
type LockKeeperConfig struct {
	Lock     driven.DistributedLock
	Name     string
	TTL      time.Duration
	Interval time.Duration // defaults to TTL/3
	Logger   *slog.Logger
	OnLost   func(error)
}

// NewLockKeeper creates a new lock keeper.
func NewLockKeeper(cfg LockKeeperConfig) *LockKeeper {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = ttl / 3
	}

	return &LockKeeper{
		lock:     cfg.Lock,
		name:     cfg.Name,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		onLost:   cfg.OnLost,
	}
}

// Start begins the extend loop.
// It runs until Stop is called or context is cancelled.
func (k *LockKeeper) Start(ctx context.Context) {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return
	}
	k.running = true
	k.stopCh = make(chan struct{})
	k.doneCh = make(chan struct{})
	k.mu.Unlock()

	k.logger.Info("lock keeper starting", "lock", k.name, "interval", k.interval)

	go k.loop(ctx)
}

// Stop ends the loop and waits for it to exit.
func (k *LockKeeper) Stop() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	close(k.stopCh)
	done := k.doneCh
	k.mu.Unlock()

	<-done

	k.mu.Lock()
	k.running = false
	k.mu.Unlock()

	k.logger.Info("lock keeper stopped", "lock", k.name)
}

func (k *LockKeeper) loop(ctx context.Context) {
	defer close(k.doneCh)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-k.stopCh:
			return
		case <-ticker.C:
		}

		err := k.lock.Extend(ctx, k.name, k.ttl)
		if err == nil {
			failures = 0
			continue
		}

		failures++
		k.logger.Warn("failed to extend lock", "lock", k.name, "error", err, "failures", failures)

		// Two missed extensions leave less than a third of the TTL
		if failures >= 2 {
			k.logger.Error("engine lock lost", "lock", k.name, "error", err)
			if k.onLost != nil {
				k.onLost(err)
			}
			return
		}
	}
}
