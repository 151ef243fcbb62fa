package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedDelay enforces a minimum interval between consecutive permits.
// The zero last-permit time means no permit has been issued yet, so the
// first Wait never blocks.
type FixedDelay struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewFixedDelay creates a limiter spacing permits by cfg.MinInterval.
func NewFixedDelay(cfg Config) *FixedDelay {
	cfg = applyDefaults(cfg)
	return &FixedDelay{interval: cfg.MinInterval}
}

// Wait blocks for the remainder of the interval, then records the permit
// at the time it is actually issued. The lock is held while sleeping, so
// concurrent callers are served one interval apart in arrival order.
func (fd *FixedDelay) Wait(ctx context.Context) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if err := sleep(ctx, fd.reserve(time.Now())); err != nil {
		return err
	}
	fd.last = time.Now()
	return nil
}

// Allow returns true and records a permit if no wait is needed.
func (fd *FixedDelay) Allow() bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	now := time.Now()
	if fd.reserve(now) > 0 {
		return false
	}
	fd.last = now
	return true
}

// Reserve returns the time to wait before the next permit.
func (fd *FixedDelay) Reserve() time.Duration {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.reserve(time.Now())
}

func (fd *FixedDelay) reserve(now time.Time) time.Duration {
	if fd.last.IsZero() {
		return 0
	}
	elapsed := now.Sub(fd.last)
	if elapsed >= fd.interval {
		return 0
	}
	return fd.interval - elapsed
}

// Reset forgets the last permit.
func (fd *FixedDelay) Reset() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.last = time.Time{}
}
