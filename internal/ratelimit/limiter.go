// Package ratelimit spaces outbound requests to remote annotation services.
package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the rate limiting interface.
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done.
	Wait(ctx context.Context) error
	// Allow issues a permit if no wait is needed.
	Allow() bool
	// Reserve returns the time to wait for the next permit without taking it.
	Reserve() time.Duration
	// Reset forgets all issued permits.
	Reset()
}

// Strategy defines the rate limiting strategy.
type Strategy string

const (
	StrategyFixedDelay  Strategy = "fixed_delay"
	StrategyTokenBucket Strategy = "token_bucket"
)

// NewLimiter creates a rate limiter based on config.
func NewLimiter(cfg Config) Limiter {
	cfg = applyDefaults(cfg)
	switch cfg.Strategy {
	case StrategyTokenBucket:
		return NewTokenBucket(cfg)
	default:
		return NewFixedDelay(cfg)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
