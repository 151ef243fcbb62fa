package ratelimit

import (
	"fmt"
	"time"
)

// Config holds rate limiter configuration.
type Config struct {
	Strategy       Strategy      `mapstructure:"strategy" yaml:"strategy"`
	MinInterval    time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
	RequestsPerSec float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst          int           `mapstructure:"burst" yaml:"burst"`
}

// DefaultConfig returns one request per second, the NCBI limit for clients
// without an API key.
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyFixedDelay,
		MinInterval:    1 * time.Second,
		RequestsPerSec: 1.0,
		Burst:          1,
	}
}

// Validate reports configuration values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Strategy {
	case "", StrategyFixedDelay, StrategyTokenBucket:
	default:
		return fmt.Errorf("unknown rate limit strategy %q", c.Strategy)
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("negative min_interval %s", c.MinInterval)
	}
	return nil
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = def.RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	return cfg
}
