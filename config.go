package cnerium

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config carries the tunables of an [IOContext] and its subsystems.
// Zero values select the documented defaults, so a Config loaded from
// a partial TOML file composes cleanly with them.
type Config struct {
	// PoolWorkers is the thread-pool width. <= 0 selects the hardware
	// thread count (at least 1).
	PoolWorkers int `toml:"pool_workers"`

	// PoolQueueLimit bounds the thread-pool queue. <= 0 leaves it
	// unbounded; when bounded, submissions beyond the limit are
	// rejected with [Rejected].
	PoolQueueLimit int `toml:"pool_queue_limit"`

	// SignalBuffer sizes the signal capture channel. <= 0 selects a
	// small default.
	SignalBuffer int `toml:"signal_buffer"`
}

// DefaultConfig returns the all-defaults configuration.
func DefaultConfig() Config {
	return Config{}
}

// LoadConfig reads a TOML configuration file. Missing keys keep their
// zero value and therefore their runtime default.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cnerium: read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("cnerium: parse config: %w", err)
	}
	return cfg, nil
}

// Option configures an [IOContext] at construction.
type Option func(*Config)

// WithConfig replaces the whole configuration, typically with one
// produced by [LoadConfig]. Options applied after it still take
// effect.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithPoolWorkers sets the thread-pool width.
// Panics if n is negative.
func WithPoolWorkers(n int) Option {
	if n < 0 {
		panic("cnerium: WithPoolWorkers requires a non-negative count")
	}
	return func(c *Config) { c.PoolWorkers = n }
}

// WithPoolQueueLimit bounds the thread-pool queue at n closures.
// Panics if n is negative.
func WithPoolQueueLimit(n int) Option {
	if n < 0 {
		panic("cnerium: WithPoolQueueLimit requires a non-negative limit")
	}
	return func(c *Config) { c.PoolQueueLimit = n }
}

// WithSignalBuffer sizes the signal capture channel.
// Panics if n is negative.
func WithSignalBuffer(n int) Option {
	if n < 0 {
		panic("cnerium: WithSignalBuffer requires a non-negative size")
	}
	return func(c *Config) { c.SignalBuffer = n }
}
