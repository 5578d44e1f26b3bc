package config

import (
	"fmt"
	"time"

	"github.com/jonwraymond/tiercache/cache"
)

// Validate checks c and returns an error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if c.Cache.MaxSizeBytes <= 0 {
		return fmt.Errorf("%w: cache.max_size_bytes must be positive", ErrInvalidConfig)
	}
	if c.Cache.SweepInterval < time.Second {
		return fmt.Errorf("%w: cache.sweep_interval must be at least 1s", ErrInvalidConfig)
	}
	if c.Cache.SweepBatchSize <= 0 {
		return fmt.Errorf("%w: cache.sweep_batch_size must be positive", ErrInvalidConfig)
	}
	for name := range c.Cache.TTLs {
		if err := cache.ValidateKey(name); err != nil {
			return fmt.Errorf("%w: cache.ttls: category %q: %v", ErrInvalidConfig, name, err)
		}
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("%w: cache: %w", ErrInvalidConfig, err)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required", ErrInvalidConfig)
	}
	if c.Store.BusyTimeout < 0 {
		return fmt.Errorf("%w: store.busy_timeout must not be negative", ErrInvalidConfig)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
	}
	return nil
}
