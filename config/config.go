package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/secret"
)

// ErrInvalidConfig is returned for configuration that fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root configuration.
type Config struct {
	Cache   CacheConfig    `yaml:"cache"`
	Store   StoreConfig    `yaml:"store"`
	Observe observe.Config `yaml:"observe"`
}

// CacheConfig configures the tiered cache.
type CacheConfig struct {
	MaxSizeBytes   int64                    `yaml:"max_size_bytes"`
	SweepInterval  time.Duration            `yaml:"sweep_interval"`
	SweepBatchSize int                      `yaml:"sweep_batch_size"`
	MaxTTL         time.Duration            `yaml:"max_ttl"`
	TTLs           map[string]time.Duration `yaml:"ttls"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Path is the SQLite database file. A leading ~ is expanded.
	Path string `yaml:"path"`

	// SecureKey is the secure tier key: hex or base64, or a secretref.
	SecureKey string `yaml:"secure_key"`

	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// Policy builds the cache TTL policy. Entries in ttls override the default
// table; categories not named keep their default TTL.
func (c *Config) Policy() cache.Policy {
	p := cache.DefaultPolicy()
	for name, ttl := range c.Cache.TTLs {
		p.TTLs[cache.Category(name)] = ttl
	}
	if c.Cache.MaxTTL > 0 {
		p.MaxTTL = c.Cache.MaxTTL
	}
	return p
}

// CacheOptions returns the cache options described by c followed by extra.
func (c *Config) CacheOptions(extra ...cache.Option) []cache.Option {
	opts := []cache.Option{
		cache.WithMaxSize(c.Cache.MaxSizeBytes),
		cache.WithPolicy(c.Policy()),
		cache.WithSweepInterval(c.Cache.SweepInterval),
		cache.WithSweepBatchSize(c.Cache.SweepBatchSize),
	}
	return append(opts, extra...)
}

// SecureKey resolves store.secure_key through r and decodes it.
func (c *Config) SecureKey(ctx context.Context, r *secret.Resolver) ([]byte, error) {
	raw, err := r.ResolveValue(ctx, c.Store.SecureKey)
	if err != nil {
		return nil, fmt.Errorf("store.secure_key: %w", err)
	}
	key, err := secret.ParseKey(raw)
	if err != nil {
		return nil, fmt.Errorf("store.secure_key: %w", err)
	}
	return key, nil
}
