package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/observe"
)

// Defaults.
const (
	DefaultPath        = "~/.tiercache/cache.db"
	DefaultSecureKey   = "secretref:env:TIERCACHE_SECURE_KEY"
	DefaultBusyTimeout = 5 * time.Second
	DefaultServiceName = "tiercache"
)

// DefaultConfig returns a configuration with every field set to its default.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Cache.MaxSizeBytes == 0 {
		c.Cache.MaxSizeBytes = cache.DefaultMaxSizeBytes
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = cache.DefaultSweepInterval
	}
	if c.Cache.SweepBatchSize == 0 {
		c.Cache.SweepBatchSize = cache.DefaultSweepBatchSize
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultPath
	}
	c.Store.Path = expandHome(c.Store.Path)
	if c.Store.SecureKey == "" {
		c.Store.SecureKey = DefaultSecureKey
	}
	if c.Store.BusyTimeout == 0 {
		c.Store.BusyTimeout = DefaultBusyTimeout
	}
	applyObserveDefaults(&c.Observe)
}

func applyObserveDefaults(o *observe.Config) {
	if o.ServiceName == "" {
		o.ServiceName = DefaultServiceName
	}
	if o.Tracing.Exporter == "" {
		o.Tracing.Exporter = "none"
	}
	if o.Tracing.Enabled && o.Tracing.SamplePct == 0 {
		o.Tracing.SamplePct = 1.0
	}
	if o.Metrics.Exporter == "" {
		o.Metrics.Exporter = "none"
	}
	if o.Logging.Level == "" {
		o.Logging.Level = "info"
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
