package cache

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/tiercache/observe"
)

// Defaults applied by New.
const (
	DefaultMaxSizeBytes   int64 = 50 << 20
	DefaultSweepInterval        = 6 * time.Hour
	DefaultSweepBatchSize       = 256
)

type options struct {
	maxSize       int64
	policy        Policy
	sweepInterval time.Duration
	sweepBatch    int
	clock         Clock
	mw            *observe.Middleware
	meter         metric.Meter
}

func defaultOptions() options {
	return options{
		maxSize:       DefaultMaxSizeBytes,
		policy:        DefaultPolicy(),
		sweepInterval: DefaultSweepInterval,
		sweepBatch:    DefaultSweepBatchSize,
		clock:         SystemClock(),
	}
}

// Option configures a TieredCache.
type Option func(*options)

// WithMaxSize sets the byte budget shared by both tiers.
func WithMaxSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

// WithPolicy sets the category TTL table.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p.Clone() }
}

// WithSweepInterval sets the background sweep period used by Start.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.sweepInterval = d }
}

// WithSweepBatchSize sets how many keys a background sweep handles per
// lock acquisition.
func WithSweepBatchSize(n int) Option {
	return func(o *options) { o.sweepBatch = n }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMiddleware routes every operation through mw for tracing, metrics
// and logging.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) { o.mw = mw }
}

// WithMeter registers the cache.size.bytes gauge on meter.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}
