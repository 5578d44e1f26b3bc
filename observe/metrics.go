package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording never blocks on export.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp records one operation with its outcome label and duration.
	RecordOp(ctx context.Context, meta OpMeta, result string, duration time.Duration)

	// RecordEvictions records n entries removed from tier for reason
	// (expired|malformed).
	RecordEvictions(ctx context.Context, tier, reason string, n int)
}

type metricsImpl struct {
	opCount       metric.Int64Counter
	opDuration    metric.Float64Histogram
	evictionCount metric.Int64Counter
}

// NewMetrics creates the cache instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	opCount, err := meter.Int64Counter(
		"cache.ops.total",
		metric.WithDescription("Total number of cache operations"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return nil, err
	}

	opDuration, err := meter.Float64Histogram(
		"cache.op.duration_ms",
		metric.WithDescription("Cache operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evictionCount, err := meter.Int64Counter(
		"cache.evictions.total",
		metric.WithDescription("Entries removed by sweeps and read-time purges"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		opCount:       opCount,
		opDuration:    opDuration,
		evictionCount: evictionCount,
	}, nil
}

func (m *metricsImpl) RecordOp(ctx context.Context, meta OpMeta, result string, duration time.Duration) {
	attrs := append(meta.Attributes(), attribute.String("cache.result", result))
	opt := metric.WithAttributes(attrs...)

	m.opCount.Add(ctx, 1, opt)
	m.opDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordEvictions(ctx context.Context, tier, reason string, n int) {
	if n <= 0 {
		return
	}
	m.evictionCount.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("cache.tier", tier),
		attribute.String("cache.reason", reason),
	))
}

// ObserveSize registers an observable gauge, cache.size.bytes, reporting
// size() at each collection. Unregister the returned registration on close.
func ObserveSize(meter metric.Meter, size func() int64) (metric.Registration, error) {
	gauge, err := meter.Int64ObservableGauge(
		"cache.size.bytes",
		metric.WithDescription("Bytes of encoded entries held across both tiers"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, size())
		return nil
	}, gauge)
}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordOp(context.Context, OpMeta, string, time.Duration) {}
func (noopMetrics) RecordEvictions(context.Context, string, string, int)    {}
