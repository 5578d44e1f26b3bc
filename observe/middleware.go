package observe

import (
	"context"
	"time"
)

// OpFunc is one cache operation. It returns an outcome label such as
// "ok", "hit", "miss", "full" or "error", and the operation's error.
type OpFunc func(ctx context.Context) (result string, err error)

// Middleware wraps cache operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Run is safe for concurrent use.
//   - Context: the span context is passed to fn.
//   - Errors: errors from fn are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// Run executes fn inside a span, records metrics and logs the outcome.
//
// Successful outcomes log at debug; "full" logs at warn; any error logs at
// error level.
func (m *Middleware) Run(ctx context.Context, meta OpMeta, fn OpFunc) error {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	result, err := fn(ctx)
	duration := time.Since(start)
	if result == "" {
		result = "ok"
		if err != nil {
			result = "error"
		}
	}

	m.tracer.EndSpan(span, result, err)
	m.metrics.RecordOp(ctx, meta, result, duration)

	fields := append(meta.Fields(),
		F("cache.result", result),
		F("duration_ms", float64(duration.Microseconds())/1000),
	)
	switch {
	case result == "full":
		m.logger.Warn(ctx, "cache operation rejected", fields...)
	case err != nil:
		m.logger.Error(ctx, "cache operation failed", append(fields, F("error", err))...)
	default:
		m.logger.Debug(ctx, "cache operation completed", fields...)
	}

	return err
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
