package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OpMeta describes one cache operation for telemetry purposes.
type OpMeta struct {
	Op       string // write|read|remove|clear|sweep|load (required)
	Tier     string // standard|secure; empty for whole-cache operations
	Category string // TTL category, writes only
}

// SpanName returns the deterministic span name: cache.<op>.
func (m OpMeta) SpanName() string {
	return "cache." + m.Op
}

// Attributes returns the attributes shared by spans and metrics.
func (m OpMeta) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("cache.op", m.Op)}
	if m.Tier != "" {
		attrs = append(attrs, attribute.String("cache.tier", m.Tier))
	}
	if m.Category != "" {
		attrs = append(attrs, attribute.String("cache.category", m.Category))
	}
	return attrs
}

// Fields returns the log fields for the operation.
func (m OpMeta) Fields() []Field {
	fields := []Field{F("cache.op", m.Op)}
	if m.Tier != "" {
		fields = append(fields, F("cache.tier", m.Tier))
	}
	if m.Category != "" {
		fields = append(fields, F("cache.category", m.Category))
	}
	return fields
}

// Tracer wraps OpenTelemetry tracing with cache-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for a cache operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, result string, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer over an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts an internal span named cache.<op>.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := append(meta.Attributes(), attribute.Bool("cache.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan records the result and error status, then ends the span.
func (t *tracerImpl) EndSpan(span trace.Span, result string, err error) {
	span.SetAttributes(attribute.String("cache.result", result))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NoopTracer returns a tracer whose spans are never recorded.
func NoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

type noopTracer struct {
	noop trace.Tracer
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ string, _ error) {
	span.End()
}
