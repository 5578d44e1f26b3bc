// Package observe provides observability primitives for cache operations.
//
// It is a pure instrumentation library: structured JSON logging,
// OpenTelemetry metrics and spans, and a Middleware that applies all three
// around one cache operation. Exporter setup lives in the exporters
// subpackage and is only touched by NewObserver.
//
// Cache values are never logged; the logger redacts value-bearing keys.
package observe
