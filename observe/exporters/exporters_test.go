package exporters

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewTracingExporter_Unknown(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "jaeger")
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
	if !strings.Contains(err.Error(), "unknown tracing exporter") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewTracingExporter_Stdout(t *testing.T) {
	prev := Output
	Output = &bytes.Buffer{}
	t.Cleanup(func() { Output = prev })

	exp, err := NewTracingExporter(context.Background(), "stdout")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
	_ = exp.Shutdown(context.Background())
}

func TestNewTracingExporter_None(t *testing.T) {
	for _, name := range []string{"none", ""} {
		exp, err := NewTracingExporter(context.Background(), name)
		if err != nil {
			t.Fatalf("%q: error = %v", name, err)
		}
		if exp != nil {
			t.Errorf("%q: expected nil exporter", name)
		}
	}
}

func TestNewTracingExporter_OTLPRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	_, err := NewTracingExporter(context.Background(), "otlp")
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got %v", err)
	}
}

func TestNewTracingExporter_OTLPWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "localhost:4317")

	exp, err := NewTracingExporter(context.Background(), "otlp")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
	_ = exp.Shutdown(context.Background())
}

func TestNewMetricsReader(t *testing.T) {
	prev := Output
	Output = &bytes.Buffer{}
	t.Cleanup(func() { Output = prev })

	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{name: "stdout"},
		{name: "none", wantNil: true},
		{name: "", wantNil: true},
		{name: "statsd", wantNil: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewMetricsReader(context.Background(), tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (r == nil) != tt.wantNil {
				t.Fatalf("reader = %v, wantNil %v", r, tt.wantNil)
			}
			if r != nil {
				_ = r.Shutdown(context.Background())
			}
		})
	}
}

func TestNewMetricsReader_OTLPRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	_, err := NewMetricsReader(context.Background(), "otlp")
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got %v", err)
	}
}
