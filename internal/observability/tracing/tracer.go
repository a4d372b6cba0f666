// Package tracing wires OpenTelemetry tracing for the worker. Spans
// cover whole passes and individual source polls; the default provider
// keeps spans in-process unless an exporter is configured at startup.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("rules-radar")

// GetTracer returns the application tracer for creating spans.
func GetTracer() trace.Tracer {
	return tracer
}

// InitTracerProvider installs an SDK tracer provider and returns its
// shutdown function. Call the shutdown on worker exit to flush spans.
func InitTracerProvider() func(context.Context) error {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("rules-radar")
	return tp.Shutdown
}
