// Package tracing wires OpenTelemetry spans around the dashboard RPCs and
// writes finished spans to a JSONL file.
package tracing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "hivewatch.grpc"

// Setup installs a global TracerProvider that batches spans into
// <dir>/<service>-<unix seconds>.jsonl. An empty dir disables tracing and
// returns a no-op shutdown.
func Setup(dir, service, node string) (shutdown func(context.Context) error, err error) {
	if dir == "" {
		return func(context.Context) error { return nil }, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%d.jsonl", service, time.Now().Unix()))
	exporter, err := NewJSONLExporter(path)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter,
			sdktrace.WithBatchTimeout(2*time.Second),
		)),
		sdktrace.WithResource(resource.NewSchemaless(
			serviceNameKey.String(service),
			attribute.String("hivewatch.node", node),
		)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the package tracer for manual span creation.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
