// Package telemetry wires the OpenTelemetry trace pipeline. When no
// endpoint is configured the global tracer stays a no-op, so instrumented
// code pays nothing.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds the telemetry configuration.
type Config struct {
	// OTLPEndpoint is the collector host:port, e.g. "localhost:4318".
	// Empty disables export.
	OTLPEndpoint string

	// ServiceName is the reported service name.
	ServiceName string

	// Insecure uses plain HTTP to the collector.
	Insecure bool
}

// Setup installs the global tracer provider and returns a shutdown
// function that flushes pending spans. With an empty endpoint it returns a
// no-op shutdown.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "recall"
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	if logger != nil {
		logger.Info("telemetry enabled",
			"endpoint", cfg.OTLPEndpoint,
			"service", cfg.ServiceName,
		)
	}

	return provider.Shutdown, nil
}
