package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewOTLPGRPCTracer dials endpoint and returns an OTelTracer plus a
// shutdown func that flushes and closes the underlying TracerProvider.
// Construction never blocks on the connection succeeding: the gRPC
// exporter connects lazily, matching otlptracegrpc's default behavior.
func NewOTLPGRPCTracer(ctx context.Context, endpoint, serviceName string) (*OTelTracer, func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: failed to create OTLP exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)

	tracer := provider.Tracer(serviceName)
	return NewOTelTracer(tracer), provider.Shutdown, nil
}
