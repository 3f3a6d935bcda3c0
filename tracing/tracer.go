// Package tracing wraps the pipeline's tracing collaborator behind a small
// interface. The pipeline core only ever decides *when* to open or end a
// span; what a span actually does (export, sample, no-op) is entirely this
// package's concern, backed by go.opentelemetry.io/otel.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Span is a single open span. Implementations must be safe to End exactly
// once; ending twice is a no-op.
type Span interface {
	// Valid reports whether this span represents a real (sampled-on) trace
	// context, as opposed to the default-invalid span used when sampling
	// is off for a given payload.
	Valid() bool
	// SetAttribute attaches a key-value pair to the span.
	SetAttribute(key string, value any)
	// End closes the span.
	End()
}

// Tracer opens spans. Root returns a new root span under the given name;
// Child returns a span nested under parent. Both accept a context so a
// real OTel tracer can propagate deadlines/cancellation, though the core
// never blocks on either call.
type Tracer interface {
	Root(ctx context.Context, name string) Span
	Child(ctx context.Context, parent Span, name string) Span
}

// otelSpan adapts an oteltrace.Span to the Span interface.
type otelSpan struct {
	span  oteltrace.Span
	valid bool
}

func (s *otelSpan) Valid() bool { return s.valid }

func (s *otelSpan) SetAttribute(key string, value any) {
	if s.span == nil {
		return
	}
	s.span.SetAttributes(toKeyValue(key, value))
}

func (s *otelSpan) End() {
	if s.span != nil {
		s.span.End()
	}
}

func toKeyValue(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, "")
	}
}

// OTelTracer is a Tracer backed by a real go.opentelemetry.io/otel
// tracer.Tracer, typically obtained from an *sdktrace.TracerProvider.
type OTelTracer struct {
	tracer oteltrace.Tracer
}

// NewOTelTracer wraps an OTel tracer.
func NewOTelTracer(tracer oteltrace.Tracer) *OTelTracer {
	return &OTelTracer{tracer: tracer}
}

func (t *OTelTracer) Root(ctx context.Context, name string) Span {
	_, span := t.tracer.Start(ctx, name)
	return &otelSpan{span: span, valid: true}
}

func (t *OTelTracer) Child(ctx context.Context, parent Span, name string) Span {
	parentCtx := ctx
	if ps, ok := parent.(*otelSpan); ok && ps.span != nil {
		parentCtx = oteltrace.ContextWithSpan(ctx, ps.span)
	}
	_, span := t.tracer.Start(parentCtx, name)
	return &otelSpan{span: span, valid: parent.Valid()}
}
