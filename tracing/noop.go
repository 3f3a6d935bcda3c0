package tracing

import "context"

// noopSpan is the default-invalid span used whenever sampling is off for a
// payload. Every operation is a cheap no-op.
type noopSpan struct{}

func (noopSpan) Valid() bool              { return false }
func (noopSpan) SetAttribute(string, any) {}
func (noopSpan) End()                     {}

// Invalid is the shared default-invalid span value, per spec.md's "Span
// context... may be the invalid default context when tracing is sampled
// off for that frame."
var Invalid Span = noopSpan{}

// NoopTracer never produces a real span; every call returns Invalid. It is
// the zero-configuration Tracer used when OTel isn't wired up (tests,
// samplingPeriod == 0 call sites that still need a Tracer value).
type NoopTracer struct{}

func (NoopTracer) Root(context.Context, string) Span        { return Invalid }
func (NoopTracer) Child(context.Context, Span, string) Span { return Invalid }
