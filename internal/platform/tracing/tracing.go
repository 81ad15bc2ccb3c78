// Package tracing wraps the OpenTelemetry trace API behind explicit span
// objects. Spans are best-effort observability: they can never fail or abort
// the operation they wrap, and with no SDK installed the global provider is
// a no-op.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for a named component.
type Tracer struct {
	tracer trace.Tracer
}

// New returns a Tracer using the globally registered provider.
func New(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// Span is an explicit, must-close trace region. Close with End, typically
// via defer.
type Span struct {
	span trace.Span
}

// Start opens a span. Always pair with defer span.End(). A nil Tracer yields
// a usable no-op span.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	if t == nil {
		return ctx, &Span{span: trace.SpanFromContext(ctx)}
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Span{span: span}
}

// Annotate attaches attributes to the span.
func (s *Span) Annotate(attrs ...attribute.KeyValue) {
	if s == nil || s.span == nil {
		return
	}
	s.span.SetAttributes(attrs...)
}

// RecordError marks the span failed and records err. Nil errors are ignored.
func (s *Span) RecordError(err error) {
	if s == nil || s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End closes the span.
func (s *Span) End() {
	if s == nil || s.span == nil {
		return
	}
	s.span.End()
}
