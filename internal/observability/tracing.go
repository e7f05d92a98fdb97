// Package observability brackets registry operations with OpenTelemetry
// spans. Every public operation opens exactly one span and closes it on
// every exit path; failures close with a best-effort error code so traces
// stay classifiable even for wrapped collaborator errors.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	dErrors "subject-registry/pkg/domain-errors"
)

const tracerName = "subject-registry"

// Tracer wraps an OpenTelemetry tracer for registry operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer derives a registry tracer from the given provider.
func NewTracer(provider trace.TracerProvider) *Tracer {
	return &Tracer{tracer: provider.Tracer(tracerName)}
}

// Noop returns a tracer that records nothing. Default when no provider is
// wired.
func Noop() *Tracer {
	return NewTracer(noop.NewTracerProvider())
}

// Start opens a span for one registry operation.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// End closes the span, marking it failed with the error's domain code when
// err is non-nil. Safe for use in a defer with a named error return.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error_code", string(dErrors.CodeOf(err))))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
