package analysis

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the spans this package emits
const TracerName = "github.com/catalogrecon/backend/internal/application/analysis"

// tracer resolves the global provider on every call so a provider
// installed after package init is still picked up
func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// finishSpan records err on span, if any, and ends it
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
