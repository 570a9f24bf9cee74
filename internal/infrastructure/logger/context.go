package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	loggerKey     struct{}
	requestIDKey  struct{}
	analysisIDKey struct{}
)

// WithContext returns a copy of ctx carrying logger
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Ensure attaches fallback unless ctx already carries a logger.
func Ensure(ctx context.Context, fallback *zap.Logger) context.Context {
	if _, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return ctx
	}
	return WithContext(ctx, fallback)
}

// FromContext returns the logger attached to ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID and returns a logger tagged with it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey{}, requestID)
	l := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, l), l
}

// WithAnalysisID tags every later log line of a run with its ID. When a
// span is recording, its trace and span IDs are added too.
func WithAnalysisID(ctx context.Context, analysisID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, analysisIDKey{}, analysisID)
	fields := append([]zap.Field{zap.String("analysis_id", analysisID)}, TraceFields(ctx)...)
	l := FromContext(ctx).With(fields...)
	return WithContext(ctx, l), l
}

// TraceFields returns trace_id and span_id for the active span, if any.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func GetAnalysisID(ctx context.Context) string {
	id, _ := ctx.Value(analysisIDKey{}).(string)
	return id
}
