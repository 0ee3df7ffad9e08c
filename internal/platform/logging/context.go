package logging

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

var fallback atomic.Pointer[slog.Logger]

func init() {
	fallback.Store(slog.Default())
}

// FromContext returns the logger stored in ctx, or the default logger.
// When ctx carries a recording span the result is tagged with its trace
// and span ids so log lines join up with the exported trace.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return fallback.Load()
	}

	logger, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		logger = fallback.Load()
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return logger
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithRequestID tags the context logger with the inbound request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithAttrs(ctx, slog.String("request_id", requestID))
}

// WithCorrelationID tags the context logger with the correlation id.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return WithAttrs(ctx, slog.String("correlation_id", correlationID))
}

// WithAttrs adds attributes to the logger in context. Resource accessors
// use it to tag log lines with the resource kind and id.
func WithAttrs(ctx context.Context, attrs ...any) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	base, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		base = fallback.Load()
	}

	return WithContext(ctx, base.With(attrs...))
}

// SetDefault replaces the logger used when a context carries none. The
// slog package default is updated too.
func SetDefault(logger *slog.Logger) {
	fallback.Store(logger)
	slog.SetDefault(logger)
}
