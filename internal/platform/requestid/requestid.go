// Package requestid carries the request and correlation ids shared by the
// stub server's middleware and the SDK transport. It has no HTTP framework
// dependencies so the SDK can import it without pulling in the server.
package requestid

import "context"

const (
	// HeaderRequestID carries the per-request id.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID carries the id of the whole business
	// transaction across services.
	HeaderCorrelationID = "X-Correlation-ID"
)

type key int

const (
	requestIDKey key = iota
	correlationIDKey
)

// WithRequestID stores a request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithCorrelationID stores a correlation id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	return value(ctx, requestIDKey)
}

// CorrelationID returns the correlation id stored in ctx, or "".
func CorrelationID(ctx context.Context) string {
	return value(ctx, correlationIDKey)
}

func value(ctx context.Context, k key) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(k).(string)

	return id
}
