// Package middleware provides the stub catalog's Gin middleware.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/cardsdk/internal/platform/logging"
	"github.com/jsamuelsen/cardsdk/internal/platform/requestid"
)

const (
	// HeaderRequestID carries the per-request id.
	HeaderRequestID = requestid.HeaderRequestID

	// HeaderCorrelationID carries the id of the whole business
	// transaction across services.
	HeaderCorrelationID = requestid.HeaderCorrelationID

	// ContextKeyRequestID is the gin context key for the request id.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin context key for the correlation id.
	ContextKeyCorrelationID = "correlation_id"
)

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	return requestid.RequestID(ctx)
}

// CorrelationIDFromContext returns the correlation id stored in ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return requestid.CorrelationID(ctx)
}

// ContextWithRequestID stores a request id in ctx where the SDK transport
// will find it and forward it on outbound calls.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return requestid.WithRequestID(ctx, id)
}

// ContextWithCorrelationID stores a correlation id in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return requestid.WithCorrelationID(ctx, id)
}

// RequestID extracts X-Request-ID or generates a UUID, echoes it on the
// response and stores it in the gin context, the request context and the
// context logger.
func RequestID() gin.HandlerFunc {
	return idMiddleware(HeaderRequestID, ContextKeyRequestID, func(ctx context.Context, id string) context.Context {
		return logging.WithRequestID(ContextWithRequestID(ctx, id), id)
	})
}

// CorrelationID does for X-Correlation-ID what RequestID does for
// X-Request-ID.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(HeaderCorrelationID, ContextKeyCorrelationID, func(ctx context.Context, id string) context.Context {
		return logging.WithCorrelationID(ContextWithCorrelationID(ctx, id), id)
	})
}

func idMiddleware(header, key string, enrich func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(key, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(enrich(c.Request.Context(), id))

		c.Next()
	}
}

// GetRequestID returns the request id from the gin context, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation id from the gin context, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
