package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
	"github.com/jsamuelsen/cardsdk/internal/platform/logging"
)

// Recovery turns a handler panic into the 500 body Laravel renders in
// production, logging the stack at error level. Apply it first so it
// covers every later middleware.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			var traceID string
			if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			}

			logging.FromContext(c.Request.Context()).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", traceID),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.LaravelError{Message: dto.MessageServerError})
		}()

		c.Next()
	}
}
