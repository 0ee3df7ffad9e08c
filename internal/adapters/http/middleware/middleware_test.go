package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/cardsdk/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withLogger installs logger as the request's context logger.
func withLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		c.Next()
	}
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer

	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: logging.LevelTrace})), &buf
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		existingHeaderID string
		expectGenerated  bool
	}{
		{
			name:            "generates UUID when no header present",
			expectGenerated: true,
		},
		{
			name:             "passes through existing header",
			existingHeaderID: "existing-req-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var capturedID, capturedContextID string

			router := gin.New()
			router.Use(RequestID())
			router.GET("/test", func(c *gin.Context) {
				capturedID = GetRequestID(c)
				capturedContextID = RequestIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.existingHeaderID != "" {
				req.Header.Set(HeaderRequestID, tt.existingHeaderID)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, w.Header().Get(HeaderRequestID), capturedID)
			assert.Equal(t, capturedID, capturedContextID)

			if tt.expectGenerated {
				_, err := uuid.Parse(capturedID)
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.existingHeaderID, capturedID)
			}
		})
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	t.Parallel()

	var ginID, ctxID string

	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/test", func(c *gin.Context) {
		ginID = GetCorrelationID(c)
		ctxID = CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderCorrelationID, "txn-42")

	router.ServeHTTP(w, req)

	assert.Equal(t, "txn-42", w.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "txn-42", ginID)
	assert.Equal(t, "txn-42", ctxID)
}

func TestIDMiddleware_EnrichesLogger(t *testing.T) {
	t.Parallel()

	logger, buf := captureLogger()

	router := gin.New()
	router.Use(withLogger(logger), RequestID(), CorrelationID())
	router.GET("/test", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("inside")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCorrelationID, "corr-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "correlation_id=corr-1")
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RequestIDFromContext(t.Context()))

	ctx := ContextWithCorrelationID(ContextWithRequestID(t.Context(), "r"), "c")
	assert.Equal(t, "r", RequestIDFromContext(ctx))
	assert.Equal(t, "c", CorrelationIDFromContext(ctx))
}

type fakeVerifier map[string]Claims

func (f fakeVerifier) Verify(token string) (Claims, bool) {
	c, ok := f[token]
	return c, ok
}

func TestRequireBearer(t *testing.T) {
	t.Parallel()

	verifier := fakeVerifier{
		"good": {ClientID: "stub-client", Scopes: []string{"catalog:read"}},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantClient string
	}{
		{name: "valid", header: "Bearer good", wantStatus: http.StatusOK, wantClient: "stub-client"},
		{name: "scheme is case-insensitive", header: "bearer good", wantStatus: http.StatusOK, wantClient: "stub-client"},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic Z29vZA==", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer  ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var client string

			router := gin.New()
			router.Use(RequireBearer(verifier))
			router.GET("/v1/cards", func(c *gin.Context) {
				claims, _ := GetClaims(c)
				client = claims.ClientID
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantClient, client)

			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"Unauthenticated."}`, w.Body.String())
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
	}{
		{name: "granted", claims: &Claims{Scopes: []string{"catalog:read", "catalog:write"}}, wantStatus: http.StatusOK},
		{name: "not granted", claims: &Claims{Scopes: []string{"catalog:read"}}, wantStatus: http.StatusForbidden},
		{name: "auth disabled", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tt.claims != nil {
					c.Set(ContextKeyClaims, *tt.claims)
				}
				c.Next()
			})
			router.Use(RequireScope("catalog:write"))
			router.DELETE("/v1/cards/1", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/cards/1", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.JSONEq(t, `{"message":"This action is unauthorized."}`, w.Body.String())
			}
		})
	}
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
		wantLog   bool
	}{
		{name: "success at info", path: "/v1/cards?page%5Bsize%5D=2", status: http.StatusOK, wantLevel: "level=INFO", wantLog: true},
		{name: "client error at warn", path: "/v1/cards", status: http.StatusNotFound, wantLevel: "level=WARN", wantLog: true},
		{name: "server error at error", path: "/v1/cards", status: http.StatusServiceUnavailable, wantLevel: "level=ERROR", wantLog: true},
		{name: "operational paths skipped", path: "/-/live", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := captureLogger()

			router := gin.New()
			router.Use(withLogger(logger), Logging())
			router.GET("/v1/:type", func(c *gin.Context) { c.Status(tt.status) })
			router.GET("/-/live", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.status, w.Code)

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}

			var completed string
			for _, line := range strings.Split(buf.String(), "\n") {
				if strings.Contains(line, "request completed") {
					completed = line
				}
			}

			require.NotEmpty(t, completed)
			assert.Contains(t, completed, tt.wantLevel)
			assert.Contains(t, completed, "resource=cards")
			assert.Contains(t, buf.String(), "request started")
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	logger, buf := captureLogger()

	router := gin.New()
	router.Use(withLogger(logger), Recovery())
	router.GET("/panic", func(_ *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Server Error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecovery_AfterWrite(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(withLogger(slog.New(slog.DiscardHandler)), Recovery())
	router.GET("/panic", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	var hasDeadline bool

	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()

		select {
		case <-c.Request.Context().Done():
			assert.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
			c.Status(http.StatusGatewayTimeout)
		case <-time.After(time.Second):
			c.Status(http.StatusOK)
		}
	})

	start := time.Now()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(50*time.Millisecond), deadline, 40*time.Millisecond)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
