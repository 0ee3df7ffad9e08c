package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                  { return s.name }
func (s stubChecker) Check(_ context.Context) error { return s.err }

func serve(t *testing.T, engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func healthEngine(t *testing.T, checkers ...ports.HealthChecker) *gin.Engine {
	t.Helper()

	registry := ports.NewHealthRegistry()
	for _, c := range checkers {
		require.NoError(t, registry.Register(c))
	}

	engine := gin.New()
	NewHealthHandler(registry, NewBuildInfo("1.0.0", "abc123", "2024-01-15T10:00:00Z"),
		prometheus.NewRegistry(), fixtures.Seeded()).RegisterRoutes(engine)

	return engine
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.0.0", "abc123", "2024-01-15T10:00:00Z")

	assert.Equal(t, "1.0.0", bi.Version)
	assert.Equal(t, "abc123", bi.Commit)
	assert.Equal(t, runtime.Version(), bi.GoVersion)
}

func TestHealthHandler_Liveness(t *testing.T) {
	w := serve(t, healthEngine(t), httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []ports.HealthChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name:       "store seeded",
			checkers:   []ports.HealthChecker{StoreCheck{Store: fixtures.Seeded()}},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name: "one failing",
			checkers: []ports.HealthChecker{
				StoreCheck{Store: fixtures.Seeded()},
				stubChecker{name: "upstream", err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, healthEngine(t, tt.checkers...), httptest.NewRequest(http.MethodGet, "/-/ready", nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp statusResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checkers))
		})
	}
}

func TestHealthHandler_Build(t *testing.T) {
	w := serve(t, healthEngine(t), httptest.NewRequest(http.MethodGet, "/-/build", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var bi BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bi))
	assert.Equal(t, "abc123", bi.Commit)
}

func TestHealthHandler_Fixtures(t *testing.T) {
	w := serve(t, healthEngine(t), httptest.NewRequest(http.MethodGet, "/-/fixtures", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var counts map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, 5, counts["cards"])
	assert.Equal(t, 3, counts["sets"])
	assert.Len(t, counts, 12)
}

func TestHealthHandler_Metrics(t *testing.T) {
	w := serve(t, healthEngine(t), httptest.NewRequest(http.MethodGet, "/-/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStoreCheck(t *testing.T) {
	assert.NoError(t, StoreCheck{Store: fixtures.Seeded()}.Check(t.Context()))
	assert.Error(t, StoreCheck{Store: fixtures.NewStore()}.Check(t.Context()))
	assert.Equal(t, "fixtures", StoreCheck{}.Name())
}
