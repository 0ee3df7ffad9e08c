package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/handlers"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/middleware"
	"github.com/jsamuelsen/cardsdk/internal/platform/config"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRoutes(auth bool) RouterConfig {
	store := fixtures.Seeded()
	reg := prometheus.NewRegistry()

	cfg := RouterConfig{
		ServiceName: "catalog-stub-test",
		Store:       store,
		Health:      handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.NewBuildInfo("test", "", ""), reg, store),
		Scenarios:   handlers.NewScenarioHandler(reg),
		Timeout:     time.Second,
	}

	if auth {
		cfg.Tokens = handlers.NewTokenIssuer("stub-client", "stub-secret", time.Hour)
	}

	return cfg
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func issueToken(t *testing.T, h http.Handler, scope string) string {
	t.Helper()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"stub-client"},
		"client_secret": {"stub-secret"},
		"scope":         {scope},
	}

	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp.AccessToken
}

func TestRouter_WithoutAuth(t *testing.T) {
	engine := NewEngine(testRoutes(false))

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "list", method: http.MethodGet, target: "/v1/cards", wantStatus: http.StatusOK},
		{name: "get", method: http.MethodGet, target: "/v1/sets/1", wantStatus: http.StatusOK},
		{name: "scenario", method: http.MethodGet, target: "/v1/_errors/503", wantStatus: http.StatusServiceUnavailable},
		{name: "health", method: http.MethodGet, target: "/-/live", wantStatus: http.StatusOK},
		{name: "no token endpoint", method: http.MethodPost, target: "/oauth/token", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, target: "/v2/cards", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPut, target: "/v1/cards/1", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, engine, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}

func TestRouter_NotFoundBody(t *testing.T) {
	engine := NewEngine(testRoutes(false))

	w := do(t, engine, httptest.NewRequest(http.MethodGet, "/v2/cards", nil))

	assert.JSONEq(t, `{"message":"The route v2/cards could not be found."}`, w.Body.String())

	w = do(t, engine, httptest.NewRequest(http.MethodPut, "/v1/cards/1", nil))

	assert.JSONEq(t, `{"message":"The PUT method is not supported for this route."}`, w.Body.String())
}

func TestRouter_WithAuth(t *testing.T) {
	engine := NewEngine(testRoutes(true))

	readOnly := issueToken(t, engine, handlers.ScopeRead)
	full := issueToken(t, engine, "")

	body := `{"data":{"type":"teams","attributes":{"name":"Montreal Expos"}}}`

	tests := []struct {
		name       string
		method     string
		target     string
		token      string
		body       string
		wantStatus int
	}{
		{name: "no token", method: http.MethodGet, target: "/v1/cards", wantStatus: http.StatusUnauthorized},
		{name: "read", method: http.MethodGet, target: "/v1/cards", token: readOnly, wantStatus: http.StatusOK},
		{name: "scenario needs auth", method: http.MethodGet, target: "/v1/_errors/500", wantStatus: http.StatusUnauthorized},
		{name: "write without scope", method: http.MethodPost, target: "/v1/teams", token: readOnly, body: body, wantStatus: http.StatusForbidden},
		{name: "write with scope", method: http.MethodPost, target: "/v1/teams", token: full, body: body, wantStatus: http.StatusCreated},
		{name: "health stays open", method: http.MethodGet, target: "/-/ready", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", dto.MediaType)
			}
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			w := do(t, engine, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_Timeout(t *testing.T) {
	cfg := testRoutes(false)
	cfg.Timeout = 20 * time.Millisecond

	start := time.Now()
	w := do(t, NewEngine(cfg), httptest.NewRequest(http.MethodGet, "/v1/_errors/500?delay=5s", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRouter_RecoversPanics(t *testing.T) {
	engine := NewEngine(testRoutes(false))
	engine.GET("/boom", func(_ *gin.Context) { panic("boom") })

	w := do(t, engine, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Server Error"}`, w.Body.String())
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxRequestSize:  64,
	}
}

func TestServer_MaxBodySize(t *testing.T) {
	srv := New(testServerConfig(), slog.New(slog.DiscardHandler), testRoutes(false))

	big := `{"data":{"type":"teams","attributes":{"name":"` + strings.Repeat("x", 200) + `"}}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/teams", strings.NewReader(big))
	req.Header.Set("Content-Type", dto.MediaType)

	w := do(t, srv.Engine(), req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"message":"Payload Too Large"}`, w.Body.String())
}

func TestServer_ServeShutdown(t *testing.T) {
	srv := New(testServerConfig(), slog.New(slog.DiscardHandler), testRoutes(false))
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := srv.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/-/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	require.NoError(t, srv.Shutdown(t.Context()))

	_, open := <-errCh
	assert.False(t, open, "channel closes without an error after shutdown")
}

func TestServer_StartListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testServerConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	srv := New(cfg, slog.New(slog.DiscardHandler), testRoutes(false))

	err, open := <-srv.Start()
	require.True(t, open)
	assert.ErrorContains(t, err, "listen")
}
