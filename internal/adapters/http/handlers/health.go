// Package handlers provides the stub catalog's HTTP handlers.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

// BuildInfo is injected at build time using ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo creates a BuildInfo with the Go version filled in.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the /-/ operational endpoints.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	gatherer  prometheus.Gatherer
	store     *fixtures.Store
}

// NewHealthHandler creates a health handler. Metrics are served from
// gatherer; a nil gatherer uses the default registry.
func NewHealthHandler(
	registry ports.HealthRegistry,
	buildInfo BuildInfo,
	gatherer prometheus.Gatherer,
	store *fixtures.Store,
) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		gatherer:  gatherer,
		store:     store,
	}
}

type statusResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Liveness always answers 200 while the process runs.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// Readiness answers 503 when any registered check fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, statusResponse{Status: string(result.Status), Checks: result.Checks})
}

// Build answers with the build information.
func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// Fixtures answers with the record count per collection.
func (h *HealthHandler) Fixtures(c *gin.Context) {
	counts := make(map[string]int)

	for _, kind := range domain.Kinds() {
		wire, _ := domain.WireType(kind)
		counts[wire] = h.store.Count(kind)
	}

	c.JSON(http.StatusOK, counts)
}

// RegisterRoutes mounts the endpoints under /-/ on engine.
func (h *HealthHandler) RegisterRoutes(engine *gin.Engine) {
	rg := engine.Group("/-")
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.Build)
	rg.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	if h.store != nil {
		rg.GET("/fixtures", h.Fixtures)
	}
}

// StoreCheck reports the fixture store unhealthy once it holds no cards.
type StoreCheck struct {
	Store *fixtures.Store
}

// Name implements ports.HealthChecker.
func (s StoreCheck) Name() string { return "fixtures" }

// Check implements ports.HealthChecker.
func (s StoreCheck) Check(_ context.Context) error {
	if s.Store.Count(domain.KindCard) == 0 {
		return fmt.Errorf("fixture store has no %s", domain.KindCard)
	}

	return nil
}
