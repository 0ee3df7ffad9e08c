package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/handlers"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/middleware"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds /v1 requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains the stub's routes and their dependencies.
type RouterConfig struct {
	// ServiceName names the server spans.
	ServiceName string

	// Store backs the catalog resources. Required.
	Store *fixtures.Store

	// Schemas validates writes. Nil uses the static rule tables.
	Schemas *domain.StaticSchemas

	// Tokens issues and verifies access tokens. Nil serves /v1 without auth
	// and leaves /oauth/token unrouted.
	Tokens *handlers.TokenIssuer

	// Health serves /-/. Nil leaves the operational routes unrouted.
	Health *handlers.HealthHandler

	// Scenarios serves /v1/_errors/:status. Nil leaves it unrouted.
	Scenarios *handlers.ScenarioHandler

	// Timeout is the /v1 request deadline. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures middleware and routes on engine. Middleware runs
// in this order:
//  1. Recovery
//  2. Request ID
//  3. Correlation ID
//  4. Tracing and metrics
//  5. Logging, which skips /-/
//
// Routes:
//   - /-/ operational endpoints, no auth
//   - POST /oauth/token
//   - /v1 resources, behind bearer auth and the request timeout; writes
//     also need the catalog:write scope
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(routeNotFound)
	engine.NoMethod(methodNotAllowed)

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.ServiceName),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(engine)
	}

	if cfg.Tokens != nil {
		engine.POST("/oauth/token", cfg.Tokens.Issue)
	}

	v1 := engine.Group("/v1")
	if cfg.Timeout > 0 {
		v1.Use(middleware.Timeout(cfg.Timeout))
	}

	var write []gin.HandlerFunc

	if cfg.Tokens != nil {
		v1.Use(middleware.RequireBearer(cfg.Tokens))
		write = append(write, middleware.RequireScope(handlers.ScopeWrite))
	}

	if cfg.Scenarios != nil {
		v1.GET("/_errors/:status", cfg.Scenarios.Serve)
	}

	schemas := cfg.Schemas
	if schemas == nil {
		schemas = domain.NewStaticSchemas()
	}

	handlers.NewCatalogHandler(cfg.Store, schemas).RegisterRoutes(v1, write...)
}

// NewEngine returns an engine with the stub's routes, for use with
// httptest.Server.
func NewEngine(cfg RouterConfig) *gin.Engine {
	engine := gin.New()
	SetupRouter(engine, cfg)

	return engine
}
