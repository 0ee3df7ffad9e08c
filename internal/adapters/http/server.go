// Package http provides the stub catalog server: a Gin application that
// speaks the catalog's JSON:API dialect over an in-memory fixture store,
// used to exercise the SDK end to end.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk/internal/platform/config"
)

// Server wraps http.Server with Gin and provides graceful shutdown.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	config     *config.ServerConfig
	logger     *slog.Logger
}

// New creates the stub server with its routes registered.
func New(cfg *config.ServerConfig, logger *slog.Logger, routes RouterConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(maxBodySize(cfg.MaxRequestSize))
	SetupRouter(engine, routes)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		config: cfg,
		logger: logger,
	}
}

// Engine returns the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured address and serves in the background.
// The returned channel receives a serve error, if any, and is closed when
// the server stops.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		errCh <- fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
		close(errCh)

		return errCh
	}

	return s.serve(ln, errCh)
}

// Serve serves on an existing listener in the background.
func (s *Server) Serve(ln net.Listener) <-chan error {
	return s.serve(ln, make(chan error, 1))
}

func (s *Server) serve(ln net.Listener, errCh chan error) <-chan error {
	go func() {
		defer close(errCh)

		s.logger.Info("stub catalog listening",
			slog.String("addr", ln.Addr().String()),
			slog.Duration("read_timeout", s.config.ReadTimeout),
			slog.Duration("write_timeout", s.config.WriteTimeout),
		)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	return errCh
}

// Shutdown stops accepting connections and waits for active ones until
// ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down stub catalog")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.Info("stub catalog stopped")

	return nil
}

// maxBodySize limits request bodies, answering 413 up front when the
// declared length is already too large.
func maxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			tooLarge(c)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
