// Package api provides the relay's management HTTP API: health,
// system/tunnel statistics, and recent diagnostic events. It never
// carries tunnel data-plane traffic.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fb0sh/gout/internal/api/handlers"
	"github.com/fb0sh/gout/internal/api/middleware"
	"github.com/fb0sh/gout/internal/journal"
	"github.com/fb0sh/gout/internal/stats"
)

// Config configures the management API's bind address and auth.
type Config struct {
	Host   string
	Port   int
	APIKey string
}

// Server wraps a gin engine behind an http.Server with production
// timeouts.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to cfg.Host:cfg.Port, wired to s for tunnel
// counters and j (optionally nil) for the event log.
func New(cfg Config, s *stats.Stats, j *journal.Journal, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(s, j)
	RegisterRoutes(engine, h, cfg.APIKey)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{engine: engine, httpServer: httpServer}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe blocks serving the management API.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the management API.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
