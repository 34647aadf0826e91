package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fb0sh/gout/internal/api/handlers"
	"github.com/fb0sh/gout/internal/api/middleware"
)

// RegisterRoutes mounts the management API under /api/v1, guarded by an
// optional API key.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, apiKey string) {
	group := r.Group("/api/v1")
	group.Use(middleware.RequireAPIKey(apiKey))

	group.GET("/health", h.Health)
	group.GET("/stats", h.Stats)
	group.GET("/events", h.Events)
}
