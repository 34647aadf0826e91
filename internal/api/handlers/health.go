package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness. It never depends on the journal or stats so
// it stays up even if those subsystems are unavailable.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}
