package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fb0sh/gout/internal/journal"
)

const defaultEventsLimit = 50

// Events returns the most recent tunnel lifecycle events from the
// diagnostic journal, newest first. Returns an empty list if no
// journal is configured.
func (h *Handler) Events(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusOK, []journal.EventRecord{})
		return
	}

	limit := defaultEventsLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}
