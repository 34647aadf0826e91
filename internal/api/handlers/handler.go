// Package handlers implements the relay's management API endpoints.
package handlers

import (
	"time"

	"github.com/fb0sh/gout/internal/journal"
	"github.com/fb0sh/gout/internal/stats"
)

// Handler holds the dependencies shared by every management endpoint.
type Handler struct {
	startTime time.Time
	stats     *stats.Stats
	journal   *journal.Journal // nil when no journal is configured
}

// New builds a Handler. journal may be nil.
func New(s *stats.Stats, j *journal.Journal) *Handler {
	return &Handler{startTime: time.Now(), stats: s, journal: j}
}
