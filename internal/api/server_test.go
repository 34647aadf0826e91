package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fb0sh/gout/internal/journal"
	"github.com/fb0sh/gout/internal/stats"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	return New(Config{Host: "127.0.0.1", Port: 0, APIKey: apiKey}, stats.New(), j, testLogger())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatsEndpointReportsTunnelCounters(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer j.Close()

	s := stats.New()
	s.TunnelOpened()

	srv := New(Config{Host: "127.0.0.1", Port: 0}, s, j, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tunnels struct {
			TunnelsActive int64 `json:"tunnels_active"`
		} `json:"tunnels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.Tunnels.TunnelsActive)
}

func TestEventsEndpointReturnsJournalContents(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer j.Close()
	j.RecordEvent("registered", "tcp")

	srv := New(Config{Host: "127.0.0.1", Port: 0}, stats.New(), j, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var events []journal.EventRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "registered", events[0].Kind)
}

func TestAPIKeyRejectsMissingHeader(t *testing.T) {
	srv := newTestServer(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyAcceptsCorrectHeader(t *testing.T) {
	srv := newTestServer(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("X-API-Key", "secret")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
