package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRev45/IzziAutomationAIP/internal/database"
	"github.com/TheRev45/IzziAutomationAIP/internal/runner"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServer(database.NewRepository(db), "0")
}

func postJSON(s *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// waitForRun blocks until the created run's loop has stopped, so the
// test's database outlives every write.
func waitForRun(t *testing.T, s *Server, id string) {
	t.Helper()
	s.mu.RLock()
	r := s.runners[id]
	s.mu.RUnlock()
	require.NotNil(t, r)
	require.Eventually(t, func() bool { return r.Status() != runner.StatusRunning },
		5*time.Second, 10*time.Millisecond)
}

// A scenario posted without a config block gets the documented defaults
// instead of failing validation on zero values.
func TestCreateRunDefaultsMissingConfig(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(s, "/api/v1/runs", `{
	  "name": "bare",
	  "start": "2026-03-02T09:00:00Z",
	  "end": "2026-03-02T10:00:00Z",
	  "agents": [], "queues": [], "tasks": []
	}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	waitForRun(t, s, resp.ID)
}

func TestCreateRunRejectsInvalidConfig(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(s, "/api/v1/runs", `{
	  "name": "broken",
	  "start": "2026-03-02T09:00:00Z",
	  "config": {"step_seconds": -1},
	  "queues": []
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRunRejectsMissingStart(t *testing.T) {
	s := newTestServer(t)
	w := postJSON(s, "/api/v1/runs", `{"name": "no-window", "queues": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestControlEndpointsOnUnknownRun(t *testing.T) {
	s := newTestServer(t)
	w := postJSON(s, "/api/v1/runs/ghost/pause", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
