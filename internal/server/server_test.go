package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/goaleval/internal/database"
	"github.com/aristath/goaleval/internal/scheduler"
)

type stubJob struct {
	err error
	ran bool
}

func (j *stubJob) Run() error {
	j.ran = true
	return j.err
}

func (j *stubJob) Name() string { return "stub" }

func newTestServer(t *testing.T, sched *scheduler.Scheduler, db *database.DB) *Server {
	t.Helper()
	s := New(Config{
		Log:       zerolog.Nop(),
		CacheDB:   db,
		Scheduler: sched,
		DataDir:   t.TempDir(),
		Port:      0,
		DevMode:   true,
	})
	s.systemHandlers.stats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func get(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "GET", "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "goaleval", body["service"])
}

func TestMetrics(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "GET", "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestSystemStatus(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	defer db.Close()

	s := newTestServer(t, nil, db)
	require.NoError(t, os.WriteFile(filepath.Join(s.systemHandlers.dataDir, "blob"), make([]byte, 1024*1024), 0644))

	rec := get(t, s, "GET", "/api/system/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Database)
	assert.Equal(t, 12.5, status.CPUPercent)
	assert.Equal(t, 40.0, status.RAMPercent)
	assert.InDelta(t, 1.0, status.DataDirMB, 1e-9)
	assert.False(t, status.Scheduler)
}

func TestTriggerJob(t *testing.T) {
	sched := scheduler.New(zerolog.Nop())
	job := &stubJob{}
	require.NoError(t, sched.AddJob(scheduler.Daily, job))
	s := newTestServer(t, sched, nil)

	rec := get(t, s, "POST", "/api/system/jobs/stub/run")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, job.ran)

	rec = get(t, s, "POST", "/api/system/jobs/missing/run")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	job.err = errors.New("boom")
	rec = get(t, s, "POST", "/api/system/jobs/stub/run")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestTriggerJob_NoScheduler(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "POST", "/api/system/jobs/stub/run")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvaluationRoutesOptional(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "POST", "/api/v1/evaluate")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
