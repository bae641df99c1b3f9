package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/goaleval/internal/database"
	"github.com/aristath/goaleval/internal/scheduler"
)

// SystemHandlers serves host and maintenance endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	cacheDB   *database.DB
	scheduler *scheduler.Scheduler
	stats     func() (float64, float64)
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Database   string  `json:"database"`
	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float64 `json:"ram_percent"`
	DataDirMB  float64 `json:"data_dir_mb"`
	Scheduler  bool    `json:"scheduler_running"`
}

// NewSystemHandlers creates system handlers. db and sched may be nil.
func NewSystemHandlers(log zerolog.Logger, dataDir string, db *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		cacheDB:   db,
		scheduler: sched,
	}
	h.stats = h.getSystemStats
	return h
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.stats()

	response := SystemStatusResponse{
		Database:   "disabled",
		CPUPercent: cpuPercent,
		RAMPercent: ramPercent,
		DataDirMB:  h.getDirSize(h.dataDir),
		Scheduler:  h.scheduler != nil && h.scheduler.IsRunning(),
	}

	if h.cacheDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.cacheDB.HealthCheck(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Cache database health check failed")
			response.Database = "unhealthy"
		} else {
			response.Database = "healthy"
		}
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

// HandleTriggerJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.scheduler == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scheduler not configured"}, h.log)
		return
	}

	if err := h.scheduler.RunNow(name); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()}, h.log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "job": name}, h.log)
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	if dirPath == "" {
		return 0
	}

	var totalSize int64
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats returns CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
