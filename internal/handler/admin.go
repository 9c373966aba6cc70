package handler

import (
	"net/http"
	"runtime"
	"time"

	"tillpoint-pos-api/internal/connectivity"
	"tillpoint-pos-api/internal/queue"
	"tillpoint-pos-api/internal/repository"
	"tillpoint-pos-api/internal/syncer"
	"tillpoint-pos-api/pkg/response"
)

// AdminHandler handles operational stats requests.
type AdminHandler struct {
	queue     *queue.ActionQueue
	engine    *syncer.Engine
	monitor   *connectivity.Monitor
	syncLog   repository.SyncLogRepository // may be nil
	dbType    string
	storeType string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	q *queue.ActionQueue,
	engine *syncer.Engine,
	monitor *connectivity.Monitor,
	syncLog repository.SyncLogRepository,
	dbType, storeType string,
) *AdminHandler {
	return &AdminHandler{
		queue:     q,
		engine:    engine,
		monitor:   monitor,
		syncLog:   syncLog,
		dbType:    dbType,
		storeType: storeType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["remote_db_type"] = h.dbType
	stats["local_store_type"] = h.storeType
	stats["online"] = h.monitor.IsOnline()

	// Queue stats
	stats["queue"] = map[string]interface{}{
		"total":        h.queue.Len(),
		"pending":      h.queue.PendingCount(),
		"sync_running": h.engine.InFlight(),
	}

	// Recent drain history
	if h.syncLog != nil {
		drains, err := h.syncLog.RecentDrains(ctx, 20)
		if err == nil {
			stats["recent_drains"] = drains
		} else {
			stats["recent_drains"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	}

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
