package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/repository"
)

var startTime = time.Now()

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupReporter exposes the state of the media cleanup queue.
type CleanupReporter interface {
	Stats(ctx context.Context) (*repository.QueueStats, error)
	Pending(ctx context.Context) ([]domain.CleanupJob, error)
}

// BreakerStater reports the media circuit breaker state.
type BreakerStater interface {
	State() string
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db         Pinger
	cleanup    CleanupReporter
	breaker    BreakerStater
	stagingDir string
	cpu        cpuSampler
}

// NewHealthHandler creates a new health handler. breaker may be nil.
func NewHealthHandler(db Pinger, cleanup CleanupReporter, breaker BreakerStater, stagingDir string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		cleanup:    cleanup,
		breaker:    breaker,
		stagingDir: stagingDir,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Error     string                 `json:"error,omitempty"`
	Media     string                 `json:"media,omitempty"`
	Cleanup   *repository.QueueStats `json:"cleanup,omitempty"`
}

// Live handles GET /api/v1/healthz - liveness check.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /api/v1/readyz - readiness check.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if h.breaker != nil {
		resp.Media = h.breaker.State()
	}

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "error"
		resp.Error = "database unreachable"
		writeHealth(w, http.StatusServiceUnavailable, resp)
		return
	}

	stats, err := h.cleanup.Stats(ctx)
	if err != nil {
		resp.Status = "error"
		resp.Error = "cleanup queue unavailable"
		writeHealth(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Cleanup = stats

	writeHealth(w, http.StatusOK, resp)
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// SystemStats contains process and upload staging statistics.
type SystemStats struct {
	Uptime         int64   `json:"uptime_seconds"`
	UptimeHuman    string  `json:"uptime_human"`
	MemAllocMB     int64   `json:"mem_alloc_mb"`
	MemSysMB       int64   `json:"mem_sys_mb"`
	MemHeapMB      int64   `json:"mem_heap_mb"`
	NumGoroutines  int     `json:"num_goroutines"`
	NumCPU         int     `json:"num_cpu"`
	CPUPercent     float64 `json:"cpu_percent"`
	DiskUsedBytes  int64   `json:"disk_used_bytes"`
	DiskFreeBytes  int64   `json:"disk_free_bytes"`
	DiskTotalBytes int64   `json:"disk_total_bytes"`
	DiskUsedPct    float64 `json:"disk_used_pct"`
	StagingPath    string  `json:"staging_path"`

	Cleanup         *repository.QueueStats `json:"cleanup,omitempty"`
	PendingReleases []domain.CleanupJob    `json:"pending_releases,omitempty"`
}

// Stats handles GET /api/v1/stats - system statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)

	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		MemHeapMB:     int64(m.HeapAlloc / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		CPUPercent:    h.cpu.percent(time.Now()),
		StagingPath:   h.stagingDir,
	}
	disk := stagingDisk(h.stagingDir)
	stats.DiskTotalBytes = disk.total
	stats.DiskFreeBytes = disk.free
	stats.DiskUsedBytes = disk.used
	stats.DiskUsedPct = disk.usedPct

	// Queue errors leave the cleanup fields out rather than failing the request.
	if qs, err := h.cleanup.Stats(r.Context()); err == nil {
		stats.Cleanup = qs
	}
	if pending, err := h.cleanup.Pending(r.Context()); err == nil {
		stats.PendingReleases = pending
	}

	writeJSON(w, http.StatusOK, stats, "Stats fetched successfully")
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

type diskUsage struct {
	total, free, used int64
	usedPct           float64
}

func newDiskUsage(total, free int64) diskUsage {
	d := diskUsage{total: total, free: free, used: total - free}
	if total > 0 {
		d.usedPct = float64(d.used) / float64(total) * 100
	}
	return d
}

// cpuSampler turns cumulative process CPU time into a percentage of one core
// over the interval since the previous sample. The first sample reads 0.
type cpuSampler struct {
	mu       sync.Mutex
	lastCPU  time.Duration
	lastWall time.Time
}

func (s *cpuSampler) percent(now time.Time) float64 {
	cpu, ok := processCPUTime()
	if !ok {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevCPU, prevWall := s.lastCPU, s.lastWall
	s.lastCPU, s.lastWall = cpu, now
	if prevWall.IsZero() {
		return 0
	}
	wall := now.Sub(prevWall)
	if wall <= 0 {
		return 0
	}
	return min(max(float64(cpu-prevCPU)/float64(wall)*100, 0), 100)
}
