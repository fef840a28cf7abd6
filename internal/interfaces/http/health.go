package http

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"
)

// HealthTracker records the outcome of the most recent pipeline run and
// serves it from the /health endpoint.
type HealthTracker struct {
	mu        sync.RWMutex
	startTime time.Time
	version   string

	lastRunID     string
	lastRunAt     time.Time
	lastRunStatus string // "ok", "failed", "" when no run yet
	lastRunRows   int
	checks        map[string]CheckResult
}

// NewHealthTracker creates a tracker with no run history.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		startTime: time.Now(),
		version:   "dev",
		checks:    make(map[string]CheckResult),
	}
}

// SetVersion sets the reported build version.
func (h *HealthTracker) SetVersion(v string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.version = v
}

// RecordRun stores the result of a completed pipeline run.
func (h *HealthTracker) RecordRun(runID string, rows int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRunID = runID
	h.lastRunAt = time.Now()
	h.lastRunRows = rows
	if err != nil {
		h.lastRunStatus = "failed"
	} else {
		h.lastRunStatus = "ok"
	}
}

// RecordCheck stores a named dependency check result (database, cache, price index).
func (h *HealthTracker) RecordCheck(name string, err error, d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := CheckResult{Status: "pass", Duration: d, Timestamp: time.Now()}
	if err != nil {
		result.Status = "fail"
		result.Message = err.Error()
	}
	h.checks[name] = result
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`

	System SystemInfo `json:"system"`

	LastRun *RunSummary `json:"last_run,omitempty"`

	Checks map[string]CheckResult `json:"checks"`
}

// RunSummary describes the most recent pipeline run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
}

// SystemInfo provides system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemAlloc      uint64 `json:"mem_alloc_bytes"`
	MemSys        uint64 `json:"mem_sys_bytes"`
	NumGC         uint32 `json:"num_gc"`
}

// CheckResult represents individual health check results
type CheckResult struct {
	Status    string        `json:"status"` // "pass", "warn", "fail"
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Handler implements the health check endpoint
func (h *HealthTracker) Handler(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := HealthResponse{
		Status:    h.overallStatus(),
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		System: SystemInfo{
			GoVersion:     runtime.Version(),
			NumGoroutines: runtime.NumGoroutine(),
			MemAlloc:      mem.Alloc,
			MemSys:        mem.Sys,
			NumGC:         mem.NumGC,
		},
		Checks: h.checks,
	}

	if h.lastRunID != "" {
		resp.LastRun = &RunSummary{
			RunID:      h.lastRunID,
			FinishedAt: h.lastRunAt,
			Status:     h.lastRunStatus,
			Rows:       h.lastRunRows,
		}
	}

	status := http.StatusOK
	if resp.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// overallStatus derives the aggregate status. A failed last run or a failed
// dependency check degrades the service; the process itself stays serving.
func (h *HealthTracker) overallStatus() string {
	failed := 0
	for _, c := range h.checks {
		if c.Status == "fail" {
			failed++
		}
	}
	switch {
	case failed > 0 && failed == len(h.checks) && len(h.checks) > 0:
		return "unhealthy"
	case failed > 0 || h.lastRunStatus == "failed":
		return "degraded"
	default:
		return "healthy"
	}
}
