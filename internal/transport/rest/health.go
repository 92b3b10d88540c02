package rest

import (
	"context"
	"net/http"
	"time"
)

const (
	statusOK       = "ok"
	statusDown     = "down"
	statusDraining = "draining"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

// jobReporter exposes the import manager's load and whether it still takes
// new jobs.
type jobReporter interface {
	ActiveJobs() int
	Accepting() bool
}

// HealthHandler serves the liveness, readiness and health probes.
type HealthHandler struct {
	db      dbPinger
	jobs    jobReporter
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db dbPinger, jobs jobReporter, version string) *HealthHandler {
	return &HealthHandler{db: db, jobs: jobs, version: version}
}

// HealthResponse is the JSON body of every probe.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of one dependency.
type CompStatus struct {
	Status     string `json:"status"`
	Latency    string `json:"latency,omitempty"`
	ActiveJobs *int   `json:"activeJobs,omitempty"`
}

// Live always answers 200 while the process serves HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Timestamp: time.Now()})
}

// Ready answers 503 when the database is unreachable or the import manager
// is draining, so traffic moves away before shutdown completes.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := statusOK
	if err := h.db.Ping(ctx); err != nil {
		status = statusDown
	} else if !h.jobs.Accepting() {
		status = statusDraining
	}

	code := http.StatusOK
	if status != statusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Timestamp: time.Now()})
}

// Health reports the database with ping latency and the import manager
// with its active job count.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     statusOK,
		Version:    h.version,
		Components: make(map[string]CompStatus, 2),
	}

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		resp.Components["database"] = CompStatus{Status: statusDown}
		resp.Status = statusDown
	} else {
		resp.Components["database"] = CompStatus{Status: statusOK, Latency: time.Since(start).String()}
	}

	active := h.jobs.ActiveJobs()
	jobs := CompStatus{Status: statusOK, ActiveJobs: &active}
	if !h.jobs.Accepting() {
		jobs.Status = statusDraining
	}
	resp.Components["import_jobs"] = jobs

	code := http.StatusOK
	if resp.Status != statusOK {
		code = http.StatusServiceUnavailable
	}
	resp.Timestamp = time.Now()
	writeJSON(w, code, resp)
}
