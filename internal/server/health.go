package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusDisabled     = "disabled"
	healthStatusFailed       = "failed"
	healthStatusReadOnly     = "read-only"
)

// HealthChecker serves the Kubernetes probes of the serve command. Readiness
// depends on the ready flag and on shutdown; the inbox checks are reported
// but never fail a probe, since a failed pass is retried on the next call.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a new HealthChecker. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse adds uptime and the last inbox pass.
type DetailedHealthResponse struct {
	HealthResponse
	Uptime  string     `json:"uptime"`
	LastRun *RunRecord `json:"last_run,omitempty"`
}

// probe evaluates the readiness checks. status is "" when all pass.
func (h *HealthChecker) probe() (checks map[string]string, status string) {
	checks = map[string]string{
		"ready":    healthStatusOK,
		"shutdown": healthStatusOK,
	}

	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		status = healthStatusNotReady
	}

	sc := h.serverContext
	if sc == nil {
		return checks, status
	}

	if sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		if status == "" {
			status = healthStatusShuttingDown
		}
	}

	switch {
	case !sc.CanRun():
		checks["inbox"] = healthStatusDisabled
	case sc.ReadOnly():
		checks["inbox"] = healthStatusReadOnly
	default:
		checks["inbox"] = healthStatusOK
	}

	if last := sc.LastRun(); last != nil {
		checks["last_run"] = healthStatusOK
		if last.Error != "" || last.Summary.Failed > 0 {
			checks["last_run"] = healthStatusFailed
		}
	}
	return checks, status
}

// LivenessHandler returns the /healthz handler. It only reports that the
// process is serving.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns the /readyz handler.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, status := h.probe()

		code := http.StatusOK
		response := HealthResponse{Status: healthStatusOK, Checks: checks}
		if status != "" {
			code = http.StatusServiceUnavailable
			response.Status = healthStatusNotReady
		}
		writeHealth(w, code, response)
	})
}

// DetailedHealthHandler returns the /healthz/detailed handler.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, status := h.probe()

		code := http.StatusOK
		if status == "" {
			status = healthStatusOK
		} else {
			code = http.StatusServiceUnavailable
		}

		response := DetailedHealthResponse{
			HealthResponse: HealthResponse{Status: status, Checks: checks},
			Uptime:         time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if h.serverContext != nil {
			response.LastRun = h.serverContext.LastRun()
		}
		writeHealth(w, code, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeHealth(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
