package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"its-redmine/internal/its"
)

// Version of the adapter reported by the health endpoints
const Version = "1.0.0"

const serviceName = "its-redmine"

// HealthResponse represents the JSON response for health endpoints
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// ReadinessResponse represents the JSON response for readiness endpoints
type ReadinessResponse struct {
	Status       string                 `json:"status"`
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Dependencies map[string]interface{} `json:"dependencies"`
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	facade  IssueFacade
	journal Pinger
}

// NewHealthHandler creates a new health handler instance. journal may be nil when journaling is disabled.
func NewHealthHandler(facade IssueFacade, journal Pinger) *HealthHandler {
	return &HealthHandler{facade: facade, journal: journal}
}

// HandleHealth handles the /health endpoint for Kubernetes liveness probes
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   serviceName,
		Version:   Version,
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleReady handles the /ready endpoint for Kubernetes readiness probes
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dependencies := map[string]interface{}{
		"redmine": h.checkRedmine(ctx),
	}
	if h.journal != nil {
		dependencies["redis"] = h.checkRedisConnectivity(ctx)
	}

	overallStatus := "ready"
	statusCode := http.StatusOK
	for _, dep := range dependencies {
		if !dep.(map[string]interface{})["healthy"].(bool) {
			overallStatus = "not ready"
			statusCode = http.StatusServiceUnavailable
		}
	}

	response := ReadinessResponse{
		Status:       overallStatus,
		Timestamp:    time.Now(),
		Service:      serviceName,
		Dependencies: dependencies,
	}

	writeJSON(w, statusCode, response)
}

// checkRedmine runs the sysinfo probe, which needs a constructible client
func (h *HealthHandler) checkRedmine(ctx context.Context) map[string]interface{} {
	start := time.Now()
	_, err := h.facade.HealthCheck(ctx, its.CheckSysinfo)
	duration := time.Since(start)

	if err != nil {
		return map[string]interface{}{
			"healthy":          false,
			"error":            err.Error(),
			"response_time_ms": duration.Milliseconds(),
		}
	}

	return map[string]interface{}{
		"healthy":          true,
		"status":           "configured",
		"response_time_ms": duration.Milliseconds(),
	}
}

// checkRedisConnectivity pings the journal store
func (h *HealthHandler) checkRedisConnectivity(ctx context.Context) map[string]interface{} {
	start := time.Now()
	err := h.journal.Ping(ctx)
	duration := time.Since(start)

	if err != nil {
		return map[string]interface{}{
			"healthy":          false,
			"error":            err.Error(),
			"response_time_ms": duration.Milliseconds(),
		}
	}

	return map[string]interface{}{
		"healthy":          true,
		"status":           "connected",
		"response_time_ms": duration.Milliseconds(),
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = w.Write([]byte("Internal server error\n"))
	}
}
