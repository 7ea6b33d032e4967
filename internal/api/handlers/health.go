package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/concierge/internal/config"
)

const (
	serviceName  = "concierge"
	statusOK     = "ok"
	statusFail   = "fail"
	readyTimeout = 2 * time.Second
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and metrics.
type HealthHandler struct {
	db          Pinger
	promHandler http.Handler
}

// NewHealthHandler creates the handler. A nil db makes readiness fail.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		promHandler: promhttp.Handler(),
	}
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Checks    map[string]healthCheckResult `json:"checks,omitempty"`
	Status    string                       `json:"status"`
	Timestamp string                       `json:"timestamp"`
	Version   string                       `json:"version"`
	Service   string                       `json:"service"`
}

func newHealthResponse(status string) healthResponse {
	return healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}
}

// Live reports that the process is up.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(statusOK))
}

// Ready pings storage; 503 when it is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	check := healthCheckResult{Status: statusOK}
	if h.db == nil {
		check = healthCheckResult{Status: statusFail, Message: "storage not initialized"}
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			check = healthCheckResult{Status: statusFail, Message: "storage unreachable"}
		}
	}

	resp := newHealthResponse(check.Status)
	resp.Checks = map[string]healthCheckResult{"storage": check}

	status := http.StatusOK
	if check.Status == statusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Metrics serves the Prometheus registry.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
