package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Veraticus/concierge/internal/discovery"
	"github.com/Veraticus/concierge/internal/model"
)

// Discoverer runs partner discovery.
type Discoverer interface {
	Discover(ctx context.Context, req model.DiscoveryRequest) (*discovery.Result, error)
}

// DiscoveryHandler serves POST /v1/ai-partner-discovery.
type DiscoveryHandler struct {
	service Discoverer
	logger  *slog.Logger
}

// NewDiscoveryHandler creates the handler.
func NewDiscoveryHandler(service Discoverer, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		service: service,
		logger:  logger.With(slog.String("component", "discovery_handler")),
	}
}

type discoveryResponse struct {
	*discovery.Result
	Success bool `json:"success"`
}

// ServeHTTP implements http.Handler.
func (h *DiscoveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req model.DiscoveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, "discovery", err)
		return
	}

	result, err := h.service.Discover(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, "discovery", err)
		return
	}
	writeJSON(w, http.StatusOK, discoveryResponse{Success: true, Result: result})
}
