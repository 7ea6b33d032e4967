package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Veraticus/concierge/internal/compliance"
)

// ComplianceChecker runs KYC/AML checks.
type ComplianceChecker interface {
	Check(ctx context.Context, req compliance.CheckRequest) (*compliance.Result, error)
}

// ComplianceHandler serves POST /v1/kyc-aml-checker.
type ComplianceHandler struct {
	checker ComplianceChecker
	logger  *slog.Logger
}

// NewComplianceHandler creates the handler.
func NewComplianceHandler(checker ComplianceChecker, logger *slog.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		checker: checker,
		logger:  logger.With(slog.String("component", "compliance_handler")),
	}
}

type complianceResponse struct {
	*compliance.Result
	Success bool `json:"success"`
}

// ServeHTTP implements http.Handler.
func (h *ComplianceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req compliance.CheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, "compliance check", err)
		return
	}

	result, err := h.checker.Check(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, "compliance check", err)
		return
	}
	writeJSON(w, http.StatusOK, complianceResponse{Success: true, Result: result})
}
