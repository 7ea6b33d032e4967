// Package handlers implements the HTTP endpoints of the concierge service.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Veraticus/concierge/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// writeJSON writes data with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return common.Validationf("request body is required")
		}
		return common.Validationf("invalid JSON body")
	}
	return nil
}

// statusFor maps a pipeline error onto an HTTP status and a caller-safe message.
func statusFor(err error, fallback string) (int, string) {
	var userErr *common.UserError

	switch {
	case errors.Is(err, common.ErrValidation):
		if errors.As(err, &userErr) {
			return http.StatusBadRequest, userErr.UserMessage
		}
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, common.ErrRateLimit):
		return http.StatusTooManyRequests, "Rate limit exceeded, please try again later"
	case errors.Is(err, common.ErrQuotaExhausted):
		return http.StatusPaymentRequired, "AI credits exhausted, please add funds"
	case errors.Is(err, common.ErrAIUnavailable):
		return http.StatusInternalServerError, common.ErrAIUnavailable.Error()
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "Entity not found"
	case errors.Is(err, common.ErrAlreadyInProgress):
		return http.StatusConflict, "Verification already in progress"
	case errors.Is(err, common.ErrAnalysisFailed):
		return http.StatusInternalServerError, common.ErrAnalysisFailed.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}

// respondError logs err and writes its mapped status. Internal detail stays in the log.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status, message := statusFor(err, fmt.Sprintf("%s failed", op))
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, op+" request failed",
		"status", status,
		"error", err)
	writeError(w, status, message)
}
