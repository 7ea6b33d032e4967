package llm

import (
	"fmt"
	"net/http"

	"github.com/Veraticus/concierge/internal/common"
)

// APIError is a non-2xx reply from the model gateway.
type APIError struct {
	Provider string
	Body     string
	Status   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, truncate(e.Body, 200))
}

// Unwrap maps the status onto the shared sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusTooManyRequests:
		return common.ErrRateLimit
	case http.StatusPaymentRequired:
		return common.ErrQuotaExhausted
	default:
		return common.ErrAnalysisFailed
	}
}

// classifyStatus wraps a gateway error reply for common.WithRetry.
// Only server-side failures are retried.
func classifyStatus(provider string, status int, body []byte) error {
	apiErr := &APIError{Provider: provider, Status: status, Body: string(body)}
	if status >= http.StatusInternalServerError {
		return common.Transient(apiErr)
	}
	return common.Permanent(apiErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
