// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound          = errors.New("not found")
	ErrAlreadyInProgress = errors.New("verification already in progress")

	// Upstream AI errors.
	ErrQuotaExhausted = errors.New("AI credits exhausted")
	ErrAIUnavailable  = errors.New("AI service not configured")
	ErrAnalysisFailed = errors.New("AI analysis failed")

	// Request errors.
	ErrValidation = errors.New("validation failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error whose message is safe to return to API callers.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-facing error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Validationf builds an ErrValidation carrying a caller-safe message.
func Validationf(format string, args ...any) error {
	return NewUserError(fmt.Sprintf(format, args...), ErrValidation)
}
