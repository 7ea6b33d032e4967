package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/concierge/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidEntity    = errors.New("invalid entity")
	ErrInvalidDocument  = errors.New("invalid document extraction")
	ErrInvalidAlert     = errors.New("invalid alert")
	ErrInvalidVerdict   = errors.New("invalid verification")
	ErrInvalidLogRecord = errors.New("invalid pipeline log")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// ValidateEntity validates an entity before it is written.
func ValidateEntity(e *model.Entity) error {
	if e == nil {
		return fmt.Errorf("%w: entity", ErrNilParameter)
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEntity, e.Type)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidEntity)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidEntity)
	}
	return nil
}

// ValidateDocumentExtraction validates an OCR extraction before it is written.
func ValidateDocumentExtraction(d *model.DocumentExtraction) error {
	if d == nil {
		return fmt.Errorf("%w: document", ErrNilParameter)
	}
	if d.DocumentID == "" {
		return fmt.Errorf("%w: missing document ID", ErrInvalidDocument)
	}
	if !d.EntityType.IsValid() || d.EntityID == "" {
		return fmt.Errorf("%w: missing entity reference", ErrInvalidDocument)
	}
	for i, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidDocument, i)
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			return fmt.Errorf("%w: field %q confidence %v out of range", ErrInvalidDocument, f.Name, f.Confidence)
		}
	}
	return nil
}

// ValidateCompletedVerification validates a verification about to be finalized.
func ValidateCompletedVerification(v *model.KycVerification) error {
	if v == nil {
		return fmt.Errorf("%w: verification", ErrNilParameter)
	}
	if v.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidVerdict)
	}
	if !v.Status.IsTerminal() {
		return fmt.Errorf("%w: status %q is not terminal", ErrInvalidVerdict, v.Status)
	}
	if v.RiskScore < 0 {
		return fmt.Errorf("%w: negative risk score", ErrInvalidVerdict)
	}
	return nil
}

// ValidateAlerts validates a batch of alerts.
func ValidateAlerts(alerts []model.AmlAlert) error {
	for i, a := range alerts {
		if a.KycVerificationID == "" || a.EntityID == "" {
			return fmt.Errorf("%w: alert %d missing references", ErrInvalidAlert, i)
		}
		if a.AlertType == "" || a.Title == "" {
			return fmt.Errorf("%w: alert %d missing type or title", ErrInvalidAlert, i)
		}
		if a.MatchScore < 0 || a.MatchScore > 1 {
			return fmt.Errorf("%w: alert %d match score %v out of range", ErrInvalidAlert, i, a.MatchScore)
		}
	}
	return nil
}

// ValidatePipelineLog validates a run log row.
func ValidatePipelineLog(l *model.PipelineLog) error {
	if l == nil {
		return fmt.Errorf("%w: pipeline log", ErrNilParameter)
	}
	if l.Pipeline == "" || l.Outcome == "" {
		return fmt.Errorf("%w: pipeline and outcome are required", ErrInvalidLogRecord)
	}
	return nil
}
