package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
)

// Store is the persistence a check needs.
type Store interface {
	DocumentSource
	GetEntity(ctx context.Context, entityType model.EntityType, id string) (*model.Entity, error)
	StartVerification(ctx context.Context, entityType model.EntityType, entityID string, level model.VerificationLevel, staleBefore time.Time) (*model.KycVerification, error)
	CompleteVerification(ctx context.Context, v *model.KycVerification) error
	ReleaseVerification(ctx context.Context, id string) error
	InsertAlerts(ctx context.Context, alerts []model.AmlAlert) error
	InsertNotification(ctx context.Context, n *model.AdminNotification) error
	InsertPipelineLog(ctx context.Context, l *model.PipelineLog) error
}

// CheckRequest identifies the entity to screen.
type CheckRequest struct {
	EntityType model.EntityType        `json:"entity_type"`
	EntityID   string                  `json:"entity_id"`
	Trigger    string                  `json:"trigger,omitempty"`
	DocumentID string                  `json:"document_id,omitempty"`
	Level      model.VerificationLevel `json:"verification_level,omitempty"`
}

// Validate checks required fields and enums, defaulting the level to standard.
func (r *CheckRequest) Validate() error {
	if r.EntityType == "" || strings.TrimSpace(r.EntityID) == "" {
		return common.Validationf("entity_type and entity_id are required")
	}
	if !r.EntityType.IsValid() {
		return common.Validationf("invalid entity_type %q", r.EntityType)
	}
	if r.Level == "" {
		r.Level = model.LevelStandard
	}
	if !r.Level.IsValid() {
		return common.Validationf("invalid verification_level %q", r.Level)
	}
	return nil
}

// Result is the compliance response body.
type Result struct {
	VerificationID    string                   `json:"verification_id"`
	Status            model.VerificationStatus `json:"status"`
	RiskLevel         model.RiskLevel          `json:"risk_level"`
	Recommendation    model.Recommendation     `json:"recommendation"`
	RiskFactors       []model.RiskFactor       `json:"risk_factors"`
	RiskScore         int                      `json:"risk_score"`
	Alerts            int                      `json:"alerts"`
	ProcessingTimeMS  int64                    `json:"processing_time_ms"`
	DocumentsVerified bool                     `json:"documents_verified"`
}

// DefaultStaleAfter is how long an in_progress verification may sit without
// an update before a new check reclaims it.
const DefaultStaleAfter = 10 * time.Minute

// Checker runs compliance checks.
type Checker struct {
	store      Store
	ai         *AIScreen
	document   *DocumentScreen
	logger     *slog.Logger
	now        func() time.Time
	staleAfter time.Duration
}

// CheckerOption customizes a Checker.
type CheckerOption func(*Checker)

// WithStaleAfter sets the window after which an abandoned in_progress
// verification is reclaimed. Non-positive values keep the default.
func WithStaleAfter(d time.Duration) CheckerOption {
	return func(c *Checker) {
		if d > 0 {
			c.staleAfter = d
		}
	}
}

// NewChecker wires a checker. A nil client disables the AI screen.
func NewChecker(store Store, client llm.Client, logger *slog.Logger, opts ...CheckerOption) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("pipeline", model.PipelineCompliance)
	c := &Checker{
		store:      store,
		ai:         NewAIScreen(client, logger),
		document:   NewDocumentScreen(store, logger),
		logger:     logger,
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check screens one entity and records the verdict.
func (c *Checker) Check(ctx context.Context, req CheckRequest) (*Result, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entity, err := c.store.GetEntity(ctx, req.EntityType, req.EntityID)
	if err != nil {
		c.fail(ctx, req, "load", start, err)
		return nil, fmt.Errorf("load %s %s: %w", req.EntityType, req.EntityID, err)
	}

	verification, err := c.store.StartVerification(ctx, req.EntityType, req.EntityID, req.Level, c.now().Add(-c.staleAfter))
	if err != nil {
		c.fail(ctx, req, "start", start, err)
		return nil, err
	}

	f, err := c.screen(ctx, *entity, req)
	if err != nil {
		c.release(ctx, verification.ID)
		c.fail(ctx, req, "screen", start, err)
		return nil, err
	}

	verdict := Assess(f.score())
	completedAt := c.now().UTC()
	expiresAt := completedAt.Add(verificationValidity)

	verification.Status = verdict.Status
	verification.RiskScore = verdict.Score
	verification.RiskLevel = verdict.Level
	verification.RiskFactors = f.factors
	verification.PEPStatus = f.pepStatus
	verification.SanctionsStatus = f.sanctionsStatus
	verification.DocumentsVerified = f.documentsVerified
	verification.ProviderResponse = f.providerResponse
	verification.CompletedAt = &completedAt
	verification.ExpiresAt = &expiresAt

	if err := c.store.CompleteVerification(ctx, verification); err != nil {
		c.release(ctx, verification.ID)
		c.fail(ctx, req, "complete", start, err)
		return nil, err
	}

	for i := range f.alerts {
		f.alerts[i].EntityType = entity.Type
		f.alerts[i].EntityID = entity.ID
		f.alerts[i].KycVerificationID = verification.ID
	}
	if len(f.alerts) > 0 {
		if err := c.store.InsertAlerts(ctx, f.alerts); err != nil {
			c.fail(ctx, req, "alerts", start, err)
			return nil, err
		}
		for _, a := range f.alerts {
			alertsOpenedTotal.WithLabelValues(string(a.AlertType)).Inc()
		}
	}

	if notifies(verdict.Level) {
		c.notify(ctx, *entity, verification, len(f.alerts))
	}

	verdictsTotal.WithLabelValues(string(verdict.Status), string(verdict.Level)).Inc()

	result := &Result{
		VerificationID:    verification.ID,
		Status:            verdict.Status,
		RiskScore:         verdict.Score,
		RiskLevel:         verdict.Level,
		RiskFactors:       f.factors,
		Alerts:            len(f.alerts),
		DocumentsVerified: f.documentsVerified,
		Recommendation:    verdict.Recommendation,
		ProcessingTimeMS:  time.Since(start).Milliseconds(),
	}
	if result.RiskFactors == nil {
		result.RiskFactors = []model.RiskFactor{}
	}

	c.logger.Info("compliance check completed",
		"entity_type", entity.Type,
		"entity_id", entity.ID,
		"verification_id", verification.ID,
		"status", verdict.Status,
		"risk_score", verdict.Score,
		"risk_level", verdict.Level,
		"alerts", len(f.alerts),
		"duration_ms", result.ProcessingTimeMS)
	c.writeLog(ctx, req, string(verdict.Status), result.ProcessingTimeMS, map[string]any{
		"verification_id": verification.ID,
		"risk_score":      verdict.Score,
		"risk_level":      verdict.Level,
		"alerts":          len(f.alerts),
		"trigger":         req.Trigger,
		"level":           req.Level,
	})
	return result, nil
}

// screen runs every screen against the entity. The screens are independent; the
// order only affects the order of the reported factors.
func (c *Checker) screen(ctx context.Context, e model.Entity, req CheckRequest) (*findings, error) {
	f := newFindings()
	screenGeography(e, f)
	screenPEP(e, f)
	c.ai.Run(ctx, e, req.Level, f)
	if err := c.document.Run(ctx, e, req, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (c *Checker) notify(ctx context.Context, e model.Entity, v *model.KycVerification, alerts int) {
	data, _ := json.Marshal(map[string]any{
		"verification_id": v.ID,
		"entity_type":     e.Type,
		"entity_id":       e.ID,
		"risk_score":      v.RiskScore,
		"risk_level":      v.RiskLevel,
		"status":          v.Status,
		"alerts":          alerts,
	})

	err := c.store.InsertNotification(context.WithoutCancel(ctx), &model.AdminNotification{
		Type:     "kyc_high_risk",
		Title:    fmt.Sprintf("%s risk %s: %s", strings.ToUpper(string(v.RiskLevel)), e.Type, e.Name),
		Message:  fmt.Sprintf("Verification %s scored %d (%s) with %d alert(s)", v.ID, v.RiskScore, v.Status, alerts),
		Severity: v.RiskLevel,
		Data:     data,
	})
	if err != nil {
		c.logger.Warn("failed to notify administrators",
			"verification_id", v.ID,
			"error", err)
	}
}

// release returns a verification to pending so the next check can reuse it.
func (c *Checker) release(ctx context.Context, id string) {
	if err := c.store.ReleaseVerification(context.WithoutCancel(ctx), id); err != nil {
		c.logger.Error("failed to release verification", "verification_id", id, "error", err)
	}
}

func (c *Checker) fail(ctx context.Context, req CheckRequest, stage string, start time.Time, err error) {
	checkFailuresTotal.WithLabelValues(stage).Inc()
	c.logger.Warn("compliance check failed",
		"entity_type", req.EntityType,
		"entity_id", req.EntityID,
		"stage", stage,
		"error", err)
	c.writeLog(ctx, req, "failed", time.Since(start).Milliseconds(), map[string]any{
		"stage": stage,
		"error": err.Error(),
	})
}

// writeLog records the run. Failures are logged only.
func (c *Checker) writeLog(ctx context.Context, req CheckRequest, outcome string, durationMS int64, details map[string]any) {
	raw, err := json.Marshal(details)
	if err != nil {
		c.logger.Warn("failed to encode compliance log", "error", err)
		return
	}
	err = c.store.InsertPipelineLog(context.WithoutCancel(ctx), &model.PipelineLog{
		Pipeline:   model.PipelineCompliance,
		Subject:    fmt.Sprintf("%s:%s", req.EntityType, req.EntityID),
		Outcome:    outcome,
		DurationMS: durationMS,
		Details:    raw,
	})
	if err != nil {
		c.logger.Warn("failed to write compliance log", "error", err)
	}
}
