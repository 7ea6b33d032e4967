// Package service defines the contracts shared by the pipelines and their backends.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Veraticus/concierge/internal/model"
)

// Storage defines the contract for our persistence layer.
// Lookups that find nothing return an error wrapping common.ErrNotFound.
type Storage interface {
	// Settings (generic key/value, used by the discovery cache)
	GetSetting(ctx context.Context, key string) (*model.DiscoveryCacheEntry, error)
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) error

	// Entities
	GetEntity(ctx context.Context, entityType model.EntityType, id string) (*model.Entity, error)
	SaveEntity(ctx context.Context, entity *model.Entity) error

	// Documents
	GetDocumentExtraction(ctx context.Context, documentID string) (*model.DocumentExtraction, error)
	GetLatestDocumentExtraction(ctx context.Context, entityType model.EntityType, entityID string) (*model.DocumentExtraction, error)
	SaveDocumentExtraction(ctx context.Context, doc *model.DocumentExtraction) error

	// Verifications
	StartVerification(ctx context.Context, entityType model.EntityType, entityID string, level model.VerificationLevel, staleBefore time.Time) (*model.KycVerification, error)
	CompleteVerification(ctx context.Context, v *model.KycVerification) error
	ReleaseVerification(ctx context.Context, id string) error
	GetVerification(ctx context.Context, id string) (*model.KycVerification, error)

	// Alerts, notifications and run logs
	InsertAlerts(ctx context.Context, alerts []model.AmlAlert) error
	GetAlertsByVerification(ctx context.Context, verificationID string) ([]model.AmlAlert, error)
	InsertNotification(ctx context.Context, n *model.AdminNotification) error
	InsertPipelineLog(ctx context.Context, l *model.PipelineLog) error

	// Database management
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
