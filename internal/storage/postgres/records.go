package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/storage"
)

// InsertAlerts writes a batch of alerts with a single round trip.
func (s *Storage) InsertAlerts(ctx context.Context, alerts []model.AmlAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	if err := storage.ValidateAlerts(alerts); err != nil {
		return err
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for i := range alerts {
		a := &alerts[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Status == "" {
			a.Status = "open"
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		batch.Queue(`
			INSERT INTO aml_alerts (id, entity_type, entity_id, kyc_verification_id, alert_type, severity,
				title, description, source, match_details, match_score, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			a.ID, string(a.EntityType), a.EntityID, a.KycVerificationID, string(a.AlertType), string(a.Severity),
			a.Title, a.Description, a.Source, jsonArg(a.MatchDetails), a.MatchScore, a.Status, a.CreatedAt)
	}

	return s.runInTx(ctx, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert alerts: %w", err)
		}
		return nil
	})
}

// GetAlertsByVerification lists the alerts opened by a verification run.
func (s *Storage) GetAlertsByVerification(ctx context.Context, verificationID string) ([]model.AmlAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, entity_type, entity_id, kyc_verification_id::text, alert_type, severity,
			title, COALESCE(description, ''), COALESCE(source, ''), match_details, match_score, status, created_at
		FROM aml_alerts
		WHERE kyc_verification_id = $1
		ORDER BY created_at, id`, verificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.AmlAlert
	for rows.Next() {
		var (
			a                               model.AmlAlert
			entityType, alertType, severity string
			details                         []byte
		)
		if err := rows.Scan(&a.ID, &entityType, &a.EntityID, &a.KycVerificationID, &alertType, &severity,
			&a.Title, &a.Description, &a.Source, &details, &a.MatchScore, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.EntityType = model.EntityType(entityType)
		a.AlertType = model.AlertType(alertType)
		a.Severity = model.Severity(severity)
		if len(details) > 0 {
			a.MatchDetails = json.RawMessage(details)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// InsertNotification writes an admin notification.
func (s *Storage) InsertNotification(ctx context.Context, n *model.AdminNotification) error {
	if n == nil {
		return fmt.Errorf("%w: notification", storage.ErrNilParameter)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_notifications (id, type, title, message, severity, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.Type, n.Title, n.Message, string(n.Severity), jsonArg(n.Data), n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// InsertPipelineLog writes a run summary row.
func (s *Storage) InsertPipelineLog(ctx context.Context, l *model.PipelineLog) error {
	if err := storage.ValidatePipelineLog(l); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pipeline_logs (id, pipeline, subject, outcome, duration_ms, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.Pipeline, l.Subject, l.Outcome, l.DurationMS, jsonArg(l.Details), l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline log: %w", err)
	}
	return nil
}
