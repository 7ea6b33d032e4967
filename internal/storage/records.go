package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/concierge/internal/model"
)

// InsertAlerts writes a batch of alerts in one transaction. An empty batch is a no-op.
func (s *SQLiteStorage) InsertAlerts(ctx context.Context, alerts []model.AmlAlert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}
	if err := ValidateAlerts(alerts); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO aml_alerts (id, entity_type, entity_id, kyc_verification_id, alert_type, severity,
			title, description, source, match_details, match_score, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare alert insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
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
		if _, err := stmt.ExecContext(ctx, a.ID, string(a.EntityType), a.EntityID, a.KycVerificationID,
			string(a.AlertType), string(a.Severity), a.Title, a.Description, a.Source,
			jsonText(a.MatchDetails), a.MatchScore, a.Status, a.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert alert %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetAlertsByVerification lists the alerts opened by a verification run.
func (s *SQLiteStorage) GetAlertsByVerification(ctx context.Context, verificationID string) ([]model.AmlAlert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, kyc_verification_id, alert_type, severity,
			title, description, source, match_details, match_score, status, created_at
		FROM aml_alerts
		WHERE kyc_verification_id = ?
		ORDER BY created_at, rowid
	`, verificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.AmlAlert
	for rows.Next() {
		var (
			a                               model.AmlAlert
			entityType, alertType, severity string
			description, source, details    sql.NullString
		)
		if err := rows.Scan(&a.ID, &entityType, &a.EntityID, &a.KycVerificationID, &alertType, &severity,
			&a.Title, &description, &source, &details, &a.MatchScore, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.EntityType = model.EntityType(entityType)
		a.AlertType = model.AlertType(alertType)
		a.Severity = model.Severity(severity)
		a.Description = description.String
		a.Source = source.String
		if details.Valid && details.String != "" {
			a.MatchDetails = json.RawMessage(details.String)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// InsertNotification writes an admin notification.
func (s *SQLiteStorage) InsertNotification(ctx context.Context, n *model.AdminNotification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: notification", ErrNilParameter)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_notifications (id, type, title, message, severity, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Type, n.Title, n.Message, string(n.Severity), jsonText(n.Data), n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// InsertPipelineLog writes a run summary row.
func (s *SQLiteStorage) InsertPipelineLog(ctx context.Context, l *model.PipelineLog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidatePipelineLog(l); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_logs (id, pipeline, subject, outcome, duration_ms, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.Pipeline, l.Subject, l.Outcome, l.DurationMS, jsonText(l.Details), l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline log: %w", err)
	}
	return nil
}

// jsonText stores raw JSON as TEXT, mapping empty payloads to NULL.
func jsonText(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
