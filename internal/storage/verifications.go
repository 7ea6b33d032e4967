package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/model"
)

// StartVerification claims the entity's open verification for a new run, or
// creates a fresh in_progress row when none is open. A pending row is always
// claimed; an in_progress row is claimed only when its last update is before
// staleBefore, which recovers runs that died without releasing. A zero
// staleBefore never reclaims. Any other open row, or a concurrent insert that
// violates idx_kyc_verifications_open, is reported as common.ErrAlreadyInProgress.
func (s *SQLiteStorage) StartVerification(ctx context.Context, entityType model.EntityType, entityID string, level model.VerificationLevel, staleBefore time.Time) (*model.KycVerification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(entityID, "entityID"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var (
		id, status           string
		createdAt, updatedAt time.Time
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, created_at, updated_at
		FROM kyc_verifications
		WHERE entity_type = ? AND entity_id = ? AND status IN (?, ?)
	`, string(entityType), entityID, string(model.StatusPending), string(model.StatusInProgress)).
		Scan(&id, &status, &createdAt, &updatedAt)

	switch {
	case err == nil:
		if model.VerificationStatus(status) == model.StatusInProgress {
			if staleBefore.IsZero() || !updatedAt.Before(staleBefore) {
				return nil, fmt.Errorf("%s %s: %w", entityType, entityID, common.ErrAlreadyInProgress)
			}
			slog.Warn("Reclaiming stale verification",
				"verification_id", id,
				"entity_type", entityType,
				"entity_id", entityID,
				"last_update", updatedAt)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE kyc_verifications
			SET status = ?, verification_level = ?, updated_at = ?
			WHERE id = ?
		`, string(model.StatusInProgress), string(level), now, id)
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		createdAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO kyc_verifications
				(id, entity_type, entity_id, verification_level, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, string(entityType), entityID, string(level), string(model.StatusInProgress), now, now)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s %s: %w", entityType, entityID, common.ErrAlreadyInProgress)
		}
		return nil, fmt.Errorf("failed to start verification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verification start: %w", err)
	}

	return &model.KycVerification{
		ID:                id,
		EntityType:        entityType,
		EntityID:          entityID,
		VerificationLevel: level,
		Status:            model.StatusInProgress,
		CreatedAt:         createdAt,
		UpdatedAt:         now,
	}, nil
}

// CompleteVerification writes the verdict of an in-progress verification.
func (s *SQLiteStorage) CompleteVerification(ctx context.Context, v *model.KycVerification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateCompletedVerification(v); err != nil {
		return err
	}

	factors, err := json.Marshal(v.RiskFactors)
	if err != nil {
		return fmt.Errorf("failed to encode risk factors: %w", err)
	}
	provider := v.ProviderResponse
	if len(provider) == 0 {
		provider = json.RawMessage("{}")
	}
	v.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE kyc_verifications
		SET status = ?, pep_status = ?, sanctions_status = ?, documents_verified = ?,
			risk_score = ?, risk_level = ?, risk_factors = ?, provider_response = ?,
			completed_at = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(v.Status), string(v.PEPStatus), string(v.SanctionsStatus), v.DocumentsVerified,
		v.RiskScore, string(v.RiskLevel), string(factors), string(provider),
		nullableTime(v.CompletedAt), nullableTime(v.ExpiresAt), v.UpdatedAt,
		v.ID, string(model.StatusInProgress))
	if err != nil {
		return fmt.Errorf("failed to complete verification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check verification update: %w", err)
	}
	if n == 0 {
		return notFound("in-progress verification", v.ID)
	}
	return nil
}

// ReleaseVerification returns an in-progress verification to pending so that
// the next trigger for the entity reuses it.
func (s *SQLiteStorage) ReleaseVerification(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE kyc_verifications
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(model.StatusPending), time.Now().UTC(), id, string(model.StatusInProgress))
	if err != nil {
		return fmt.Errorf("failed to release verification: %w", err)
	}
	return nil
}

// GetVerification loads a verification by ID.
func (s *SQLiteStorage) GetVerification(ctx context.Context, id string) (*model.KycVerification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		v                                            model.KycVerification
		entityType, level, status                    string
		pep, sanctions, riskLevel, factors, provider sql.NullString
		completedAt, expiresAt                       sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, entity_type, entity_id, verification_level, status, pep_status, sanctions_status,
			documents_verified, risk_score, risk_level, risk_factors, provider_response,
			completed_at, expires_at, created_at, updated_at
		FROM kyc_verifications
		WHERE id = ?
	`, id).Scan(&v.ID, &entityType, &v.EntityID, &level, &status, &pep, &sanctions,
		&v.DocumentsVerified, &v.RiskScore, &riskLevel, &factors, &provider,
		&completedAt, &expiresAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("verification", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}

	v.EntityType = model.EntityType(entityType)
	v.VerificationLevel = model.VerificationLevel(level)
	v.Status = model.VerificationStatus(status)
	v.PEPStatus = model.ScreeningStatus(pep.String)
	v.SanctionsStatus = model.ScreeningStatus(sanctions.String)
	v.RiskLevel = model.RiskLevel(riskLevel.String)
	if factors.Valid && factors.String != "" {
		if err := json.Unmarshal([]byte(factors.String), &v.RiskFactors); err != nil {
			return nil, fmt.Errorf("failed to decode risk factors: %w", err)
		}
	}
	if provider.Valid {
		v.ProviderResponse = json.RawMessage(provider.String)
	}
	if completedAt.Valid {
		t := completedAt.Time
		v.CompletedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		v.ExpiresAt = &t
	}
	return &v, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
