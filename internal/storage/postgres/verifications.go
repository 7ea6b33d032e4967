package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/storage"
)

// StartVerification claims the entity's pending verification, or an
// in_progress one last updated before staleBefore, or inserts a new
// in_progress row. A zero staleBefore never reclaims. Concurrent claims
// collide on idx_kyc_verifications_open.
func (s *Storage) StartVerification(ctx context.Context, entityType model.EntityType, entityID string, level model.VerificationLevel, staleBefore time.Time) (*model.KycVerification, error) {
	v := &model.KycVerification{
		EntityType:        entityType,
		EntityID:          entityID,
		VerificationLevel: level,
		Status:            model.StatusInProgress,
	}

	var cutoff *time.Time
	if !staleBefore.IsZero() {
		cutoff = &staleBefore
	}

	err := s.runInTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE kyc_verifications
			SET status = $1, verification_level = $2, updated_at = NOW()
			WHERE entity_type = $3 AND entity_id = $4
				AND (status = $5 OR (status = $1 AND updated_at < $6::timestamptz))
			RETURNING id::text, created_at, updated_at`,
			string(model.StatusInProgress), string(level), string(entityType), entityID, string(model.StatusPending), cutoff,
		).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO kyc_verifications (id, entity_type, entity_id, verification_level, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id::text, created_at, updated_at`,
			uuid.NewString(), string(entityType), entityID, string(level), string(model.StatusInProgress),
		).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s %s: %w", entityType, entityID, common.ErrAlreadyInProgress)
		}
		return nil, fmt.Errorf("failed to start verification: %w", err)
	}
	return v, nil
}

// CompleteVerification writes the verdict of an in-progress verification.
func (s *Storage) CompleteVerification(ctx context.Context, v *model.KycVerification) error {
	if err := storage.ValidateCompletedVerification(v); err != nil {
		return err
	}
	factors, err := json.Marshal(v.RiskFactors)
	if err != nil {
		return fmt.Errorf("failed to encode risk factors: %w", err)
	}
	v.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, `
		UPDATE kyc_verifications
		SET status = $1, pep_status = $2, sanctions_status = $3, documents_verified = $4,
			risk_score = $5, risk_level = $6, risk_factors = $7, provider_response = $8,
			completed_at = $9, expires_at = $10, updated_at = $11
		WHERE id = $12 AND status = $13`,
		string(v.Status), string(v.PEPStatus), string(v.SanctionsStatus), v.DocumentsVerified,
		v.RiskScore, string(v.RiskLevel), string(factors), jsonArg(v.ProviderResponse),
		v.CompletedAt, v.ExpiresAt, v.UpdatedAt,
		v.ID, string(model.StatusInProgress))
	if err != nil {
		return fmt.Errorf("failed to complete verification %s: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("in-progress verification", v.ID)
	}
	return nil
}

// ReleaseVerification returns an in-progress verification to pending.
func (s *Storage) ReleaseVerification(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE kyc_verifications
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		string(model.StatusPending), id, string(model.StatusInProgress))
	if err != nil {
		return fmt.Errorf("failed to release verification %s: %w", id, err)
	}
	return nil
}

// GetVerification loads a verification by ID.
func (s *Storage) GetVerification(ctx context.Context, id string) (*model.KycVerification, error) {
	var (
		v                         model.KycVerification
		entityType, level, status string
		pep, sanctions, riskLevel string
		factors, provider         []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, entity_type, entity_id, verification_level, status,
			COALESCE(pep_status, ''), COALESCE(sanctions_status, ''), documents_verified,
			risk_score, COALESCE(risk_level, ''), risk_factors, provider_response,
			completed_at, expires_at, created_at, updated_at
		FROM kyc_verifications
		WHERE id = $1`, id).Scan(
		&v.ID, &entityType, &v.EntityID, &level, &status,
		&pep, &sanctions, &v.DocumentsVerified,
		&v.RiskScore, &riskLevel, &factors, &provider,
		&v.CompletedAt, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("verification", id)
		}
		return nil, fmt.Errorf("failed to get verification %s: %w", id, err)
	}

	v.EntityType = model.EntityType(entityType)
	v.VerificationLevel = model.VerificationLevel(level)
	v.Status = model.VerificationStatus(status)
	v.PEPStatus = model.ScreeningStatus(pep)
	v.SanctionsStatus = model.ScreeningStatus(sanctions)
	v.RiskLevel = model.RiskLevel(riskLevel)
	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &v.RiskFactors); err != nil {
			return nil, fmt.Errorf("failed to decode risk factors: %w", err)
		}
	}
	if len(provider) > 0 {
		v.ProviderResponse = json.RawMessage(provider)
	}
	return &v, nil
}
