package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestSQLiteStorage_Settings(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.UpsertSetting(ctx, "k", json.RawMessage(`{"a":1}`)))
	first, err := store.GetSetting(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(first.Value))
	assert.WithinDuration(t, time.Now(), first.UpdatedAt, time.Minute)

	require.NoError(t, store.UpsertSetting(ctx, "k", json.RawMessage(`{"a":2}`)))
	second, err := store.GetSetting(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(second.Value))
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	assert.Error(t, store.UpsertSetting(ctx, "bad", json.RawMessage(`{not json`)))
}

func TestSQLiteStorage_Entities(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		entity model.Entity
		name   string
	}{
		{
			name: "partner",
			entity: model.Entity{
				Type: model.EntityPartner, ID: "p-1", Name: "Skyline Jets",
				Country: "Switzerland", Title: "Managing Director", Bio: "Private aviation",
			},
		},
		{
			name: "client",
			entity: model.Entity{
				Type: model.EntityClient, ID: "c-1", Name: "Alex Morgan", Country: "France",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entity
			require.NoError(t, store.SaveEntity(ctx, &e))

			got, err := store.GetEntity(ctx, tt.entity.Type, tt.entity.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.entity, *got)
		})
	}

	_, err := store.GetEntity(ctx, model.EntityUser, "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_DocumentExtractions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	expiry := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	older := &model.DocumentExtraction{
		DocumentID: "doc-1", EntityType: model.EntityClient, EntityID: "c-1",
		DocumentType: "passport",
		Fields:       []model.ExtractedField{{Name: "full_name", Value: "Alex Morgan", Confidence: 0.95}},
		CreatedAt:    time.Now().UTC().Add(-time.Hour),
	}
	newer := &model.DocumentExtraction{
		DocumentID: "doc-2", EntityType: model.EntityClient, EntityID: "c-1",
		DocumentType: "passport",
		Fields:       []model.ExtractedField{{Name: "full_name", Value: "Alex J Morgan", Confidence: 0.9}},
		ExpiryDate:   &expiry,
	}
	require.NoError(t, store.SaveDocumentExtraction(ctx, older))
	require.NoError(t, store.SaveDocumentExtraction(ctx, newer))

	got, err := store.GetDocumentExtraction(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, older.Fields, got.Fields)
	assert.Nil(t, got.ExpiryDate)

	latest, err := store.GetLatestDocumentExtraction(ctx, model.EntityClient, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-2", latest.DocumentID)
	require.NotNil(t, latest.ExpiryDate)
	assert.True(t, expiry.Equal(*latest.ExpiryDate))

	_, err = store.GetLatestDocumentExtraction(ctx, model.EntityClient, "c-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_StartVerification(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	v, err := store.StartVerification(ctx, model.EntityPartner, "p-1", model.LevelStandard, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, v.Status)
	assert.NotEmpty(t, v.ID)

	_, err = store.StartVerification(ctx, model.EntityPartner, "p-1", model.LevelStandard, time.Time{})
	assert.ErrorIs(t, err, common.ErrAlreadyInProgress)

	// Other entities are unaffected.
	_, err = store.StartVerification(ctx, model.EntityPartner, "p-2", model.LevelBasic, time.Time{})
	require.NoError(t, err)

	require.NoError(t, store.ReleaseVerification(ctx, v.ID))
	reused, err := store.StartVerification(ctx, model.EntityPartner, "p-1", model.LevelEnhanced, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, v.ID, reused.ID)
	assert.Equal(t, model.LevelEnhanced, reused.VerificationLevel)
}

func TestSQLiteStorage_StartVerificationReclaimsStale(t *testing.T) {
	tests := []struct {
		name        string
		staleBefore func(startedAt time.Time) time.Time
		wantErr     error
	}{
		{name: "no cutoff", staleBefore: func(time.Time) time.Time { return time.Time{} }, wantErr: common.ErrAlreadyInProgress},
		{name: "updated after cutoff", staleBefore: func(at time.Time) time.Time { return at.Add(-time.Minute) }, wantErr: common.ErrAlreadyInProgress},
		{name: "updated before cutoff", staleBefore: func(at time.Time) time.Time { return at.Add(time.Minute) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			v, err := store.StartVerification(ctx, model.EntityPartner, "p-1", model.LevelStandard, time.Time{})
			require.NoError(t, err)

			got, err := store.StartVerification(ctx, model.EntityPartner, "p-1", model.LevelEnhanced, tt.staleBefore(v.UpdatedAt))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, v.ID, got.ID)
			assert.Equal(t, model.StatusInProgress, got.Status)
			assert.Equal(t, model.LevelEnhanced, got.VerificationLevel)
			assert.False(t, got.UpdatedAt.Before(v.UpdatedAt))

			var rows int
			require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kyc_verifications").Scan(&rows))
			assert.Equal(t, 1, rows)
		})
	}
}

func TestSQLiteStorage_CompleteVerification(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	v, err := store.StartVerification(ctx, model.EntityClient, "c-1", model.LevelStandard, time.Time{})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	expires := now.AddDate(0, 0, 365)
	v.Status = model.StatusManualReview
	v.PEPStatus = model.ScreeningPotentialMatch
	v.SanctionsStatus = model.ScreeningClear
	v.RiskScore = 45
	v.RiskLevel = model.SeverityHigh
	v.RiskFactors = []model.RiskFactor{
		{Category: "geography", Description: "High-risk jurisdiction: Iran", Severity: model.SeverityHigh, ScoreImpact: 30},
		{Category: "pep", Description: "Potential PEP", Severity: model.SeverityMedium, ScoreImpact: 15},
	}
	v.CompletedAt = &now
	v.ExpiresAt = &expires
	require.NoError(t, store.CompleteVerification(ctx, v))

	got, err := store.GetVerification(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusManualReview, got.Status)
	assert.Equal(t, 45, got.RiskScore)
	assert.Equal(t, v.RiskFactors, got.RiskFactors)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt))

	// Terminal rows can be completed only once.
	err = store.CompleteVerification(ctx, v)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// A finished verification no longer blocks a new run.
	_, err = store.StartVerification(ctx, model.EntityClient, "c-1", model.LevelStandard, time.Time{})
	assert.NoError(t, err)
}

func TestSQLiteStorage_CompleteVerificationRejectsNonTerminal(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	err := store.CompleteVerification(context.Background(), &model.KycVerification{ID: "x", Status: model.StatusPending})
	assert.ErrorIs(t, err, ErrInvalidVerdict)
}

func TestSQLiteStorage_AlertsAndRecords(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	v, err := store.StartVerification(ctx, model.EntityPartner, "p-1", model.LevelStandard, time.Time{})
	require.NoError(t, err)

	require.NoError(t, store.InsertAlerts(ctx, nil))

	alerts := []model.AmlAlert{
		{
			EntityType: model.EntityPartner, EntityID: "p-1", KycVerificationID: v.ID,
			AlertType: model.AlertSanctionsMatch, Severity: model.SeverityHigh,
			Title: "High-risk jurisdiction", Source: "high_risk_jurisdiction_list", MatchScore: 0.8,
			MatchDetails: json.RawMessage(`{"country":"Iran"}`),
		},
		{
			EntityType: model.EntityPartner, EntityID: "p-1", KycVerificationID: v.ID,
			AlertType: model.AlertAdverseMedia, Severity: model.SeverityHigh,
			Title: "Adverse media", Source: "ai_screening", MatchScore: 0.7,
		},
	}
	require.NoError(t, store.InsertAlerts(ctx, alerts))

	got, err := store.GetAlertsByVerification(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "open", got[0].Status)
	assert.JSONEq(t, `{"country":"Iran"}`, string(got[0].MatchDetails))
	assert.Equal(t, model.AlertAdverseMedia, got[1].AlertType)

	assert.ErrorIs(t, store.InsertAlerts(ctx, []model.AmlAlert{{EntityID: "p-1"}}), ErrInvalidAlert)

	require.NoError(t, store.InsertNotification(ctx, &model.AdminNotification{
		Type: "kyc_alert", Title: "High risk partner", Severity: model.SeverityHigh,
		Data: json.RawMessage(`{"verification_id":"` + v.ID + `"}`),
	}))
	require.NoError(t, store.InsertPipelineLog(ctx, &model.PipelineLog{
		Pipeline: model.PipelineCompliance, Subject: "p-1", Outcome: "manual_review", DurationMS: 12,
	}))
	assert.ErrorIs(t, store.InsertPipelineLog(ctx, &model.PipelineLog{}), ErrInvalidLogRecord)

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_notifications`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	assert.NoError(t, store.Ping(ctx))
}
