package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/testutil"
)

const sanctionsOnlyReply = `{"sanctions_concern":{"found":true,"details":"Listed"},"pep_concern":{"found":false},"adverse_media_concern":{"found":false},"recommendation":"reject"}`

func newTestChecker(db *testutil.TestDB, fake *testutil.FakeLLM) *Checker {
	var client llm.Client
	if fake != nil {
		client = fake
	}
	return NewChecker(db.Storage, client, nil)
}

func TestChecker_ScoreIsSumOfFixedDeltas(t *testing.T) {
	validUntil := time.Now().AddDate(3, 0, 0)
	expired := time.Now().AddDate(0, 0, -10)

	ambassador := testutil.CleanPartner
	ambassador.ID = "partner-ambassador"
	ambassador.Title = "Former Ambassador"

	everything := testutil.CleanPartner
	everything.ID = "partner-everything"
	everything.Country = "Syria"
	everything.Title = "Ambassador"

	tests := []struct {
		name   string
		entity model.Entity
		doc    *model.DocumentExtraction
		reply  string
		want   int
	}{
		{name: "no findings", entity: testutil.CleanPartner, want: 0},
		{name: "high-risk country", entity: testutil.PartnerInHighRiskCountry, want: geographyImpact},
		{name: "PEP keyword", entity: ambassador, want: pepImpact},
		{name: "AI sanctions hit", entity: testutil.CleanPartner, reply: sanctionsOnlyReply, want: aiSanctionsImpact},
		{
			name:   "name mismatch",
			entity: testutil.CleanPartner,
			doc:    ptr(testutil.Document(testutil.CleanPartner, "doc-1", "Jordan Avery", validUntil)),
			want:   nameMismatchImpact,
		},
		{
			name:   "expired document",
			entity: testutil.CleanPartner,
			doc:    ptr(testutil.Document(testutil.CleanPartner, "doc-1", "Alpine Heli Transfers", expired)),
			want:   expiredImpact,
		},
		{
			name:   "all conditions",
			entity: everything,
			doc:    ptr(testutil.Document(everything, "doc-1", "Jordan Avery", expired)),
			reply:  sanctionsOnlyReply,
			want:   geographyImpact + pepImpact + aiSanctionsImpact + nameMismatchImpact + expiredImpact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testutil.TestDBOptions{Entities: []model.Entity{tt.entity}}
			req := CheckRequest{EntityType: tt.entity.Type, EntityID: tt.entity.ID}
			if tt.doc != nil {
				opts.Documents = []model.DocumentExtraction{*tt.doc}
				req.DocumentID = tt.doc.DocumentID
			}
			db := testutil.SetupTestDBWithOptions(t, opts)

			var fake *testutil.FakeLLM
			if tt.reply != "" {
				fake = textLLM(tt.reply, nil)
			}

			result, err := newTestChecker(db, fake).Check(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.RiskScore)
			sum := 0
			for _, f := range result.RiskFactors {
				sum += f.ScoreImpact
			}
			assert.Equal(t, result.RiskScore, sum)

			v := Assess(tt.want)
			assert.Equal(t, v.Status, result.Status)
			assert.Equal(t, v.Level, result.RiskLevel)
			assert.Equal(t, v.Recommendation, result.Recommendation)
		})
	}
}

func TestChecker_AIOutageDegradesToDeterministicScreens(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.PartnerInHighRiskCountry)
	fake := textLLM("", errors.New("gateway unreachable"))

	result, err := newTestChecker(db, fake).Check(context.Background(), CheckRequest{
		EntityType: model.EntityPartner,
		EntityID:   testutil.PartnerInHighRiskCountry.ID,
		Level:      model.LevelEnhanced,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.Calls())
	assert.Equal(t, geographyImpact, result.RiskScore)
	require.Len(t, result.RiskFactors, 1)
	assert.Equal(t, "geography", result.RiskFactors[0].Category)
	assert.Equal(t, 1, result.Alerts)
	assert.Equal(t, model.StatusApproved, result.Status)
	assert.Equal(t, model.SeverityMedium, result.RiskLevel)
	assert.Equal(t, model.RecommendProceed, result.Recommendation)
	assert.NotEmpty(t, result.VerificationID)
}

func TestChecker_PersistsVerdict(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.PartnerInHighRiskCountry)
	ctx := context.Background()

	result, err := newTestChecker(db, textLLM(sanctionsOnlyReply, nil)).Check(ctx, CheckRequest{
		EntityType: model.EntityPartner,
		EntityID:   testutil.PartnerInHighRiskCountry.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 70, result.RiskScore)
	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Equal(t, model.RecommendBlock, result.Recommendation)
	assert.Equal(t, 2, result.Alerts)

	v, err := db.Storage.GetVerification(ctx, result.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, v.Status)
	assert.Equal(t, 70, v.RiskScore)
	assert.Equal(t, model.SeverityCritical, v.RiskLevel)
	assert.Equal(t, model.LevelStandard, v.VerificationLevel)
	assert.Equal(t, model.ScreeningPotentialMatch, v.SanctionsStatus)
	assert.Equal(t, model.ScreeningClear, v.PEPStatus)
	assert.NotEmpty(t, v.ProviderResponse)
	require.NotNil(t, v.CompletedAt)
	require.NotNil(t, v.ExpiresAt)
	assert.WithinDuration(t, v.CompletedAt.Add(365*24*time.Hour), *v.ExpiresAt, time.Second)

	alerts, err := db.Storage.GetAlertsByVerification(ctx, result.VerificationID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, "open", a.Status)
		assert.Equal(t, testutil.PartnerInHighRiskCountry.ID, a.EntityID)
	}

	assert.Equal(t, 1, db.CountRows("admin_notifications"))
	assert.Equal(t, 1, db.CountRows("pipeline_logs"))
}

func TestChecker_LowRiskWritesNoNotification(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.CleanClient)

	result, err := newTestChecker(db, nil).Check(context.Background(), CheckRequest{
		EntityType: model.EntityClient,
		EntityID:   testutil.CleanClient.ID,
	})
	require.NoError(t, err)

	assert.Zero(t, result.RiskScore)
	assert.NotNil(t, result.RiskFactors)
	assert.Empty(t, result.RiskFactors)
	assert.Zero(t, result.Alerts)
	assert.Equal(t, 0, db.CountRows("aml_alerts"))
	assert.Equal(t, 0, db.CountRows("admin_notifications"))
	assert.Equal(t, 1, db.CountRows("pipeline_logs"))
}

func TestChecker_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		checker := newTestChecker(db, nil)

		for _, req := range []CheckRequest{
			{EntityID: "x"},
			{EntityType: model.EntityPartner},
			{EntityType: "vendor", EntityID: "x"},
			{EntityType: model.EntityPartner, EntityID: "x", Level: "extreme"},
		} {
			_, err := checker.Check(ctx, req)
			assert.ErrorIs(t, err, common.ErrValidation, "%+v", req)
		}
	})

	t.Run("entity not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, err := newTestChecker(db, nil).Check(ctx, CheckRequest{EntityType: model.EntityPartner, EntityID: "ghost"})
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.Equal(t, 0, db.CountRows("kyc_verifications"))
		assert.Equal(t, 1, db.CountRows("pipeline_logs"))
	})

	t.Run("already in progress", func(t *testing.T) {
		db := testutil.SetupTestDB(t, testutil.CleanPartner)
		_, err := db.Storage.StartVerification(ctx, model.EntityPartner, testutil.CleanPartner.ID, model.LevelBasic, time.Time{})
		require.NoError(t, err)

		_, err = newTestChecker(db, nil).Check(ctx, CheckRequest{EntityType: model.EntityPartner, EntityID: testutil.CleanPartner.ID})
		assert.ErrorIs(t, err, common.ErrAlreadyInProgress)
	})

	t.Run("failed run releases the verification", func(t *testing.T) {
		foreign := testutil.Document(testutil.CleanClient, "doc-foreign", "Morgan Lee", time.Now().AddDate(1, 0, 0))
		db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
			Entities:  []model.Entity{testutil.CleanPartner, testutil.CleanClient},
			Documents: []model.DocumentExtraction{foreign},
		})
		checker := newTestChecker(db, nil)

		_, err := checker.Check(ctx, CheckRequest{
			EntityType: model.EntityPartner,
			EntityID:   testutil.CleanPartner.ID,
			DocumentID: "doc-foreign",
		})
		require.ErrorIs(t, err, common.ErrValidation)

		// The released row is picked up again rather than conflicting.
		result, err := checker.Check(ctx, CheckRequest{EntityType: model.EntityPartner, EntityID: testutil.CleanPartner.ID})
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, result.Status)
		assert.Equal(t, 1, db.CountRows("kyc_verifications"))
	})
}

func TestChecker_AbandonedVerification(t *testing.T) {
	tests := []struct {
		name       string
		clockSkew  time.Duration
		staleAfter time.Duration
		reclaimed  bool
	}{
		{name: "fresh run still blocks", clockSkew: time.Minute, reclaimed: false},
		{name: "default window elapsed", clockSkew: time.Hour, reclaimed: true},
		{name: "custom window not elapsed", clockSkew: time.Hour, staleAfter: 2 * time.Hour, reclaimed: false},
		{name: "custom window elapsed", clockSkew: 3 * time.Minute, staleAfter: 2 * time.Minute, reclaimed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := testutil.SetupTestDB(t, testutil.CleanPartner)

			// A run that died after claiming its row.
			abandoned, err := db.Storage.StartVerification(ctx, model.EntityPartner, testutil.CleanPartner.ID, model.LevelBasic, time.Time{})
			require.NoError(t, err)

			checker := NewChecker(db.Storage, nil, nil, WithStaleAfter(tt.staleAfter))
			checker.now = func() time.Time { return time.Now().Add(tt.clockSkew) }
			req := CheckRequest{EntityType: model.EntityPartner, EntityID: testutil.CleanPartner.ID}

			for range 3 {
				result, err := checker.Check(ctx, req)
				if !tt.reclaimed {
					assert.ErrorIs(t, err, common.ErrAlreadyInProgress)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, model.StatusApproved, result.Status)
			}

			v, err := db.Storage.GetVerification(ctx, abandoned.ID)
			require.NoError(t, err)
			if tt.reclaimed {
				assert.Equal(t, model.StatusApproved, v.Status, "the abandoned row is reused")
				assert.Equal(t, 3, db.CountRows("kyc_verifications"))
			} else {
				assert.Equal(t, model.StatusInProgress, v.Status)
				assert.Equal(t, 1, db.CountRows("kyc_verifications"))
			}
		})
	}
}

func TestChecker_SequentialChecksCreateNewVerifications(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.CleanPartner)
	checker := newTestChecker(db, nil)
	req := CheckRequest{EntityType: model.EntityPartner, EntityID: testutil.CleanPartner.ID}

	first, err := checker.Check(context.Background(), req)
	require.NoError(t, err)
	second, err := checker.Check(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.VerificationID, second.VerificationID)
	assert.Equal(t, 2, db.CountRows("kyc_verifications"))
}

func ptr[T any](v T) *T {
	return &v
}
