package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/concierge/internal/model"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		score          int
		status         model.VerificationStatus
		level          model.RiskLevel
		recommendation model.Recommendation
	}{
		{0, model.StatusApproved, model.SeverityLow, model.RecommendProceed},
		{19, model.StatusApproved, model.SeverityLow, model.RecommendProceed},
		{20, model.StatusApproved, model.SeverityMedium, model.RecommendProceed},
		{39, model.StatusApproved, model.SeverityMedium, model.RecommendProceed},
		{40, model.StatusManualReview, model.SeverityHigh, model.RecommendEnhancedDD},
		{59, model.StatusManualReview, model.SeverityHigh, model.RecommendEnhancedDD},
		{60, model.StatusRejected, model.SeverityCritical, model.RecommendBlock},
		{155, model.StatusRejected, model.SeverityCritical, model.RecommendBlock},
	}

	for _, tt := range tests {
		v := Assess(tt.score)
		assert.Equal(t, tt.score, v.Score)
		assert.Equal(t, tt.status, v.Status, "status for %d", tt.score)
		assert.Equal(t, tt.level, v.Level, "level for %d", tt.score)
		assert.Equal(t, tt.recommendation, v.Recommendation, "recommendation for %d", tt.score)
	}
}

func TestAssess_StatusAndLevelUseDifferentThresholds(t *testing.T) {
	at40 := Assess(40)
	assert.Equal(t, model.StatusManualReview, at40.Status)
	assert.Equal(t, model.SeverityHigh, at40.Level)

	at20 := Assess(20)
	assert.Equal(t, model.StatusApproved, at20.Status)
	assert.Equal(t, model.SeverityMedium, at20.Level)
}

func TestNotifies(t *testing.T) {
	assert.False(t, notifies(model.SeverityLow))
	assert.False(t, notifies(model.SeverityMedium))
	assert.True(t, notifies(model.SeverityHigh))
	assert.True(t, notifies(model.SeverityCritical))
}
