package compliance

import "github.com/Veraticus/concierge/internal/model"

// Verdict is the classification of a summed risk score.
type Verdict struct {
	Status         model.VerificationStatus
	Level          model.RiskLevel
	Recommendation model.Recommendation
	Score          int
}

// Assess classifies score. Status and level use separate cut points.
func Assess(score int) Verdict {
	status := statusForScore(score)
	return Verdict{
		Score:          score,
		Status:         status,
		Level:          levelForScore(score),
		Recommendation: recommendationFor(status),
	}
}

func statusForScore(score int) model.VerificationStatus {
	switch {
	case score >= rejectThreshold:
		return model.StatusRejected
	case score >= manualReviewThreshold:
		return model.StatusManualReview
	case score >= elevatedThreshold:
		return model.StatusApproved
	default:
		return model.StatusApproved
	}
}

func levelForScore(score int) model.RiskLevel {
	switch {
	case score >= criticalLevelThreshold:
		return model.SeverityCritical
	case score >= highLevelThreshold:
		return model.SeverityHigh
	case score >= mediumLevelThreshold:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func recommendationFor(status model.VerificationStatus) model.Recommendation {
	switch status {
	case model.StatusRejected:
		return model.RecommendBlock
	case model.StatusManualReview:
		return model.RecommendEnhancedDD
	default:
		return model.RecommendProceed
	}
}

// notifies reports whether a verdict at level warrants an admin notification.
func notifies(level model.RiskLevel) bool {
	return level == model.SeverityHigh || level == model.SeverityCritical
}
