package compliance

import "time"

// highRiskCountries are matched as case-insensitive substrings of the entity's country.
var highRiskCountries = []string{
	"Iran",
	"North Korea",
	"Syria",
	"Cuba",
	"Venezuela",
	"Russia",
	"Belarus",
	"Myanmar",
	"Afghanistan",
	"Yemen",
}

// pepKeywords are matched as lowercase substrings of name, title and bio.
var pepKeywords = []string{
	"minister",
	"senator",
	"governor",
	"ambassador",
	"president",
	"parliament",
	"congressman",
	"congresswoman",
	"mayor",
	"judge",
	"diplomat",
	"head of state",
	"central bank",
	"royal family",
	"military general",
}

// Score impacts.
const (
	geographyImpact     = 30
	pepImpact           = 20
	aiSanctionsImpact   = 40
	aiPEPImpact         = 15
	adverseMediaImpact  = 25
	nameMismatchImpact  = 15
	expiredImpact       = 10
	expiringSoonImpact  = 5
	lowConfidenceImpact = 5
)

// Verdict thresholds.
const (
	rejectThreshold       = 60
	manualReviewThreshold = 40
	elevatedThreshold     = 20

	criticalLevelThreshold = 60
	highLevelThreshold     = 40
	mediumLevelThreshold   = 20
)

const (
	expiryWarningWindow  = 90 * 24 * time.Hour
	verificationValidity = 365 * 24 * time.Hour

	minFieldConfidence     = 0.7
	maxLowConfidenceFields = 2
	nameMismatchTolerance  = 0.2
	jurisdictionMatchScore = 0.8
	aiSanctionsMatchScore  = 0.9
	adverseMediaMatchScore = 0.7

	jurisdictionListSource = "high_risk_jurisdiction_list"
	aiScreenSource         = "ai_risk_screen"
	documentCheckSource    = "document_consistency_check"

	triggerDocumentUploaded = "document_uploaded"
)
