package model

import (
	"encoding/json"
	"time"
)

// EntityType identifies which record a compliance check screens.
type EntityType string

// Screenable entity types.
const (
	EntityPartner EntityType = "partner"
	EntityClient  EntityType = "client"
	EntityUser    EntityType = "user"
)

// IsValid reports whether t is a known entity type.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityPartner, EntityClient, EntityUser:
		return true
	}
	return false
}

// VerificationLevel is the depth requested for a compliance check.
type VerificationLevel string

// Verification levels.
const (
	LevelBasic    VerificationLevel = "basic"
	LevelStandard VerificationLevel = "standard"
	LevelEnhanced VerificationLevel = "enhanced"
)

// IsValid reports whether l is a known verification level.
func (l VerificationLevel) IsValid() bool {
	switch l {
	case LevelBasic, LevelStandard, LevelEnhanced:
		return true
	}
	return false
}

// VerificationStatus is the lifecycle state of a KYC verification.
type VerificationStatus string

// Verification states. Approved, ManualReview and Rejected are terminal.
const (
	StatusPending      VerificationStatus = "pending"
	StatusInProgress   VerificationStatus = "in_progress"
	StatusApproved     VerificationStatus = "approved"
	StatusManualReview VerificationStatus = "manual_review"
	StatusRejected     VerificationStatus = "rejected"
)

// IsTerminal reports whether s is a final verdict.
func (s VerificationStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusManualReview, StatusRejected:
		return true
	}
	return false
}

// ScreeningStatus is the outcome of a PEP or sanctions screen.
type ScreeningStatus string

// Screening outcomes.
const (
	ScreeningClear          ScreeningStatus = "clear"
	ScreeningPotentialMatch ScreeningStatus = "potential_match"
)

// Severity grades risk factors, alerts and overall risk.
type Severity string

// Severities, lowest first.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskLevel is the overall classification of a verification.
type RiskLevel = Severity

// AlertType classifies an AML alert.
type AlertType string

// AML alert types.
const (
	AlertSanctionsMatch      AlertType = "sanctions_match"
	AlertPEPMatch            AlertType = "pep_match"
	AlertAdverseMedia        AlertType = "adverse_media"
	AlertDocumentDiscrepancy AlertType = "document_discrepancy"
)

// Recommendation is the caller-facing action derived from a verdict.
type Recommendation string

// Recommendations.
const (
	RecommendProceed    Recommendation = "proceed"
	RecommendEnhancedDD Recommendation = "enhanced_due_diligence"
	RecommendBlock      Recommendation = "block"
)

// Entity is the subset of a partner or profile record that screening reads.
type Entity struct {
	Type    EntityType
	ID      string
	Name    string
	Country string
	Title   string
	Bio     string
}

// RiskFactor is one scored finding.
type RiskFactor struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	ScoreImpact int      `json:"score_impact"`
}

// AmlAlert is an alert opened for the external review workflow.
type AmlAlert struct {
	CreatedAt         time.Time       `json:"created_at"`
	MatchDetails      json.RawMessage `json:"match_details,omitempty"`
	ID                string          `json:"id"`
	EntityType        EntityType      `json:"entity_type"`
	EntityID          string          `json:"entity_id"`
	KycVerificationID string          `json:"kyc_verification_id"`
	AlertType         AlertType       `json:"alert_type"`
	Severity          Severity        `json:"severity"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Source            string          `json:"source"`
	Status            string          `json:"status"`
	MatchScore        float64         `json:"match_score"`
}

// KycVerification is one compliance run for an entity.
type KycVerification struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
	ExpiresAt         *time.Time
	ProviderResponse  json.RawMessage
	ID                string
	EntityType        EntityType
	EntityID          string
	VerificationLevel VerificationLevel
	Status            VerificationStatus
	PEPStatus         ScreeningStatus
	SanctionsStatus   ScreeningStatus
	RiskLevel         RiskLevel
	RiskFactors       []RiskFactor
	RiskScore         int
	DocumentsVerified bool
}

// ExtractedField is one OCR field with its extraction confidence.
type ExtractedField struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// DocumentExtraction holds the OCR output for an uploaded identity document.
type DocumentExtraction struct {
	CreatedAt    time.Time
	ExpiryDate   *time.Time
	DocumentID   string
	EntityType   EntityType
	EntityID     string
	DocumentType string
	Fields       []ExtractedField
}

// Field returns the named field and whether it was extracted.
func (d DocumentExtraction) Field(name string) (ExtractedField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ExtractedField{}, false
}

// AdminNotification is a row surfaced to back-office administrators.
type AdminNotification struct {
	CreatedAt time.Time
	Data      json.RawMessage
	ID        string
	Type      string
	Title     string
	Message   string
	Severity  Severity
}

// PipelineLog summarizes one discovery or compliance run.
type PipelineLog struct {
	CreatedAt  time.Time
	Details    json.RawMessage
	ID         string
	Pipeline   string
	Subject    string
	Outcome    string
	DurationMS int64
}

// Pipeline names used in PipelineLog.
const (
	PipelineDiscovery  = "partner_discovery"
	PipelineCompliance = "kyc_aml_check"
)
