package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
)

const riskScreenSystemPrompt = `You are a KYC/AML compliance analyst for a luxury concierge service.
Assess the entity below for sanctions exposure, politically exposed person status and adverse media.
Respond with a single JSON object:
{
  "sanctions_concern": {"found": boolean, "details": string},
  "pep_concern": {"found": boolean, "details": string},
  "adverse_media_concern": {"found": boolean, "details": string},
  "name_variations": [string],
  "recommendation": "approve" | "review" | "reject"
}`

type concern struct {
	Details string `json:"details"`
	Found   bool   `json:"found"`
}

// riskAssessment is the model's verdict on an entity.
type riskAssessment struct {
	SanctionsConcern    concern  `json:"sanctions_concern"`
	PEPConcern          concern  `json:"pep_concern"`
	AdverseMediaConcern concern  `json:"adverse_media_concern"`
	Recommendation      string   `json:"recommendation"`
	NameVariations      []string `json:"name_variations"`
}

// AIScreen asks a language model for a risk assessment. Any failure skips the screen.
type AIScreen struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewAIScreen creates the screen. A nil client disables it.
func NewAIScreen(client llm.Client, logger *slog.Logger) *AIScreen {
	if logger == nil {
		logger = slog.Default()
	}
	return &AIScreen{llm: client, logger: logger}
}

// Run adds the assessment's findings to f.
func (s *AIScreen) Run(ctx context.Context, e model.Entity, level model.VerificationLevel, f *findings) {
	if s.llm == nil {
		s.logger.Debug("AI risk screen skipped, no model configured")
		return
	}

	assessment, raw, err := s.assess(ctx, e, level)
	if err != nil {
		s.logger.Warn("AI risk screen skipped",
			"entity_type", e.Type,
			"entity_id", e.ID,
			"error", err)
		return
	}
	f.providerResponse = raw

	if assessment.SanctionsConcern.Found {
		f.sanctionsStatus = model.ScreeningPotentialMatch
		f.addFactor("ai_sanctions",
			describeConcern("Potential sanctions exposure", assessment.SanctionsConcern),
			model.SeverityCritical, aiSanctionsImpact)
		f.addAlert(model.AmlAlert{
			AlertType:   model.AlertSanctionsMatch,
			Severity:    model.SeverityCritical,
			Title:       "AI screening: potential sanctions match",
			Description: assessment.SanctionsConcern.Details,
			Source:      aiScreenSource,
			MatchScore:  aiSanctionsMatchScore,
			MatchDetails: matchDetails(map[string]any{
				"details":         assessment.SanctionsConcern.Details,
				"name_variations": assessment.NameVariations,
			}),
		})
	}

	if assessment.PEPConcern.Found && f.pepStatus != model.ScreeningPotentialMatch {
		f.pepStatus = model.ScreeningPotentialMatch
		f.addFactor("ai_pep",
			describeConcern("Potential politically exposed person", assessment.PEPConcern),
			model.SeverityMedium, aiPEPImpact)
	}

	if assessment.AdverseMediaConcern.Found {
		f.addFactor("adverse_media",
			describeConcern("Adverse media coverage", assessment.AdverseMediaConcern),
			model.SeverityHigh, adverseMediaImpact)
		f.addAlert(model.AmlAlert{
			AlertType:   model.AlertAdverseMedia,
			Severity:    model.SeverityHigh,
			Title:       "AI screening: adverse media",
			Description: assessment.AdverseMediaConcern.Details,
			Source:      aiScreenSource,
			MatchScore:  adverseMediaMatchScore,
			MatchDetails: matchDetails(map[string]any{
				"details": assessment.AdverseMediaConcern.Details,
			}),
		})
	}
}

func (s *AIScreen) assess(ctx context.Context, e model.Entity, level model.VerificationLevel) (riskAssessment, json.RawMessage, error) {
	resp, err := s.llm.Complete(ctx, llm.Request{
		System:      riskScreenSystemPrompt,
		Prompt:      describeEntity(e, level),
		Temperature: 0.1,
	})
	if err != nil {
		return riskAssessment{}, nil, err
	}

	var assessment riskAssessment
	if err := llm.ExtractJSONObject(resp.Content, &assessment); err != nil {
		return riskAssessment{}, nil, err
	}
	raw, err := json.Marshal(assessment)
	if err != nil {
		return riskAssessment{}, nil, fmt.Errorf("encode assessment: %w", err)
	}
	return assessment, raw, nil
}

func describeEntity(e model.Entity, level model.VerificationLevel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entity type: %s\n", e.Type)
	fmt.Fprintf(&b, "Name: %s\n", e.Name)
	if e.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", e.Country)
	}
	if e.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", e.Title)
	}
	if e.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", e.Bio)
	}
	fmt.Fprintf(&b, "Verification level: %s\n", level)
	return b.String()
}

func describeConcern(prefix string, c concern) string {
	if c.Details == "" {
		return prefix
	}
	return prefix + ": " + c.Details
}
