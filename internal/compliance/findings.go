package compliance

import (
	"encoding/json"

	"github.com/Veraticus/concierge/internal/model"
)

// findings accumulates what the screens of one check discovered.
type findings struct {
	providerResponse  json.RawMessage
	factors           []model.RiskFactor
	alerts            []model.AmlAlert
	pepStatus         model.ScreeningStatus
	sanctionsStatus   model.ScreeningStatus
	documentsVerified bool
}

func newFindings() *findings {
	return &findings{
		pepStatus:       model.ScreeningClear,
		sanctionsStatus: model.ScreeningClear,
	}
}

func (f *findings) addFactor(category, description string, severity model.Severity, impact int) {
	f.factors = append(f.factors, model.RiskFactor{
		Category:    category,
		Description: description,
		Severity:    severity,
		ScoreImpact: impact,
	})
}

func (f *findings) addAlert(a model.AmlAlert) {
	f.alerts = append(f.alerts, a)
}

// score sums every factor's impact. There is no cap.
func (f *findings) score() int {
	total := 0
	for _, factor := range f.factors {
		total += factor.ScoreImpact
	}
	return total
}

func matchDetails(v map[string]any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
