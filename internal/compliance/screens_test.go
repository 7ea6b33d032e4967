package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concierge/internal/model"
)

func TestScreenGeography(t *testing.T) {
	tests := []struct {
		name    string
		country string
		flagged bool
	}{
		{name: "listed country", country: "Iran", flagged: true},
		{name: "case insensitive", country: "north korea", flagged: true},
		{name: "substring match", country: "Belarus Street, Vilnius", flagged: true},
		{name: "clear country", country: "Switzerland", flagged: false},
		{name: "empty country", country: "", flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFindings()
			screenGeography(model.Entity{Name: "Acme", Country: tt.country}, f)

			if !tt.flagged {
				assert.Empty(t, f.factors)
				assert.Empty(t, f.alerts)
				return
			}
			require.Len(t, f.factors, 1)
			require.Len(t, f.alerts, 1)
			assert.Equal(t, geographyImpact, f.score())
			assert.Equal(t, model.SeverityHigh, f.factors[0].Severity)
			assert.Equal(t, model.AlertSanctionsMatch, f.alerts[0].AlertType)
			assert.Equal(t, jurisdictionListSource, f.alerts[0].Source)
			assert.InDelta(t, 0.8, f.alerts[0].MatchScore, 1e-9)
		})
	}
}

func TestScreenGeography_FirstMatchOnly(t *testing.T) {
	f := newFindings()
	screenGeography(model.Entity{Country: "Russia / Belarus border"}, f)
	require.Len(t, f.factors, 1)
	assert.Contains(t, f.factors[0].Description, "Russia")
}

func TestScreenPEP(t *testing.T) {
	tests := []struct {
		name    string
		entity  model.Entity
		flagged bool
	}{
		{name: "title", entity: model.Entity{Name: "A", Title: "Deputy Minister of Energy"}, flagged: true},
		{name: "bio", entity: model.Entity{Name: "B", Bio: "Served two terms in Parliament"}, flagged: true},
		{name: "name", entity: model.Entity{Name: "Judge Holloway"}, flagged: true},
		{name: "clear", entity: model.Entity{Name: "C", Title: "Founder", Bio: "Art collector"}, flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFindings()
			screenPEP(tt.entity, f)

			if !tt.flagged {
				assert.Empty(t, f.factors)
				assert.Equal(t, model.ScreeningClear, f.pepStatus)
				return
			}
			require.Len(t, f.factors, 1)
			assert.Equal(t, pepImpact, f.score())
			assert.Equal(t, model.SeverityMedium, f.factors[0].Severity)
			assert.Equal(t, model.ScreeningPotentialMatch, f.pepStatus)
			assert.Empty(t, f.alerts, "the keyword screen opens no alert")
		})
	}
}

func TestScreenLists(t *testing.T) {
	assert.Len(t, highRiskCountries, 10)
	assert.GreaterOrEqual(t, len(pepKeywords), 15)
	for _, kw := range pepKeywords {
		assert.Equal(t, kw, strings.ToLower(kw), "keywords are matched against lowercased text")
	}
}
