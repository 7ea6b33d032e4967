package compliance

import (
	"fmt"
	"strings"

	"github.com/Veraticus/concierge/internal/model"
)

// matchHighRiskCountry returns the first listed jurisdiction contained in country.
func matchHighRiskCountry(country string) (string, bool) {
	c := strings.ToLower(country)
	if c == "" {
		return "", false
	}
	for _, risky := range highRiskCountries {
		if strings.Contains(c, strings.ToLower(risky)) {
			return risky, true
		}
	}
	return "", false
}

// matchPEPKeyword returns the first PEP keyword found in the entity's name, title or bio.
func matchPEPKeyword(e model.Entity) (string, bool) {
	text := strings.ToLower(strings.Join([]string{e.Name, e.Title, e.Bio}, " "))
	for _, kw := range pepKeywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// screenGeography flags entities located in a high-risk jurisdiction.
func screenGeography(e model.Entity, f *findings) {
	country, ok := matchHighRiskCountry(e.Country)
	if !ok {
		return
	}

	f.addFactor("geography",
		fmt.Sprintf("Entity is located in high-risk jurisdiction: %s", country),
		model.SeverityHigh, geographyImpact)
	f.addAlert(model.AmlAlert{
		AlertType:   model.AlertSanctionsMatch,
		Severity:    model.SeverityHigh,
		Title:       "High-risk jurisdiction",
		Description: fmt.Sprintf("%s is associated with %s, a high-risk jurisdiction", e.Name, country),
		Source:      jurisdictionListSource,
		MatchScore:  jurisdictionMatchScore,
		MatchDetails: matchDetails(map[string]any{
			"country":         e.Country,
			"matched_country": country,
		}),
	})
}

// screenPEP flags names, titles or bios that suggest a politically exposed person.
func screenPEP(e model.Entity, f *findings) {
	kw, ok := matchPEPKeyword(e)
	if !ok {
		return
	}

	f.pepStatus = model.ScreeningPotentialMatch
	f.addFactor("pep",
		fmt.Sprintf("Potential politically exposed person (keyword %q)", kw),
		model.SeverityMedium, pepImpact)
}
