package testutil

import (
	"time"

	"github.com/Veraticus/concierge/internal/model"
)

// Predefined entities for screening scenarios.
var (
	// CleanPartner triggers no deterministic screen.
	CleanPartner = model.Entity{
		Type:    model.EntityPartner,
		ID:      "partner-clean",
		Name:    "Alpine Heli Transfers",
		Country: "Switzerland",
		Title:   "Operations Manager",
		Bio:     "Helicopter transfers across the Alps.",
	}

	// PartnerInHighRiskCountry is registered in a high-risk jurisdiction.
	PartnerInHighRiskCountry = model.Entity{
		Type:    model.EntityPartner,
		ID:      "partner-high-risk",
		Name:    "Caspian Yacht Services",
		Country: "Iran",
		Bio:     "Yacht provisioning.",
	}

	// PEPClient holds a politically exposed title.
	PEPClient = model.Entity{
		Type:    model.EntityClient,
		ID:      "client-pep",
		Name:    "Jordan Avery",
		Country: "United Kingdom",
		Title:   "Former Minister of Finance",
	}

	// CleanClient triggers no deterministic screen.
	CleanClient = model.Entity{
		Type:    model.EntityClient,
		ID:      "client-clean",
		Name:    "Morgan Lee",
		Country: "France",
		Title:   "Founder",
		Bio:     "Collector of modern art.",
	}
)

// Document returns a passport extraction for e with high-confidence fields.
func Document(e model.Entity, documentID, fullName string, expiry time.Time) model.DocumentExtraction {
	return model.DocumentExtraction{
		DocumentID:   documentID,
		EntityType:   e.Type,
		EntityID:     e.ID,
		DocumentType: "passport",
		ExpiryDate:   &expiry,
		Fields: []model.ExtractedField{
			{Name: "full_name", Value: fullName, Confidence: 0.98},
			{Name: "document_number", Value: "X1234567", Confidence: 0.95},
			{Name: "nationality", Value: e.Country, Confidence: 0.93},
		},
	}
}
