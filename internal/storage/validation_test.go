package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/concierge/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		entity  *model.Entity
		wantErr error
		name    string
	}{
		{name: "nil", entity: nil, wantErr: ErrNilParameter},
		{name: "unknown type", entity: &model.Entity{Type: "vendor", ID: "1", Name: "x"}, wantErr: ErrInvalidEntity},
		{name: "missing id", entity: &model.Entity{Type: model.EntityPartner, Name: "x"}, wantErr: ErrInvalidEntity},
		{name: "missing name", entity: &model.Entity{Type: model.EntityPartner, ID: "1"}, wantErr: ErrInvalidEntity},
		{name: "valid", entity: &model.Entity{Type: model.EntityUser, ID: "1", Name: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntity(tt.entity)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateDocumentExtraction(t *testing.T) {
	base := func() *model.DocumentExtraction {
		return &model.DocumentExtraction{
			DocumentID: "d", EntityType: model.EntityClient, EntityID: "c",
			Fields: []model.ExtractedField{{Name: "full_name", Value: "A", Confidence: 0.5}},
		}
	}

	assert.NoError(t, ValidateDocumentExtraction(base()))

	noID := base()
	noID.DocumentID = ""
	assert.ErrorIs(t, ValidateDocumentExtraction(noID), ErrInvalidDocument)

	badConfidence := base()
	badConfidence.Fields[0].Confidence = 1.5
	assert.ErrorIs(t, ValidateDocumentExtraction(badConfidence), ErrInvalidDocument)

	unnamed := base()
	unnamed.Fields[0].Name = ""
	assert.ErrorIs(t, ValidateDocumentExtraction(unnamed), ErrInvalidDocument)
}

func TestValidateAlerts(t *testing.T) {
	valid := model.AmlAlert{
		EntityID: "p", KycVerificationID: "v", AlertType: model.AlertPEPMatch, Title: "t", MatchScore: 0.5,
	}
	assert.NoError(t, ValidateAlerts([]model.AmlAlert{valid}))
	assert.NoError(t, ValidateAlerts(nil))

	outOfRange := valid
	outOfRange.MatchScore = -0.1
	assert.ErrorIs(t, ValidateAlerts([]model.AmlAlert{valid, outOfRange}), ErrInvalidAlert)
}
