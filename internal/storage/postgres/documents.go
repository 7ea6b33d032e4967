package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/storage"
)

const documentColumns = `document_id, entity_type, entity_id, COALESCE(document_type, ''), fields, expiry_date, created_at`

// GetDocumentExtraction loads the OCR fields of one document.
func (s *Storage) GetDocumentExtraction(ctx context.Context, documentID string) (*model.DocumentExtraction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM document_extractions
		WHERE document_id = $1`, documentID)
	return scanDocument(row, documentID)
}

// GetLatestDocumentExtraction loads the most recent extraction for an entity.
func (s *Storage) GetLatestDocumentExtraction(ctx context.Context, entityType model.EntityType, entityID string) (*model.DocumentExtraction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM document_extractions
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, string(entityType), entityID)
	return scanDocument(row, entityID)
}

func scanDocument(row pgx.Row, key string) (*model.DocumentExtraction, error) {
	var (
		doc        model.DocumentExtraction
		entityType string
		fields     []byte
	)
	err := row.Scan(&doc.DocumentID, &entityType, &doc.EntityID, &doc.DocumentType, &fields, &doc.ExpiryDate, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("document extraction", key)
		}
		return nil, fmt.Errorf("failed to get document extraction %s: %w", key, err)
	}
	doc.EntityType = model.EntityType(entityType)
	if err := json.Unmarshal(fields, &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode extracted fields: %w", err)
	}
	return &doc, nil
}

// SaveDocumentExtraction stores OCR output for a document.
func (s *Storage) SaveDocumentExtraction(ctx context.Context, doc *model.DocumentExtraction) error {
	if err := storage.ValidateDocumentExtraction(doc); err != nil {
		return err
	}
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode extracted fields: %w", err)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO document_extractions
			(document_id, entity_type, entity_id, document_type, fields, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (document_id) DO UPDATE
		SET document_type = EXCLUDED.document_type,
			fields = EXCLUDED.fields,
			expiry_date = EXCLUDED.expiry_date`,
		doc.DocumentID, string(doc.EntityType), doc.EntityID, doc.DocumentType, string(fields), doc.ExpiryDate, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save document extraction %s: %w", doc.DocumentID, err)
	}
	return nil
}
