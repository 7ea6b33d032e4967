package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/concierge/internal/model"
)

const documentColumns = `document_id, entity_type, entity_id, document_type, fields, expiry_date, created_at`

// GetDocumentExtraction loads the OCR fields of one document.
func (s *SQLiteStorage) GetDocumentExtraction(ctx context.Context, documentID string) (*model.DocumentExtraction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(documentID, "documentID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM document_extractions
		WHERE document_id = ?
	`, documentID)
	return scanDocument(row, documentID)
}

// GetLatestDocumentExtraction loads the most recent extraction for an entity.
func (s *SQLiteStorage) GetLatestDocumentExtraction(ctx context.Context, entityType model.EntityType, entityID string) (*model.DocumentExtraction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(entityID, "entityID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM document_extractions
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, string(entityType), entityID)
	return scanDocument(row, entityID)
}

func scanDocument(row *sql.Row, key string) (*model.DocumentExtraction, error) {
	var (
		doc        model.DocumentExtraction
		entityType string
		docType    sql.NullString
		fields     string
		expiry     sql.NullTime
	)
	err := row.Scan(&doc.DocumentID, &entityType, &doc.EntityID, &docType, &fields, &expiry, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("document extraction", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document extraction: %w", err)
	}

	doc.EntityType = model.EntityType(entityType)
	doc.DocumentType = docType.String
	if expiry.Valid {
		t := expiry.Time
		doc.ExpiryDate = &t
	}
	if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode extracted fields: %w", err)
	}
	return &doc, nil
}

// SaveDocumentExtraction stores OCR output for a document.
func (s *SQLiteStorage) SaveDocumentExtraction(ctx context.Context, doc *model.DocumentExtraction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateDocumentExtraction(doc); err != nil {
		return err
	}

	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode extracted fields: %w", err)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	var expiry any
	if doc.ExpiryDate != nil {
		expiry = doc.ExpiryDate.UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document_extractions (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			document_type = excluded.document_type,
			fields = excluded.fields,
			expiry_date = excluded.expiry_date
	`, doc.DocumentID, string(doc.EntityType), doc.EntityID, doc.DocumentType, string(fields), expiry, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save document extraction: %w", err)
	}
	return nil
}
