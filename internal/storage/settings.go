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

// GetSetting retrieves a settings row by key.
func (s *SQLiteStorage) GetSetting(ctx context.Context, key string) (*model.DiscoveryCacheEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	var (
		entry model.DiscoveryCacheEntry
		value string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, updated_at
		FROM settings
		WHERE key = ?
	`, key).Scan(&entry.Key, &value, &entry.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("setting", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}

	entry.Value = json.RawMessage(value)
	return &entry, nil
}

// UpsertSetting inserts or overwrites a settings row, stamping updated_at.
func (s *SQLiteStorage) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("setting %q: value is not valid JSON", key)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}
