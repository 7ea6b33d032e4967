package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Veraticus/concierge/internal/model"
)

// GetSetting retrieves a settings row by key.
func (s *Storage) GetSetting(ctx context.Context, key string) (*model.DiscoveryCacheEntry, error) {
	var (
		entry model.DiscoveryCacheEntry
		value []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT key, value, updated_at
		FROM settings
		WHERE key = $1`, key).Scan(&entry.Key, &value, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("setting", key)
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	entry.Value = json.RawMessage(value)
	return &entry, nil
}

// UpsertSetting creates or overwrites a setting (INSERT ... ON CONFLICT DO UPDATE).
func (s *Storage) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("setting key cannot be empty")
	}
	if !json.Valid(value) {
		return fmt.Errorf("setting %q: value is not valid JSON", key)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()`, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}
	return nil
}
