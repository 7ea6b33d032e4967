package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/concierge/internal/model"
)

// GetEntity loads the screenable attributes of a partner or profile.
// Partners live in the partners table; clients and users share profiles.
func (s *SQLiteStorage) GetEntity(ctx context.Context, entityType model.EntityType, id string) (*model.Entity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	entity := model.Entity{Type: entityType}
	var country, title, bio sql.NullString

	var err error
	switch entityType {
	case model.EntityPartner:
		err = s.db.QueryRowContext(ctx, `
			SELECT id, company_name, country, contact_title, description
			FROM partners
			WHERE id = ?
		`, id).Scan(&entity.ID, &entity.Name, &country, &title, &bio)
	case model.EntityClient, model.EntityUser:
		err = s.db.QueryRowContext(ctx, `
			SELECT id, full_name, country, title, bio
			FROM profiles
			WHERE id = ?
		`, id).Scan(&entity.ID, &entity.Name, &country, &title, &bio)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEntity, entityType)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(string(entityType), id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", entityType, err)
	}

	entity.Country = country.String
	entity.Title = title.String
	entity.Bio = bio.String
	return &entity, nil
}

// SaveEntity inserts or updates a partner or profile.
func (s *SQLiteStorage) SaveEntity(ctx context.Context, entity *model.Entity) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateEntity(entity); err != nil {
		return err
	}

	var err error
	if entity.Type == model.EntityPartner {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO partners (id, company_name, country, contact_title, description)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				company_name = excluded.company_name,
				country = excluded.country,
				contact_title = excluded.contact_title,
				description = excluded.description
		`, entity.ID, entity.Name, entity.Country, entity.Title, entity.Bio)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO profiles (id, role, full_name, country, title, bio)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				role = excluded.role,
				full_name = excluded.full_name,
				country = excluded.country,
				title = excluded.title,
				bio = excluded.bio
		`, entity.ID, string(entity.Type), entity.Name, entity.Country, entity.Title, entity.Bio)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", entity.Type, err)
	}
	return nil
}
