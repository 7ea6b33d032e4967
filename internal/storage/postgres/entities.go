package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/storage"
)

// GetEntity loads the screenable attributes of a partner or profile.
func (s *Storage) GetEntity(ctx context.Context, entityType model.EntityType, id string) (*model.Entity, error) {
	var query string
	switch entityType {
	case model.EntityPartner:
		query = `
			SELECT id, company_name, COALESCE(country, ''), COALESCE(contact_title, ''), COALESCE(description, '')
			FROM partners
			WHERE id = $1`
	case model.EntityClient, model.EntityUser:
		query = `
			SELECT id, full_name, COALESCE(country, ''), COALESCE(title, ''), COALESCE(bio, '')
			FROM profiles
			WHERE id = $1`
	default:
		return nil, fmt.Errorf("%w: unknown type %q", storage.ErrInvalidEntity, entityType)
	}

	e := &model.Entity{Type: entityType}
	err := s.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.Country, &e.Title, &e.Bio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(string(entityType), id)
		}
		return nil, fmt.Errorf("failed to get %s %s: %w", entityType, id, err)
	}
	return e, nil
}

// SaveEntity inserts or updates a partner or profile.
func (s *Storage) SaveEntity(ctx context.Context, e *model.Entity) error {
	if err := storage.ValidateEntity(e); err != nil {
		return err
	}

	var err error
	if e.Type == model.EntityPartner {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO partners (id, company_name, country, contact_title, description)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET company_name = EXCLUDED.company_name,
				country = EXCLUDED.country,
				contact_title = EXCLUDED.contact_title,
				description = EXCLUDED.description`,
			e.ID, e.Name, e.Country, e.Title, e.Bio)
	} else {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO profiles (id, role, full_name, country, title, bio)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET role = EXCLUDED.role,
				full_name = EXCLUDED.full_name,
				country = EXCLUDED.country,
				title = EXCLUDED.title,
				bio = EXCLUDED.bio`,
			e.ID, string(e.Type), e.Name, e.Country, e.Title, e.Bio)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", e.Type, e.ID, err)
	}
	return nil
}
