package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

func (s *Store) FamilySettings(ctx context.Context, parentID string) (models.FamilySettings, bool, error) {
	const query = `
		SELECT parent_id, default_allowed_minutes, updated_at
		FROM family_settings WHERE parent_id = $1
	`

	var settings models.FamilySettings
	err := s.q.QueryRow(ctx, query, parentID).Scan(
		&settings.ParentID,
		&settings.DefaultAllowedMinutes,
		&settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FamilySettings{}, false, nil
	}
	if err != nil {
		return models.FamilySettings{}, false, wrap("select family settings", err)
	}
	return settings, true, nil
}

func (s *Store) SaveFamilySettings(ctx context.Context, settings models.FamilySettings) (models.FamilySettings, error) {
	const query = `
		INSERT INTO family_settings (parent_id, default_allowed_minutes, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (parent_id) DO UPDATE SET
			default_allowed_minutes = EXCLUDED.default_allowed_minutes,
			updated_at = EXCLUDED.updated_at
		RETURNING parent_id, default_allowed_minutes, updated_at
	`

	var saved models.FamilySettings
	if err := s.q.QueryRow(ctx, query,
		settings.ParentID,
		settings.DefaultAllowedMinutes,
		settings.UpdatedAt,
	).Scan(&saved.ParentID, &saved.DefaultAllowedMinutes, &saved.UpdatedAt); err != nil {
		return models.FamilySettings{}, wrap("upsert family settings", err)
	}
	return saved, nil
}
