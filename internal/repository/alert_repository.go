package repository

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

const alertColumns = `id, parent_id, child_id, kind, message, source_event_id, handled, action, created_at, handled_at`

type alertRow struct {
	ID            string     `db:"id"`
	ParentID      string     `db:"parent_id"`
	ChildID       string     `db:"child_id"`
	Kind          string     `db:"kind"`
	Message       string     `db:"message"`
	SourceEventID string     `db:"source_event_id"`
	Handled       bool       `db:"handled"`
	Action        string     `db:"action"`
	CreatedAt     time.Time  `db:"created_at"`
	HandledAt     *time.Time `db:"handled_at"`
}

func (r alertRow) toModel() models.Alert {
	return models.Alert{
		ID:            r.ID,
		ParentID:      r.ParentID,
		ChildID:       r.ChildID,
		Kind:          models.AlertKind(r.Kind),
		Message:       r.Message,
		SourceEventID: r.SourceEventID,
		Handled:       r.Handled,
		Action:        models.AlertAction(r.Action),
		CreatedAt:     r.CreatedAt,
		HandledAt:     r.HandledAt,
	}
}

func (s *Store) CreateAlert(ctx context.Context, alert models.Alert) (bool, error) {
	const query = `
		INSERT INTO alerts (id, parent_id, child_id, kind, message, source_event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_event_id) DO NOTHING
	`

	tag, err := s.q.Exec(ctx, query,
		alert.ID,
		alert.ParentID,
		alert.ChildID,
		string(alert.Kind),
		alert.Message,
		alert.SourceEventID,
		alert.CreatedAt,
	)
	if err != nil {
		return false, wrap("insert alert", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListAlerts(ctx context.Context, parentID string, includeHandled bool) ([]models.Alert, error) {
	const query = `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE parent_id = $1 AND ($2 OR handled = false)
		ORDER BY created_at DESC, id DESC
	`

	var rows []alertRow
	if err := pgxscan.Select(ctx, s.q, &rows, query, parentID, includeHandled); err != nil {
		return nil, wrap("select alerts", err)
	}
	alerts := make([]models.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toModel())
	}
	return alerts, nil
}

func (s *Store) AlertByID(ctx context.Context, id string) (models.Alert, error) {
	const query = `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	var row alertRow
	if err := pgxscan.Get(ctx, s.q, &row, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Alert{}, apperr.NotFound("alert not found")
		}
		return models.Alert{}, wrap("select alert", err)
	}
	return row.toModel(), nil
}

func (s *Store) MarkAlertHandled(ctx context.Context, id string, action models.AlertAction, at time.Time) (models.Alert, error) {
	const query = `
		UPDATE alerts SET handled = true, action = $2, handled_at = $3
		WHERE id = $1
		RETURNING ` + alertColumns

	var row alertRow
	if err := pgxscan.Get(ctx, s.q, &row, query, id, string(action), at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Alert{}, apperr.NotFound("alert not found")
		}
		return models.Alert{}, wrap("update alert", err)
	}
	return row.toModel(), nil
}
