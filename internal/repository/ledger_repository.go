package repository

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

const ledgerColumns = `child_id, to_char(day, 'YYYY-MM-DD') AS day, allowed_minutes, reward_minutes, used_minutes, updated_at`

type ledgerRow struct {
	ChildID        string    `db:"child_id"`
	Day            string    `db:"day"`
	AllowedMinutes int       `db:"allowed_minutes"`
	RewardMinutes  int       `db:"reward_minutes"`
	UsedMinutes    int       `db:"used_minutes"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r ledgerRow) toModel() models.LedgerEntry {
	return models.LedgerEntry{
		ChildID:        r.ChildID,
		Day:            models.Day(r.Day),
		AllowedMinutes: r.AllowedMinutes,
		RewardMinutes:  r.RewardMinutes,
		UsedMinutes:    r.UsedMinutes,
		Persisted:      true,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (s *Store) LedgerEntry(ctx context.Context, childID string, day models.Day) (models.LedgerEntry, bool, error) {
	const query = `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE child_id = $1 AND day = $2::date`

	var row ledgerRow
	if err := pgxscan.Get(ctx, s.q, &row, query, childID, day.String()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LedgerEntry{}, false, nil
		}
		return models.LedgerEntry{}, false, wrap("select ledger entry", err)
	}
	return row.toModel(), true, nil
}

func (s *Store) AdjustAllowed(ctx context.Context, childID string, day models.Day, defaultAllowed, delta, floor int) (models.LedgerEntry, error) {
	const query = `
		INSERT INTO ledger_entries (child_id, day, allowed_minutes, updated_at)
		VALUES ($1, $2::date, GREATEST($5::int, $3::int + $4::int), now())
		ON CONFLICT (child_id, day) DO UPDATE SET
			allowed_minutes = GREATEST($5::int, ledger_entries.allowed_minutes + $4::int),
			updated_at = now()
		RETURNING ` + ledgerColumns

	return s.upsertLedger(ctx, "adjust allowed minutes", query, childID, day.String(), defaultAllowed, delta, floor)
}

func (s *Store) AddReward(ctx context.Context, childID string, day models.Day, defaultAllowed, minutes int) (models.LedgerEntry, error) {
	const query = `
		INSERT INTO ledger_entries (child_id, day, allowed_minutes, reward_minutes, updated_at)
		VALUES ($1, $2::date, $3::int, $4::int, now())
		ON CONFLICT (child_id, day) DO UPDATE SET
			reward_minutes = ledger_entries.reward_minutes + EXCLUDED.reward_minutes,
			updated_at = now()
		RETURNING ` + ledgerColumns

	return s.upsertLedger(ctx, "add reward minutes", query, childID, day.String(), defaultAllowed, minutes)
}

func (s *Store) AddUsage(ctx context.Context, childID string, day models.Day, defaultAllowed, minutes int) (models.LedgerEntry, error) {
	const query = `
		INSERT INTO ledger_entries (child_id, day, allowed_minutes, used_minutes, updated_at)
		VALUES ($1, $2::date, $3::int, $4::int, now())
		ON CONFLICT (child_id, day) DO UPDATE SET
			used_minutes = ledger_entries.used_minutes + EXCLUDED.used_minutes,
			updated_at = now()
		RETURNING ` + ledgerColumns

	return s.upsertLedger(ctx, "add used minutes", query, childID, day.String(), defaultAllowed, minutes)
}

func (s *Store) upsertLedger(ctx context.Context, op, query string, args ...any) (models.LedgerEntry, error) {
	var row ledgerRow
	if err := pgxscan.Get(ctx, s.q, &row, query, args...); err != nil {
		return models.LedgerEntry{}, wrap(op, err)
	}
	return row.toModel(), nil
}

func (s *Store) OverBudgetEntries(ctx context.Context, day models.Day) ([]models.LedgerEntry, error) {
	const query = `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE day = $1::date AND used_minutes > allowed_minutes + reward_minutes
		ORDER BY child_id
	`

	var rows []ledgerRow
	if err := pgxscan.Select(ctx, s.q, &rows, query, day.String()); err != nil {
		return nil, wrap("select over-budget entries", err)
	}

	entries := make([]models.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toModel())
	}
	return entries, nil
}
