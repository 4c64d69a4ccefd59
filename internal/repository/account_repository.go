package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

const accountColumns = `id, username, email, password_hash, display_name, role, COALESCE(parent_id, '') AS parent_id, created_at`

type accountRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	Role         string    `db:"role"`
	ParentID     string    `db:"parent_id"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r accountRow) toModel() (models.Account, error) {
	membership, err := models.NewMembership(models.Role(r.Role), r.ParentID)
	if err != nil {
		return models.Account{}, fmt.Errorf("account %s: %w", r.ID, err)
	}
	return models.Account{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
		Membership:   membership,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func (s *Store) CreateAccount(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, username, email, password_hash, display_name, role, parent_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8
		)
	`

	_, err := s.q.Exec(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		string(account.Role()),
		account.ParentID(),
		account.CreatedAt,
	)
	if constraint, ok := uniqueViolation(err); ok {
		if strings.Contains(constraint, "email") {
			return apperr.Conflict("email is already registered")
		}
		return apperr.Conflict("username is already taken")
	}
	if err != nil {
		return wrap("insert account", err)
	}
	return nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (models.Account, error) {
	return s.findAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	return s.findAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	return s.findAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
}

func (s *Store) findAccount(ctx context.Context, query string, arg string) (models.Account, error) {
	var row accountRow
	if err := pgxscan.Get(ctx, s.q, &row, query, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, apperr.NotFound("account not found")
		}
		return models.Account{}, wrap("select account", err)
	}
	return row.toModel()
}

func (s *Store) ListChildren(ctx context.Context, parentID string) ([]models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE parent_id = $1 AND role = 'child'
		ORDER BY created_at ASC, id ASC
	`

	var rows []accountRow
	if err := pgxscan.Select(ctx, s.q, &rows, query, parentID); err != nil {
		return nil, wrap("select children", err)
	}

	children := make([]models.Account, 0, len(rows))
	for _, row := range rows {
		child, err := row.toModel()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}
