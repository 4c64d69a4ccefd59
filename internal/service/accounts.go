package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ids"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/security"
)

// placeholderEmailDomain uses a reserved TLD so synthesized addresses can
// never reach a real mailbox.
const placeholderEmailDomain = "children.invalid"

type newAccount struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Membership  models.Membership
}

// createAccount validates, hashes and inserts one account. The insert is a
// single statement, so a failure leaves nothing behind.
func createAccount(ctx context.Context, store ports.AccountStore, hasher *security.Hasher, in newAccount, now time.Time) (models.Account, error) {
	if err := validateUsername(in.Username); err != nil {
		return models.Account{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return models.Account{}, err
	}
	displayName, err := normalizeDisplayName(in.DisplayName, in.Username)
	if err != nil {
		return models.Account{}, err
	}

	id := ids.New()
	var email string
	if strings.TrimSpace(in.Email) == "" && in.Membership.IsChild() {
		email = strings.ToLower(fmt.Sprintf("%s.%s@%s", in.Username, id, placeholderEmailDomain))
	} else if email, err = normalizeEmail(in.Email); err != nil {
		return models.Account{}, err
	}

	if err := ensureAvailable(ctx, store, in.Username, email); err != nil {
		return models.Account{}, err
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := models.Account{
		ID:           id,
		Username:     in.Username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Membership:   in.Membership,
		CreatedAt:    now.UTC(),
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// ensureAvailable gives a friendly conflict before the insert. The unique
// constraints still decide races.
func ensureAvailable(ctx context.Context, store ports.AccountStore, username, email string) error {
	if _, err := store.AccountByUsername(ctx, username); err == nil {
		return apperr.Conflict("username is already taken")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if _, err := store.AccountByEmail(ctx, email); err == nil {
		return apperr.Conflict("email is already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return nil
}

// existingParent loads id and checks it is a parent account.
func existingParent(ctx context.Context, store ports.AccountStore, id string) (models.Account, error) {
	if id == "" {
		return models.Account{}, apperr.Validation("parent reference is required for child accounts")
	}
	parent, err := store.AccountByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Account{}, apperr.Validation("parent reference does not name a parent account")
	}
	if err != nil {
		return models.Account{}, err
	}
	if !parent.Membership.IsParent() {
		return models.Account{}, apperr.Validation("parent reference does not name a parent account")
	}
	return parent, nil
}
