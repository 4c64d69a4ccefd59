package service

import (
	"context"
	"errors"
	"strings"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ids"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/security"
)

// ChildAccess selects who besides the owning parent may act on a child.
type ChildAccess int

const (
	ParentOnly ChildAccess = iota
	ParentOrSelf
)

const bearerPrefix = "Bearer "

// Guard resolves callers from bearer tokens and checks family scope.
type Guard struct {
	accounts ports.AccountStore
	tokens   *security.TokenService
}

func NewGuard(accounts ports.AccountStore, tokens *security.TokenService) *Guard {
	return &Guard{accounts: accounts, tokens: tokens}
}

func (g *Guard) Authenticate(ctx context.Context, authorization string) (models.Account, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return models.Account{}, apperr.Unauthenticated("missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	if token == "" {
		return models.Account{}, apperr.Unauthenticated("missing bearer token")
	}

	identity, err := g.tokens.Verify(token)
	if err != nil {
		return models.Account{}, apperr.Unauthenticated("invalid or expired token")
	}

	account, err := g.accounts.AccountByID(ctx, identity.AccountID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Account{}, apperr.Unauthenticated("invalid or expired token")
	}
	if err != nil {
		return models.Account{}, err
	}
	if account.Role() != identity.Role {
		return models.Account{}, apperr.Unauthenticated("invalid or expired token")
	}
	return account, nil
}

func (g *Guard) RequireParent(caller models.Account) error {
	if !caller.Membership.IsParent() {
		return apperr.Forbidden("parent account required")
	}
	return nil
}

// AuthorizeChild returns the child when caller may act on it. A missing child
// and another family's child produce the same error.
func (g *Guard) AuthorizeChild(ctx context.Context, caller models.Account, childID string, access ChildAccess) (models.Account, error) {
	denied := apperr.Forbidden("not allowed to access this child")
	if !ids.Valid(childID) {
		return models.Account{}, denied
	}

	if caller.Membership.IsChild() {
		if access != ParentOrSelf || caller.ID != childID {
			return models.Account{}, denied
		}
		return caller, nil
	}

	child, err := g.accounts.AccountByID(ctx, childID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Account{}, denied
	}
	if err != nil {
		return models.Account{}, err
	}
	if !caller.Owns(child) {
		return models.Account{}, denied
	}
	return child, nil
}
