package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ids"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/security"
)

const maxAllowedMinutes = 24 * 60

type FamilyService struct {
	store  ports.Store
	hasher *security.Hasher
	policy config.LedgerConfig
	now    func() time.Time
	log    zerolog.Logger
}

func NewFamilyService(store ports.Store, hasher *security.Hasher, policy config.LedgerConfig, log zerolog.Logger) *FamilyService {
	return &FamilyService{
		store:  store,
		hasher: hasher,
		policy: policy,
		now:    time.Now,
		log:    log,
	}
}

type CreateChildInput struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
}

// CreateChild adds a child owned by parentID. Email is optional; a reserved
// placeholder is stored when it is empty.
func (s *FamilyService) CreateChild(ctx context.Context, parentID string, input CreateChildInput) (models.Account, error) {
	parent, err := existingParent(ctx, s.store, parentID)
	if err != nil {
		return models.Account{}, err
	}

	child, err := createAccount(ctx, s.store, s.hasher, newAccount{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Membership:  models.ChildOf(parent.ID),
	}, s.now())
	if err != nil {
		return models.Account{}, err
	}

	s.log.Info().
		Str("parent_id", parent.ID).
		Str("child_id", child.ID).
		Msg("child account created")
	return child, nil
}

func (s *FamilyService) ListChildren(ctx context.Context, parentID string) ([]models.Account, error) {
	return s.store.ListChildren(ctx, parentID)
}

func (s *FamilyService) GetSelf(ctx context.Context, accountID string) (models.Account, error) {
	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}
	account.PasswordHash = ""
	return account, nil
}

// LookupAccount returns a display record for another member of the caller's
// family. Accounts outside the family are reported as forbidden whether or
// not they exist.
func (s *FamilyService) LookupAccount(ctx context.Context, caller models.Account, id string) (models.Account, error) {
	if !ids.Valid(id) {
		return s.scoped(caller, models.Account{}, apperr.NotFound("account not found"))
	}
	account, err := s.store.AccountByID(ctx, id)
	return s.scoped(caller, account, err)
}

func (s *FamilyService) LookupByUsername(ctx context.Context, caller models.Account, username string) (models.Account, error) {
	if username == "" {
		return models.Account{}, apperr.Validation("username is required")
	}
	account, err := s.store.AccountByUsername(ctx, username)
	return s.scoped(caller, account, err)
}

func (s *FamilyService) scoped(caller, account models.Account, err error) (models.Account, error) {
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Account{}, apperr.Forbidden("not allowed to view this account")
	}
	if err != nil {
		return models.Account{}, err
	}
	if account.FamilyID() != caller.FamilyID() {
		return models.Account{}, apperr.Forbidden("not allowed to view this account")
	}
	account.PasswordHash = ""
	return account, nil
}

func (s *FamilyService) GetSettings(ctx context.Context, parentID string) (models.FamilySettings, error) {
	settings, ok, err := s.store.FamilySettings(ctx, parentID)
	if err != nil {
		return models.FamilySettings{}, err
	}
	if !ok {
		return models.FamilySettings{
			ParentID:              parentID,
			DefaultAllowedMinutes: s.policy.DefaultAllowedMinutes,
		}, nil
	}
	return settings, nil
}

func (s *FamilyService) UpdateSettings(ctx context.Context, parentID string, defaultAllowed int) (models.FamilySettings, error) {
	if defaultAllowed < s.policy.MinimumAllowedMinutes || defaultAllowed > maxAllowedMinutes {
		return models.FamilySettings{}, apperr.Validation(
			"default allowed minutes must be between %d and %d", s.policy.MinimumAllowedMinutes, maxAllowedMinutes)
	}
	settings, err := s.store.SaveFamilySettings(ctx, models.FamilySettings{
		ParentID:              parentID,
		DefaultAllowedMinutes: defaultAllowed,
		UpdatedAt:             s.now().UTC(),
	})
	if err != nil {
		return models.FamilySettings{}, err
	}
	s.log.Info().Str("parent_id", parentID).Int("default_allowed_minutes", defaultAllowed).Msg("family settings updated")
	return settings, nil
}
