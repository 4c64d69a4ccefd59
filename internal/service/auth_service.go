package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/metrics"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/security"
)

const invalidCredentials = "invalid credentials"

type AuthService struct {
	accounts ports.AccountStore
	hasher   *security.Hasher
	tokens   *security.TokenService
	throttle ports.LoginThrottle
	now      func() time.Time
	log      zerolog.Logger
}

func NewAuthService(
	accounts ports.AccountStore,
	hasher *security.Hasher,
	tokens *security.TokenService,
	throttle ports.LoginThrottle,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		now:      time.Now,
		log:      log,
	}
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        models.Role
	ParentID    string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Account   models.Account
	Token     string
	ExpiresAt time.Time
}

// Register requires every field; unlike CreateChild it does not fall back to
// the username for an empty display name.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	if strings.TrimSpace(input.DisplayName) == "" {
		return AuthResult{}, apperr.Validation("display name is required")
	}

	var membership models.Membership
	switch input.Role {
	case models.RoleParent:
		if input.ParentID != "" {
			return AuthResult{}, apperr.Validation("parent accounts cannot reference a parent")
		}
		membership = models.ParentMembership()
	case models.RoleChild:
		parent, err := existingParent(ctx, s.accounts, input.ParentID)
		if err != nil {
			return AuthResult{}, err
		}
		membership = models.ChildOf(parent.ID)
	case "":
		return AuthResult{}, apperr.Validation("role is required")
	default:
		return AuthResult{}, apperr.Validation("role must be parent or child")
	}

	account, err := createAccount(ctx, s.accounts, s.hasher, newAccount{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Membership:  membership,
	}, s.now())
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().
		Str("account_id", account.ID).
		Str("role", string(account.Role())).
		Msg("account registered")

	return s.issue(account)
}

// Login answers unknown usernames and wrong passwords identically, and spends
// a hash verification in both cases.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if input.Username == "" || input.Password == "" {
		return AuthResult{}, apperr.Validation("username and password are required")
	}

	allowed, err := s.throttle.Allow(ctx, input.Username)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
	}
	if !allowed {
		metrics.Logins.WithLabelValues("throttled").Inc()
		return AuthResult{}, apperr.RateLimited("too many failed login attempts, try again later")
	}

	account, err := s.accounts.AccountByUsername(ctx, input.Username)
	if errors.Is(err, apperr.ErrNotFound) {
		s.hasher.VerifyDummy(input.Password)
		return AuthResult{}, s.fail(ctx, input.Username)
	}
	if err != nil {
		return AuthResult{}, err
	}

	ok, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("stored password hash unreadable")
	}
	if !ok {
		return AuthResult{}, s.fail(ctx, input.Username)
	}

	if err := s.throttle.Reset(ctx, input.Username); err != nil {
		s.log.Warn().Err(err).Msg("reset login throttle")
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return s.issue(account)
}

func (s *AuthService) fail(ctx context.Context, username string) error {
	metrics.Logins.WithLabelValues("failure").Inc()
	if err := s.throttle.RecordFailure(ctx, username); err != nil {
		s.log.Warn().Err(err).Msg("record login failure")
	}
	return apperr.Unauthenticated(invalidCredentials)
}

func (s *AuthService) issue(account models.Account) (AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}
