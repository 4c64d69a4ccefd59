package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
)

// LedgerService owns the per-child, per-day screen-time budget. Every write
// is one atomic upsert, so the family default is applied exactly once per
// (child, day).
type LedgerService struct {
	store  ports.Store
	policy config.LedgerConfig
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

func NewLedgerService(store ports.Store, policy config.LedgerConfig, now func() time.Time, log zerolog.Logger) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		store:  store,
		policy: policy,
		loc:    policy.Location(),
		now:    now,
		log:    log,
	}
}

// Today is the current ledger day on the server clock.
func (s *LedgerService) Today() models.Day {
	return models.DayOf(s.now(), s.loc)
}

// ResolveDay parses a caller-supplied day, defaulting to Today.
func (s *LedgerService) ResolveDay(raw string) (models.Day, error) {
	if raw == "" {
		return s.Today(), nil
	}
	day, err := models.ParseDay(raw)
	if err != nil {
		return "", apperr.Validation("date must be formatted YYYY-MM-DD")
	}
	return day, nil
}

// GetEntry never writes. Missing entries come back as the family default
// with Persisted false.
func (s *LedgerService) GetEntry(ctx context.Context, childID string, day models.Day) (models.LedgerEntry, error) {
	return s.entry(ctx, s.store, childID, day)
}

func (s *LedgerService) entry(ctx context.Context, store ports.Store, childID string, day models.Day) (models.LedgerEntry, error) {
	entry, ok, err := store.LedgerEntry(ctx, childID, day)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	if ok {
		return entry, nil
	}
	allowed, err := s.defaultAllowed(ctx, store, childID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return models.LedgerEntry{ChildID: childID, Day: day, AllowedMinutes: allowed}, nil
}

// AdjustAllowed moves the base allowance by delta, never below the
// configured minimum.
func (s *LedgerService) AdjustAllowed(ctx context.Context, childID string, day models.Day, delta int) (models.LedgerEntry, error) {
	if delta < -maxAllowedMinutes || delta > maxAllowedMinutes {
		return models.LedgerEntry{}, apperr.Validation("delta must be between -%d and %d minutes", maxAllowedMinutes, maxAllowedMinutes)
	}
	allowed, err := s.defaultAllowed(ctx, s.store, childID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	entry, err := s.store.AdjustAllowed(ctx, childID, day, allowed, delta, s.policy.MinimumAllowedMinutes)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	s.log.Info().
		Str("child_id", childID).
		Str("day", day.String()).
		Int("delta", delta).
		Int("allowed_minutes", entry.AllowedMinutes).
		Msg("allowance adjusted")
	return entry, nil
}

// RecordUsage adds reported minutes. Going over budget is allowed.
func (s *LedgerService) RecordUsage(ctx context.Context, childID string, day models.Day, minutes int) (models.LedgerEntry, error) {
	if minutes < 0 || minutes > maxMinutesPerCall {
		return models.LedgerEntry{}, apperr.Validation("minutes must be between 0 and %d", maxMinutesPerCall)
	}
	allowed, err := s.defaultAllowed(ctx, s.store, childID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return s.store.AddUsage(ctx, childID, day, allowed, minutes)
}

// creditReward is reachable only through the reward trigger, which calls it
// inside the completion transaction.
func (s *LedgerService) creditReward(ctx context.Context, store ports.Store, childID string, day models.Day, minutes int) (models.LedgerEntry, error) {
	if minutes <= 0 {
		return models.LedgerEntry{}, apperr.Validation("reward minutes must be positive")
	}
	allowed, err := s.defaultAllowed(ctx, store, childID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return store.AddReward(ctx, childID, day, allowed, minutes)
}

// OverBudget lists entries for day whose usage exceeds allowed plus reward.
func (s *LedgerService) OverBudget(ctx context.Context, day models.Day) ([]models.LedgerEntry, error) {
	return s.store.OverBudgetEntries(ctx, day)
}

func (s *LedgerService) defaultAllowed(ctx context.Context, store ports.Store, childID string) (int, error) {
	child, err := store.AccountByID(ctx, childID)
	if err != nil {
		return 0, err
	}
	parentID, ok := child.Membership.Owner()
	if !ok {
		return 0, apperr.Validation("ledger entries exist only for child accounts")
	}
	settings, found, err := store.FamilySettings(ctx, parentID)
	if err != nil {
		return 0, err
	}
	if found {
		return settings.DefaultAllowedMinutes, nil
	}
	return s.policy.DefaultAllowedMinutes, nil
}
