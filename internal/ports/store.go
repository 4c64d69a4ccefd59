package ports

import (
	"context"
	"time"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

// AccountStore persists accounts. Lookups report apperr.ErrNotFound for
// missing rows and Create reports apperr.ErrConflict for a taken username or
// email.
type AccountStore interface {
	CreateAccount(ctx context.Context, account models.Account) error
	AccountByID(ctx context.Context, id string) (models.Account, error)
	AccountByUsername(ctx context.Context, username string) (models.Account, error)
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	// ListChildren returns the parent's children, oldest first.
	ListChildren(ctx context.Context, parentID string) ([]models.Account, error)
}

type SettingsStore interface {
	FamilySettings(ctx context.Context, parentID string) (models.FamilySettings, bool, error)
	SaveFamilySettings(ctx context.Context, settings models.FamilySettings) (models.FamilySettings, error)
}

type LessonStore interface {
	ListLessons(ctx context.Context) ([]models.Lesson, error)
	LessonByID(ctx context.Context, id string) (models.Lesson, error)
}

// LedgerStore mutates entries with single atomic upserts. defaultAllowed is
// used only when the write creates the entry.
type LedgerStore interface {
	LedgerEntry(ctx context.Context, childID string, day models.Day) (models.LedgerEntry, bool, error)
	AdjustAllowed(ctx context.Context, childID string, day models.Day, defaultAllowed, delta, floor int) (models.LedgerEntry, error)
	AddReward(ctx context.Context, childID string, day models.Day, defaultAllowed, minutes int) (models.LedgerEntry, error)
	AddUsage(ctx context.Context, childID string, day models.Day, defaultAllowed, minutes int) (models.LedgerEntry, error)
	OverBudgetEntries(ctx context.Context, day models.Day) ([]models.LedgerEntry, error)
}

type CompletionStore interface {
	StartLesson(ctx context.Context, childID, lessonID string, at time.Time) (models.Completion, error)
	// CompleteLesson moves the record to completed. transitioned is true only
	// for the single call that performed the move.
	CompleteLesson(ctx context.Context, childID, lessonID string, at time.Time) (completion models.Completion, transitioned bool, err error)
	ListCompletions(ctx context.Context, childID string) ([]models.Completion, error)
}

type AlertStore interface {
	// CreateAlert ignores alerts whose SourceEventID was already stored.
	CreateAlert(ctx context.Context, alert models.Alert) (bool, error)
	ListAlerts(ctx context.Context, parentID string, includeHandled bool) ([]models.Alert, error)
	AlertByID(ctx context.Context, id string) (models.Alert, error)
	MarkAlertHandled(ctx context.Context, id string, action models.AlertAction, at time.Time) (models.Alert, error)
}

// Store is the full persistence surface. InTx runs fn against a Store whose
// writes commit or roll back together.
type Store interface {
	AccountStore
	SettingsStore
	LessonStore
	LedgerStore
	CompletionStore
	AlertStore

	InTx(ctx context.Context, fn func(Store) error) error
}
