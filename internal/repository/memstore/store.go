// Package memstore keeps the whole data set in process memory. It backs the
// "memory" storage driver and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
)

type ledgerKey struct {
	childID string
	day     models.Day
}

type completionKey struct {
	childID  string
	lessonID string
}

type state struct {
	txMu sync.Mutex
	mu   sync.Mutex

	accounts    map[string]models.Account
	settings    map[string]models.FamilySettings
	lessons     map[string]models.Lesson
	ledger      map[ledgerKey]models.LedgerEntry
	completions map[completionKey]models.Completion
	alerts      map[string]models.Alert
}

func (s *state) clone() *state {
	cp := &state{
		accounts:    make(map[string]models.Account, len(s.accounts)),
		settings:    make(map[string]models.FamilySettings, len(s.settings)),
		lessons:     make(map[string]models.Lesson, len(s.lessons)),
		ledger:      make(map[ledgerKey]models.LedgerEntry, len(s.ledger)),
		completions: make(map[completionKey]models.Completion, len(s.completions)),
		alerts:      make(map[string]models.Alert, len(s.alerts)),
	}
	for k, v := range s.accounts {
		cp.accounts[k] = v
	}
	for k, v := range s.settings {
		cp.settings[k] = v
	}
	for k, v := range s.lessons {
		cp.lessons[k] = v
	}
	for k, v := range s.ledger {
		cp.ledger[k] = v
	}
	for k, v := range s.completions {
		cp.completions[k] = v
	}
	for k, v := range s.alerts {
		cp.alerts[k] = v
	}
	return cp
}

func (s *state) restore(from *state) {
	s.accounts = from.accounts
	s.settings = from.settings
	s.lessons = from.lessons
	s.ledger = from.ledger
	s.completions = from.completions
	s.alerts = from.alerts
}

// Store implements ports.Store. Transactions are serialized and roll back by
// restoring a snapshot taken when they began.
type Store struct {
	st   *state
	inTx bool
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: &state{
		accounts:    make(map[string]models.Account),
		settings:    make(map[string]models.FamilySettings),
		lessons:     make(map[string]models.Lesson),
		ledger:      make(map[ledgerKey]models.LedgerEntry),
		completions: make(map[completionKey]models.Completion),
		alerts:      make(map[string]models.Alert),
	}}
}

// DefaultLessons mirrors the catalog seeded by the SQL migrations.
func DefaultLessons() []models.Lesson {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Lesson{
		{ID: "god-provides", Title: "God Provides", Content: "Learn how God takes care of all our needs.", VerseRef: "Philippians 4:19", AgeRange: "6-9", CreatedAt: base},
		{ID: "the-good-shepherd", Title: "The Good Shepherd", Content: "Jesus knows and cares for each of His sheep.", VerseRef: "John 10:11", AgeRange: "6-9", CreatedAt: base.Add(time.Minute)},
		{ID: "be-kind", Title: "Be Kind to One Another", Content: "Kindness and forgiveness in our families.", VerseRef: "Ephesians 4:32", AgeRange: "6-12", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "daniel-and-the-lions", Title: "Daniel and the Lions", Content: "Trusting God when things are scary.", VerseRef: "Daniel 6:22", AgeRange: "8-12", CreatedAt: base.Add(3 * time.Minute)},
	}
}

// SeedLessons adds lessons to the catalog, replacing any with the same ID.
func (s *Store) SeedLessons(lessons ...models.Lesson) {
	defer s.lock()()
	for _, lesson := range lessons {
		s.st.lessons[lesson.ID] = lesson
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		s.st.mu.Lock()
		return s.st.mu.Unlock
	}
	s.st.txMu.Lock()
	s.st.mu.Lock()
	return func() {
		s.st.mu.Unlock()
		s.st.txMu.Unlock()
	}
}

func (s *Store) InTx(ctx context.Context, fn func(ports.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.txMu.Lock()
	defer s.st.txMu.Unlock()

	s.st.mu.Lock()
	snapshot := s.st.clone()
	s.st.mu.Unlock()

	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.mu.Lock()
		s.st.restore(snapshot)
		s.st.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) CreateAccount(_ context.Context, account models.Account) error {
	defer s.lock()()
	for _, existing := range s.st.accounts {
		if existing.Username == account.Username {
			return apperr.Conflict("username is already taken")
		}
		if strings.EqualFold(existing.Email, account.Email) {
			return apperr.Conflict("email is already registered")
		}
	}
	if parentID := account.ParentID(); parentID != "" {
		if _, ok := s.st.accounts[parentID]; !ok {
			return apperr.Validation("parent account does not exist")
		}
	}
	s.st.accounts[account.ID] = account
	return nil
}

func (s *Store) AccountByID(_ context.Context, id string) (models.Account, error) {
	defer s.lock()()
	account, ok := s.st.accounts[id]
	if !ok {
		return models.Account{}, apperr.NotFound("account not found")
	}
	return account, nil
}

func (s *Store) AccountByUsername(_ context.Context, username string) (models.Account, error) {
	return s.findAccount(func(a models.Account) bool { return a.Username == username })
}

func (s *Store) AccountByEmail(_ context.Context, email string) (models.Account, error) {
	return s.findAccount(func(a models.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (s *Store) findAccount(match func(models.Account) bool) (models.Account, error) {
	defer s.lock()()
	for _, account := range s.st.accounts {
		if match(account) {
			return account, nil
		}
	}
	return models.Account{}, apperr.NotFound("account not found")
}

func (s *Store) ListChildren(_ context.Context, parentID string) ([]models.Account, error) {
	defer s.lock()()
	children := []models.Account{}
	for _, account := range s.st.accounts {
		if owner, ok := account.Membership.Owner(); ok && owner == parentID {
			children = append(children, account)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if !children[i].CreatedAt.Equal(children[j].CreatedAt) {
			return children[i].CreatedAt.Before(children[j].CreatedAt)
		}
		return children[i].ID < children[j].ID
	})
	return children, nil
}

func (s *Store) FamilySettings(_ context.Context, parentID string) (models.FamilySettings, bool, error) {
	defer s.lock()()
	settings, ok := s.st.settings[parentID]
	return settings, ok, nil
}

func (s *Store) SaveFamilySettings(_ context.Context, settings models.FamilySettings) (models.FamilySettings, error) {
	defer s.lock()()
	s.st.settings[settings.ParentID] = settings
	return settings, nil
}

func (s *Store) ListLessons(_ context.Context) ([]models.Lesson, error) {
	defer s.lock()()
	lessons := make([]models.Lesson, 0, len(s.st.lessons))
	for _, lesson := range s.st.lessons {
		lessons = append(lessons, lesson)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if !lessons[i].CreatedAt.Equal(lessons[j].CreatedAt) {
			return lessons[i].CreatedAt.Before(lessons[j].CreatedAt)
		}
		return lessons[i].ID < lessons[j].ID
	})
	return lessons, nil
}

func (s *Store) LessonByID(_ context.Context, id string) (models.Lesson, error) {
	defer s.lock()()
	lesson, ok := s.st.lessons[id]
	if !ok {
		return models.Lesson{}, apperr.NotFound("lesson not found")
	}
	return lesson, nil
}
