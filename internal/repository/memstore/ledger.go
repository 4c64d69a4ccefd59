package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

func (s *Store) LedgerEntry(_ context.Context, childID string, day models.Day) (models.LedgerEntry, bool, error) {
	defer s.lock()()
	entry, ok := s.st.ledger[ledgerKey{childID, day}]
	return entry, ok, nil
}

func (s *Store) AdjustAllowed(_ context.Context, childID string, day models.Day, defaultAllowed, delta, floor int) (models.LedgerEntry, error) {
	return s.upsert(childID, day, defaultAllowed, func(e *models.LedgerEntry) {
		e.AllowedMinutes = max(floor, e.AllowedMinutes+delta)
	})
}

func (s *Store) AddReward(_ context.Context, childID string, day models.Day, defaultAllowed, minutes int) (models.LedgerEntry, error) {
	return s.upsert(childID, day, defaultAllowed, func(e *models.LedgerEntry) {
		e.RewardMinutes += minutes
	})
}

func (s *Store) AddUsage(_ context.Context, childID string, day models.Day, defaultAllowed, minutes int) (models.LedgerEntry, error) {
	return s.upsert(childID, day, defaultAllowed, func(e *models.LedgerEntry) {
		e.UsedMinutes += minutes
	})
}

func (s *Store) upsert(childID string, day models.Day, defaultAllowed int, apply func(*models.LedgerEntry)) (models.LedgerEntry, error) {
	defer s.lock()()
	if _, ok := s.st.accounts[childID]; !ok {
		return models.LedgerEntry{}, apperr.NotFound("account not found")
	}

	key := ledgerKey{childID, day}
	entry, ok := s.st.ledger[key]
	if !ok {
		entry = models.LedgerEntry{
			ChildID:        childID,
			Day:            day,
			AllowedMinutes: defaultAllowed,
			Persisted:      true,
		}
	}
	apply(&entry)
	entry.UpdatedAt = time.Now().UTC()
	s.st.ledger[key] = entry
	return entry, nil
}

func (s *Store) OverBudgetEntries(_ context.Context, day models.Day) ([]models.LedgerEntry, error) {
	defer s.lock()()
	entries := []models.LedgerEntry{}
	for key, entry := range s.st.ledger {
		if key.day == day && entry.OverBudget() {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChildID < entries[j].ChildID })
	return entries, nil
}

func (s *Store) StartLesson(_ context.Context, childID, lessonID string, at time.Time) (models.Completion, error) {
	defer s.lock()()
	key := completionKey{childID, lessonID}
	if existing, ok := s.st.completions[key]; ok {
		return existing, nil
	}
	completion := models.Completion{ChildID: childID, LessonID: lessonID, StartedAt: at}
	s.st.completions[key] = completion
	return completion, nil
}

func (s *Store) CompleteLesson(_ context.Context, childID, lessonID string, at time.Time) (models.Completion, bool, error) {
	defer s.lock()()
	key := completionKey{childID, lessonID}
	completion, ok := s.st.completions[key]
	if ok && completion.Completed {
		return completion, false, nil
	}
	if !ok {
		completion = models.Completion{ChildID: childID, LessonID: lessonID, StartedAt: at}
	}
	completedAt := at
	completion.Completed = true
	completion.CompletedAt = &completedAt
	s.st.completions[key] = completion
	return completion, true, nil
}

func (s *Store) ListCompletions(_ context.Context, childID string) ([]models.Completion, error) {
	defer s.lock()()
	completions := []models.Completion{}
	for key, completion := range s.st.completions {
		if key.childID == childID {
			completions = append(completions, completion)
		}
	}
	sort.Slice(completions, func(i, j int) bool {
		if !completions[i].StartedAt.Equal(completions[j].StartedAt) {
			return completions[i].StartedAt.Before(completions[j].StartedAt)
		}
		return completions[i].LessonID < completions[j].LessonID
	})
	return completions, nil
}
