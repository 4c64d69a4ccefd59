package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/metrics"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
)

// RewardService drives the per-(child, lesson) state machine
// Incomplete -> Completed and credits the ledger on the transition.
type RewardService struct {
	store         ports.Store
	ledger        *LedgerService
	publisher     ports.EventPublisher
	rewardMinutes int
	log           zerolog.Logger
}

func NewRewardService(store ports.Store, ledger *LedgerService, publisher ports.EventPublisher, log zerolog.Logger) *RewardService {
	return &RewardService{
		store:         store,
		ledger:        ledger,
		publisher:     publisher,
		rewardMinutes: ledger.policy.RewardMinutes,
		log:           log,
	}
}

type CompletionResult struct {
	Completion models.Completion
	Entry      models.LedgerEntry
	// Credited is true only for the call that moved the lesson to completed.
	Credited bool
}

type LessonProgress struct {
	Lesson      models.Lesson
	State       models.CompletionState
	StartedAt   *time.Time
	CompletedAt *time.Time
}

type Dashboard struct {
	Child     models.Account
	Today     models.LedgerEntry
	Lessons   []LessonProgress
	Completed int
}

func (s *RewardService) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	return s.store.ListLessons(ctx)
}

func (s *RewardService) GetLesson(ctx context.Context, lessonID string) (models.Lesson, error) {
	return s.store.LessonByID(ctx, lessonID)
}

// Start records that the child opened a lesson. Calling it again, or after
// completion, changes nothing.
func (s *RewardService) Start(ctx context.Context, childID, lessonID string) (models.Completion, error) {
	if _, err := s.store.LessonByID(ctx, lessonID); err != nil {
		return models.Completion{}, err
	}
	return s.store.StartLesson(ctx, childID, lessonID, s.ledger.now().UTC())
}

// Complete credits the reward once per (child, lesson), on the server-clock
// day of the transition. Repeated calls return the stored state.
func (s *RewardService) Complete(ctx context.Context, childID, lessonID string) (CompletionResult, error) {
	if _, err := s.store.LessonByID(ctx, lessonID); err != nil {
		return CompletionResult{}, err
	}

	now := s.ledger.now()
	today := models.DayOf(now, s.ledger.loc)

	var result CompletionResult
	err := s.store.InTx(ctx, func(tx ports.Store) error {
		completion, transitioned, err := tx.CompleteLesson(ctx, childID, lessonID, now.UTC())
		if err != nil {
			return err
		}
		result.Completion = completion

		if transitioned {
			entry, err := s.ledger.creditReward(ctx, tx, childID, today, s.rewardMinutes)
			if err != nil {
				return err
			}
			result.Entry = entry
			result.Credited = true
			return nil
		}

		day := today
		if completion.CompletedAt != nil {
			day = models.DayOf(*completion.CompletedAt, s.ledger.loc)
		}
		entry, err := s.ledger.entry(ctx, tx, childID, day)
		if err != nil {
			return err
		}
		result.Entry = entry
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}

	if result.Credited {
		metrics.RewardsCredited.Inc()
		metrics.RewardMinutes.Add(float64(s.rewardMinutes))
		s.log.Info().
			Str("child_id", childID).
			Str("lesson_id", lessonID).
			Str("day", today.String()).
			Int("reward_minutes", result.Entry.RewardMinutes).
			Msg("lesson reward credited")
		s.publish(ctx, childID, lessonID, today, now)
	}
	return result, nil
}

func (s *RewardService) publish(ctx context.Context, childID, lessonID string, day models.Day, at time.Time) {
	child, err := s.store.AccountByID(ctx, childID)
	if err != nil {
		s.log.Warn().Err(err).Str("child_id", childID).Msg("load child for reward event")
		return
	}
	event := models.LedgerEvent{
		ID:         uuid.NewString(),
		Type:       models.EventRewardCredited,
		ChildID:    childID,
		ParentID:   child.ParentID(),
		Day:        day,
		LessonID:   lessonID,
		Minutes:    s.rewardMinutes,
		OccurredAt: at.UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event_id", event.ID).Msg("publish reward event")
	}
}

// Progress lists every lesson in the catalog with the child's state for it.
func (s *RewardService) Progress(ctx context.Context, childID string) ([]LessonProgress, error) {
	lessons, err := s.store.ListLessons(ctx)
	if err != nil {
		return nil, err
	}
	completions, err := s.store.ListCompletions(ctx, childID)
	if err != nil {
		return nil, err
	}

	byLesson := make(map[string]models.Completion, len(completions))
	for _, c := range completions {
		byLesson[c.LessonID] = c
	}

	progress := make([]LessonProgress, 0, len(lessons))
	for _, lesson := range lessons {
		item := LessonProgress{Lesson: lesson, State: models.CompletionIncomplete}
		if c, ok := byLesson[lesson.ID]; ok {
			startedAt := c.StartedAt
			item.State = c.State()
			item.StartedAt = &startedAt
			item.CompletedAt = c.CompletedAt
		}
		progress = append(progress, item)
	}
	return progress, nil
}

// Dashboard gathers today's ledger entry and lesson progress for a child.
func (s *RewardService) Dashboard(ctx context.Context, child models.Account) (Dashboard, error) {
	entry, err := s.ledger.GetEntry(ctx, child.ID, s.ledger.Today())
	if err != nil {
		return Dashboard{}, err
	}
	progress, err := s.Progress(ctx, child.ID)
	if err != nil {
		return Dashboard{}, err
	}

	completed := 0
	for _, p := range progress {
		if p.State == models.CompletionCompleted {
			completed++
		}
	}
	child.PasswordHash = ""
	return Dashboard{Child: child, Today: entry, Lessons: progress, Completed: completed}, nil
}
