package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

const sweepTimeout = time.Minute

type Scheduler struct {
	cron      *cron.Cron
	ledger    *service.LedgerService
	accounts  ports.AccountStore
	publisher ports.EventPublisher
	spec      string
	log       zerolog.Logger
}

func NewScheduler(ledger *service.LedgerService, accounts ports.AccountStore, publisher ports.EventPublisher, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		ledger:    ledger,
		accounts:  accounts,
		publisher: publisher,
		spec:      spec,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runSweep); err != nil {
		return fmt.Errorf("schedule over-budget sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish, up to five seconds.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	day := s.ledger.Today().AddDays(-1)
	published, err := s.SweepOverBudget(ctx, day)
	if err != nil {
		s.log.Error().Err(err).Str("day", day.String()).Msg("over-budget sweep failed")
		return
	}
	s.log.Info().Str("day", day.String()).Int("events", published).Msg("over-budget sweep finished")
}

// SweepOverBudget publishes one event per child that used more than its
// budget on day. Event ids are derived from (child, day) so a rerun does not
// produce duplicate alerts.
func (s *Scheduler) SweepOverBudget(ctx context.Context, day models.Day) (int, error) {
	entries, err := s.ledger.OverBudget(ctx, day)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, entry := range entries {
		child, err := s.accounts.AccountByID(ctx, entry.ChildID)
		if err != nil {
			s.log.Warn().Err(err).Str("child_id", entry.ChildID).Msg("skip over-budget entry")
			continue
		}
		event := models.LedgerEvent{
			ID:         fmt.Sprintf("over_budget:%s:%s", entry.ChildID, day),
			Type:       models.EventOverBudget,
			ChildID:    entry.ChildID,
			ParentID:   child.ParentID(),
			Day:        day,
			Minutes:    -entry.RemainingMinutes(),
			OccurredAt: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			return published, fmt.Errorf("publish over-budget event: %w", err)
		}
		published++
	}
	return published, nil
}
