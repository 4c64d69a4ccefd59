package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ids"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/metrics"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
)

// AlertService stores parent alerts derived from ledger events. Every read
// and write is scoped to the owning parent.
type AlertService struct {
	store ports.Store
	now   func() time.Time
	log   zerolog.Logger
}

func NewAlertService(store ports.Store, log zerolog.Logger) *AlertService {
	return &AlertService{store: store, now: time.Now, log: log}
}

func (s *AlertService) List(ctx context.Context, parentID string, includeHandled bool) ([]models.Alert, error) {
	return s.store.ListAlerts(ctx, parentID, includeHandled)
}

func (s *AlertService) Act(ctx context.Context, parentID, alertID string, action models.AlertAction) (models.Alert, error) {
	if !action.Valid() {
		return models.Alert{}, apperr.Validation("action must be acknowledge or dismiss")
	}
	if !ids.Valid(alertID) {
		return models.Alert{}, apperr.Forbidden("not allowed to act on this alert")
	}

	var updated models.Alert
	err := s.store.InTx(ctx, func(tx ports.Store) error {
		alert, err := tx.AlertByID(ctx, alertID)
		if errors.Is(err, apperr.ErrNotFound) || (err == nil && alert.ParentID != parentID) {
			return apperr.Forbidden("not allowed to act on this alert")
		}
		if err != nil {
			return err
		}
		updated, err = tx.MarkAlertHandled(ctx, alertID, action, s.now().UTC())
		return err
	})
	if err != nil {
		return models.Alert{}, err
	}
	return updated, nil
}

// RecordFromEvent turns a ledger event into an alert for the child's parent.
// Replayed events are ignored.
func (s *AlertService) RecordFromEvent(ctx context.Context, event models.LedgerEvent) (bool, error) {
	if event.ID == "" || event.ChildID == "" {
		return false, apperr.Validation("event is missing its id or child")
	}

	parentID := event.ParentID
	child, err := s.store.AccountByID(ctx, event.ChildID)
	if err != nil {
		return false, err
	}
	owner, ok := child.Membership.Owner()
	if !ok {
		return false, apperr.Validation("event child %s is not a child account", event.ChildID)
	}
	if parentID == "" {
		parentID = owner
	} else if parentID != owner {
		return false, apperr.Validation("event parent does not own child %s", event.ChildID)
	}

	kind, message, err := describe(event, child)
	if err != nil {
		return false, err
	}

	created, err := s.store.CreateAlert(ctx, models.Alert{
		ID:            ids.New(),
		ParentID:      parentID,
		ChildID:       child.ID,
		Kind:          kind,
		Message:       message,
		SourceEventID: event.ID,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return false, err
	}
	if created {
		metrics.AlertsCreated.WithLabelValues(string(kind)).Inc()
	}
	return created, nil
}

func describe(event models.LedgerEvent, child models.Account) (models.AlertKind, string, error) {
	switch event.Type {
	case models.EventRewardCredited:
		return models.AlertRewardEarned,
			fmt.Sprintf("%s earned %d minutes by completing a lesson on %s", child.DisplayName, event.Minutes, event.Day),
			nil
	case models.EventOverBudget:
		return models.AlertOverBudget,
			fmt.Sprintf("%s went %d minutes over their screen time on %s", child.DisplayName, event.Minutes, event.Day),
			nil
	default:
		return "", "", apperr.Validation("unknown event type %q", event.Type)
	}
}
