package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

func (s *Store) CreateAlert(_ context.Context, alert models.Alert) (bool, error) {
	defer s.lock()()
	for _, existing := range s.st.alerts {
		if existing.SourceEventID == alert.SourceEventID {
			return false, nil
		}
	}
	s.st.alerts[alert.ID] = alert
	return true, nil
}

func (s *Store) ListAlerts(_ context.Context, parentID string, includeHandled bool) ([]models.Alert, error) {
	defer s.lock()()
	alerts := []models.Alert{}
	for _, alert := range s.st.alerts {
		if alert.ParentID != parentID || (alert.Handled && !includeHandled) {
			continue
		}
		alerts = append(alerts, alert)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		}
		return alerts[i].ID > alerts[j].ID
	})
	return alerts, nil
}

func (s *Store) AlertByID(_ context.Context, id string) (models.Alert, error) {
	defer s.lock()()
	alert, ok := s.st.alerts[id]
	if !ok {
		return models.Alert{}, apperr.NotFound("alert not found")
	}
	return alert, nil
}

func (s *Store) MarkAlertHandled(_ context.Context, id string, action models.AlertAction, at time.Time) (models.Alert, error) {
	defer s.lock()()
	alert, ok := s.st.alerts[id]
	if !ok {
		return models.Alert{}, apperr.NotFound("alert not found")
	}
	handledAt := at
	alert.Handled = true
	alert.Action = action
	alert.HandledAt = &handledAt
	s.st.alerts[id] = alert
	return alert, nil
}
