package models

import "time"

type AlertKind string

const (
	AlertRewardEarned AlertKind = "reward_earned"
	AlertOverBudget   AlertKind = "over_budget"
)

type AlertAction string

const (
	AlertActionAcknowledge AlertAction = "acknowledge"
	AlertActionDismiss     AlertAction = "dismiss"
)

func (a AlertAction) Valid() bool {
	return a == AlertActionAcknowledge || a == AlertActionDismiss
}

type Alert struct {
	ID            string
	ParentID      string
	ChildID       string
	Kind          AlertKind
	Message       string
	SourceEventID string
	Handled       bool
	Action        AlertAction
	CreatedAt     time.Time
	HandledAt     *time.Time
}

type EventType string

const (
	EventRewardCredited EventType = "reward.credited"
	EventOverBudget     EventType = "ledger.over_budget"
)

// LedgerEvent is published on the ledger stream after a state change the
// parent should hear about.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ChildID    string    `json:"childId"`
	ParentID   string    `json:"parentId"`
	Day        Day       `json:"day"`
	LessonID   string    `json:"lessonId,omitempty"`
	Minutes    int       `json:"minutes"`
	OccurredAt time.Time `json:"occurredAt"`
}
