package handlers

import (
	"time"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

type accountResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	ParentID    string    `json:"parentId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        string(a.Role()),
		ParentID:    a.ParentID(),
		CreatedAt:   a.CreatedAt,
	}
}

// newPublicAccountResponse drops contact details for lookups of other members.
func newPublicAccountResponse(a models.Account) accountResponse {
	resp := newAccountResponse(a)
	resp.Email = ""
	return resp
}

type ledgerResponse struct {
	ChildID          string `json:"childId"`
	Date             string `json:"date"`
	AllowedMinutes   int    `json:"allowedMinutes"`
	RewardMinutes    int    `json:"rewardMinutes"`
	UsedMinutes      int    `json:"usedMinutes"`
	TotalMinutes     int    `json:"totalMinutes"`
	RemainingMinutes int    `json:"remainingMinutes"`
	OverBudget       bool   `json:"overBudget"`
}

func newLedgerResponse(e models.LedgerEntry) ledgerResponse {
	return ledgerResponse{
		ChildID:          e.ChildID,
		Date:             e.Day.String(),
		AllowedMinutes:   e.AllowedMinutes,
		RewardMinutes:    e.RewardMinutes,
		UsedMinutes:      e.UsedMinutes,
		TotalMinutes:     e.TotalMinutes(),
		RemainingMinutes: e.RemainingMinutes(),
		OverBudget:       e.OverBudget(),
	}
}

type lessonResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	VerseRef string `json:"verseRef"`
	AgeRange string `json:"ageRange,omitempty"`
}

func newLessonResponse(l models.Lesson, withContent bool) lessonResponse {
	resp := lessonResponse{ID: l.ID, Title: l.Title, VerseRef: l.VerseRef, AgeRange: l.AgeRange}
	if withContent {
		resp.Content = l.Content
	}
	return resp
}

type completionResponse struct {
	ChildID     string     `json:"childId"`
	LessonID    string     `json:"lessonId"`
	State       string     `json:"state"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func newCompletionResponse(c models.Completion) completionResponse {
	return completionResponse{
		ChildID:     c.ChildID,
		LessonID:    c.LessonID,
		State:       string(c.State()),
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
	}
}

type progressResponse struct {
	Lesson      lessonResponse `json:"lesson"`
	State       string         `json:"state"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

func newProgressResponses(items []service.LessonProgress) []progressResponse {
	out := make([]progressResponse, 0, len(items))
	for _, p := range items {
		out = append(out, progressResponse{
			Lesson:      newLessonResponse(p.Lesson, false),
			State:       string(p.State),
			StartedAt:   p.StartedAt,
			CompletedAt: p.CompletedAt,
		})
	}
	return out
}

type alertResponse struct {
	ID        string     `json:"id"`
	ChildID   string     `json:"childId"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Handled   bool       `json:"handled"`
	Action    string     `json:"action,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	HandledAt *time.Time `json:"handledAt,omitempty"`
}

func newAlertResponse(a models.Alert) alertResponse {
	return alertResponse{
		ID:        a.ID,
		ChildID:   a.ChildID,
		Kind:      string(a.Kind),
		Message:   a.Message,
		Handled:   a.Handled,
		Action:    string(a.Action),
		CreatedAt: a.CreatedAt,
		HandledAt: a.HandledAt,
	}
}

type settingsResponse struct {
	DefaultAllowedMinutes int        `json:"defaultAllowedMinutes"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
}

func newSettingsResponse(s models.FamilySettings) settingsResponse {
	resp := settingsResponse{DefaultAllowedMinutes: s.DefaultAllowedMinutes}
	if !s.UpdatedAt.IsZero() {
		updatedAt := s.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
