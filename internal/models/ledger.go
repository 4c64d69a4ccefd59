package models

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar day in YYYY-MM-DD form.
type Day string

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil || t.Format(dayLayout) != s {
		return "", fmt.Errorf("invalid day %q: expected YYYY-MM-DD", s)
	}
	return Day(s), nil
}

// DayOf returns the calendar day t falls on in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	return Day(t.In(loc).Format(dayLayout))
}

func (d Day) String() string {
	return string(d)
}

// AddDays shifts d by n calendar days.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(dayLayout))
}

// LedgerEntry is one child's screen-time budget for one day. Persisted is
// false for defaults materialized on read.
type LedgerEntry struct {
	ChildID        string
	Day            Day
	AllowedMinutes int
	RewardMinutes  int
	UsedMinutes    int
	Persisted      bool
	UpdatedAt      time.Time
}

func (e LedgerEntry) TotalMinutes() int {
	return e.AllowedMinutes + e.RewardMinutes
}

// RemainingMinutes is negative when the child is over budget.
func (e LedgerEntry) RemainingMinutes() int {
	return e.TotalMinutes() - e.UsedMinutes
}

func (e LedgerEntry) OverBudget() bool {
	return e.UsedMinutes > e.TotalMinutes()
}

type Lesson struct {
	ID        string
	Title     string
	Content   string
	VerseRef  string
	AgeRange  string
	CreatedAt time.Time
}

type CompletionState string

const (
	CompletionIncomplete CompletionState = "incomplete"
	CompletionCompleted  CompletionState = "completed"
)

type Completion struct {
	ChildID     string
	LessonID    string
	Completed   bool
	StartedAt   time.Time
	CompletedAt *time.Time
}

func (c Completion) State() CompletionState {
	if c.Completed {
		return CompletionCompleted
	}
	return CompletionIncomplete
}
