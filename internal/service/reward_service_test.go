package service

import (
	"context"
	"sync"
	"testing"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

func TestCompleteCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	first, err := env.rewards.Complete(ctx, kid.ID, "god-provides")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !first.Credited || first.Entry.RewardMinutes != 15 || first.Completion.State() != models.CompletionCompleted {
		t.Fatalf("first = %+v", first)
	}

	second, err := env.rewards.Complete(ctx, kid.ID, "god-provides")
	if err != nil {
		t.Fatalf("repeat Complete: %v", err)
	}
	if second.Credited || second.Entry.RewardMinutes != 15 {
		t.Fatalf("second = %+v", second)
	}

	published := env.events.Events()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	event := published[0]
	if event.Type != models.EventRewardCredited || event.ChildID != kid.ID || event.ParentID != mom.ID ||
		event.LessonID != "god-provides" || event.Minutes != 15 || event.Day != today() {
		t.Fatalf("event = %+v", event)
	}
}

func TestCompleteEachLessonAddsReward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	lessons, err := env.rewards.ListLessons(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, lesson := range lessons {
		if _, err := env.rewards.Complete(ctx, kid.ID, lesson.ID); err != nil {
			t.Fatalf("Complete %s: %v", lesson.ID, err)
		}
	}

	entry, err := env.ledger.GetEntry(ctx, kid.ID, today())
	if err != nil {
		t.Fatal(err)
	}
	if want := 15 * len(lessons); entry.RewardMinutes != want {
		t.Fatalf("reward = %d, want %d", entry.RewardMinutes, want)
	}
	if entry.AllowedMinutes != 120 {
		t.Fatalf("allowance touched: %+v", entry)
	}
}

func TestCompleteUnknownLesson(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	_, err := env.rewards.Complete(ctx, kid.ID, "no-such-lesson")
	assertKind(t, err, apperr.ErrNotFound)

	_, ok, err := env.store.LedgerEntry(ctx, kid.ID, today())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("unknown lesson created a ledger entry")
	}
	completions, err := env.store.ListCompletions(ctx, kid.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(completions) != 0 {
		t.Fatalf("unknown lesson recorded %d completions", len(completions))
	}
	if n := len(env.events.Events()); n != 0 {
		t.Fatalf("published %d events", n)
	}
}

func TestConcurrentCompletesCreditOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		credited int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.rewards.Complete(ctx, kid.ID, "be-kind")
			if err != nil {
				t.Errorf("Complete: %v", err)
				return
			}
			if res.Credited {
				mu.Lock()
				credited++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if credited != 1 {
		t.Fatalf("credited %d times, want 1", credited)
	}
	entry, err := env.ledger.GetEntry(ctx, kid.ID, today())
	if err != nil {
		t.Fatal(err)
	}
	if entry.RewardMinutes != 15 {
		t.Fatalf("reward = %d, want 15", entry.RewardMinutes)
	}
}

func TestStartThenComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	started, err := env.rewards.Start(ctx, kid.ID, "be-kind")
	if err != nil {
		t.Fatal(err)
	}
	if started.State() != models.CompletionIncomplete {
		t.Fatalf("started = %+v", started)
	}
	if _, err := env.rewards.Start(ctx, kid.ID, "missing"); err == nil {
		t.Fatal("Start accepted an unknown lesson")
	}

	if _, err := env.rewards.Complete(ctx, kid.ID, "be-kind"); err != nil {
		t.Fatal(err)
	}
	again, err := env.rewards.Start(ctx, kid.ID, "be-kind")
	if err != nil {
		t.Fatal(err)
	}
	if again.State() != models.CompletionCompleted {
		t.Fatalf("Start reset a completed lesson: %+v", again)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	if _, err := env.rewards.Complete(ctx, kid.ID, "the-good-shepherd"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.ledger.RecordUsage(ctx, kid.ID, today(), 30); err != nil {
		t.Fatal(err)
	}

	dash, err := env.rewards.Dashboard(ctx, kid)
	if err != nil {
		t.Fatal(err)
	}
	if dash.Child.PasswordHash != "" {
		t.Fatal("dashboard leaked password hash")
	}
	if dash.Completed != 1 || len(dash.Lessons) != 4 {
		t.Fatalf("dashboard progress = %d of %d", dash.Completed, len(dash.Lessons))
	}
	if dash.Today.RemainingMinutes() != 120+15-30 {
		t.Fatalf("today = %+v", dash.Today)
	}
	for _, p := range dash.Lessons {
		if p.Lesson.ID == "the-good-shepherd" && (p.State != models.CompletionCompleted || p.CompletedAt == nil) {
			t.Fatalf("progress = %+v", p)
		}
	}
}
