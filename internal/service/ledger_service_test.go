package service

import (
	"context"
	"sync"
	"testing"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

func TestGetEntryDoesNotPersist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	entry, err := env.ledger.GetEntry(ctx, kid.ID, today())
	if err != nil {
		t.Fatal(err)
	}
	if entry.Persisted || entry.AllowedMinutes != 120 || entry.RewardMinutes != 0 || entry.UsedMinutes != 0 {
		t.Fatalf("entry = %+v", entry)
	}

	_, ok, err := env.store.LedgerEntry(ctx, kid.ID, today())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("GetEntry wrote an entry")
	}
}

func TestResolveDay(t *testing.T) {
	env := newTestEnv(t)

	day, err := env.ledger.ResolveDay("")
	if err != nil || day != "2024-05-10" {
		t.Fatalf("ResolveDay(\"\") = %q, %v", day, err)
	}
	day, err = env.ledger.ResolveDay("2024-02-29")
	if err != nil || day != "2024-02-29" {
		t.Fatalf("ResolveDay = %q, %v", day, err)
	}
	for _, raw := range []string{"2024-5-10", "10/05/2024", "2023-02-29", "yesterday"} {
		_, err := env.ledger.ResolveDay(raw)
		assertKind(t, err, apperr.ErrValidation)
	}
}

func TestAdjustAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")
	day := today()

	tests := []struct {
		name  string
		delta int
		want  int
	}{
		{"increase", 30, 150},
		{"decrease", -60, 90},
		{"clamped at minimum", -500, 15},
		{"zero keeps value", 0, 15},
		{"back up", 45, 60},
	}
	for _, tt := range tests {
		entry, err := env.ledger.AdjustAllowed(ctx, kid.ID, day, tt.delta)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if entry.AllowedMinutes != tt.want {
			t.Fatalf("%s: allowed = %d, want %d", tt.name, entry.AllowedMinutes, tt.want)
		}
	}

	_, err := env.ledger.AdjustAllowed(ctx, kid.ID, day, 5000)
	assertKind(t, err, apperr.ErrValidation)

	other, err := env.ledger.GetEntry(ctx, kid.ID, day.AddDays(1))
	if err != nil {
		t.Fatal(err)
	}
	if other.AllowedMinutes != 120 {
		t.Fatalf("adjustment leaked into the next day: %+v", other)
	}
}

func TestAdjustAllowedRejectsParentAccount(t *testing.T) {
	env := newTestEnv(t)
	mom := env.parent(t, "mom")

	_, err := env.ledger.AdjustAllowed(context.Background(), mom.ID, today(), 10)
	assertKind(t, err, apperr.ErrValidation)
}

func TestRecordUsageCanGoOverBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")
	day := today()

	if _, err := env.ledger.RecordUsage(ctx, kid.ID, day, 100); err != nil {
		t.Fatal(err)
	}
	entry, err := env.ledger.RecordUsage(ctx, kid.ID, day, 40)
	if err != nil {
		t.Fatal(err)
	}
	if entry.UsedMinutes != 140 || !entry.OverBudget() || entry.RemainingMinutes() != -20 {
		t.Fatalf("entry = %+v", entry)
	}

	over, err := env.ledger.OverBudget(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(over) != 1 || over[0].ChildID != kid.ID {
		t.Fatalf("over budget = %+v", over)
	}

	for _, n := range []int{-1, 1441} {
		_, err := env.ledger.RecordUsage(ctx, kid.ID, day, n)
		assertKind(t, err, apperr.ErrValidation)
	}
}

func TestFamilyDefaultAppliesToNewEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")

	if _, err := env.family.UpdateSettings(ctx, mom.ID, 60); err != nil {
		t.Fatal(err)
	}

	entry, err := env.ledger.RecordUsage(ctx, kid.ID, today(), 10)
	if err != nil {
		t.Fatal(err)
	}
	want := models.LedgerEntry{ChildID: kid.ID, Day: today(), AllowedMinutes: 60, UsedMinutes: 10}
	if entry.ChildID != want.ChildID || entry.Day != want.Day || entry.AllowedMinutes != want.AllowedMinutes || entry.UsedMinutes != want.UsedMinutes {
		t.Fatalf("entry = %+v, want %+v", entry, want)
	}

	if _, err := env.family.UpdateSettings(ctx, mom.ID, 200); err != nil {
		t.Fatal(err)
	}
	entry, err = env.ledger.GetEntry(ctx, kid.ID, today())
	if err != nil {
		t.Fatal(err)
	}
	if entry.AllowedMinutes != 60 {
		t.Fatalf("existing entry changed with settings: %+v", entry)
	}
}

func TestConcurrentLedgerUpdatesAreSerialized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mom := env.parent(t, "mom")
	kid := env.child(t, mom.ID, "kid")
	day := today()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if _, err := env.ledger.RecordUsage(ctx, kid.ID, day, 1); err != nil {
				t.Errorf("RecordUsage: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := env.ledger.AdjustAllowed(ctx, kid.ID, day, 2); err != nil {
				t.Errorf("AdjustAllowed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := env.ledger.creditReward(ctx, env.store, kid.ID, day, 15); err != nil {
				t.Errorf("creditReward: %v", err)
			}
		}()
	}
	wg.Wait()

	entry, err := env.ledger.GetEntry(ctx, kid.ID, day)
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Persisted {
		t.Fatal("entry was not persisted")
	}
	if entry.UsedMinutes != workers {
		t.Fatalf("used = %d, want %d", entry.UsedMinutes, workers)
	}
	if entry.AllowedMinutes != 120+2*workers {
		t.Fatalf("allowed = %d, want %d", entry.AllowedMinutes, 120+2*workers)
	}
	if entry.RewardMinutes != 15*workers {
		t.Fatalf("reward = %d, want %d", entry.RewardMinutes, 15*workers)
	}
}
