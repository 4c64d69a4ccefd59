package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
)

func seedFamily(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	accounts := []models.Account{
		{ID: "p1", Username: "parent", Email: "parent@example.com", Membership: models.ParentMembership()},
		{ID: "c1", Username: "child", Email: "child@example.com", Membership: models.ChildOf("p1")},
	}
	for _, a := range accounts {
		if err := s.CreateAccount(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCreateAccountConstraints(t *testing.T) {
	s := New()
	seedFamily(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		account models.Account
		kind    error
	}{
		{"duplicate username", models.Account{ID: "x1", Username: "parent", Email: "x1@example.com", Membership: models.ParentMembership()}, apperr.ErrConflict},
		{"duplicate email any case", models.Account{ID: "x2", Username: "x2", Email: "PARENT@example.com", Membership: models.ParentMembership()}, apperr.ErrConflict},
		{"unknown parent", models.Account{ID: "x3", Username: "x3", Email: "x3@example.com", Membership: models.ChildOf("nobody")}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateAccount(ctx, tt.account)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("error = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestInTxRollsBack(t *testing.T) {
	s := New()
	seedFamily(t, s)
	ctx := context.Background()
	day := models.Day("2024-05-10")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx ports.Store) error {
		if _, _, err := tx.CompleteLesson(ctx, "c1", "lesson", time.Now()); err != nil {
			return err
		}
		if _, err := tx.AddReward(ctx, "c1", day, 120, 15); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v", err)
	}

	if _, ok, _ := s.LedgerEntry(ctx, "c1", day); ok {
		t.Fatal("ledger entry survived rollback")
	}
	completions, err := s.ListCompletions(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(completions) != 0 {
		t.Fatalf("completion survived rollback: %+v", completions)
	}
}

func TestLedgerUpserts(t *testing.T) {
	s := New()
	seedFamily(t, s)
	ctx := context.Background()
	day := models.Day("2024-05-10")

	if _, err := s.AdjustAllowed(ctx, "c1", day, 120, -200, 15); err != nil {
		t.Fatal(err)
	}
	entry, err := s.AddReward(ctx, "c1", day, 999, 15)
	if err != nil {
		t.Fatal(err)
	}
	if entry.AllowedMinutes != 15 || entry.RewardMinutes != 15 || !entry.Persisted {
		t.Fatalf("entry = %+v", entry)
	}

	if _, err := s.AddUsage(ctx, "missing", day, 120, 5); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("upsert for missing account = %v", err)
	}
}

func TestThrottleWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(2, time.Minute)
	th.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := th.Allow(ctx, "mom"); !ok {
			t.Fatalf("attempt %d blocked", i)
		}
		_ = th.RecordFailure(ctx, "mom")
	}
	if ok, _ := th.Allow(ctx, "mom"); ok {
		t.Fatal("third attempt allowed inside the window")
	}
	if ok, _ := th.Allow(ctx, "dad"); !ok {
		t.Fatal("throttle leaked across keys")
	}

	now = now.Add(61 * time.Second)
	if ok, _ := th.Allow(ctx, "mom"); !ok {
		t.Fatal("window did not expire")
	}
}

func TestThrottleEvictsExpiredWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(2, time.Minute)
	th.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		_ = th.RecordFailure(ctx, fmt.Sprintf("user-%d", i))
	}
	now = now.Add(2 * time.Minute)
	_ = th.RecordFailure(ctx, "latest")

	if n := len(th.counts); n != 1 {
		t.Fatalf("tracked windows = %d, want 1", n)
	}
}

func TestConcurrentLedgerWritesAreNotLost(t *testing.T) {
	s := New()
	seedFamily(t, s)
	ctx := context.Background()
	day := models.Day("2024-05-10")

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if _, err := s.AddUsage(ctx, "c1", day, 120, 1); err != nil {
				t.Errorf("AddUsage: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.AdjustAllowed(ctx, "c1", day, 120, 1, 15); err != nil {
				t.Errorf("AdjustAllowed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.AddReward(ctx, "c1", day, 120, 15); err != nil {
				t.Errorf("AddReward: %v", err)
			}
		}()
	}
	wg.Wait()

	entry, ok, err := s.LedgerEntry(ctx, "c1", day)
	if err != nil || !ok {
		t.Fatalf("LedgerEntry = %v, %v", ok, err)
	}
	if entry.UsedMinutes != workers || entry.AllowedMinutes != 120+workers || entry.RewardMinutes != 15*workers {
		t.Fatalf("entry = %+v", entry)
	}
}
