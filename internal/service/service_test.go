package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/events"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/repository/memstore"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/security"
)

var testNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

const testPassword = "hunter2hunter2"

var testPolicy = config.LedgerConfig{
	DefaultAllowedMinutes: 120,
	RewardMinutes:         15,
	MinimumAllowedMinutes: 15,
	Timezone:              "UTC",
}

// stepClock advances one second per call so creation order is deterministic.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	store    *memstore.Store
	tokens   *security.TokenService
	throttle *memstore.Throttle
	events   *events.Recorder

	auth    *AuthService
	guard   *Guard
	family  *FamilyService
	ledger  *LedgerService
	rewards *RewardService
	alerts  *AlertService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	store.SeedLessons(memstore.DefaultLessons()...)
	hasher := security.NewHasher(security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	tokens := security.NewTokenService("test-secret", time.Hour, "test").WithClock(func() time.Time { return testNow })
	throttle := memstore.NewThrottle(3, time.Minute)
	recorder := &events.Recorder{}
	log := zerolog.Nop()
	clock := &stepClock{t: testNow}

	ledger := NewLedgerService(store, testPolicy, func() time.Time { return testNow }, log)
	env := &testEnv{
		store:    store,
		tokens:   tokens,
		throttle: throttle,
		events:   recorder,
		auth:     NewAuthService(store, hasher, tokens, throttle, log),
		guard:    NewGuard(store, tokens),
		family:   NewFamilyService(store, hasher, testPolicy, log),
		ledger:   ledger,
		rewards:  NewRewardService(store, ledger, recorder, log),
		alerts:   NewAlertService(store, log),
	}
	env.auth.now = clock.Now
	env.family.now = clock.Now
	env.alerts.now = clock.Now
	return env
}

func (e *testEnv) parent(t *testing.T, username string) models.Account {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Username:    username,
		Email:       username + "@example.com",
		Password:    testPassword,
		DisplayName: username,
		Role:        models.RoleParent,
	})
	if err != nil {
		t.Fatalf("register parent %s: %v", username, err)
	}
	return res.Account
}

func (e *testEnv) child(t *testing.T, parentID, username string) models.Account {
	t.Helper()
	child, err := e.family.CreateChild(context.Background(), parentID, CreateChildInput{
		Username: username,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("create child %s: %v", username, err)
	}
	return child
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}

func today() models.Day {
	return models.DayOf(testNow, time.UTC)
}

func bearer(token string) string {
	return fmt.Sprintf("Bearer %s", token)
}
