package service

import (
	"context"
	"strings"
	"testing"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, RegisterInput{
		Username:    "mom",
		Email:       "Mom@Example.com",
		Password:    testPassword,
		DisplayName: "Mom",
		Role:        models.RoleParent,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.Account.Email != "mom@example.com" {
		t.Fatalf("email not normalized: %q", registered.Account.Email)
	}
	if strings.Contains(registered.Account.PasswordHash, testPassword) {
		t.Fatal("password stored in clear")
	}

	loggedIn, err := env.auth.Login(ctx, LoginInput{Username: "mom", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	identity, err := env.tokens.Verify(loggedIn.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity.AccountID != registered.Account.ID || identity.Role != models.RoleParent {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "dad")
	kid := env.child(t, parent.ID, "kid")

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing display name", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, Role: models.RoleParent}},
		{"blank display name", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, DisplayName: "   ", Role: models.RoleParent}},
		{"missing username", RegisterInput{Email: "a@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleParent}},
		{"short username", RegisterInput{Username: "ab", Email: "a@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleParent}},
		{"missing email", RegisterInput{Username: "alice", Password: testPassword, DisplayName: "Alice", Role: models.RoleParent}},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: testPassword, DisplayName: "Alice", Role: models.RoleParent}},
		{"short password", RegisterInput{Username: "alice", Email: "a@example.com", Password: "short", DisplayName: "Alice", Role: models.RoleParent}},
		{"missing role", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, DisplayName: "Alice"}},
		{"unknown role", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, DisplayName: "Alice", Role: "admin"}},
		{"parent with parent ref", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleParent, ParentID: parent.ID}},
		{"child without parent", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleChild}},
		{"child of unknown parent", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleChild, ParentID: "missing"}},
		{"child of a child", RegisterInput{Username: "alice", Email: "a@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleChild, ParentID: kid.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.input)
			assertKind(t, err, apperr.ErrValidation)
		})
	}
}

func TestRegisterChildWithParentReference(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "dad")

	res, err := env.auth.Register(context.Background(), RegisterInput{
		Username:    "junior",
		Email:       "junior@example.com",
		Password:    testPassword,
		DisplayName: "Junior",
		Role:        models.RoleChild,
		ParentID:    parent.ID,
	})
	if err != nil {
		t.Fatalf("Register child: %v", err)
	}
	if owner, ok := res.Account.Membership.Owner(); !ok || owner != parent.ID {
		t.Fatalf("membership = %+v", res.Account.Membership)
	}
}

func TestRegisterConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.parent(t, "kiddo123")

	_, err := env.auth.Register(ctx, RegisterInput{
		Username: "kiddo123", Email: "other@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleParent,
	})
	assertKind(t, err, apperr.ErrConflict)

	_, err = env.auth.Register(ctx, RegisterInput{
		Username: "someoneelse", Email: "KIDDO123@example.com", Password: testPassword, DisplayName: "Alice", Role: models.RoleParent,
	})
	assertKind(t, err, apperr.ErrConflict)

	res, err := env.auth.Login(ctx, LoginInput{Username: "kiddo123", Password: testPassword})
	if err != nil {
		t.Fatalf("first account no longer loginable: %v", err)
	}
	if res.Account.ID != first.ID {
		t.Fatalf("login resolved %s, want %s", res.Account.ID, first.ID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.parent(t, "mom")

	_, unknownErr := env.auth.Login(ctx, LoginInput{Username: "nobody", Password: testPassword})
	_, wrongErr := env.auth.Login(ctx, LoginInput{Username: "mom", Password: "wrong-password"})

	assertKind(t, unknownErr, apperr.ErrUnauthenticated)
	assertKind(t, wrongErr, apperr.ErrUnauthenticated)
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("errors differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLoginThrottle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.parent(t, "mom")

	for i := 0; i < 3; i++ {
		_, err := env.auth.Login(ctx, LoginInput{Username: "mom", Password: "wrong-password"})
		assertKind(t, err, apperr.ErrUnauthenticated)
	}

	_, err := env.auth.Login(ctx, LoginInput{Username: "mom", Password: testPassword})
	assertKind(t, err, apperr.ErrRateLimited)

	if err := env.throttle.Reset(ctx, "mom"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.auth.Login(ctx, LoginInput{Username: "mom", Password: testPassword}); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
}
