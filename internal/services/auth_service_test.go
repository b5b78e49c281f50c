package services

import (
	"context"
	"errors"
	"testing"

	"github.com/imageshare/backend/internal/models"
)

func TestLoginAndCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, user, err := env.auth.Login(ctx, "nixon@example.org", "nixon123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "nixon@example.org" {
		t.Fatalf("unexpected user %s", user.Username)
	}

	current, err := env.auth.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current.ID != user.ID {
		t.Fatalf("expected %s got %s", user.ID, current.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, _, err := env.auth.Login(ctx, "nixon@example.org", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
	if _, _, err := env.auth.Login(ctx, "nobody@example.org", "nixon123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user got %v", err)
	}
}

func TestInactiveUserLosesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, user, err := env.auth.Login(ctx, "nixon@example.org", "nixon123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := env.users.SetActive(ctx, user.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := env.auth.CurrentUser(ctx, token); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound got %v", err)
	}
	if _, _, err := env.auth.Login(ctx, "nixon@example.org", "nixon123"); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive got %v", err)
	}
}

func TestCurrentUserRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	for _, token := range []string{"", "not-a-jwt"} {
		if _, err := env.auth.CurrentUser(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("token %q: expected ErrInvalidSession got %v", token, err)
		}
	}
}

func TestRegisterAssignsUserRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "new@example.org", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	roles, err := env.users.Roles(ctx, user)
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	if len(roles) != 1 || roles[0] != models.RoleUser {
		t.Fatalf("expected User role got %v", roles)
	}

	if _, err := env.auth.Register(ctx, "new@example.org", "secret"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken got %v", err)
	}
}
