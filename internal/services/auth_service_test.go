package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tally/internal/storage"
)

// Minimum bcrypt cost keeps the tests fast.
const testBcryptCost = 4

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(storage.NewMemStore(), testBcryptCost)

	user, err := svc.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}

	got, err := svc.Authenticate(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(storage.NewMemStore(), testBcryptCost)

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Wrong password and unknown username must be indistinguishable.
	_, wrongPass := svc.Authenticate(ctx, "alice", "not-the-password")
	_, unknownUser := svc.Authenticate(ctx, "mallory", "password123")

	if !errors.Is(wrongPass, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPass, unknownUser)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(storage.NewMemStore(), testBcryptCost)

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Register(ctx, "alice", "otherpassword")
	if !errors.Is(err, storage.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// The original account must be untouched by the failed attempt.
	if _, err := svc.Authenticate(ctx, "alice", "password123"); err != nil {
		t.Fatalf("original credentials must still work: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "otherpassword"); err == nil {
		t.Fatalf("the rejected password must not authenticate")
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(storage.NewMemStore(), testBcryptCost)

	cases := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"empty username", "", "password123", ErrUsernameRequired},
		{"blank username", "   ", "password123", ErrUsernameRequired},
		{"username too long", strings.Repeat("a", 65), "password123", ErrUsernameTooLong},
		{"password too short", "alice", "short", ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegisterTrimsUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(storage.NewMemStore(), testBcryptCost)

	if _, err := svc.Register(ctx, "  alice  ", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "password123"); !errors.Is(err, storage.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken for trimmed duplicate, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "password123"); err != nil {
		t.Fatalf("Authenticate with trimmed username: %v", err)
	}
}

func TestPasswordStoredHashed(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	svc := NewAuthService(store, testBcryptCost)

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, err := store.UserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("UserByUsername: %v", err)
	}
	if u.PasswordHash == "password123" {
		t.Fatalf("password stored in plain text")
	}
	if !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Fatalf("expected a bcrypt hash, got %q", u.PasswordHash)
	}
}
