// Package services holds the application logic between the HTTP handlers
// and the store: credential handling and the ownership-gated ledger.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/storage"
)

const (
	maxUsernameLen = 64
	minPasswordLen = 8
)

var (
	// ErrInvalidCredentials is deliberately the only failure a login can
	// produce: an unknown username and a wrong password are
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTooLong  = errors.New("username too long (max 64 characters)")
	ErrPasswordTooShort = errors.New("password too short (min 8 characters)")
)

// AuthService registers accounts and checks credentials.
type AuthService struct {
	store      storage.Store
	bcryptCost int
}

func NewAuthService(store storage.Store, bcryptCost int) *AuthService {
	return &AuthService{
		store:      store,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account. The username is trimmed before any
// checks so "alice" and " alice " cannot become two accounts.
func (s *AuthService) Register(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, ErrUsernameRequired
	}
	if len(username) > maxUsernameLen {
		return core.User{}, ErrUsernameTooLong
	}
	if len(password) < minPasswordLen {
		return core.User{}, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		// storage.ErrUsernameTaken passes through for the handler.
		return core.User{}, err
	}

	slog.InfoContext(ctx, "Account registered", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// Authenticate resolves a username/password pair to the account it belongs
// to. Every failure path returns ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return core.User{}, ErrInvalidCredentials
	}

	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("look up user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return core.User{}, ErrInvalidCredentials
	}

	return user, nil
}
