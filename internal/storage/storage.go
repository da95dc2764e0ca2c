// Package storage persists users and ledger entries.
//
// Two backends implement the same Store contract: a SQLite file (the
// default) and Postgres, selected by the shape of DATABASE_URL. Handlers
// and services only ever see the Store interface and its sentinel errors.
package storage

import (
	"context"
	"errors"

	"tally/internal/config"
	"tally/internal/core"
)

var (
	// ErrNotFound is returned when a user or entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when registering a username that
	// already exists.
	ErrUsernameTaken = errors.New("username already exists")
)

// Store is the persistence contract shared by all backends.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	UserByUsername(ctx context.Context, username string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)

	CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	// EntriesByOwner returns the owner's entries ordered by date
	// descending, then id descending.
	EntriesByOwner(ctx context.Context, ownerID int64) ([]core.Entry, error)
	EntryByID(ctx context.Context, id int64) (core.Entry, error)
	// UpdateEntry rewrites the mutable fields of the entry with the given
	// ID. The owner column is never touched.
	UpdateEntry(ctx context.Context, e core.Entry) error
	DeleteEntry(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}

// Open picks a backend from the configured database location: postgres://
// URLs get the Postgres store, anything else is treated as a SQLite file
// path.
func Open(cfg *config.Config) (Store, error) {
	if config.IsPostgresURL(cfg.DatabaseURL) {
		return NewPostgresStore(cfg.DatabaseURL)
	}
	return NewSQLiteStore(cfg.DatabaseURL)
}
