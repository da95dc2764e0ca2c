package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/storage"
)

// ErrNotOwner is returned when an entry exists but belongs to someone else.
// View, edit and delete all use it, so no path leaks another user's data or
// silently no-ops.
var ErrNotOwner = errors.New("entry does not belong to the current user")

// LedgerService guards every entry operation with an ownership check
// against the id baked into the session.
type LedgerService struct {
	store storage.Store
}

func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// Add validates and stores a new entry for the owner.
func (s *LedgerService) Add(ctx context.Context, ownerID int64, e core.Entry) (core.Entry, error) {
	e.OwnerID = ownerID
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("add entry: %w", err)
	}
	return created, nil
}

// List returns all of the owner's entries, newest date first.
func (s *LedgerService) List(ctx context.Context, ownerID int64) ([]core.Entry, error) {
	entries, err := s.store.EntriesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Get resolves an entry and verifies it belongs to ownerID.
func (s *LedgerService) Get(ctx context.Context, id, ownerID int64) (core.Entry, error) {
	e, err := s.store.EntryByID(ctx, id)
	if err != nil {
		// storage.ErrNotFound passes through for the handler.
		return core.Entry{}, err
	}
	if e.OwnerID != ownerID {
		slog.WarnContext(ctx, "Ownership check failed",
			"entry_id", id,
			"owner_id", e.OwnerID,
			"requested_by", ownerID)
		return core.Entry{}, ErrNotOwner
	}
	return e, nil
}

// Update rewrites an entry's fields after the ownership check. The stored
// owner always wins: whatever OwnerID the caller put on e is discarded.
func (s *LedgerService) Update(ctx context.Context, id, ownerID int64, e core.Entry) (core.Entry, error) {
	current, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return core.Entry{}, err
	}

	e.ID = current.ID
	e.OwnerID = current.OwnerID
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}
	return e, nil
}

// Delete removes an entry after the ownership check.
func (s *LedgerService) Delete(ctx context.Context, id, ownerID int64) error {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}

	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// Summary aggregates the owner's ledger for the dashboard.
func (s *LedgerService) Summary(ctx context.Context, ownerID int64) (core.Summary, error) {
	entries, err := s.store.EntriesByOwner(ctx, ownerID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize entries: %w", err)
	}
	return core.Summarize(entries), nil
}
