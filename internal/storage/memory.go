package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"tally/internal/core"
)

// MemStore is an in-memory Store used by handler and service tests. It
// mirrors the SQL backends' semantics, including sentinel errors and the
// date-descending, id-descending listing order.
type MemStore struct {
	mu          sync.RWMutex
	users       map[int64]core.User
	byUsername  map[string]int64
	entries     map[int64]core.Entry
	nextUserID  int64
	nextEntryID int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:      make(map[int64]core.User),
		byUsername: make(map[string]int64),
		entries:    make(map[int64]core.Entry),
	}
}

func (s *MemStore) Close() error {
	return nil
}

func (s *MemStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemStore) CreateUser(_ context.Context, username, passwordHash string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[username]; taken {
		return core.User{}, ErrUsernameTaken
	}

	s.nextUserID++
	u := core.User{
		ID:           s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.byUsername[username] = u.ID
	return u, nil
}

func (s *MemStore) UserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemStore) UserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemStore) CreateEntry(_ context.Context, e core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEntryID++
	e.ID = s.nextEntryID
	e.CreatedAt = time.Now().UTC()
	s.entries[e.ID] = e
	return e, nil
}

func (s *MemStore) EntriesByOwner(_ context.Context, ownerID int64) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []core.Entry
	for _, e := range s.entries {
		if e.OwnerID == ownerID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.After(entries[j].Date.Time)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

func (s *MemStore) EntryByID(_ context.Context, id int64) (core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return core.Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *MemStore) UpdateEntry(_ context.Context, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.entries[e.ID]
	if !ok {
		return ErrNotFound
	}
	// The owner column never changes on update.
	e.OwnerID = old.OwnerID
	e.CreatedAt = old.CreatedAt
	s.entries[e.ID] = e
	return nil
}

func (s *MemStore) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}
