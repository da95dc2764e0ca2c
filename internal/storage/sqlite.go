package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/core"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore keeps everything in a single local file, which is the
// default deployment: one user, one machine, no server to run.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// foreign_keys is off by default in SQLite and must be set per
	// connection; busy_timeout covers the writer lock under concurrent
	// handlers.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSQLite(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username)

	return core.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (s *SQLiteStore) UserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) UserByID(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`,
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	e.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (owner_id, title, amount_cents, category, kind, entry_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.Title, e.Amount.Cents, e.Category, string(e.Kind), e.Date.ISO(), e.CreatedAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Entry saved",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"kind", e.Kind,
		"amount_cents", e.Amount.Cents)

	return e, nil
}

func (s *SQLiteStore) EntriesByOwner(ctx context.Context, ownerID int64) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, amount_cents, category, kind, entry_date, created_at
		 FROM entries
		 WHERE owner_id = ?
		 ORDER BY entry_date DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) EntryByID(ctx context.Context, id int64) (core.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, amount_cents, category, kind, entry_date, created_at
		 FROM entries
		 WHERE id = ?`, id)
	e, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry by id: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) UpdateEntry(ctx context.Context, e core.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries
		 SET title = ?, amount_cents = ?, category = ?, kind = ?, entry_date = ?
		 WHERE id = ?`,
		e.Title, e.Amount.Cents, e.Category, string(e.Kind), e.Date.ISO(), e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.DebugContext(ctx, "Entry updated", "id", e.ID)
	return nil
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.DebugContext(ctx, "Entry deleted", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(rs rowScanner) (core.Entry, error) {
	var (
		e         core.Entry
		kind      string
		entryDate string
	)
	if err := rs.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Amount.Cents, &e.Category, &kind, &entryDate, &e.CreatedAt); err != nil {
		return core.Entry{}, err
	}
	e.Kind = core.Kind(kind)
	d, err := core.ParseDate(entryDate)
	if err != nil {
		return core.Entry{}, fmt.Errorf("stored date %q: %w", entryDate, err)
	}
	e.Date = d
	return e, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
