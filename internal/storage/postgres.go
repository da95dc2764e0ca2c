package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"tally/internal/core"
)

// PostgresStore backs the same contract with Postgres for deployments that
// already run one. lib/pq has no LastInsertId, so inserts use RETURNING.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migratePostgres(databaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	u := core.User{Username: username, PasswordHash: passwordHash}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		username, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", u.ID, "username", username)

	return u, nil
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UserByID(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO entries (owner_id, title, amount_cents, category, kind, entry_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		e.OwnerID, e.Title, e.Amount.Cents, e.Category, string(e.Kind), e.Date.Time).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"kind", e.Kind,
		"amount_cents", e.Amount.Cents)

	return e, nil
}

func (s *PostgresStore) EntriesByOwner(ctx context.Context, ownerID int64) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, amount_cents, category, kind, entry_date, created_at
		 FROM entries
		 WHERE owner_id = $1
		 ORDER BY entry_date DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanPostgresEntry(rows)
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

func (s *PostgresStore) EntryByID(ctx context.Context, id int64) (core.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, amount_cents, category, kind, entry_date, created_at
		 FROM entries
		 WHERE id = $1`, id)
	e, err := scanPostgresEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry by id: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) UpdateEntry(ctx context.Context, e core.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries
		 SET title = $1, amount_cents = $2, category = $3, kind = $4, entry_date = $5
		 WHERE id = $6`,
		e.Title, e.Amount.Cents, e.Category, string(e.Kind), e.Date.Time, e.ID)
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

func (s *PostgresStore) DeleteEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
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

func scanPostgresEntry(rs rowScanner) (core.Entry, error) {
	var (
		e         core.Entry
		kind      string
		entryDate time.Time
	)
	if err := rs.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Amount.Cents, &e.Category, &kind, &entryDate, &e.CreatedAt); err != nil {
		return core.Entry{}, err
	}
	e.Kind = core.Kind(kind)
	e.Date = core.Date{Time: entryDate}
	return e, nil
}

// isPostgresUniqueViolation checks for SQLSTATE 23505 (unique_violation).
func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
