// Package core holds the ledger domain: users, entries, money amounts kept
// in integer cents, and the dashboard summary math. It has no knowledge of
// HTTP or storage.
package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// maxTitleLen bounds entry titles at the value enforced by storage.
const maxTitleLen = 200

type (
	// Kind tells whether an entry adds to or subtracts from the balance.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is an account that owns ledger entries. PasswordHash holds a
	// bcrypt hash, never the plain password.
	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Entry is a single income or expense line in a user's ledger.
	Entry struct {
		ID        int64
		OwnerID   int64
		Title     string
		Amount    Money
		Category  string
		Kind      Kind
		Date      Date
		CreatedAt time.Time
	}
)

var (
	ErrInvalidKind   = errors.New("invalid entry kind")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrEmptyCategory = errors.New("empty category")
)

// ParseKind validates a raw form value. Only the two known kinds are
// accepted; anything else is a validation failure, never a default.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Income, Expense:
		return k, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Title returns the kind with the first letter upper-cased, for notices
// like "Income added successfully!".
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[0:1])) + string(k[1:])
}

// NewDate creates a new Date at midnight UTC from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the YYYY-MM-DD format used by date inputs and storage.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO renders the date back into the YYYY-MM-DD wire format.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > maxTitleLen {
		return ErrTitleTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Kind.Validate()
}
