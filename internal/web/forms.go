package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tally/internal/core"
)

// formError is a validation message meant for the user, shown as a notice
// above the re-rendered form.
type formError string

func (e formError) Error() string { return string(e) }

// entryForm holds the raw field values so a failed submit can re-render the
// form with exactly what the user typed.
type entryForm struct {
	Title    string
	Amount   string
	Category string
	Kind     string
	Date     string
}

func readEntryForm(r *http.Request) entryForm {
	return entryForm{
		Title:    sanitizeInput(r.PostFormValue("title")),
		Amount:   strings.TrimSpace(r.PostFormValue("amount")),
		Category: sanitizeInput(r.PostFormValue("category")),
		Kind:     strings.TrimSpace(r.PostFormValue("kind")),
		Date:     strings.TrimSpace(r.PostFormValue("date")),
	}
}

// formFromEntry prefills the edit form from a stored entry.
func formFromEntry(e core.Entry) entryForm {
	return entryForm{
		Title:    e.Title,
		Amount:   e.Amount.String(),
		Category: e.Category,
		Kind:     string(e.Kind),
		Date:     e.Date.ISO(),
	}
}

// parse converts the raw values into a validated Entry. Every failure comes
// back as a formError; entries that fail here never reach the store.
func (f entryForm) parse() (core.Entry, error) {
	cents, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Entry{}, formError("Please enter a valid amount.")
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Entry{}, formError("Please enter a valid date (YYYY-MM-DD).")
	}
	kind, err := core.ParseKind(f.Kind)
	if err != nil {
		return core.Entry{}, formError("Please choose income or expense.")
	}

	e := core.Entry{
		Title:    f.Title,
		Amount:   core.Money{Cents: cents},
		Category: f.Category,
		Kind:     kind,
		Date:     date,
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, formError("Invalid data: " + err.Error())
	}
	return e, nil
}

// entryIDFrom reads the {id} route variable.
func entryIDFrom(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// sanitizeInput trims whitespace and strips control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
