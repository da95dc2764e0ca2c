package web

import (
	"bytes"
	"net/http"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/middleware/trace"
)

const (
	flashSuccess = "success"
	flashDanger  = "danger"
)

// basePage carries the fields every template needs: the title, the signed-in
// username for the nav bar (empty on public pages) and the pending flash.
type basePage struct {
	Title    string
	Username string
	Flash    *Flash
}

// page builds the shared template data and consumes the flash cookie.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) basePage {
	p := basePage{Title: title, Flash: popFlash(w, r)}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		p.Username = id.Username
	}
	return p
}

// entryRow is an Entry formatted for the HTML tables.
type entryRow struct {
	ID       int64
	Title    string
	Amount   string
	Category string
	Kind     string
	Date     string
}

func toEntryRow(e core.Entry) entryRow {
	return entryRow{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount.String(),
		Category: e.Category,
		Kind:     e.Kind.Title(),
		Date:     e.Date.ISO(),
	}
}

// render executes a template into a buffer first, so a failure can still
// become a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldRequestID, trace.GetRequestID(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
