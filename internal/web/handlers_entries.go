package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

// entryFormPage feeds the add and edit templates. EntryID is set only on
// edit, where the form posts back to /edit/{id}.
type entryFormPage struct {
	basePage
	Form    entryForm
	EntryID int64
}

// entryFault turns the expected failures of id-addressed operations into
// redirects: unknown ids flash "not found", someone else's ids flash the
// unauthorized notice. View, edit and delete all go through here so the
// policy cannot drift between them. Reports whether it handled the error.
func (s *Server) entryFault(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		flashAndRedirect(w, r, flashDanger, "Entry not found.", "/view")
		return true
	case errors.Is(err, services.ErrNotOwner):
		flashAndRedirect(w, r, flashDanger, "Unauthorized access", "/dashboard")
		return true
	}
	return false
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	page := entryFormPage{
		basePage: s.page(w, r, "Add Entry"),
		Form:     entryForm{Kind: string(core.Expense), Date: time.Now().Format("2006-01-02")},
	}

	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "add.html", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		flashAndRedirect(w, r, flashDanger, "Invalid form submission.", "/add")
		return
	}
	page.Form = readEntryForm(r)

	entry, err := page.Form.parse()
	if err != nil {
		page.Flash = &Flash{Category: flashDanger, Message: err.Error()}
		s.render(w, r, http.StatusUnprocessableEntity, "add.html", page)
		return
	}

	created, err := s.ledger.Add(r.Context(), id.UserID, entry)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Entry create failed",
			log.FieldError, err,
			log.FieldUserID, id.UserID)
		page.Flash = &Flash{Category: flashDanger, Message: "Could not save the entry. Please try again."}
		s.render(w, r, http.StatusInternalServerError, "add.html", page)
		return
	}

	s.invalidateSummary(id.UserID)
	s.logger.InfoContext(r.Context(), "Entry added",
		log.FieldUserID, id.UserID,
		log.FieldEntryID, created.ID,
		"kind", string(created.Kind))
	flashAndRedirect(w, r, flashSuccess, created.Kind.Title()+" added successfully!", "/dashboard")
}

func (s *Server) handleViewEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	entries, err := s.ledger.List(r.Context(), id.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Entry list failed",
			log.FieldError, err,
			log.FieldUserID, id.UserID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := struct {
		basePage
		Entries []entryRow
	}{basePage: s.page(w, r, "Your Entries")}
	for _, e := range entries {
		data.Entries = append(data.Entries, toEntryRow(e))
	}

	s.render(w, r, http.StatusOK, "view.html", data)
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	entryID, err := entryIDFrom(r)
	if err != nil {
		flashAndRedirect(w, r, flashDanger, "Entry not found.", "/view")
		return
	}

	if r.Method == http.MethodGet {
		entry, err := s.ledger.Get(r.Context(), entryID, id.UserID)
		if err != nil {
			if s.entryFault(w, r, err) {
				return
			}
			s.logger.ErrorContext(r.Context(), "Entry load failed",
				log.FieldError, err,
				log.FieldUserID, id.UserID,
				log.FieldEntryID, entryID)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		page := entryFormPage{
			basePage: s.page(w, r, "Edit Entry"),
			Form:     formFromEntry(entry),
			EntryID:  entryID,
		}
		s.render(w, r, http.StatusOK, "edit.html", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		flashAndRedirect(w, r, flashDanger, "Invalid form submission.", fmt.Sprintf("/edit/%d", entryID))
		return
	}
	page := entryFormPage{
		basePage: s.page(w, r, "Edit Entry"),
		Form:     readEntryForm(r),
		EntryID:  entryID,
	}

	entry, perr := page.Form.parse()
	if perr != nil {
		page.Flash = &Flash{Category: flashDanger, Message: perr.Error()}
		s.render(w, r, http.StatusUnprocessableEntity, "edit.html", page)
		return
	}

	if _, err := s.ledger.Update(r.Context(), entryID, id.UserID, entry); err != nil {
		if s.entryFault(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "Entry update failed",
			log.FieldError, err,
			log.FieldUserID, id.UserID,
			log.FieldEntryID, entryID)
		page.Flash = &Flash{Category: flashDanger, Message: "Could not save the entry. Please try again."}
		s.render(w, r, http.StatusInternalServerError, "edit.html", page)
		return
	}

	s.invalidateSummary(id.UserID)
	s.logger.InfoContext(r.Context(), "Entry updated",
		log.FieldUserID, id.UserID,
		log.FieldEntryID, entryID)
	flashAndRedirect(w, r, flashSuccess, "Entry updated successfully!", "/view")
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	entryID, err := entryIDFrom(r)
	if err != nil {
		flashAndRedirect(w, r, flashDanger, "Entry not found.", "/view")
		return
	}

	if err := s.ledger.Delete(r.Context(), entryID, id.UserID); err != nil {
		if s.entryFault(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "Entry delete failed",
			log.FieldError, err,
			log.FieldUserID, id.UserID,
			log.FieldEntryID, entryID)
		flashAndRedirect(w, r, flashDanger, "Something went wrong. Please try again.", "/view")
		return
	}

	s.invalidateSummary(id.UserID)
	s.logger.InfoContext(r.Context(), "Entry deleted",
		log.FieldUserID, id.UserID,
		log.FieldEntryID, entryID)
	flashAndRedirect(w, r, flashSuccess, "Entry deleted successfully!", "/view")
}
