package web

import (
	"errors"
	"net/http"
	"strings"

	"tally/internal/auth"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

// handleIndex routes by session state: signed-in browsers land on the
// dashboard, everyone else on the login page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.redirectAuthenticated(w, r) {
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// redirectAuthenticated sends an already signed-in browser to the dashboard
// and reports whether it did. Login and register are for anonymous visitors.
func (s *Server) redirectAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	c, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		return false
	}
	if _, err := s.sessions.Verify(c.Value); err != nil {
		return false
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.redirectAuthenticated(w, r) {
		return
	}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "register.html", s.page(w, r, "Register"))
		return
	}

	if err := r.ParseForm(); err != nil {
		flashAndRedirect(w, r, flashDanger, "Invalid form submission.", "/register")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if _, err := s.accounts.Register(r.Context(), username, password); err != nil {
		if notice := registerNotice(err); notice != "" {
			flashAndRedirect(w, r, flashDanger, notice, "/register")
			return
		}
		s.logger.ErrorContext(r.Context(), "Registration failed", log.FieldError, err)
		flashAndRedirect(w, r, flashDanger, "Something went wrong. Please try again.", "/register")
		return
	}

	flashAndRedirect(w, r, flashSuccess, "Account created! You can now log in.", "/login")
}

// registerNotice maps the expected registration failures to user-facing
// text; anything else returns "" and is treated as an internal error.
func registerNotice(err error) string {
	switch {
	case errors.Is(err, storage.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, services.ErrUsernameRequired):
		return "Username is required."
	case errors.Is(err, services.ErrUsernameTooLong):
		return "Username is too long (64 characters max)."
	case errors.Is(err, services.ErrPasswordTooShort):
		return "Password is too short (8 characters min)."
	}
	return ""
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.redirectAuthenticated(w, r) {
		return
	}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "login.html", s.page(w, r, "Log In"))
		return
	}

	if err := r.ParseForm(); err != nil {
		flashAndRedirect(w, r, flashDanger, "Invalid form submission.", "/login")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := s.accounts.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			s.logger.ErrorContext(r.Context(), "Login lookup failed", log.FieldError, err)
			flashAndRedirect(w, r, flashDanger, "Something went wrong. Please try again.", "/login")
			return
		}
		flashAndRedirect(w, r, flashDanger, "Invalid credentials", "/login")
		return
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Session issue failed", log.FieldError, err, log.FieldUserID, user.ID)
		flashAndRedirect(w, r, flashDanger, "Something went wrong. Please try again.", "/login")
		return
	}

	s.setSessionCookie(w, token)
	s.logger.InfoContext(r.Context(), "User signed in", log.FieldUserID, user.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.identity(r); ok {
		s.logger.InfoContext(r.Context(), "User signed out", log.FieldUserID, id.UserID)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
