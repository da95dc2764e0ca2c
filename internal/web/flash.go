package web

import (
	"net/http"
	"net/url"
	"strings"
)

// flashCookie carries a one-shot notice across a redirect. The value is
// "category|message", URL-escaped; the next page render consumes it.
const flashCookie = "tally_flash"

// Flash is a notice shown once on the next rendered page.
type Flash struct {
	Category string // "success" or "danger", doubles as the CSS class
	Message  string
}

func setFlash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the pending notice, if any, and clears the cookie so it is
// shown exactly once.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	category, message, ok := strings.Cut(raw, "|")
	if !ok || message == "" {
		return nil
	}
	return &Flash{Category: category, Message: message}
}

// flashAndRedirect is the tail of every successful or recoverable POST.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, category, message, location string) {
	setFlash(w, category, message)
	http.Redirect(w, r, location, http.StatusSeeOther)
}
