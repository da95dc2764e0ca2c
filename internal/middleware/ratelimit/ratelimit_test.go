package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(perMinute int) *Limiter {
	l := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Minute})
	return l
}

func TestAllowWithinLimit(t *testing.T) {
	l := newTestLimiter(3)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("request over the limit should be denied")
	}
}

func TestAllowTracksClientsSeparately(t *testing.T) {
	l := newTestLimiter(1)
	defer l.Stop()

	if !l.Allow("1.1.1.1") {
		t.Fatalf("first client should be allowed")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatalf("second client should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Fatalf("first client should now be limited")
	}
	if l.ActiveClients() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", l.ActiveClients())
	}
}

func TestMiddlewareLimitsOnlyPost(t *testing.T) {
	l := newTestLimiter(1)
	defer l.Stop()

	handler := l.Middleware(
		func(*http.Request) string { return "1.2.3.4" },
		nil,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func() int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		return rec.Code
	}
	get := func() int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		return rec.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("first POST: expected 200, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second POST: expected 429, got %d", code)
	}
	// GETs are never limited, even for a throttled client.
	if code := get(); code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", code)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := newTestLimiter(1)
	l.Stop()
	l.Stop()
}
