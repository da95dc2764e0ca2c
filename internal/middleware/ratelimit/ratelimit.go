// Package ratelimit keeps per-client request counters over a one-minute
// window. It guards the credential endpoints against password guessing.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Counters idle longer than this are dropped by the background sweep.
const staleAfter = 10 * time.Minute

// Config bounds how many POSTs a client gets per minute and how often
// idle counters are swept. Non-positive values fall back to defaults.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// Limiter counts requests per client address. The window is activity
// based: a counter resets only after a full minute of silence, so a
// client that keeps hammering stays limited.
type Limiter struct {
	mu           sync.Mutex
	counters     map[string]*counter
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	requestsPerMinute int
	cleanupInterval   time.Duration
}

type counter struct {
	seenAt time.Time
	count  int
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 60
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		counters:          make(map[string]*counter),
		stopCleanup:       make(chan struct{}),
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
	go l.sweepLoop()
	return l
}

// Allow records a request from clientIP and reports whether it is still
// within the per-minute budget.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.counters[clientIP]
	if !ok || now.Sub(c.seenAt) > time.Minute {
		l.counters[clientIP] = &counter{seenAt: now, count: 1}
		return true
	}

	c.count++
	c.seenAt = now
	return c.count <= l.requestsPerMinute
}

// ActiveClients returns how many addresses currently have a counter.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}

// Stop ends the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropStale()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) dropStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for ip, c := range l.counters {
		if c.seenAt.Before(cutoff) {
			delete(l.counters, ip)
		}
	}
}

// Middleware creates HTTP middleware that limits POST requests per client.
// GET renders of the same routes stay unlimited so a throttled user can
// still see the form.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			if !l.Allow(extractIP(r)) {
				if onLimit != nil {
					onLimit(w, r)
				} else {
					w.Header().Set("Retry-After", "60")
					http.Error(w, "Too many requests. Try again in a minute.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
