// Package web serves the HTML user interface: registration, login, the
// entry forms and the dashboard. Handlers follow a POST-redirect-GET cycle
// with flash notices carried in a short-lived cookie.
package web

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"tally/internal/auth"
	"tally/internal/cache"
	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/services"
	"tally/internal/storage"
	appweb "tally/web"
)

const (
	summaryCacheSize     = 256
	summaryCacheTTL      = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Minute
	staticCacheMaxAge    = 3600
)

// Server wires the HTTP routes to the services and owns the background
// pieces that need a graceful stop: the rate limiter and the cache janitor.
type Server struct {
	http.Server

	templates *template.Template
	store     storage.Store
	accounts  *services.AuthService
	ledger    *services.LedgerService
	sessions  *auth.SessionManager
	logger    *log.Logger
	ips       *security.ClientIPResolver

	// Dashboard summaries keyed by user id, dropped whenever that user
	// mutates an entry.
	summaries *cache.LRUCache[core.Summary]
	caches    *cache.Manager
	limiter   *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server.
func NewServer(cfg *config.Config, store storage.Store, logger *log.Logger) (*Server, error) {
	templates, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	ips, err := security.NewClientIPResolver(cfg.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("client ip resolver: %w", err)
	}

	router := mux.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:           ":" + cfg.Port,
			Handler:        router,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		templates: templates,
		store:     store,
		accounts:  services.NewAuthService(store, cfg.BcryptCost),
		ledger:    services.NewLedgerService(store),
		sessions:  auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL),
		logger:    logger,
		ips:       ips,
		summaries: cache.NewLRUCache[core.Summary](summaryCacheSize, summaryCacheTTL),
		caches:    cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.AuthRatePerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
	}
	s.caches.Register(s.summaries)
	s.caches.StartCleanup(cacheCleanupInterval)

	router.Use(trace.NewMiddleware(ips.ClientIP).Middleware)
	router.Use(security.Headers(security.DefaultHeadersConfig()))

	// Static assets from the embedded FS.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		router.PathPrefix("/static/").Handler(security.StaticCache(staticCacheMaxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	// Public pages. Credential POSTs go through the per-IP limiter so a
	// guessing loop cannot hammer bcrypt; the GET forms stay unlimited.
	guard := s.limiter.Middleware(ips.ClientIP, s.handleRateLimited)
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.Handle("/register", guard(http.HandlerFunc(s.handleRegister))).Methods(http.MethodGet, http.MethodPost)
	router.Handle("/login", guard(http.HandlerFunc(s.handleLogin))).Methods(http.MethodGet, http.MethodPost)

	// Everything below needs a valid session.
	private := router.PathPrefix("/").Subrouter()
	private.Use(s.requireAuth)
	private.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)
	private.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	private.HandleFunc("/add", s.handleAddEntry).Methods(http.MethodGet, http.MethodPost)
	private.HandleFunc("/view", s.handleViewEntries).Methods(http.MethodGet)
	private.HandleFunc("/delete/{id:[0-9]+}", s.handleDeleteEntry).Methods(http.MethodGet)
	private.HandleFunc("/edit/{id:[0-9]+}", s.handleEditEntry).Methods(http.MethodGet, http.MethodPost)

	return s, nil
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requireAuth verifies the session cookie, puts the identity on the request
// context and bounces anonymous browsers to the login page. A cookie that
// fails verification is cleared so the browser stops resending it.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(auth.SessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		id, err := s.sessions.Verify(c.Value)
		if err != nil {
			s.logger.WarnContext(r.Context(), "Session rejected",
				log.FieldClientIP, s.ips.ClientIP(r),
				log.FieldPath, r.URL.Path)
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// identity returns the authenticated user for a request behind requireAuth.
// The bool is false only when a handler is reached without the middleware,
// which would be a routing bug.
func (s *Server) identity(r *http.Request) (auth.Identity, bool) {
	return auth.IdentityFrom(r.Context())
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.sessions.TTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.ips.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only when the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func summaryCacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Server) invalidateSummary(userID int64) {
	s.summaries.Delete(summaryCacheKey(userID))
}
