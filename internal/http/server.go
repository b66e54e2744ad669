// Package http serves the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ecobank/internal/core"
	applog "ecobank/internal/log"
	"ecobank/internal/metrics"
	"ecobank/internal/middleware/security"
	"ecobank/internal/middleware/trace"
	"ecobank/internal/services"
	"ecobank/internal/session"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Auth     *services.AuthService
	Ledger   *services.LedgerService
	Sessions *session.Manager
	Logger   *applog.Logger
	// Ready reports whether dependencies can serve traffic. Nil means always ready.
	Ready func(ctx context.Context) error
	// TrustedProxies are CIDRs whose forwarding headers name the client.
	TrustedProxies []string
}

type Server struct {
	http.Server
	auth     *services.AuthService
	ledger   *services.LedgerService
	sessions *session.Manager
	decoder  *RequestDecoder
	logger   *applog.Logger
	events   *applog.StructuredLogger
	trace    *trace.Middleware
	detector *security.Detector
	ready    func(ctx context.Context) error
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and returns a server ready for
// ListenAndServe.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector, err := security.NewDetector(deps.TrustedProxies...)
	if err != nil {
		logger.Error("Ignoring invalid trusted proxies", applog.FieldError, err)
		detector, _ = security.NewDetector()
	}

	s := &Server{
		auth:     deps.Auth,
		ledger:   deps.Ledger,
		sessions: deps.Sessions,
		decoder:  NewRequestDecoder(),
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		trace:    trace.NewMiddleware(logger).WithClientIP(detector.ClientIP),
		detector: detector,
		ready:    deps.Ready,
		started:  time.Now(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.trace.Middleware)
	r.Use(trace.LoggerMiddleware(s.logger))
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.handleLogin)
		r.Post("/users", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Delete("/session", s.handleLogout)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(s.requireSession, requireRole(core.RoleUser))
			r.Get("/", s.handleMe)
			r.Get("/summary", s.handleSummary)
			r.Get("/stats", s.handleStats)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleAppendTransaction)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireSession, requireRole(core.RoleAdmin))
			r.Get("/users", s.handleListAccounts)
			r.Get("/transactions", s.handleAllTransactions)
			r.Get("/rollup", s.handleRollup)
		})
	})

	return r
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// TraceMetrics reports the request counters kept by the trace middleware.
func (s *Server) TraceMetrics() trace.Metrics {
	return s.trace.GetMetrics()
}
