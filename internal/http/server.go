// Package http exposes the expense API over JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/notify"
)

// Expenses is the application surface the handlers drive.
type Expenses interface {
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, e core.Expense) (core.Expense, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (core.Expense, error)
	List(ctx context.Context) ([]core.Expense, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error)
	Total(ctx context.Context) (core.Money, error)
	DailyTotals(ctx context.Context, now time.Time, days int) ([]core.DailyTotal, error)
	Ping(ctx context.Context) error
}

// StatusBoard is the detector's status display.
type StatusBoard interface {
	Snapshot() notify.Snapshot
}

// DetectorState reports on the background detector.
type DetectorState interface {
	Count() int64
	IsRunning() bool
}

type Options struct {
	Logger             *applog.Logger
	Board              StatusBoard
	Detector           DetectorState
	RateLimitPerMinute int
	Location           *time.Location
	Now                func() time.Time
}

type Server struct {
	http.Server
	expenses    Expenses
	board       StatusBoard
	detector    DetectorState
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	loc         *time.Location
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, expenses Expenses, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		expenses:    expenses,
		board:       opts.Board,
		detector:    opts.Detector,
		logger:      opts.Logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		loc:         opts.Location,
		now:         opts.Now,
	}

	clientIP := security.NewClientIP()
	tracer := trace.NewMiddleware(opts.Logger, clientIP.Extract)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(tracer.Middleware)
	r.Use(headers.Middleware)
	r.Use(s.rateLimiter.Middleware(clientIP.Extract, s.handleRateLimited))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Delete("/", s.handleDeleteAllExpenses)
			r.Get("/export.xlsx", s.handleExportExpenses)

			r.Get("/{id}", s.handleGetExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})
		r.Get("/stats/categories", s.handleCategoryTotals)
		r.Get("/stats/total", s.handleTotal)
		r.Get("/stats/daily", s.handleDailyTotals)
		r.Get("/categories", handleCategories)
		r.Get("/status", s.handleStatus)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.expenses.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, please try again later"})
}
