// Package api implements the HTTP layer for the Management Diagnostic.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/management-diagnostic/internal/quiz"
	"github.com/nyashahama/management-diagnostic/internal/session"
	"github.com/nyashahama/management-diagnostic/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// quiz is nil when the document failed to load; loadErr says why.
	quiz    *quiz.Quiz
	loadErr error

	// sessions owns one engine per visitor. nil when quiz is nil.
	sessions *session.Registry

	// leads receives a submission each time a session reaches the results
	// step. Delivery happens in the background.
	leads worker.Enqueuer

	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to an http.Server.
//
// When loadErr is non-nil the server still starts: every /api route answers
// 503 with step "failed" so the browser can show the error notice.
func NewServer(
	q *quiz.Quiz,
	loadErr error,
	sessions *session.Registry,
	leads worker.Enqueuer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		quiz:     q,
		loadErr:  loadErr,
		sessions: sessions,
		leads:    leads,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", s.handleReady)

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireQuiz)

		// The event stream is long-lived and must not inherit the timeout.
		r.With(s.requireAnonToken).Get("/session/{sessionID}/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/quiz", s.handleGetQuiz)

			// Anonymous session creation.
			r.Post("/session", s.handleCreateSession)

			// Session-scoped routes need a valid X-Anon-Token header.
			r.Route("/session/{sessionID}", func(r chi.Router) {
				r.Use(s.requireAnonToken)
				r.Get("/", s.handleGetView)
				r.Put("/intro", s.handleSelectIntro)
				r.Post("/start", s.handleStart)
				r.Post("/answer", s.handleAnswer)
				r.Post("/back", s.handleBack)
				r.Post("/lead", s.handleSubmitLead)
				r.Post("/retake", s.handleRetake)
				r.Get("/results", s.handleGetResults)
				r.Get("/chart", s.handleGetChart)
			})
		})
	})

	return r
}

// handleReady reports whether the quiz document loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.quiz == nil {
		respond(w, http.StatusServiceUnavailable, map[string]string{"status": "failed"})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
