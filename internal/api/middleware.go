package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nyashahama/management-diagnostic/internal/engine"
	"github.com/nyashahama/management-diagnostic/internal/session"
)

// ─── CONTEXT KEYS ─────────────────────────────────────────────────────────────

type contextKey string

const ctxKeySession contextKey = "session"

// ─── QUIZ AVAILABILITY ────────────────────────────────────────────────────────

// requireQuiz answers 503 on every route it guards when the quiz document
// failed to load. The body carries step "failed" so the browser can render
// the same error notice it shows for any other failed state.
func (s *Server) requireQuiz(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.quiz == nil {
			msg := "the assessment is unavailable"
			if s.loadErr != nil {
				msg += ": " + s.loadErr.Error()
			}
			respond(w, http.StatusServiceUnavailable, failedResponse{
				Error: msg,
				Step:  engine.StepFailed,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type failedResponse struct {
	Error string      `json:"error"`
	Step  engine.Step `json:"step"`
}

// ─── ANON TOKEN AUTH ──────────────────────────────────────────────────────────

// requireAnonToken is chi middleware that validates the X-Anon-Token header
// against the in-memory session named by the URL.
//
// The token is stored browser-side in sessionStorage and sent on every request
// to session-scoped routes. Browsers cannot set headers on a websocket
// handshake, so the token may also arrive as the "token" query parameter.
//
// On success, the verified *session.Session is stored in the request context
// for downstream handlers.
func (s *Server) requireAnonToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-Anon-Token"))
		if token == "" {
			token = strings.TrimSpace(r.URL.Query().Get("token"))
		}
		if token == "" {
			respondErr(w, http.StatusUnauthorized, "missing X-Anon-Token header")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			respondErr(w, http.StatusBadRequest, "invalid session_id")
			return
		}

		sess, err := s.sessions.Authorize(id, token)
		switch {
		case errors.Is(err, session.ErrNotFound):
			respondErr(w, http.StatusUnauthorized, "invalid or expired session")
			return
		case errors.Is(err, session.ErrTokenMismatch):
			respondErr(w, http.StatusForbidden, "token does not match session")
			return
		case err != nil:
			s.respondInternalErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session stored by requireAnonToken.
func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxKeySession).(*session.Session)
	return sess
}

// ─── CORS ─────────────────────────────────────────────────────────────────────

// corsMiddleware handles preflight OPTIONS requests and sets CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := "*"
		if s.cfg.Env != "production" {
			allowed = origin
		}

		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Anon-Token, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ─── LOGGER MIDDLEWARE ────────────────────────────────────────────────────────

// loggerMiddleware logs each request with method, path, status, and duration.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// ─── RESPONSE HELPERS ─────────────────────────────────────────────────────────

// respond writes a JSON body with the given status code.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondErr writes a standard JSON error envelope.
func respondErr(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

// respondInternalErr logs an unexpected error and returns a 500 to the client
// without leaking internal details.
func (s *Server) respondInternalErr(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error",
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	respondErr(w, http.StatusInternalServerError, "internal server error")
}

// logAndIgnoreEnqueueErr logs a failed lead hand-off without surfacing it to
// the caller. The respondent still sees their results.
func (s *Server) logAndIgnoreEnqueueErr(r *http.Request, err error, sessionID uuid.UUID) {
	if err == nil {
		return
	}
	s.logger.Error("lead enqueue failed",
		"session_id", sessionID,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)
}

// ─── REQUEST PARSING HELPERS ─────────────────────────────────────────────────

// decode JSON-decodes r.Body into dst. Returns false and writes 400 if the
// body is missing, malformed, or too large. Callers should return immediately
// on false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB max
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// logField returns a slog.Attr using the request ID for correlation.
func logField(r *http.Request) slog.Attr {
	return slog.String("request_id", middleware.GetReqID(r.Context()))
}