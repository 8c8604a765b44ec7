// Package session keeps the live assessment sessions in memory. Each session
// owns one engine and one chart holder; all access to them goes through
// Session.Do, which serialises operations per session.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/management-diagnostic/internal/chart"
	"github.com/nyashahama/management-diagnostic/internal/engine"
	"github.com/nyashahama/management-diagnostic/internal/quiz"
)

var (
	// ErrNotFound is returned for unknown or evicted sessions.
	ErrNotFound = errors.New("session: not found")

	// ErrTokenMismatch is returned when the anon token does not belong to
	// the session.
	ErrTokenMismatch = errors.New("session: token does not match")
)

// Session is one respondent's live assessment.
type Session struct {
	ID        uuid.UUID
	AnonToken string
	CreatedAt time.Time

	mu       sync.Mutex
	engine   *engine.Engine
	chart    *chart.Holder
	lastSeen time.Time
	watchers int
}

// Do runs fn with exclusive access to the session's engine and chart.
func (s *Session) Do(fn func(e *engine.Engine, c *chart.Holder)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine, s.chart)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleBefore reports whether the session has been unused since cutoff. A
// session with an open event stream is never idle.
func (s *Session) idleBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchers == 0 && s.lastSeen.Before(cutoff)
}

// Registry creates, finds and evicts sessions.
type Registry struct {
	quiz     *quiz.Quiz
	renderer chart.Renderer
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry returns an empty registry. Sessions idle for longer than ttl
// are removed by Sweep.
func NewRegistry(q *quiz.Quiz, renderer chart.Renderer, ttl time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		quiz:     q,
		renderer: renderer,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// SetClock overrides the time source. Tests only.
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

// Create starts a new session with a fresh engine and a random anon token.
func (r *Registry) Create() (*Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("session: generate anon token: %w", err)
	}

	now := r.now()
	s := &Session{
		ID:        uuid.New(),
		AnonToken: hex.EncodeToString(tokenBytes),
		CreatedAt: now,
		engine:    engine.New(r.quiz),
		chart:     chart.NewHolder(r.renderer),
		lastSeen:  now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("session: created", "session_id", s.ID)
	return s, nil
}

// Get returns the session and marks it as active.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(r.now())
	return s, nil
}

// Authorize returns the session when token is its anon token.
func (r *Registry) Authorize(id uuid.UUID, token string) (*Session, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(s.AnonToken), []byte(token)) != 1 {
		return nil, ErrTokenMismatch
	}
	return s, nil
}

// Watch marks s as observed by a live stream, keeping it out of Sweep until
// the returned release func is called. Release also counts as activity, so
// the idle clock restarts when the stream closes.
func (r *Registry) Watch(s *Session) (release func()) {
	s.mu.Lock()
	s.watchers++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.watchers--
			s.lastSeen = r.now()
			s.mu.Unlock()
		})
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleBefore(cutoff) {
			s.Do(func(_ *engine.Engine, c *chart.Holder) { c.Reset() })
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled. Call it in a goroutine.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("session: evicted idle sessions", "count", n, "live", r.Len())
			}
		}
	}
}
