package api

import (
	"fmt"
	"net/http"

	"github.com/nyashahama/management-diagnostic/internal/chart"
	"github.com/nyashahama/management-diagnostic/internal/engine"
	"github.com/nyashahama/management-diagnostic/internal/lead"
)

// ─── POST /api/session ────────────────────────────────────────────────────────

type createSessionResponse struct {
	SessionID string      `json:"session_id"`
	AnonToken string      `json:"anon_token"`
	View      engine.View `json:"view"`
}

// handleCreateSession starts an anonymous session for a new visitor.
// Called once when the assessment page first loads.
//
// The anon_token is returned to the browser and stored in sessionStorage.
// It is sent as X-Anon-Token on all subsequent session-scoped requests.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create session: %w", err))
		return
	}

	var view engine.View
	sess.Do(func(e *engine.Engine, _ *chart.Holder) { view = e.View() })

	respond(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID.String(),
		AnonToken: sess.AnonToken,
		View:      view,
	})
}

// ─── GET /api/session/:sessionID ──────────────────────────────────────────────

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	var view engine.View
	sessionFrom(r).Do(func(e *engine.Engine, _ *chart.Holder) { view = e.View() })
	respond(w, http.StatusOK, view)
}

// ─── ACTIONS ──────────────────────────────────────────────────────────────────
//
// Every action answers 200 with {applied, view}. A blocked transition is not
// an error: applied is false and the view shows the unchanged step.

type actionResponse struct {
	Applied bool        `json:"applied"`
	View    engine.View `json:"view"`
}

// act runs op against the session engine and writes the action response.
func (s *Server) act(w http.ResponseWriter, r *http.Request, op func(e *engine.Engine, c *chart.Holder) bool) {
	var resp actionResponse
	sessionFrom(r).Do(func(e *engine.Engine, c *chart.Holder) {
		resp.Applied = op(e, c)
		resp.View = e.View()
	})
	respond(w, http.StatusOK, resp)
}

// ─── PUT /api/session/:sessionID/intro ────────────────────────────────────────

type selectIntroRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleSelectIntro(w http.ResponseWriter, r *http.Request) {
	var req selectIntroRequest
	if !decode(w, r, &req) {
		return
	}
	// An empty or unknown field is a blocked selection like any other.
	s.act(w, r, func(e *engine.Engine, _ *chart.Holder) bool {
		return e.SelectIntroOption(req.Field, req.Value)
	})
}

// ─── POST /api/session/:sessionID/start ───────────────────────────────────────

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, func(e *engine.Engine, _ *chart.Holder) bool { return e.Start() })
}

// ─── POST /api/session/:sessionID/answer ──────────────────────────────────────

// answerRequest names the question the browser was showing. A double click
// that arrives after the engine already advanced is dropped instead of
// answering the next question.
type answerRequest struct {
	Index  *int `json:"index"`
	Option *int `json:"option"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Index == nil || req.Option == nil {
		respondErr(w, http.StatusBadRequest, "index and option are required")
		return
	}
	s.act(w, r, func(e *engine.Engine, _ *chart.Holder) bool {
		return e.AnswerQuestion(*req.Index, *req.Option)
	})
}

// ─── POST /api/session/:sessionID/back ────────────────────────────────────────

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, func(e *engine.Engine, _ *chart.Holder) bool { return e.Back() })
}

// ─── POST /api/session/:sessionID/lead ────────────────────────────────────────

type submitLeadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// handleSubmitLead stores the contact details and moves to the results step.
// The lead is handed to the background worker; a failed hand-off is logged
// and never blocks the results.
func (s *Server) handleSubmitLead(w http.ResponseWriter, r *http.Request) {
	var req submitLeadRequest
	if !decode(w, r, &req) {
		return
	}

	sess := sessionFrom(r)
	var (
		resp   actionResponse
		sub    lead.Submission
		queued bool
	)
	sess.Do(func(e *engine.Engine, _ *chart.Holder) {
		resp.Applied = e.SubmitLead(req.Name, req.Email, req.Company)
		resp.View = e.View()
		if !resp.Applied {
			return
		}
		if results, ok := e.Results(); ok {
			sub = lead.FromResults(sess.ID, results, s.now())
			queued = true
		}
	})

	if queued {
		err := s.leads.Enqueue(r.Context(), sub)
		s.logAndIgnoreEnqueueErr(r, err, sess.ID)
		if err == nil {
			s.logger.Info("lead queued", "session_id", sess.ID, "lead_id", sub.ID, logField(r))
		}
	}

	respond(w, http.StatusOK, resp)
}

// ─── POST /api/session/:sessionID/retake ──────────────────────────────────────

func (s *Server) handleRetake(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, func(e *engine.Engine, c *chart.Holder) bool {
		c.Reset()
		return e.Retake()
	})
}
