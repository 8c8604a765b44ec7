package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nyashahama/management-diagnostic/internal/chart"
	"github.com/nyashahama/management-diagnostic/internal/engine"
	"github.com/nyashahama/management-diagnostic/internal/quiz"
)

// ─── GET /api/quiz ────────────────────────────────────────────────────────────

type categorySummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Icon          string `json:"icon"`
	QuestionCount int    `json:"questionCount"`
}

type quizSummaryResponse struct {
	Variant         quiz.Variant      `json:"variant"`
	Categories      []categorySummary `json:"categories"`
	TeamSizeOptions []string          `json:"teamSizeOptions"`
	BusinessInfo    []quiz.InfoField  `json:"businessInfo"`
	TotalQuestions  int               `json:"totalQuestions"`
	CTAURL          string            `json:"ctaUrl"`
}

// handleGetQuiz returns what the intro screen needs. Question text and
// result copy stay behind the session routes.
func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	cats := s.quiz.Categories()
	resp := quizSummaryResponse{
		Variant:         s.quiz.Variant(),
		Categories:      make([]categorySummary, len(cats)),
		TeamSizeOptions: s.quiz.Settings().TeamSizeOptions,
		BusinessInfo:    s.quiz.BusinessInfo(),
		TotalQuestions:  s.quiz.TotalQuestions(),
		CTAURL:          s.quiz.CTAURL(),
	}
	for i, c := range cats {
		resp.Categories[i] = categorySummary{ID: c.ID, Name: c.Name, Icon: c.Icon, QuestionCount: len(c.Questions)}
	}
	if resp.TeamSizeOptions == nil {
		resp.TeamSizeOptions = []string{}
	}
	if resp.BusinessInfo == nil {
		resp.BusinessInfo = []quiz.InfoField{}
	}
	respond(w, http.StatusOK, resp)
}

// ─── GET /api/session/:sessionID/results ──────────────────────────────────────

// handleGetResults returns the scored outcome. Before the email gate is
// passed it answers 409 with the current step.
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	var (
		results engine.Results
		step    engine.Step
		ok      bool
	)
	sessionFrom(r).Do(func(e *engine.Engine, _ *chart.Holder) {
		results, ok = e.Results()
		step = e.Step()
	})
	if !ok {
		respondNotAtResults(w, step)
		return
	}
	respond(w, http.StatusOK, results)
}

// ─── GET /api/session/:sessionID/chart ────────────────────────────────────────

// handleGetChart renders the radar chart for the results step. Each call
// replaces the session's previous visual.
func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	var (
		payload any
		step    engine.Step
		ok      bool
		err     error
	)
	sessionFrom(r).Do(func(e *engine.Engine, c *chart.Holder) {
		step = e.Step()
		var results engine.Results
		if results, ok = e.Results(); !ok {
			return
		}
		data := chart.FromScores(e.Quiz().Categories(), results.Scores, e.Variant().CategoryMax())
		var v chart.Visual
		if v, err = c.Show(data); err == nil {
			payload = v.Payload()
		}
	})

	switch {
	case !ok:
		respondNotAtResults(w, step)
	case errors.Is(err, chart.ErrEmpty):
		respondErr(w, http.StatusUnprocessableEntity, "nothing to chart")
	case err != nil:
		s.respondInternalErr(w, r, fmt.Errorf("render chart: %w", err))
	default:
		respond(w, http.StatusOK, payload)
	}
}

func respondNotAtResults(w http.ResponseWriter, step engine.Step) {
	respond(w, http.StatusConflict, map[string]string{
		"error": "results are available after the email step",
		"step":  string(step),
	})
}
