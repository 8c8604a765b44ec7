package engine

import (
	"github.com/nyashahama/management-diagnostic/internal/quiz"
	"github.com/nyashahama/management-diagnostic/internal/scoring"
)

// OptionView is an answer choice as presented to the respondent.
type OptionView struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// QuestionView is the current question with any stored answer marked.
type QuestionView struct {
	Index        int          `json:"index"`
	Total        int          `json:"total"`
	CategoryID   string       `json:"categoryId"`
	CategoryName string       `json:"categoryName"`
	Text         string       `json:"text"`
	Options      []OptionView `json:"options"`
}

// View is everything a presentation layer needs to render the current step.
type View struct {
	Step     Step              `json:"step"`
	Progress float64           `json:"progress"`
	Question *QuestionView     `json:"question,omitempty"`
	Intro    map[string]string `json:"intro"`
	CanStart bool              `json:"canStart"`
	Lead     *Lead             `json:"lead,omitempty"`
}

// Results is the scored outcome shown at the results step.
type Results struct {
	scoring.Report

	Lead   Lead              `json:"lead"`
	Intro  map[string]string `json:"intro"`
	CTAURL string            `json:"ctaUrl"`

	// BusinessInfoScore is set only when the quiz opts in and at least one
	// selected business-info option carries a score.
	BusinessInfoScore *float64 `json:"businessInfoScore,omitempty"`
}

// Step returns the current step.
func (e *Engine) Step() Step { return e.state.Step }

// Progress is the completion fraction: 0 at intro, index/total while
// answering, 1 from the email step on.
func (e *Engine) Progress() float64 {
	switch e.state.Step {
	case StepQuestions:
		return float64(e.state.CurrentIndex) / float64(len(e.flat))
	case StepEmail, StepResults:
		return 1
	default:
		return 0
	}
}

// CurrentQuestion returns the question being answered. ok is false outside
// the questions step.
func (e *Engine) CurrentQuestion() (QuestionView, bool) {
	if e.state.Step != StepQuestions {
		return QuestionView{}, false
	}
	i := e.state.CurrentIndex
	fq := e.flat[i]
	opts := make([]OptionView, len(fq.Options))
	for oi, o := range fq.Options {
		opts[oi] = OptionView{Index: oi, Text: o.Text, Selected: e.state.Selected[i] == oi}
	}
	return QuestionView{
		Index:        i,
		Total:        len(e.flat),
		CategoryID:   fq.CategoryID,
		CategoryName: fq.CategoryName,
		Text:         fq.Text,
		Options:      opts,
	}, true
}

// View renders the current step.
func (e *Engine) View() View {
	s := e.state.clone()
	v := View{
		Step:     s.Step,
		Progress: e.Progress(),
		Intro:    s.Intro,
		CanStart: s.Step == StepIntro && e.canStart(),
	}
	if q, ok := e.CurrentQuestion(); ok {
		v.Question = &q
	}
	if s.Step == StepResults {
		v.Lead = &s.Lead
	}
	return v
}

// Snapshot returns a deep copy of the session state.
func (e *Engine) Snapshot() State { return e.state.clone() }

// Scores returns the current category scores. Unanswered questions are
// ignored, so this is meaningful at any step.
func (e *Engine) Scores() map[string]float64 {
	return scoring.ComputeScores(e.variant, e.quiz.Categories(), e.state.Answers)
}

// Results returns the scored outcome. ok is false before the results step.
func (e *Engine) Results() (Results, bool) {
	if e.state.Step != StepResults {
		return Results{}, false
	}
	s := e.state.clone()
	r := Results{
		Report: scoring.Evaluate(e.variant, e.quiz.Categories(), s.Answers),
		Lead:   s.Lead,
		Intro:  s.Intro,
		CTAURL: e.quiz.CTAURL(),
	}
	if e.quiz.Settings().IncludeBusinessInfoScores {
		if score, ok := scoring.BusinessInfoScore(e.selectedInfoOptions()); ok {
			r.BusinessInfoScore = &score
		}
	}
	return r, true
}

func (e *Engine) selectedInfoOptions() []quiz.InfoOption {
	var out []quiz.InfoOption
	for _, f := range e.quiz.BusinessInfo() {
		chosen, ok := e.state.Intro[f.ID]
		if !ok {
			continue
		}
		for _, o := range f.Options {
			if o.Text == chosen {
				out = append(out, o)
				break
			}
		}
	}
	return out
}
