// Package engine is the per-session assessment state machine. It walks a
// respondent through intro → questions → email → results, records answers
// against the flattened question list and hands scoring to the variant
// strategy. An Engine knows nothing about HTTP or rendering; callers drive
// it through its methods and read its views.
//
// An Engine is not safe for concurrent use. The session registry serialises
// access to each instance.
package engine

import (
	"slices"
	"strings"

	"github.com/nyashahama/management-diagnostic/internal/quiz"
	"github.com/nyashahama/management-diagnostic/internal/scoring"
)

// Step is a node of the navigation state machine.
type Step string

const (
	StepIntro     Step = "intro"
	StepQuestions Step = "questions"
	StepEmail     Step = "email"
	StepResults   Step = "results"

	// StepFailed is never held by an Engine. It is what callers report when
	// the quiz could not be loaded and no engine exists.
	StepFailed Step = "failed"
)

// noSelection marks an unanswered slot in State.Selected.
const noSelection = -1

// Lead is the respondent contact info captured at the email step.
type Lead struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// State is the complete session state. Answers and Selected have one slot
// per flattened question.
type State struct {
	Step         Step             `json:"step"`
	CurrentIndex int              `json:"currentIndex"`
	Answers      []scoring.Answer `json:"answers"`
	// Selected holds the chosen option index per question, -1 when unanswered.
	Selected []int             `json:"selected"`
	Lead     Lead              `json:"lead"`
	Intro    map[string]string `json:"intro"`
}

func (s State) clone() State {
	s.Answers = slices.Clone(s.Answers)
	s.Selected = slices.Clone(s.Selected)
	intro := make(map[string]string, len(s.Intro))
	for k, v := range s.Intro {
		intro[k] = v
	}
	s.Intro = intro
	return s
}

// Engine owns one respondent's progress through a quiz.
type Engine struct {
	quiz    *quiz.Quiz
	variant scoring.Variant
	flat    []quiz.FlatQuestion
	state   State

	subs    map[int]func(View)
	nextSub int
}

// New builds an engine in its initial state. The quiz is shared and never
// modified.
func New(q *quiz.Quiz) *Engine {
	e := &Engine{
		quiz:    q,
		variant: scoring.For(q),
		flat:    q.Flat(),
		subs:    make(map[int]func(View)),
	}
	e.state = e.initialState()
	return e
}

func (e *Engine) initialState() State {
	n := len(e.flat)
	s := State{
		Step:     StepIntro,
		Answers:  make([]scoring.Answer, n),
		Selected: make([]int, n),
		Intro:    map[string]string{},
	}
	for i, fq := range e.flat {
		s.Answers[i] = scoring.Answer{CategoryID: fq.CategoryID, QuestionIndex: fq.QuestionIndex}
		s.Selected[i] = noSelection
	}
	return s
}

// Quiz returns the configuration this engine runs.
func (e *Engine) Quiz() *quiz.Quiz { return e.quiz }

// Variant returns the scoring strategy in use.
func (e *Engine) Variant() scoring.Variant { return e.variant }

// ─── OPERATIONS ───────────────────────────────────────────────────────────────
//
// Every operation reports whether it was applied. A blocked operation leaves
// the state untouched.

// SelectIntroOption records an intro-step selection. fieldID is
// quiz.TeamSizeField or a business-info field id; value must be one of that
// field's option labels.
func (e *Engine) SelectIntroOption(fieldID, value string) bool {
	if e.state.Step != StepIntro || !e.validIntroOption(fieldID, value) {
		return false
	}
	e.state.Intro[fieldID] = value
	e.notify()
	return true
}

// Start leaves the intro once every intro field has a selection.
func (e *Engine) Start() bool {
	if e.state.Step != StepIntro || !e.canStart() {
		return false
	}
	e.state.Step = StepQuestions
	e.state.CurrentIndex = 0
	e.notify()
	return true
}

// AnswerCurrent records option for the current question and advances. On the
// last question it moves on to the email step.
func (e *Engine) AnswerCurrent(option int) bool {
	if e.state.Step != StepQuestions {
		return false
	}
	i := e.state.CurrentIndex
	fq := e.flat[i]
	if option < 0 || option >= len(fq.Options) {
		return false
	}

	e.state.Answers[i].Score = e.variant.ScoreOption(fq.Options[option])
	e.state.Answers[i].Answered = true
	e.state.Selected[i] = option

	if i < len(e.flat)-1 {
		e.state.CurrentIndex++
	} else {
		e.state.Step = StepEmail
	}
	e.notify()
	return true
}

// AnswerQuestion is AnswerCurrent guarded by the question index the caller
// was looking at. A repeated submission for a question the engine already
// advanced past is a harmless no-op.
func (e *Engine) AnswerQuestion(index, option int) bool {
	if e.state.Step != StepQuestions || index != e.state.CurrentIndex {
		return false
	}
	return e.AnswerCurrent(option)
}

// Back steps to the previous question. Stored answers are kept.
func (e *Engine) Back() bool {
	if e.state.Step != StepQuestions || e.state.CurrentIndex == 0 {
		return false
	}
	e.state.CurrentIndex--
	e.notify()
	return true
}

// SubmitLead stores the trimmed contact info and shows the results. All
// three fields must be non-empty after trimming; the email address is not
// otherwise checked.
func (e *Engine) SubmitLead(name, email, company string) bool {
	if e.state.Step != StepEmail {
		return false
	}
	lead := Lead{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Company: strings.TrimSpace(company),
	}
	if lead.Name == "" || lead.Email == "" || lead.Company == "" {
		return false
	}
	e.state.Lead = lead
	e.state.Step = StepResults
	e.notify()
	return true
}

// Retake resets the session to its initial state from any step.
func (e *Engine) Retake() bool {
	e.state = e.initialState()
	e.notify()
	return true
}

// Subscribe registers fn to receive a fresh View after every applied
// operation. fn runs synchronously on the caller's goroutine and must not
// call back into the engine. The returned func unregisters it.
func (e *Engine) Subscribe(fn func(View)) (cancel func()) {
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() { delete(e.subs, id) }
}

func (e *Engine) notify() {
	if len(e.subs) == 0 {
		return
	}
	v := e.View()
	for _, fn := range e.subs {
		fn(v)
	}
}

// ─── GUARDS ───────────────────────────────────────────────────────────────────

func (e *Engine) validIntroOption(fieldID, value string) bool {
	if fieldID == quiz.TeamSizeField {
		return slices.Contains(e.quiz.Settings().TeamSizeOptions, value)
	}
	for _, f := range e.quiz.BusinessInfo() {
		if f.ID != fieldID {
			continue
		}
		return slices.ContainsFunc(f.Options, func(o quiz.InfoOption) bool { return o.Text == value })
	}
	return false
}

// requiredIntroFields lists the intro field ids that must be selected before
// Start, in display order.
func (e *Engine) requiredIntroFields() []string {
	var ids []string
	if len(e.quiz.Settings().TeamSizeOptions) > 0 {
		ids = append(ids, quiz.TeamSizeField)
	}
	for _, f := range e.quiz.BusinessInfo() {
		ids = append(ids, f.ID)
	}
	return ids
}

func (e *Engine) canStart() bool {
	for _, id := range e.requiredIntroFields() {
		if _, ok := e.state.Intro[id]; !ok {
			return false
		}
	}
	return true
}
