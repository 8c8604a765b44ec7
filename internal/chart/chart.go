// Package chart turns category scores into radar chart payloads. The core
// only produces Data; a Renderer decides what the drawing target receives.
package chart

import (
	"errors"
	"sync"

	"github.com/nyashahama/management-diagnostic/internal/quiz"
)

// ErrEmpty is returned when there is nothing to plot.
var ErrEmpty = errors.New("chart: no data points")

// Data is the renderer-agnostic radar input: one axis per category in
// document order, all on a shared 0..Max scale.
type Data struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Max    float64   `json:"max"`
}

// FromScores builds chart data for the categories in document order.
// Categories missing from scores plot as 0.
func FromScores(categories []quiz.Category, scores map[string]float64, scaleMax float64) Data {
	d := Data{
		Labels: make([]string, len(categories)),
		Values: make([]float64, len(categories)),
		Max:    scaleMax,
	}
	for i, c := range categories {
		d.Labels[i] = c.Name
		d.Values[i] = scores[c.ID]
	}
	return d
}

// Visual is a rendered chart. Dispose releases whatever the renderer holds
// for it and must be safe to call more than once.
type Visual interface {
	Payload() any
	Dispose()
}

// Renderer draws Data into a Visual.
type Renderer interface {
	Render(d Data) (Visual, error)
}

// Holder keeps at most one live Visual. Showing a new chart disposes the
// previous one first, so a retake never stacks charts on the same target.
type Holder struct {
	renderer Renderer

	mu      sync.Mutex
	current Visual
}

// NewHolder returns a Holder drawing with r.
func NewHolder(r Renderer) *Holder {
	return &Holder{renderer: r}
}

// Show disposes the current visual, if any, and renders d.
func (h *Holder) Show(d Data) (Visual, error) {
	if len(d.Values) == 0 {
		return nil, ErrEmpty
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.current.Dispose()
		h.current = nil
	}
	v, err := h.renderer.Render(d)
	if err != nil {
		return nil, err
	}
	h.current = v
	return v, nil
}

// Current returns the live visual or nil.
func (h *Holder) Current() Visual {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Reset disposes the live visual.
func (h *Holder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		h.current.Dispose()
		h.current = nil
	}
}
