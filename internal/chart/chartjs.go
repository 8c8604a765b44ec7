package chart

import (
	"fmt"
	"sync/atomic"
)

// Colours of the results page theme.
const (
	accent      = "#06b6d4"
	accentFill  = "rgba(6, 182, 212, 0.15)"
	gridLine    = "rgba(51, 65, 85, 0.5)"
	tickColour  = "#64748b"
	labelColour = "#e2e8f0"
)

// ChartJSRenderer emits a Chart.js radar configuration the browser passes
// straight to `new Chart(ctx, config)`.
type ChartJSRenderer struct {
	// DatasetLabel is the legend label of the single dataset.
	DatasetLabel string
}

// ChartJSConfig is the subset of the Chart.js config the results page uses.
type ChartJSConfig struct {
	Type    string         `json:"type"`
	Data    chartJSData    `json:"data"`
	Options chartJSOptions `json:"options"`
}

type chartJSData struct {
	Labels   []string         `json:"labels"`
	Datasets []chartJSDataset `json:"datasets"`
}

type chartJSDataset struct {
	Label                string    `json:"label"`
	Data                 []float64 `json:"data"`
	BackgroundColor      string    `json:"backgroundColor"`
	BorderColor          string    `json:"borderColor"`
	BorderWidth          int       `json:"borderWidth"`
	PointBackgroundColor string    `json:"pointBackgroundColor"`
	PointRadius          int       `json:"pointRadius"`
	PointHoverRadius     int       `json:"pointHoverRadius"`
}

type chartJSOptions struct {
	Responsive bool `json:"responsive"`
	Scales     struct {
		R chartJSRadialScale `json:"r"`
	} `json:"scales"`
	Plugins struct {
		Legend struct {
			Display bool `json:"display"`
		} `json:"legend"`
	} `json:"plugins"`
}

type chartJSRadialScale struct {
	BeginAtZero bool    `json:"beginAtZero"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Ticks       struct {
		StepSize      float64 `json:"stepSize"`
		Color         string  `json:"color"`
		BackdropColor string  `json:"backdropColor"`
	} `json:"ticks"`
	Grid struct {
		Color string `json:"color"`
	} `json:"grid"`
	AngleLines struct {
		Color string `json:"color"`
	} `json:"angleLines"`
	PointLabels struct {
		Color string `json:"color"`
	} `json:"pointLabels"`
}

// Render builds the config. The scale step is a quarter of Max so binary
// (0–20) and weighted (0–4) charts both get four rings.
func (r ChartJSRenderer) Render(d Data) (Visual, error) {
	if len(d.Labels) != len(d.Values) {
		return nil, fmt.Errorf("chart: %d labels for %d values", len(d.Labels), len(d.Values))
	}
	if d.Max <= 0 {
		return nil, fmt.Errorf("chart: max must be positive, got %v", d.Max)
	}

	label := r.DatasetLabel
	if label == "" {
		label = "Your Score"
	}

	cfg := ChartJSConfig{
		Type: "radar",
		Data: chartJSData{
			Labels: append([]string(nil), d.Labels...),
			Datasets: []chartJSDataset{{
				Label:                label,
				Data:                 append([]float64(nil), d.Values...),
				BackgroundColor:      accentFill,
				BorderColor:          accent,
				BorderWidth:          2,
				PointBackgroundColor: accent,
				PointRadius:          5,
				PointHoverRadius:     7,
			}},
		},
	}
	cfg.Options.Responsive = true
	scale := &cfg.Options.Scales.R
	scale.BeginAtZero = true
	scale.Max = d.Max
	scale.Ticks.StepSize = d.Max / 4
	scale.Ticks.Color = tickColour
	scale.Ticks.BackdropColor = "transparent"
	scale.Grid.Color = gridLine
	scale.AngleLines.Color = gridLine
	scale.PointLabels.Color = labelColour

	return &chartJSVisual{config: cfg}, nil
}

type chartJSVisual struct {
	config   ChartJSConfig
	disposed atomic.Bool
}

// Payload returns the ChartJSConfig, or nil once disposed.
func (v *chartJSVisual) Payload() any {
	if v.disposed.Load() {
		return nil
	}
	return v.config
}

func (v *chartJSVisual) Dispose() { v.disposed.Store(true) }
