package chart_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/management-diagnostic/internal/chart"
	"github.com/nyashahama/management-diagnostic/internal/quiz"
)

type fakeVisual struct {
	id       int
	disposed int
}

func (v *fakeVisual) Payload() any { return v.id }
func (v *fakeVisual) Dispose()     { v.disposed++ }

type fakeRenderer struct {
	rendered []*fakeVisual
	err      error
}

func (r *fakeRenderer) Render(chart.Data) (chart.Visual, error) {
	if r.err != nil {
		return nil, r.err
	}
	v := &fakeVisual{id: len(r.rendered)}
	r.rendered = append(r.rendered, v)
	return v, nil
}

func sample() chart.Data {
	return chart.Data{Labels: []string{"A", "B"}, Values: []float64{4, 1}, Max: 4}
}

func TestFromScores_DocumentOrder(t *testing.T) {
	cats := []quiz.Category{{ID: "z", Name: "Zed"}, {ID: "a", Name: "Ay"}}
	d := chart.FromScores(cats, map[string]float64{"a": 2, "z": 3}, 4)

	assert.Equal(t, []string{"Zed", "Ay"}, d.Labels)
	assert.Equal(t, []float64{3, 2}, d.Values)
	assert.Equal(t, 4.0, d.Max)
}

func TestHolder_DisposesPreviousVisual(t *testing.T) {
	r := &fakeRenderer{}
	h := chart.NewHolder(r)

	first, err := h.Show(sample())
	require.NoError(t, err)
	second, err := h.Show(sample())
	require.NoError(t, err)

	require.Len(t, r.rendered, 2)
	assert.Equal(t, 1, r.rendered[0].disposed)
	assert.Equal(t, 0, r.rendered[1].disposed)
	assert.NotSame(t, first, second)
	assert.Same(t, second, h.Current())

	h.Reset()
	assert.Equal(t, 1, r.rendered[1].disposed)
	assert.Nil(t, h.Current())
	h.Reset()
	assert.Equal(t, 1, r.rendered[1].disposed)
}

func TestHolder_Errors(t *testing.T) {
	h := chart.NewHolder(&fakeRenderer{})
	_, err := h.Show(chart.Data{Max: 4})
	assert.ErrorIs(t, err, chart.ErrEmpty)

	boom := errors.New("boom")
	h = chart.NewHolder(&fakeRenderer{err: boom})
	_, err = h.Show(sample())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, h.Current())
}

func TestChartJSRenderer(t *testing.T) {
	v, err := chart.ChartJSRenderer{}.Render(chart.Data{
		Labels: []string{"Ops"}, Values: []float64{10}, Max: 20,
	})
	require.NoError(t, err)

	cfg, ok := v.Payload().(chart.ChartJSConfig)
	require.True(t, ok)
	assert.Equal(t, "radar", cfg.Type)
	assert.Equal(t, []string{"Ops"}, cfg.Data.Labels)
	require.Len(t, cfg.Data.Datasets, 1)
	assert.Equal(t, "Your Score", cfg.Data.Datasets[0].Label)
	assert.Equal(t, []float64{10}, cfg.Data.Datasets[0].Data)
	assert.Equal(t, 20.0, cfg.Options.Scales.R.Max)
	assert.Equal(t, 5.0, cfg.Options.Scales.R.Ticks.StepSize)
	assert.False(t, cfg.Options.Plugins.Legend.Display)

	v.Dispose()
	v.Dispose()
	assert.Nil(t, v.Payload())
}

func TestChartJSRenderer_RejectsBadData(t *testing.T) {
	_, err := chart.ChartJSRenderer{}.Render(chart.Data{Labels: []string{"a"}, Values: []float64{1, 2}, Max: 4})
	assert.Error(t, err)
	_, err = chart.ChartJSRenderer{}.Render(chart.Data{Labels: []string{"a"}, Values: []float64{1}})
	assert.Error(t, err)
}
