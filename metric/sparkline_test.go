package metric

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparkline_Normalization(t *testing.T) {
	tracker, err := NewTracker(100)
	require.NoError(t, err)

	tracker.Track("Power", "#", "W")
	for _, v := range []float64{100, 150, 200} {
		tracker.Process("t", []byte(fmt.Sprintf(`{"W": %v}`, v)))
	}

	m, _ := tracker.Metric("Power")
	data := m.Sparkline(10)

	require.Len(t, data, 3)
	assert.InDelta(t, 0.0, data[0], 1e-9)
	assert.InDelta(t, 0.5, data[1], 1e-9)
	assert.InDelta(t, 1.0, data[2], 1e-9)
}

func TestSparkline_ConstantSeriesIsZero(t *testing.T) {
	tracker, err := NewTracker(100)
	require.NoError(t, err)

	tracker.Track("Flat", "#", "W")
	for i := 0; i < 4; i++ {
		tracker.Process("t", []byte(`{"W": 7}`))
	}

	m, _ := tracker.Metric("Flat")
	data := m.Sparkline(4)
	for _, v := range data {
		assert.Zero(t, v)
	}
}

func TestSparkline_SubsamplesLongSeries(t *testing.T) {
	tracker, err := NewTracker(100)
	require.NoError(t, err)

	tracker.Track("Power", "#", "W")
	for i := 0; i < 40; i++ {
		tracker.Process("t", []byte(fmt.Sprintf(`{"W": %d}`, i)))
	}

	m, _ := tracker.Metric("Power")
	data := m.Sparkline(10)
	assert.LessOrEqual(t, len(data), 10)
	for _, v := range data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSparkline_EmptySeries(t *testing.T) {
	tracker, err := NewTracker(100)
	require.NoError(t, err)

	tracker.Track("Empty", "#", "W")
	m, _ := tracker.Metric("Empty")

	assert.Nil(t, m.Sparkline(8))

	tracker.Process("t", []byte(`{"W": 7}`))
	assert.Nil(t, m.Sparkline(0), "non-positive width yields no samples")
	assert.Len(t, m.Sparkline(8), 1)
}

func TestRenderSparkline(t *testing.T) {
	out := RenderSparkline([]float64{0, 0.25, 0.5, 0.75, 1}, 5)
	assert.Equal(t, 5, len([]rune(out)))
	assert.Equal(t, '▁', []rune(out)[0])
	assert.Equal(t, '█', []rune(out)[4])
}

func TestRenderSparkline_PadsAndClamps(t *testing.T) {
	out := RenderSparkline([]float64{-1, 2}, 4)
	runes := []rune(out)
	require.Len(t, runes, 4)
	assert.Equal(t, '▁', runes[0]) // clamped low
	assert.Equal(t, '█', runes[1]) // clamped high
	assert.Equal(t, '─', runes[2])
	assert.Equal(t, '─', runes[3])

	assert.Equal(t, "────", RenderSparkline(nil, 4))
}
