package aggregator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothPreservesLength(t *testing.T) {
	for n := 0; n <= 7; n++ {
		series := make([]float64, n)
		for i := range series {
			series[i] = float64(i)
		}
		for _, window := range []int{1, 3, 5, 9} {
			assert.Len(t, Smooth(series, window), n, "n=%d window=%d", n, window)
		}
	}
}

func TestSmoothValues(t *testing.T) {
	got := Smooth([]float64{3, 6, 9, 12}, 3)
	assertSeries(t, []float64{3, 6, 9, 7}, got)

	assertSeries(t, []float64{-4}, Smooth([]float64{-12}, 3))
}

func TestSmoothPropagatesNaN(t *testing.T) {
	got := Smooth([]float64{math.NaN(), 3, 3, 3, 3}, 3)
	assertSeries(t, []float64{math.NaN(), math.NaN(), 3, 3, 2}, got)
}

func TestSmoothDoesNotMutateInput(t *testing.T) {
	in := []float64{1, 2, 3}
	_ = Smooth(in, 3)
	assert.Equal(t, []float64{1, 2, 3}, in)

	out := Smooth(in, 1)
	out[0] = 42
	assert.Equal(t, 1.0, in[0])
}

func TestPeak(t *testing.T) {
	idx, v, ok := Peak([]float64{math.NaN(), 2, 9, math.NaN(), 9, 1})
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 9.0, v)

	idx, v, ok = Peak([]float64{-20, -30})
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, -20.0, v)

	_, _, ok = Peak([]float64{math.NaN(), math.NaN()})
	assert.False(t, ok)

	_, _, ok = Peak(nil)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	s := Stats([]float64{2, math.NaN(), 4, 6})
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 4.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.StdDev, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 6.0, s.Max)

	single := Stats([]float64{math.NaN(), -7})
	require.NotNil(t, single)
	assert.Equal(t, 0.0, single.StdDev)

	assert.Nil(t, Stats([]float64{math.NaN()}))
	assert.Nil(t, Stats(nil))
}
