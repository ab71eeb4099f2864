package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/RMahshie/kiwisnr/internal/aggregator"
	"github.com/RMahshie/kiwisnr/pkg/models"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderChartFormats(t *testing.T) {
	f := BuildFrame(testResult(), 3, models.DefaultBandNames(), t0)
	view := NewView()
	view.Sync(f.Result.Bands)

	tests := []struct {
		name   string
		format ChartFormat
		check  func(t *testing.T, out []byte)
	}{
		{
			name:   "png",
			format: ChartPNG,
			check: func(t *testing.T, out []byte) {
				assert.True(t, bytes.HasPrefix(out, pngMagic))
			},
		},
		{
			name:   "svg",
			format: ChartSVG,
			check: func(t *testing.T, out []byte) {
				assert.Contains(t, string(out), "<svg")
				assert.Contains(t, string(out), "7000-7300 kHz (40 m)")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderChart(&buf, f, view, tt.format, ChartOptions{}))
			tt.check(t, buf.Bytes())
		})
	}
}

func TestRenderChartUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, BuildFrame(testResult(), 3, nil, t0), NewView(), "gif", ChartOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRenderChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, BuildFrame(aggregator.Empty(), 3, nil, t0), NewView(), ChartPNG, ChartOptions{Width: 400, Height: 200})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderChartAllHidden(t *testing.T) {
	f := BuildFrame(testResult(), 3, nil, t0)
	view := NewView()
	view.Sync(f.Result.Bands)
	view.HideAll()

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, f, view, ChartSVG, ChartOptions{}))
	assert.NotContains(t, buf.String(), "7000-7300 kHz")
}

func TestBuildChartSeries(t *testing.T) {
	f := BuildFrame(testResult(), 1, models.DefaultBandNames(), t0)
	view := NewView()
	view.Sync(f.Result.Bands)
	_, err := view.Toggle(band40)
	require.NoError(t, err)

	ch := buildChart(f, view)

	// band20 plus its peak annotation
	require.Len(t, ch.Series, 2)
	ts, ok := ch.Series[0].(chart.TimeSeries)
	require.True(t, ok)
	assert.Equal(t, "14000-14350 kHz (20 m)", ts.Name)
	// Single defined sample is padded to two points
	assert.Len(t, ts.XValues, 2)
	assert.Equal(t, []float64{12, 12}, ts.YValues)

	ann, ok := ch.Series[1].(chart.AnnotationSeries)
	require.True(t, ok)
	require.Len(t, ann.Annotations, 1)
	assert.Equal(t, "12 dB", ann.Annotations[0].Label)

	xr, ok := ch.XAxis.Range.(*chart.ContinuousRange)
	require.True(t, ok)
	assert.Equal(t, chart.TimeToFloat64(t0), xr.Min)
	assert.Equal(t, chart.TimeToFloat64(t0.Add(2*time.Minute)), xr.Max)
}

func TestBuildChartUnorderedTimes(t *testing.T) {
	res := aggregator.Result{
		Times: []time.Time{t0.Add(2 * time.Minute), t0, t0.Add(5 * time.Minute)},
		Series: map[models.BandKey][]float64{
			band40: {3, 9, 6},
		},
		Bands:  []models.BandKey{band40},
		Source: aggregator.SourceLog,
	}
	f := BuildFrame(res, 1, nil, t0)

	start, end, ok := f.Bounds()
	require.True(t, ok)
	assert.Equal(t, t0, start)
	assert.Equal(t, t0.Add(5*time.Minute), end)
	assert.Equal(t, res.Times, f.Result.Times)

	xr, ok := buildChart(f, NewView()).XAxis.Range.(*chart.ContinuousRange)
	require.True(t, ok)
	assert.Equal(t, chart.TimeToFloat64(t0), xr.Min)
	assert.Equal(t, chart.TimeToFloat64(t0.Add(5*time.Minute)), xr.Max)
}
