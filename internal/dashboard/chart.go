package dashboard

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartFormat selects the image encoding
type ChartFormat string

const (
	ChartPNG ChartFormat = "png"
	ChartSVG ChartFormat = "svg"

	DefaultChartWidth  = 1200
	DefaultChartHeight = 600

	chartTitle = "KiwiSDR SNR (Real-Time)"
)

// ErrUnsupportedFormat is returned for chart formats other than png and svg
var ErrUnsupportedFormat = errors.New("unsupported chart format")

// ChartOptions sizes the rendered chart. Zero values use the defaults.
type ChartOptions struct {
	Width  int
	Height int
}

// RenderChart draws the visible smoothed series of frame as a time-series chart.
// An empty frame or a fully hidden view still renders axes and title.
func RenderChart(w io.Writer, frame *Frame, view *View, format ChartFormat, opts ChartOptions) error {
	var provider chart.RendererProvider
	switch format {
	case ChartPNG:
		provider = chart.PNG
	case ChartSVG:
		provider = chart.SVG
	default:
		return ErrUnsupportedFormat
	}

	if opts.Width <= 0 {
		opts.Width = DefaultChartWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultChartHeight
	}

	ch := buildChart(frame, view)
	ch.Width = opts.Width
	ch.Height = opts.Height
	return ch.Render(provider, w)
}

func buildChart(frame *Frame, view *View) chart.Chart {
	start, end, ok := frame.Bounds()
	if !ok {
		end = frame.GeneratedAt
		start = end.Add(-time.Hour)
	}
	minX, maxX := chart.TimeToFloat64(start), chart.TimeToFloat64(end)
	if maxX == minX {
		maxX = minX + float64(time.Minute)
	}
	loc := start.Location()

	var (
		series      []chart.Series
		annotations []chart.Value2
		minY        = math.Inf(1)
		maxY        = math.Inf(-1)
	)

	times := frame.Result.Times
	for i, band := range frame.Result.Bands {
		if !view.Visible(band) {
			continue
		}

		var xs []time.Time
		var ys []float64
		for j, v := range frame.Smoothed[band] {
			if math.IsNaN(v) {
				continue
			}
			xs = append(xs, times[j])
			ys = append(ys, v)
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
		if len(xs) == 0 {
			continue
		}
		// go-chart needs two points to draw a series
		if len(xs) == 1 {
			xs = append(xs, xs[0].Add(time.Second))
			ys = append(ys, ys[0])
		}

		col := chart.GetDefaultColor(i)
		series = append(series, chart.TimeSeries{
			Name:    frame.Labels[band],
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    2,
			},
		})

		if peak, ok := frame.Peaks[band]; ok {
			annotations = append(annotations, chart.Value2{
				XValue: chart.TimeToFloat64(peak.Time),
				YValue: peak.Value,
				Label:  peak.Text,
			})
		}
	}

	drawn := len(series) > 0
	if !drawn {
		// Transparent placeholder so axes and title still render
		minY, maxY = 0, 1
		series = append(series, chart.TimeSeries{
			XValues: []time.Time{start, end},
			YValues: []float64{0, 0},
			Style: chart.Style{
				StrokeColor: drawing.ColorTransparent,
				StrokeWidth: 0,
			},
		})
	}
	if len(annotations) > 0 {
		series = append(series, chart.AnnotationSeries{Annotations: annotations})
	}

	if maxY <= minY {
		minY, maxY = minY-1, maxY+1
	}
	pad := (maxY - minY) * 0.1

	ch := chart.Chart{
		Title:      chartTitle,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: chart.XAxis{
			Name:  "Time",
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return chart.TimeFromFloat64(f).In(loc).Format("01-02 15:04")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:  "SNR (dB)",
			Range: &chart.ContinuousRange{Min: minY - pad, Max: maxY + pad},
		},
		Series: series,
	}
	if drawn {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch
}
