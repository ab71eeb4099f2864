package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/RMahshie/kiwisnr/internal/aggregator"
	"github.com/RMahshie/kiwisnr/pkg/models"
)

// Frame is one render-ready aggregation: raw and smoothed series, labels and peaks
type Frame struct {
	GeneratedAt time.Time
	Result      aggregator.Result
	Smoothed    map[models.BandKey][]float64
	Labels      map[models.BandKey]string
	Peaks       map[models.BandKey]models.BandPeak
	Stats       map[models.BandKey]*models.BandStats
}

// BuildFrame smooths every series of res and locates its peak
func BuildFrame(res aggregator.Result, window int, names models.BandNames, now time.Time) *Frame {
	f := &Frame{
		GeneratedAt: now,
		Result:      res,
		Smoothed:    make(map[models.BandKey][]float64, len(res.Bands)),
		Labels:      make(map[models.BandKey]string, len(res.Bands)),
		Peaks:       make(map[models.BandKey]models.BandPeak, len(res.Bands)),
		Stats:       make(map[models.BandKey]*models.BandStats, len(res.Bands)),
	}

	for _, band := range res.Bands {
		smoothed := aggregator.Smooth(res.Series[band], window)
		f.Smoothed[band] = smoothed
		f.Labels[band] = band.Label(names)
		f.Stats[band] = aggregator.Stats(res.Series[band])
		if idx, v, ok := aggregator.Peak(smoothed); ok {
			f.Peaks[band] = models.BandPeak{
				Index: idx,
				Time:  res.Times[idx],
				Value: v,
				Text:  fmt.Sprintf("%.0f dB", v),
			}
		}
	}
	return f
}

// Bounds returns the earliest and latest timestamps on the time axis.
// The axis keeps the receiver's order, which is not guaranteed to be sorted.
func (f *Frame) Bounds() (start, end time.Time, ok bool) {
	times := f.Result.Times
	if len(times) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}
	return start, end, true
}

// Body converts the frame to its API representation using view for visibility
func (f *Frame) Body(view *View) models.SeriesBody {
	body := models.SeriesBody{
		GeneratedAt: f.GeneratedAt,
		Source:      string(f.Result.Source),
		Times:       f.Result.Times,
		Bands:       make([]models.BandSeries, 0, len(f.Result.Bands)),
	}
	if start, end, ok := f.Bounds(); ok {
		body.Start, body.End = &start, &end
	}

	for _, band := range f.Result.Bands {
		series := models.BandSeries{
			BandInfo: models.BandInfo{
				Key:     string(band),
				Label:   f.Labels[band],
				Visible: view.Visible(band),
			},
			Values:   nullable(f.Result.Series[band]),
			Smoothed: nullable(f.Smoothed[band]),
			Stats:    f.Stats[band],
		}
		if peak, ok := f.Peaks[band]; ok {
			series.Peak = &peak
		}
		body.Bands = append(body.Bands, series)
	}
	return body
}

// nullable maps NaN to nil so the series survives JSON encoding
func nullable(series []float64) []*float64 {
	out := make([]*float64, len(series))
	for i, v := range series {
		if !math.IsNaN(v) {
			out[i] = &v
		}
	}
	return out
}
