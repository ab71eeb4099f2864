package aggregator

import (
	"math"
	"sort"
	"time"

	"github.com/RMahshie/kiwisnr/pkg/models"
	"github.com/rs/zerolog/log"
)

// Source records where the aggregated snapshots came from
type Source string

const (
	SourceLive  Source = "live"
	SourceLog   Source = "log"
	SourceEmpty Source = "empty"
)

// Result is a multi-band series aligned to a shared time axis.
// Every slice in Series has len(Times) entries; NaN marks a missing reading.
// Source is set by Aggregator and left blank by Reconstruct.
type Result struct {
	Times  []time.Time
	Series map[models.BandKey][]float64
	Bands  []models.BandKey
	Source Source
}

// Empty returns a Result with no data
func Empty() Result {
	return Result{
		Times:  []time.Time{},
		Series: map[models.BandKey][]float64{},
		Bands:  []models.BandKey{},
		Source: SourceEmpty,
	}
}

// Reconstruct aligns snapshots, in arrival order, to one time axis.
// A band first seen at index i gets i leading NaNs; a band missing from a
// later snapshot gets NaN at that index. Snapshots with an unparseable
// timestamp are dropped before they touch the axis.
func Reconstruct(snaps []models.Snapshot, loc *time.Location) Result {
	res := Result{
		Times:  []time.Time{},
		Series: map[models.BandKey][]float64{},
	}
	known := make(map[models.BandKey]struct{})

	for _, snap := range snaps {
		at, err := snap.Time(loc)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping snapshot with bad timestamp")
			continue
		}
		res.Times = append(res.Times, at)

		readings := snap.Readings()
		for key := range readings {
			if _, ok := known[key]; !ok {
				res.Series[key] = nanSlice(len(res.Times) - 1)
			}
		}

		for key := range res.Series {
			value, ok := readings[key]
			if !ok {
				value = math.NaN()
			}
			res.Series[key] = append(res.Series[key], value)
		}

		for key := range readings {
			known[key] = struct{}{}
		}
	}

	// Restore the length invariant should any series have fallen behind.
	for key, series := range res.Series {
		for len(series) < len(res.Times) {
			series = append(series, math.NaN())
		}
		res.Series[key] = series
	}

	res.Bands = SortBands(known)
	return res
}

// SortBands orders keys by lower band bound, then by key for equal bounds
func SortBands(keys map[models.BandKey]struct{}) []models.BandKey {
	bands := make([]models.BandKey, 0, len(keys))
	for key := range keys {
		bands = append(bands, key)
	}
	sort.Slice(bands, func(i, j int) bool {
		li, lj := bands[i].Low(), bands[j].Low()
		if li != lj {
			return li < lj
		}
		return bands[i] < bands[j]
	})
	return bands
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
