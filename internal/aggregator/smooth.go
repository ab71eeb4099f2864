package aggregator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// DefaultWindow is the moving-average width used for display
const DefaultWindow = 3

// Smooth returns the centered moving average of series with the same length.
// Windows are zero-padded past either end and always divided by window, so
// the edge samples average over fewer readings. A NaN inside a window makes
// that output NaN. window < 2 returns a copy.
func Smooth(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	if window < 2 {
		copy(out, series)
		return out
	}

	half := window / 2
	for i := range series {
		lo := max(i-half, 0)
		hi := min(i+window-half, len(series))
		out[i] = floats.Sum(series[lo:hi]) / float64(window)
	}
	return out
}

// Peak returns the index and value of the largest defined sample.
// Ties resolve to the earliest index; ok is false when every sample is NaN.
func Peak(series []float64) (idx int, value float64, ok bool) {
	idx = -1
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v > value {
			idx, value = i, v
		}
	}
	return idx, value, idx >= 0
}

// Stats summarises the defined samples of series; nil when there are none
func Stats(series []float64) *models.BandStats {
	defined := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return nil
	}

	mean, std := stat.MeanStdDev(defined, nil)
	if len(defined) < 2 {
		std = 0
	}
	return &models.BandStats{
		Count:  len(defined),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(defined),
		Max:    floats.Max(defined),
	}
}
