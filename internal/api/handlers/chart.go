package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/kiwisnr/internal/dashboard"
)

// ChartRenderer draws the current dashboard frame
type ChartRenderer interface {
	RenderChart(w io.Writer, format dashboard.ChartFormat, opts dashboard.ChartOptions) error
}

var chartContentTypes = map[dashboard.ChartFormat]string{
	dashboard.ChartPNG: "image/png",
	dashboard.ChartSVG: "image/svg+xml",
}

// ChartHandler serves the chart image. width and height query parameters resize it.
func ChartHandler(r ChartRenderer, format dashboard.ChartFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		opts := dashboard.ChartOptions{
			Width:  queryInt(req, "width", 200, 4000),
			Height: queryInt(req, "height", 100, 3000),
		}

		var buf bytes.Buffer
		if err := r.RenderChart(&buf, format, opts); err != nil {
			log.Error().Err(err).Str("format", string(format)).Msg("Failed to render chart")
			http.Error(w, "Failed to render chart", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", chartContentTypes[format])
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}

// queryInt returns the named query parameter clamped to [lo, hi], or 0 when absent or invalid
func queryInt(req *http.Request, name string, lo, hi int) int {
	v, err := strconv.Atoi(req.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return 0
	}
	return min(max(v, lo), hi)
}
