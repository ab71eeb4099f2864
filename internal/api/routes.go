package api

import (
	_ "embed"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/RMahshie/kiwisnr/internal/api/handlers"
	"github.com/RMahshie/kiwisnr/internal/dashboard"
)

//go:embed static/index.html
var indexHTML []byte

// Dependencies are the components exposed over HTTP. Live and Metrics may be nil.
type Dependencies struct {
	Endpoint string
	Monitor  *handlers.MonitorHandler
	Charts   handlers.ChartRenderer
	Live     http.Handler // websocket hub
	Metrics  http.Handler // Prometheus exposition
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(router chi.Router, api huma.API, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Endpoint)
	monitorHandler := deps.Monitor

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, healthHandler.Health)

	// Series and bands
	huma.Register(api, huma.Operation{
		OperationID: "getSeries",
		Method:      http.MethodGet,
		Path:        "/api/series",
		Summary:     "Get SNR series",
		Description: "Returns the aligned raw and smoothed SNR series per band with peaks and visibility",
		Tags:        []string{"Series"},
	}, monitorHandler.GetSeries)

	huma.Register(api, huma.Operation{
		OperationID: "listBands",
		Method:      http.MethodGet,
		Path:        "/api/bands",
		Summary:     "List bands",
		Description: "Returns known bands ordered by lower bound with their labels and visibility",
		Tags:        []string{"Bands"},
	}, monitorHandler.ListBands)

	huma.Register(api, huma.Operation{
		OperationID: "toggleBand",
		Method:      http.MethodPost,
		Path:        "/api/bands/{key}/toggle",
		Summary:     "Toggle band visibility",
		Description: "Shows a hidden band or hides a visible one",
		Tags:        []string{"Bands"},
	}, monitorHandler.ToggleBand)

	huma.Register(api, huma.Operation{
		OperationID: "showAllBands",
		Method:      http.MethodPost,
		Path:        "/api/bands/show-all",
		Summary:     "Show all bands",
		Tags:        []string{"Bands"},
	}, monitorHandler.ShowAllBands)

	huma.Register(api, huma.Operation{
		OperationID: "hideAllBands",
		Method:      http.MethodPost,
		Path:        "/api/bands/hide-all",
		Summary:     "Hide all bands",
		Tags:        []string{"Bands"},
	}, monitorHandler.HideAllBands)

	// Collector
	huma.Register(api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/refresh",
		Summary:     "Re-aggregate now",
		Description: "Rebuilds the series from the latest snapshot or the log",
		Tags:        []string{"Collector"},
	}, monitorHandler.Refresh)

	huma.Register(api, huma.Operation{
		OperationID: "poll",
		Method:      http.MethodPost,
		Path:        "/api/poll",
		Summary:     "Poll the receiver now",
		Description: "Runs one collector cycle immediately and refreshes the series",
		Tags:        []string{"Collector"},
	}, monitorHandler.Poll)

	huma.Register(api, huma.Operation{
		OperationID: "listPolls",
		Method:      http.MethodGet,
		Path:        "/api/polls",
		Summary:     "List recent polls",
		Description: "Returns mirrored polls newest first; requires DATABASE_URL",
		Tags:        []string{"Collector"},
	}, monitorHandler.ListPolls)

	huma.Register(api, huma.Operation{
		OperationID: "archiveLog",
		Method:      http.MethodPost,
		Path:        "/api/archive",
		Summary:     "Archive the SNR log",
		Description: "Uploads the durable log to object storage and returns a download URL; requires S3_BUCKET",
		Tags:        []string{"Collector"},
	}, monitorHandler.ArchiveLog)

	// Non-JSON routes
	router.Get("/chart.png", handlers.ChartHandler(deps.Charts, dashboard.ChartPNG))
	router.Get("/chart.svg", handlers.ChartHandler(deps.Charts, dashboard.ChartSVG))
	if deps.Live != nil {
		router.Handle("/ws", deps.Live)
	}
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics)
	}
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
}
