package handlers

import (
	"context"
	"errors"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/kiwisnr/internal/dashboard"
	"github.com/RMahshie/kiwisnr/internal/repository"
	"github.com/RMahshie/kiwisnr/internal/storage"
	"github.com/RMahshie/kiwisnr/pkg/models"
)

// Dashboard is the presentation state served by the API
type Dashboard interface {
	Series() models.SeriesBody
	Bands() []models.BandInfo
	Toggle(key models.BandKey) (models.BandInfo, error)
	ShowAll() []models.BandInfo
	HideAll() []models.BandInfo
	Refresh(ctx context.Context) *dashboard.Frame
}

// Poller runs one collector cycle on demand
type Poller interface {
	PollOnce(ctx context.Context) (*models.Poll, error)
}

// MonitorHandler handles series, band and collector requests
type MonitorHandler struct {
	dash     Dashboard
	poller   Poller
	polls    repository.PollRepository // nil when Postgres is disabled
	archiver storage.Archiver          // nil when S3 is disabled
	logPath  string
}

// NewMonitorHandler creates a new monitor handler. polls and archiver may be nil.
func NewMonitorHandler(dash Dashboard, poller Poller, polls repository.PollRepository, archiver storage.Archiver, logPath string) *MonitorHandler {
	return &MonitorHandler{
		dash:     dash,
		poller:   poller,
		polls:    polls,
		archiver: archiver,
		logPath:  logPath,
	}
}

// GetSeries returns the latest aggregated frame
func (h *MonitorHandler) GetSeries(ctx context.Context, _ *struct{}) (*models.GetSeriesResponse, error) {
	return &models.GetSeriesResponse{Body: h.dash.Series()}, nil
}

// ListBands returns known bands with their visibility
func (h *MonitorHandler) ListBands(ctx context.Context, _ *struct{}) (*models.ListBandsResponse, error) {
	resp := &models.ListBandsResponse{}
	resp.Body.Bands = h.dash.Bands()
	return resp, nil
}

// ToggleBand flips one band's visibility
func (h *MonitorHandler) ToggleBand(ctx context.Context, req *models.ToggleBandRequest) (*models.ToggleBandResponse, error) {
	info, err := h.dash.Toggle(models.BandKey(req.Key))
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownBand) {
			return nil, huma.Error404NotFound("Band not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to toggle band", err)
	}
	log.Debug().Str("band", info.Key).Bool("visible", info.Visible).Msg("Band toggled")
	return &models.ToggleBandResponse{Body: info}, nil
}

// ShowAllBands makes every band visible
func (h *MonitorHandler) ShowAllBands(ctx context.Context, _ *struct{}) (*models.ListBandsResponse, error) {
	resp := &models.ListBandsResponse{}
	resp.Body.Bands = h.dash.ShowAll()
	return resp, nil
}

// HideAllBands hides every band
func (h *MonitorHandler) HideAllBands(ctx context.Context, _ *struct{}) (*models.ListBandsResponse, error) {
	resp := &models.ListBandsResponse{}
	resp.Body.Bands = h.dash.HideAll()
	return resp, nil
}

// Refresh re-aggregates immediately instead of waiting for the next tick
func (h *MonitorHandler) Refresh(ctx context.Context, _ *struct{}) (*models.RefreshResponse, error) {
	frame := h.dash.Refresh(ctx)

	resp := &models.RefreshResponse{}
	resp.Body.GeneratedAt = frame.GeneratedAt
	resp.Body.Source = string(frame.Result.Source)
	resp.Body.Points = len(frame.Result.Times)
	resp.Body.Bands = len(frame.Result.Bands)
	return resp, nil
}

// Poll runs a collector cycle now and refreshes the dashboard on success
func (h *MonitorHandler) Poll(ctx context.Context, _ *struct{}) (*models.PollResponse, error) {
	poll, err := h.poller.PollOnce(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("Receiver poll failed", err)
	}
	h.dash.Refresh(ctx)

	resp := &models.PollResponse{}
	resp.Body.CapturedAt = poll.CapturedAt
	resp.Body.Snapshots = len(poll.Snapshots)
	return resp, nil
}

// ListPolls returns mirrored polls newest first
func (h *MonitorHandler) ListPolls(ctx context.Context, req *models.ListPollsRequest) (*models.ListPollsResponse, error) {
	if h.polls == nil {
		return nil, huma.Error503ServiceUnavailable("Poll history is not configured")
	}

	polls, err := h.polls.Recent(ctx, req.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list polls", err)
	}

	resp := &models.ListPollsResponse{}
	resp.Body.Polls = make([]models.Poll, 0, len(polls))
	for _, p := range polls {
		resp.Body.Polls = append(resp.Body.Polls, *p)
	}
	return resp, nil
}

// ArchiveLog uploads the durable log and returns a download URL
func (h *MonitorHandler) ArchiveLog(ctx context.Context, _ *struct{}) (*models.ArchiveResponse, error) {
	if h.archiver == nil {
		return nil, huma.Error503ServiceUnavailable("Log archiving is not configured")
	}

	archive, err := h.archiver.ArchiveLog(ctx, h.logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, huma.Error404NotFound("No log to archive yet", err)
		}
		return nil, huma.Error500InternalServerError("Failed to archive log", err)
	}
	log.Info().Str("key", archive.Key).Msg("Log archived")

	resp := &models.ArchiveResponse{}
	resp.Body.Key = archive.Key
	resp.Body.DownloadURL = archive.DownloadURL
	resp.Body.ExpiresIn = int(archive.ExpiresIn.Seconds())
	return resp, nil
}
