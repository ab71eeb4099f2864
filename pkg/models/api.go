package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status   string    `json:"status" example:"healthy" doc:"Service health status"`
		Version  string    `json:"version" example:"1.0.0" doc:"API version"`
		Time     time.Time `json:"time" doc:"Current server time"`
		Endpoint string    `json:"endpoint" doc:"Receiver base URL being polled"`
	}
}

// BandInfo describes a band and its display state
type BandInfo struct {
	Key     string `json:"key" example:"7000-7300 Hz" doc:"Band key"`
	Label   string `json:"label" example:"7000-7300 kHz (40 m)" doc:"Human-readable label"`
	Visible bool   `json:"visible" doc:"Whether the band is drawn on the chart"`
}

// BandPeak annotates the maximum of a band's smoothed series
type BandPeak struct {
	Index int       `json:"index" doc:"Position on the time axis"`
	Time  time.Time `json:"time" doc:"Timestamp of the maximum"`
	Value float64   `json:"value" doc:"Smoothed SNR at the maximum"`
	Text  string    `json:"text" example:"12 dB" doc:"Annotation text"`
}

// BandStats summarises the defined samples of a band's raw series
type BandStats struct {
	Count  int     `json:"count" doc:"Number of defined samples"`
	Mean   float64 `json:"mean" doc:"Mean SNR"`
	StdDev float64 `json:"std_dev" doc:"Sample standard deviation"`
	Min    float64 `json:"min" doc:"Minimum SNR"`
	Max    float64 `json:"max" doc:"Maximum SNR"`
}

// BandSeries is one band's aligned series. Missing samples are null.
type BandSeries struct {
	BandInfo
	Values   []*float64 `json:"values" doc:"Raw SNR aligned to the time axis"`
	Smoothed []*float64 `json:"smoothed" doc:"Moving-average SNR aligned to the time axis"`
	Peak     *BandPeak  `json:"peak,omitempty" doc:"Maximum of the smoothed series"`
	Stats    *BandStats `json:"stats,omitempty" doc:"Summary of the raw series"`
}

// SeriesBody is the aggregated chart data
type SeriesBody struct {
	GeneratedAt time.Time    `json:"generated_at" doc:"When the aggregation ran"`
	Source      string       `json:"source" enum:"live,log,empty" doc:"Where the snapshots came from"`
	Times       []time.Time  `json:"times" doc:"Time axis in display time zone"`
	Start       *time.Time   `json:"start,omitempty" doc:"First timestamp of the time axis"`
	End         *time.Time   `json:"end,omitempty" doc:"Last timestamp of the time axis"`
	Bands       []BandSeries `json:"bands" doc:"Series ordered by lower band bound"`
}

// GetSeriesResponse returns the current chart data
type GetSeriesResponse struct {
	Body SeriesBody
}

// ListBandsResponse lists known bands with their visibility
type ListBandsResponse struct {
	Body struct {
		Bands []BandInfo `json:"bands" doc:"Bands ordered by lower bound"`
	}
}

// ToggleBandRequest identifies the band whose visibility flips
type ToggleBandRequest struct {
	Key string `path:"key" example:"7000-7300 Hz" doc:"Band key"`
}

// ToggleBandResponse returns the band after toggling
type ToggleBandResponse struct {
	Body BandInfo
}

// RefreshResponse summarises a re-aggregation
type RefreshResponse struct {
	Body struct {
		GeneratedAt time.Time `json:"generated_at" doc:"When the aggregation ran"`
		Source      string    `json:"source" enum:"live,log,empty" doc:"Where the snapshots came from"`
		Points      int       `json:"points" doc:"Length of the time axis"`
		Bands       int       `json:"bands" doc:"Number of known bands"`
	}
}

// PollResponse summarises an on-demand collector cycle
type PollResponse struct {
	Body struct {
		CapturedAt time.Time `json:"captured_at" doc:"Capture time of the poll"`
		Snapshots  int       `json:"snapshots" doc:"Number of snapshots returned by the receiver"`
	}
}

// ListPollsRequest pages through mirrored polls
type ListPollsRequest struct {
	Limit int `query:"limit" minimum:"1" maximum:"1000" default:"20" doc:"Maximum number of polls to return"`
}

// Poll is one mirrored collector cycle (for internal use and history)
type Poll struct {
	ID         string     `json:"id" doc:"Poll identifier"`
	CapturedAt time.Time  `json:"captured_at" doc:"Capture time"`
	Snapshots  []Snapshot `json:"snapshots" doc:"Snapshot array returned by the receiver"`
}

// ListPollsResponse returns mirrored polls newest first
type ListPollsResponse struct {
	Body struct {
		Polls []Poll `json:"polls" doc:"Polls ordered newest first"`
	}
}

// ArchiveResponse points at an uploaded copy of the durable log
type ArchiveResponse struct {
	Body struct {
		Key         string `json:"key" doc:"Object key of the archived log"`
		DownloadURL string `json:"download_url" doc:"Pre-signed download URL"`
		ExpiresIn   int    `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}
