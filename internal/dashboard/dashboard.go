package dashboard

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/kiwisnr/internal/aggregator"
	"github.com/RMahshie/kiwisnr/pkg/models"
)

// Aggregator produces the aligned multi-band series
type Aggregator interface {
	Aggregate(ctx context.Context) aggregator.Result
}

// Gauges receives dashboard state for metrics
type Gauges interface {
	SetKnownBands(n int)
	SetWebSocketClients(n int)
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithGauges reports band and client counts to g
func WithGauges(g Gauges) Option {
	return func(d *Dashboard) { d.gauges = g }
}

// WithBandNames overrides the band name table used for labels
func WithBandNames(names models.BandNames) Option {
	return func(d *Dashboard) { d.names = names }
}

// Dashboard owns the current frame, the band view and the websocket hub
type Dashboard struct {
	agg      Aggregator
	window   int
	interval time.Duration
	names    models.BandNames
	gauges   Gauges

	view  *View
	hub   *Hub
	frame atomic.Pointer[Frame]
	now   func() time.Time
}

// New creates a dashboard that re-aggregates every interval
func New(agg Aggregator, window int, interval time.Duration, opts ...Option) *Dashboard {
	d := &Dashboard{
		agg:      agg,
		window:   window,
		interval: interval,
		names:    models.DefaultBandNames(),
		view:     NewView(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.frame.Store(BuildFrame(aggregator.Empty(), d.window, d.names, d.now()))
	d.hub = NewHub(func() *Message {
		return &Message{Type: "frame", Data: d.Series()}
	}, func(n int) {
		if d.gauges != nil {
			d.gauges.SetWebSocketClients(n)
		}
	})
	return d
}

// Run refreshes immediately and then every interval until ctx is cancelled
func (d *Dashboard) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			d.hub.Close()
			return
		case <-ticker.C:
			d.Refresh(ctx)
		}
	}
}

// Refresh re-aggregates, publishes the new frame and pushes it to clients
func (d *Dashboard) Refresh(ctx context.Context) *Frame {
	res := d.agg.Aggregate(ctx)
	frame := BuildFrame(res, d.window, d.names, d.now())

	d.view.Sync(res.Bands)
	d.frame.Store(frame)

	if d.gauges != nil {
		d.gauges.SetKnownBands(len(res.Bands))
	}

	log.Debug().
		Str("source", string(res.Source)).
		Int("points", len(res.Times)).
		Int("bands", len(res.Bands)).
		Msg("Dashboard refreshed")

	d.hub.Broadcast(Message{Type: "frame", Data: frame.Body(d.view)})
	return frame
}

// Current returns the latest frame; never nil
func (d *Dashboard) Current() *Frame {
	return d.frame.Load()
}

// Series returns the latest frame as API data
func (d *Dashboard) Series() models.SeriesBody {
	return d.Current().Body(d.view)
}

// Bands lists the bands of the latest frame with their visibility
func (d *Dashboard) Bands() []models.BandInfo {
	frame := d.Current()
	bands := make([]models.BandInfo, 0, len(frame.Result.Bands))
	for _, band := range frame.Result.Bands {
		bands = append(bands, d.bandInfo(frame, band))
	}
	return bands
}

// Toggle flips the visibility of key
func (d *Dashboard) Toggle(key models.BandKey) (models.BandInfo, error) {
	if _, err := d.view.Toggle(key); err != nil {
		return models.BandInfo{}, err
	}
	d.broadcastView()
	return d.bandInfo(d.Current(), key), nil
}

// ShowAll makes every band visible
func (d *Dashboard) ShowAll() []models.BandInfo {
	d.view.ShowAll()
	d.broadcastView()
	return d.Bands()
}

// HideAll hides every band
func (d *Dashboard) HideAll() []models.BandInfo {
	d.view.HideAll()
	d.broadcastView()
	return d.Bands()
}

// View exposes band visibility
func (d *Dashboard) View() *View {
	return d.view
}

// Hub exposes the websocket hub for routing
func (d *Dashboard) Hub() *Hub {
	return d.hub
}

func (d *Dashboard) bandInfo(frame *Frame, key models.BandKey) models.BandInfo {
	label, ok := frame.Labels[key]
	if !ok {
		label = key.Label(d.names)
	}
	return models.BandInfo{
		Key:     string(key),
		Label:   label,
		Visible: d.view.Visible(key),
	}
}

func (d *Dashboard) broadcastView() {
	d.hub.Broadcast(Message{Type: "bands", Data: d.Bands()})
}

// RenderChart draws the current frame with the current visibility
func (d *Dashboard) RenderChart(w io.Writer, format ChartFormat, opts ChartOptions) error {
	return RenderChart(w, d.Current(), d.view, format, opts)
}
