package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// Metrics holds the Prometheus collectors for the monitor
type Metrics struct {
	registry *prometheus.Registry

	polls        *prometheus.CounterVec // Poll outcomes by result
	pollDuration prometheus.Histogram   // Fetch + log latency
	lastPoll     prometheus.Gauge       // Unix time of the last successful poll
	bandSNR      *prometheus.GaugeVec   // Newest SNR per band
	knownBands   prometheus.Gauge       // Bands in the latest aggregation
	wsClients    prometheus.Gauge       // Connected dashboard websockets
}

// New creates metrics on a dedicated registry with Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kiwisnr_polls_total",
			Help: "Receiver polls by result",
		}, []string{"result"}),
		pollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiwisnr_poll_duration_seconds",
			Help:    "Time spent fetching and logging one poll",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		lastPoll: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kiwisnr_last_poll_timestamp_seconds",
			Help: "Unix timestamp of the last successful poll",
		}),
		bandSNR: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kiwisnr_band_snr_db",
			Help: "SNR of each band in the newest snapshot",
		}, []string{"band"}),
		knownBands: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kiwisnr_known_bands",
			Help: "Number of bands in the latest aggregation",
		}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kiwisnr_websocket_clients",
			Help: "Connected dashboard websocket clients",
		}),
	}
}

// ObservePoll records the outcome of a poll
func (m *Metrics) ObservePoll(duration time.Duration, err error) {
	m.pollDuration.Observe(duration.Seconds())
	if err != nil {
		m.polls.WithLabelValues("error").Inc()
		return
	}
	m.polls.WithLabelValues("success").Inc()
}

// Record sets the per-band gauges from the newest snapshot in the poll
func (m *Metrics) Record(_ context.Context, poll *models.Poll) error {
	m.lastPoll.Set(float64(poll.CapturedAt.Unix()))
	if len(poll.Snapshots) == 0 {
		return nil
	}
	newest := poll.Snapshots[len(poll.Snapshots)-1]
	for key, snr := range newest.Readings() {
		m.bandSNR.WithLabelValues(string(key)).Set(snr)
	}
	return nil
}

// SetKnownBands records the band count of the latest aggregation
func (m *Metrics) SetKnownBands(n int) {
	m.knownBands.Set(float64(n))
}

// SetWebSocketClients records the number of connected dashboards
func (m *Metrics) SetWebSocketClients(n int) {
	m.wsClients.Set(float64(n))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
