package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RMahshie/kiwisnr/internal/repository"
	"github.com/RMahshie/kiwisnr/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sink receives every successful poll after it has been logged and published
type Sink interface {
	Record(ctx context.Context, poll *models.Poll) error
}

// Observer is told the outcome of every poll
type Observer interface {
	ObservePoll(duration time.Duration, err error)
}

// RepositorySink mirrors polls into a PollRepository
type RepositorySink struct {
	Repo repository.PollRepository
}

// Record implements Sink
func (s RepositorySink) Record(ctx context.Context, poll *models.Poll) error {
	return s.Repo.Create(ctx, poll)
}

// Option configures a Collector
type Option func(*Collector)

// WithSink adds a sink fed after each successful poll
func WithSink(s Sink) Option {
	return func(c *Collector) { c.sinks = append(c.sinks, s) }
}

// WithObserver adds an observer of poll outcomes
func WithObserver(o Observer) Option {
	return func(c *Collector) { c.observers = append(c.observers, o) }
}

// Collector runs the fetch, log and publish cycle
type Collector struct {
	fetcher   Fetcher
	log       repository.SnapshotLog
	latest    *Latest
	interval  time.Duration
	sinks     []Sink
	observers []Observer
	now       func() time.Time

	// mu keeps the durable log single-writer across Run and on-demand polls
	mu sync.Mutex
}

// New creates a collector publishing into latest
func New(fetcher Fetcher, snapshotLog repository.SnapshotLog, latest *Latest, interval time.Duration, opts ...Option) *Collector {
	c := &Collector{
		fetcher:  fetcher,
		log:      snapshotLog,
		latest:   latest,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls immediately and then once per interval until ctx is done.
// Failures are logged and retried on schedule.
func (c *Collector) Run(ctx context.Context) {
	log.Info().
		Str("endpoint", c.fetcher.Endpoint()).
		Dur("interval", c.interval).
		Str("log_file", c.log.Path()).
		Msg("Collector started")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Collector stopped")
			return
		case <-timer.C:
		}

		_, _ = c.PollOnce(ctx)
		timer.Reset(c.interval)
	}
}

// PollOnce performs a single cycle. On failure nothing is logged to disk and
// the published array is left unchanged.
func (c *Collector) PollOnce(ctx context.Context) (*models.Poll, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	poll, err := c.poll(ctx)
	duration := time.Since(start)
	for _, o := range c.observers {
		o.ObservePoll(duration, err)
	}
	if err != nil {
		log.Error().Err(err).Str("endpoint", c.fetcher.Endpoint()).Dur("duration", duration).Msg("Poll failed")
		return nil, err
	}

	bands := 0
	if n := len(poll.Snapshots); n > 0 {
		bands = len(poll.Snapshots[n-1].SNR)
	}
	log.Debug().
		Int("snapshots", len(poll.Snapshots)).
		Int("bands", bands).
		Dur("duration", duration).
		Msg("Poll succeeded")

	for _, s := range c.sinks {
		if err := s.Record(ctx, poll); err != nil {
			log.Warn().Err(err).Str("poll_id", poll.ID).Msg("Poll sink failed")
		}
	}
	return poll, nil
}

func (c *Collector) poll(ctx context.Context) (*models.Poll, error) {
	resp, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	capturedAt := c.now().UTC()
	if err := c.log.Append(ctx, capturedAt, resp.Raw); err != nil {
		return nil, fmt.Errorf("failed to log poll: %w", err)
	}
	c.latest.Store(resp.Snapshots)

	return &models.Poll{
		ID:         uuid.New().String(),
		CapturedAt: capturedAt,
		Snapshots:  resp.Snapshots,
	}, nil
}
