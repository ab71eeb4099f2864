package aggregator

import (
	"context"
	"errors"
	"time"

	"github.com/RMahshie/kiwisnr/internal/repository"
	"github.com/RMahshie/kiwisnr/internal/repository/logfile"
	"github.com/RMahshie/kiwisnr/pkg/models"
	"github.com/rs/zerolog/log"
)

// LatestSource exposes the most recently published snapshot array
type LatestSource interface {
	Load() []models.Snapshot
}

// Aggregator rebuilds the aligned series from the freshest available input
type Aggregator struct {
	latest LatestSource
	log    repository.SnapshotLog
	loc    *time.Location
}

// New creates an aggregator. Either source may be nil; loc nil means time.Local.
func New(latest LatestSource, snapshotLog repository.SnapshotLog, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{latest: latest, log: snapshotLog, loc: loc}
}

// Aggregate uses the published snapshot array when non-empty, otherwise the
// array in the durable log's last usable line. With neither it returns Empty.
func (a *Aggregator) Aggregate(ctx context.Context) Result {
	snaps, source := a.input(ctx)
	if len(snaps) == 0 {
		return Empty()
	}

	res := Reconstruct(snaps, a.loc)
	if len(res.Times) == 0 {
		return Empty()
	}
	res.Source = source
	return res
}

func (a *Aggregator) input(ctx context.Context) ([]models.Snapshot, Source) {
	if a.latest != nil {
		if snaps := a.latest.Load(); len(snaps) > 0 {
			return snaps, SourceLive
		}
	}
	if a.log == nil {
		return nil, SourceEmpty
	}

	snaps, err := a.log.LastSnapshots(ctx)
	if err != nil {
		if !errors.Is(err, logfile.ErrNoUsableLine) {
			log.Warn().Err(err).Str("path", a.log.Path()).Msg("Failed to read SNR log")
		}
		return nil, SourceEmpty
	}
	return snaps, SourceLog
}
