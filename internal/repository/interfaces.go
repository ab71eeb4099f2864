package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// SnapshotLog is the append-only durable record of successful polls
type SnapshotLog interface {
	Append(ctx context.Context, capturedAt time.Time, raw json.RawMessage) error
	LastSnapshots(ctx context.Context) ([]models.Snapshot, error)
	Path() string
}

// PollRepository mirrors successful polls into a queryable store
type PollRepository interface {
	Create(ctx context.Context, poll *models.Poll) error
	Recent(ctx context.Context, limit int) ([]*models.Poll, error)
}
