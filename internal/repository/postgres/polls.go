package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/RMahshie/kiwisnr/internal/repository"
	"github.com/RMahshie/kiwisnr/pkg/models"
	"github.com/google/uuid"
)

// Schema creates the poll mirror table when it does not exist
const Schema = `
CREATE TABLE IF NOT EXISTS snr_polls (
	id          UUID PRIMARY KEY,
	captured_at TIMESTAMPTZ NOT NULL,
	payload     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS snr_polls_captured_at_idx ON snr_polls (captured_at DESC);`

// PostgresPollRepository implements PollRepository for PostgreSQL
type PostgresPollRepository struct {
	db *sql.DB
}

// NewPostgresPollRepository creates a new PostgreSQL poll repository
func NewPostgresPollRepository(db *sql.DB) repository.PollRepository {
	return &PostgresPollRepository{db: db}
}

// Migrate applies Schema
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate snr_polls: %w", err)
	}
	return nil
}

// Create inserts a poll, assigning an ID when empty
func (r *PostgresPollRepository) Create(ctx context.Context, poll *models.Poll) error {
	if poll.ID == "" {
		poll.ID = uuid.New().String()
	}

	payload, err := json.Marshal(poll.Snapshots)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshots: %w", err)
	}

	query := `
		INSERT INTO snr_polls (id, captured_at, payload)
		VALUES ($1, $2, $3)`

	_, err = r.db.ExecContext(ctx, query, poll.ID, poll.CapturedAt, payload)
	return err
}

// Recent returns up to limit polls, newest first
func (r *PostgresPollRepository) Recent(ctx context.Context, limit int) ([]*models.Poll, error) {
	query := `
		SELECT id, captured_at, payload
		FROM snr_polls
		ORDER BY captured_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := make([]*models.Poll, 0, limit)
	for rows.Next() {
		var poll models.Poll
		var payload []byte
		if err := rows.Scan(&poll.ID, &poll.CapturedAt, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &poll.Snapshots); err != nil {
			return nil, fmt.Errorf("failed to decode poll %s: %w", poll.ID, err)
		}
		polls = append(polls, &poll)
	}
	return polls, rows.Err()
}
