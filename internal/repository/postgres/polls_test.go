package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/RMahshie/kiwisnr/pkg/models"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := pgContainer.Run(ctx,
		"postgres:15-alpine",
		pgContainer.WithDatabase("kiwisnr_test"),
		pgContainer.WithUsername("testuser"),
		pgContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	return db
}

func TestPollRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupPostgres(t)
	repo := NewPostgresPollRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		poll := &models.Poll{
			CapturedAt: base.Add(time.Duration(i) * time.Minute),
			Snapshots: []models.Snapshot{{
				TS:  "Mon Jan 01 00:00:00 2024",
				SNR: []models.BandReading{{Lo: 7000, Hi: 7300, SNR: float64(-12 + i)}},
			}},
		}
		require.NoError(t, repo.Create(ctx, poll))
		assert.NotEmpty(t, poll.ID)
	}

	polls, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.True(t, polls[0].CapturedAt.Equal(base.Add(2*time.Minute)))
	assert.True(t, polls[1].CapturedAt.Equal(base.Add(time.Minute)))
	assert.Equal(t, -10.0, polls[0].Snapshots[0].SNR[0].SNR)

	// Migrate is idempotent
	require.NoError(t, Migrate(ctx, db))
}
