package logfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RMahshie/kiwisnr/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `[{"ts":"Mon Jan 01 00:00:00 2024","snr":[{"lo":7000,"hi":7300,"snr":-12}]}]`

func TestAppendWritesOneLinePerPoll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "snr.log")
	l := New(path)
	ctx := context.Background()
	captured := time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC)

	pretty := json.RawMessage("[\n  {\"ts\": \"Mon Jan 01 00:00:00 2024\", \"snr\": []}\n]")
	require.NoError(t, l.Append(ctx, captured, pretty))
	require.NoError(t, l.Append(ctx, captured.Add(time.Minute), json.RawMessage(fixture)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `2024-01-01T00:00:30Z [{"ts":"Mon Jan 01 00:00:00 2024","snr":[]}]`, lines[0])
	assert.Equal(t, "2024-01-01T00:01:30Z "+fixture, lines[1])
	assert.Equal(t, path, l.Path())
}

func TestAppendRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snr.log")
	l := New(path)

	err := l.Append(context.Background(), time.Now(), json.RawMessage(`[{"ts":`))
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLastSnapshots(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantLen int
		wantErr error
	}{
		{
			name:    "last line wins",
			content: "2024-01-01T00:00:00Z []\n2024-01-01T00:01:00Z " + fixture + "\n",
			wantLen: 1,
		},
		{
			name:    "trailing blank lines ignored",
			content: "2024-01-01T00:01:00Z " + fixture + "\n\n   \n",
			wantLen: 1,
		},
		{
			name:    "torn last line is not recovered from earlier lines",
			content: "2024-01-01T00:01:00Z " + fixture + "\n2024-01-01T00:02:00Z [{\"ts\":\"Mon Jan",
			wantErr: ErrNoUsableLine,
		},
		{
			name:    "torn line followed by a good line",
			content: "2024-01-01T00:01:00Z [{\"ts\":\"Mon Jan\n2024-01-01T00:02:00Z " + fixture + "\n",
			wantLen: 1,
		},
		{
			name:    "only malformed lines",
			content: "garbage\n2024-01-01T00:02:00Z [oops]\n",
			wantErr: ErrNoUsableLine,
		},
		{
			name:    "empty file",
			content: "",
			wantErr: ErrNoUsableLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snr.log")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			snaps, err := New(path).LastSnapshots(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, snaps)
				return
			}
			require.NoError(t, err)
			assert.Len(t, snaps, tt.wantLen)
		})
	}
}

func TestLastSnapshotsMissingFile(t *testing.T) {
	snaps, err := New(filepath.Join(t.TempDir(), "absent.log")).LastSnapshots(context.Background())
	assert.ErrorIs(t, err, ErrNoUsableLine)
	assert.Nil(t, snaps)
}

func TestExtractSnapshots(t *testing.T) {
	snaps, err := ExtractSnapshots("2024-01-01T00:00:00+00:00 " + fixture)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Mon Jan 01 00:00:00 2024", snaps[0].TS)
	assert.Equal(t, []models.BandReading{{Lo: 7000, Hi: 7300, SNR: -12}}, snaps[0].SNR)

	_, err = ExtractSnapshots("no brackets here")
	assert.ErrorIs(t, err, ErrNoUsableLine)

	_, err = ExtractSnapshots("] backwards [")
	assert.ErrorIs(t, err, ErrNoUsableLine)
}
