package logfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RMahshie/kiwisnr/internal/repository"
	"github.com/RMahshie/kiwisnr/pkg/models"
)

// ErrNoUsableLine is returned when the log has no line with a decodable snapshot array
var ErrNoUsableLine = errors.New("no usable log line")

// maxLineSize bounds a single log line; receivers return a few KiB per poll
const maxLineSize = 16 * 1024 * 1024

// FileLog stores one line per poll: "<RFC3339 UTC capture time> <compact JSON array>"
type FileLog struct {
	path string
}

// New creates a file-backed snapshot log. The file is created on first append.
func New(path string) repository.SnapshotLog {
	return &FileLog{path: path}
}

// Path returns the log file location
func (l *FileLog) Path() string {
	return l.path
}

// Append writes a single line for a successful poll
func (l *FileLog) Append(_ context.Context, capturedAt time.Time, raw json.RawMessage) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return fmt.Errorf("failed to compact snapshot array: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	line := capturedAt.UTC().Format(time.RFC3339Nano) + " " + compact.String() + "\n"
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append log line: %w", err)
	}
	return nil
}

// LastSnapshots decodes the snapshot array embedded in the last non-blank line.
// Earlier lines are never consulted, so a torn or malformed last line yields
// ErrNoUsableLine just like a missing or empty file.
func (l *FileLog) LastSnapshots(_ context.Context) ([]models.Snapshot, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoUsableLine
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	if last == "" {
		return nil, ErrNoUsableLine
	}
	return ExtractSnapshots(last)
}

// ExtractSnapshots decodes the substring between the first '[' and the last ']' of line
func ExtractSnapshots(line string) ([]models.Snapshot, error) {
	start := strings.Index(line, "[")
	end := strings.LastIndex(line, "]")
	if start < 0 || end < start {
		return nil, ErrNoUsableLine
	}

	var snaps []models.Snapshot
	if err := json.Unmarshal([]byte(line[start:end+1]), &snaps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoUsableLine, err)
	}
	if len(snaps) == 0 {
		return nil, ErrNoUsableLine
	}
	return snaps, nil
}
