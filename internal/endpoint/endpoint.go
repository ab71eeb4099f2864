package endpoint

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoEndpoint is returned when neither the user nor the persisted file supplies a URL
var ErrNoEndpoint = errors.New("no receiver URL")

// Options controls endpoint resolution
type Options struct {
	File     string    // persisted last-used URL
	Override string    // URL from flags or environment; becomes the default
	Prompt   bool      // ask on In before falling back to the default
	In       io.Reader // usually os.Stdin
	Out      io.Writer // usually os.Stdout
}

// Resolve picks the receiver base URL and persists it for the next session.
// Input is stripped of whitespace and trailing slashes; empty input selects the default.
func Resolve(opts Options) (string, error) {
	def := Normalize(opts.Override)
	if def == "" {
		def = Load(opts.File)
	}

	url := ""
	if opts.Prompt && opts.In != nil {
		answer, err := ask(opts.In, opts.Out, def)
		if err != nil {
			return "", err
		}
		url = answer
	}
	if url == "" {
		url = def
	}
	if url == "" {
		return "", ErrNoEndpoint
	}

	if err := Save(opts.File, url); err != nil {
		log.Warn().Err(err).Str("path", opts.File).Msg("Failed to persist receiver URL")
	}
	return url, nil
}

func ask(in io.Reader, out io.Writer, def string) (string, error) {
	prompt := "KiwiSDR base URL"
	if def != "" {
		prompt += " [" + def + "]"
	}
	prompt += ": "
	if out != nil {
		fmt.Fprint(out, prompt)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read receiver URL: %w", err)
	}
	return Normalize(line), nil
}

// Normalize trims whitespace and trailing slashes
func Normalize(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// Load returns the persisted URL, or "" when the file is missing or unreadable
func Load(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read persisted receiver URL")
		}
		return ""
	}
	return Normalize(string(data))
}

// Save overwrites path with url
func Save(path, url string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(url), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
