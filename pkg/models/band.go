package models

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BandKey identifies a frequency range, e.g. "7000-7300 Hz"
type BandKey string

// NewBandKey builds the key for the range lo..hi
func NewBandKey(lo, hi float64) BandKey {
	return BandKey(formatBound(lo) + "-" + formatBound(hi) + " Hz")
}

// formatBound prints the shortest exact form of v, so 7000.0 and 7000 both
// become "7000". KiwiSDR reports integer bounds, and band-name tables are
// keyed on that form.
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Low returns the lower bound encoded in the key. Malformed keys sort last.
func (k BandKey) Low() float64 {
	rng, _, _ := strings.Cut(string(k), " ")
	lo, _, ok := strings.Cut(rng, "-")
	if !ok {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

// BandNames maps band keys to their colloquial names
type BandNames map[BandKey]string

// DefaultBandNames lists the well-known amateur and broadcast ranges reported by KiwiSDR receivers
func DefaultBandNames() BandNames {
	return BandNames{
		"136-138 Hz":     "2200 m",
		"472-479 Hz":     "630 m",
		"530-1602 Hz":    "MW",
		"1800-2000 Hz":   "160 m",
		"3500-3900 Hz":   "80 m",
		"5250-5450 Hz":   "60 m",
		"7000-7300 Hz":   "40 m",
		"10100-10157 Hz": "30 m",
		"14000-14350 Hz": "20 m",
		"18068-18168 Hz": "17 m",
		"21000-21450 Hz": "15 m",
		"24890-24990 Hz": "12 m",
		"28000-29700 Hz": "10 m",
	}
}

// Label renders the key as a kHz range, with the band name appended when known.
// The receiver already reports bounds in kHz, so only the unit suffix changes.
func (k BandKey) Label(names BandNames) string {
	label := strings.Replace(string(k), " Hz", " kHz", 1)
	if name, ok := names[k]; ok && name != "" {
		return fmt.Sprintf("%s (%s)", label, name)
	}
	return label
}

// LoadBandNames reads a YAML mapping of band key to name and merges it over DefaultBandNames.
// An empty path returns the defaults.
func LoadBandNames(path string) (BandNames, error) {
	names := DefaultBandNames()
	if path == "" {
		return names, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read band names: %w", err)
	}

	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse band names %s: %w", path, err)
	}
	for k, v := range extra {
		names[BandKey(k)] = v
	}
	return names, nil
}
