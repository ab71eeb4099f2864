package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// TimestampLayout is the receiver's fixed UTC timestamp format, e.g. "Mon Jan 01 00:00:00 2024".
const TimestampLayout = "Mon Jan 02 15:04:05 2006"

// ErrBadTimestamp is returned when a snapshot's ts field does not match TimestampLayout
var ErrBadTimestamp = errors.New("invalid snapshot timestamp")

// BandReading is one band's SNR measurement inside a snapshot.
// A null or absent snr decodes to NaN and encodes back as null.
type BandReading struct {
	Lo  float64 `json:"lo" doc:"Band lower bound"`
	Hi  float64 `json:"hi" doc:"Band upper bound"`
	SNR float64 `json:"snr" doc:"Signal to noise ratio in dB, null when undefined"`
}

type wireReading struct {
	Lo  float64  `json:"lo"`
	Hi  float64  `json:"hi"`
	SNR *float64 `json:"snr"`
}

// UnmarshalJSON implements json.Unmarshaler
func (b *BandReading) UnmarshalJSON(data []byte) error {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b.Lo, b.Hi, b.SNR = w.Lo, w.Hi, math.NaN()
	if w.SNR != nil {
		b.SNR = *w.SNR
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (b BandReading) MarshalJSON() ([]byte, error) {
	w := wireReading{Lo: b.Lo, Hi: b.Hi}
	if !math.IsNaN(b.SNR) && !math.IsInf(b.SNR, 0) {
		w.SNR = &b.SNR
	}
	return json.Marshal(w)
}

// Key returns the band key for this reading
func (b BandReading) Key() BandKey {
	return NewBandKey(b.Lo, b.Hi)
}

// Snapshot is one poll result as served by the receiver's /snr endpoint
type Snapshot struct {
	TS  string        `json:"ts" doc:"Receiver timestamp (UTC)"`
	SNR []BandReading `json:"snr" doc:"Per-band readings"`
}

// Time parses TS as UTC and converts it to loc. A nil loc means time.Local.
func (s Snapshot) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s.TS, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrBadTimestamp, s.TS, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc), nil
}

// Readings maps each band key in the snapshot to its SNR value.
// A band listed twice keeps the last value. Undefined readings are NaN.
func (s Snapshot) Readings() map[BandKey]float64 {
	out := make(map[BandKey]float64, len(s.SNR))
	for _, b := range s.SNR {
		out[b.Key()] = b.SNR
	}
	return out
}
