package telemetry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrEmptyLap is returned when a lap sequence is constructed from zero frames.
var ErrEmptyLap = errors.New("telemetry: lap sequence has no frames")

// Lap is an ordered, non-empty sequence of frames that together make up one
// completed lap. All frames share a session and a constant LapNumber; their
// SessionTime is non-decreasing. Construct with NewLap, which validates
// these invariants once so downstream consumers (analytics, the columnar
// writer) never have to re-check them.
type Lap struct {
	SessionID uuid.UUID `json:"session_id"`
	LapID     uuid.UUID `json:"lap_id"`
	LapNumber int       `json:"lap_number"`
	Frames    []Frame   `json:"frames"`
}

// NewLap validates and constructs a Lap from a buffered frame sequence.
// It returns ErrEmptyLap if frames is empty, and a wrapped error if the
// lap-number-constant or session-time-non-decreasing invariants are
// violated — callers (the lap segmenter) should never pass data that
// violates these, so a violation here indicates a segmenter bug, not a
// recoverable runtime condition worth swallowing silently.
func NewLap(sessionID uuid.UUID, frames []Frame) (Lap, error) {
	if len(frames) == 0 {
		return Lap{}, ErrEmptyLap
	}
	lapNumber := frames[0].LapNumber
	prevTime := frames[0].SessionTime
	for i, f := range frames[1:] {
		if f.LapNumber != lapNumber {
			return Lap{}, fmt.Errorf("telemetry: frame %d has lap_number %d, want %d", i+1, f.LapNumber, lapNumber)
		}
		if f.SessionTime < prevTime {
			return Lap{}, fmt.Errorf("telemetry: frame %d session_time %.3f precedes %.3f", i+1, f.SessionTime, prevTime)
		}
		prevTime = f.SessionTime
	}
	return Lap{
		SessionID: sessionID,
		LapID:     uuid.New(),
		LapNumber: lapNumber,
		Frames:    append([]Frame(nil), frames...),
	}, nil
}

// Duration returns the elapsed session time covered by the lap, i.e. the
// last frame's CurrentLapTime if present, falling back to the span between
// the first and last sampled SessionTime.
func (l Lap) Duration() float64 {
	if n := len(l.Frames); n > 0 {
		if lt := l.Frames[n-1].CurrentLapTime; lt > 0 {
			return lt
		}
		return l.Frames[n-1].SessionTime - l.Frames[0].SessionTime
	}
	return 0
}
