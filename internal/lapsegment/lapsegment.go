// Package lapsegment implements the lap segmenter described in spec.md
// §4.5: a telemetry.frame handler that buffers frames per session until a
// lap-number transition tells it a lap has either completed or been reset,
// then republishes the buffered frames as a single lap.completed event.
//
// It is grounded on the same bounded-buffer-plus-transition-detection shape
// as the teacher's internal/lidar warmup/settle state machine (see
// internal/lidar/background.go's warmup frame counting), adapted here to
// lap-number transitions instead of a frame-count threshold.
package lapsegment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// DefaultCompletionThreshold is the minimum lap_distance_pct a buffered
// lap's final frame must reach before a forward lap-number transition is
// trusted as a genuine completed lap rather than, e.g., a brief
// out-and-back through the pit lane that rolls the lap counter without
// covering the track. See SPEC_FULL.md's Open Question decision.
const DefaultCompletionThreshold = 0.9

// Config tunes the segmenter.
type Config struct {
	// CompletionThreshold is the lap_distance_pct floor described above.
	CompletionThreshold float64
}

// DefaultConfig returns the spec's default tuning.
func DefaultConfig() Config {
	return Config{CompletionThreshold: DefaultCompletionThreshold}
}

func (c Config) normalize() Config {
	if c.CompletionThreshold <= 0 || c.CompletionThreshold > 1 {
		c.CompletionThreshold = DefaultCompletionThreshold
	}
	return c
}

type buffer struct {
	lapNumber int
	frames    []telemetry.Frame
}

// Segmenter holds one in-progress lap buffer per active session. It is
// safe for concurrent use because the bus dispatches EventTelemetry
// handlers one at a time relative to each other only insofar as they are
// all invoked per-event under the dispatcher's per-event WaitGroup — two
// distinct frames for the same session are never handled concurrently
// since the collector publishes them in order and the bus pops in
// publication order, but the mutex guards against a segmenter instance
// being shared across multiple buses in tests.
type Segmenter struct {
	cfg Config

	mu      sync.Mutex
	buffers map[uuid.UUID]*buffer
}

// New constructs a Segmenter.
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg.normalize(), buffers: make(map[uuid.UUID]*buffer)}
}

// Handlers returns the Handler set to register on an eventbus.Bus:
// EventSessionStart resets any stale buffer, EventTelemetry feeds the
// buffer and detects transitions, EventSessionEnd discards whatever lap
// was in progress.
func (s *Segmenter) Handlers() []eventbus.Handler {
	return []eventbus.Handler{
		{Type: eventbus.EventSessionStart, Fn: s.handleSessionStart},
		{Type: eventbus.EventTelemetry, Fn: s.handleTelemetry},
		{Type: eventbus.EventSessionEnd, Fn: s.handleSessionEnd},
	}
}

func (s *Segmenter) handleSessionStart(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.SessionStartPayload)
	if !ok {
		return fmt.Errorf("lapsegment: unexpected payload type %T for session start", evt.Payload)
	}
	s.mu.Lock()
	delete(s.buffers, payload.Session.SessionID)
	s.mu.Unlock()
	return nil
}

func (s *Segmenter) handleSessionEnd(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.SessionEndPayload)
	if !ok {
		return fmt.Errorf("lapsegment: unexpected payload type %T for session end", evt.Payload)
	}
	s.mu.Lock()
	delete(s.buffers, payload.SessionID) // in-progress lap is discarded, per spec
	s.mu.Unlock()
	return nil
}

func (s *Segmenter) handleTelemetry(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.TelemetryPayload)
	if !ok {
		return fmt.Errorf("lapsegment: unexpected payload type %T for telemetry", evt.Payload)
	}

	completed, shouldEmit := s.ingest(payload.SessionID, payload.Frame)
	if !shouldEmit {
		return nil
	}

	lap, err := telemetry.NewLap(payload.SessionID, completed)
	if err != nil {
		// An invariant violation here (e.g. non-monotonic session_time from
		// a glitchy source) means the buffered lap can't be trusted; log
		// and discard it rather than publishing malformed data.
		monitoring.Logf("lapsegment: discarding malformed lap for session %s: %v", payload.SessionID, err)
		return nil
	}
	return hc.Publish(ctx, eventbus.NewEvent(eventbus.EventLapCompleted, eventbus.LapCompletedPayload{Lap: lap}))
}

// ingest feeds frame into the session's buffer and reports whether a
// completed lap's frames are ready to emit. It implements the three cases
// from spec.md §4.5:
//
//   - bootstrap: no buffer yet for this session — start one, nothing to emit.
//   - forward: lap_number increased by exactly one — the old buffer is a
//     candidate completed lap, trusted only if its last frame reached
//     CompletionThreshold of lap distance; otherwise discarded. The
//     lap-0-to-1 transition is the out-lap ending, never a timed lap (spec.md
//     §8), so it is always discarded regardless of lastPct.
//   - backward/reset: lap_number decreased, or jumped by more than one —
//     treated as a session reset; the old buffer is discarded silently and
//     a fresh buffer starts at the new lap number.
func (s *Segmenter) ingest(sessionID uuid.UUID, frame telemetry.Frame) (completed []telemetry.Frame, shouldEmit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[sessionID]
	if !ok {
		s.buffers[sessionID] = &buffer{lapNumber: frame.LapNumber, frames: []telemetry.Frame{frame}}
		return nil, false
	}

	if frame.LapNumber == buf.lapNumber {
		buf.frames = append(buf.frames, frame)
		return nil, false
	}

	forward := frame.LapNumber == buf.lapNumber+1
	outLap := buf.lapNumber == 0
	prior := buf.frames
	s.buffers[sessionID] = &buffer{lapNumber: frame.LapNumber, frames: []telemetry.Frame{frame}}

	if !forward {
		return nil, false // backward/reset transition: discard silently
	}

	if outLap {
		return nil, false // lap 0 -> 1: out-lap ending, never a timed lap
	}

	if len(prior) == 0 {
		return nil, false
	}
	lastPct := prior[len(prior)-1].LapDistancePct
	if lastPct < s.cfg.CompletionThreshold {
		return nil, false // rolled the lap counter without covering the lap
	}
	return prior, true
}
