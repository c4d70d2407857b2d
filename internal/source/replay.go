package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// replayFile is the on-disk shape ReplaySource reads: a session header
// followed by its full recorded frame stream. internal/columnar's format
// is the canonical at-rest representation for uploaded/archived
// laps (spec.md §6); this simpler JSON envelope is the replay-input format
// a developer points -replay-file at, analogous to the teacher's PCAP
// replay inputs (internal/lidar/visualiser/replay.go).
type replayFile struct {
	Session telemetry.Session `json:"session"`
	Frames  []telemetry.Frame `json:"frames"`
}

// ReplaySource reads a previously recorded session back at a configurable
// speed, optionally looping at EOF, per spec.md §4.3/§6.
type ReplaySource struct {
	path            string
	speedMultiplier float64
	loop            bool

	session telemetry.Session
	frames  []telemetry.Frame

	idx       int
	state     atomic.Int32
	startWall time.Time
}

// NewReplaySource constructs a ReplaySource. speedMultiplier must be > 0
// per spec.md §6; NewReplaySource does not validate it — config.Config.Validate
// is the single place that rejects a bad REPLAY_SPEED.
func NewReplaySource(path string, speedMultiplier float64, loop bool) *ReplaySource {
	return &ReplaySource{path: path, speedMultiplier: speedMultiplier, loop: loop}
}

func (r *ReplaySource) Start(ctx context.Context) error {
	r.state.Store(int32(StateConnecting))
	data, err := os.ReadFile(r.path)
	if err != nil {
		r.state.Store(int32(StateDisconnected))
		return &ConnectionError{Cause: err}
	}
	var rf replayFile
	if err := json.Unmarshal(data, &rf); err != nil {
		r.state.Store(int32(StateDisconnected))
		return &ConnectionError{Cause: fmt.Errorf("parse replay file: %w", err)}
	}
	if len(rf.Frames) == 0 {
		r.state.Store(int32(StateDisconnected))
		return &ConnectionError{Cause: fmt.Errorf("replay file %q has no frames", r.path)}
	}
	r.session = rf.Session
	r.frames = rf.Frames
	r.idx = 0
	r.startWall = time.Now()
	r.state.Store(int32(StateConnected))
	return nil
}

func (r *ReplaySource) Stop() error {
	r.state.Store(int32(StateDisconnected))
	return nil
}

func (r *ReplaySource) IsConnected() bool {
	if ConnectionState(r.state.Load()) != StateConnected {
		return false
	}
	return r.loop || r.idx < len(r.frames)
}

func (r *ReplaySource) CollectSessionFrame(ctx context.Context) (telemetry.Session, error) {
	if ConnectionState(r.state.Load()) == StateDisconnected {
		return telemetry.Session{}, ErrNotStarted
	}
	return r.session, nil
}

func (r *ReplaySource) CollectTelemetryFrame(ctx context.Context) (telemetry.Frame, error) {
	if r.idx >= len(r.frames) {
		if !r.loop {
			r.state.Store(int32(StateDisconnected))
			return telemetry.Frame{}, ErrReplayExhausted
		}
		r.idx = 0
		r.startWall = time.Now()
	}

	frame := r.frames[r.idx]
	if err := r.waitForPlaybackTime(ctx, frame.SessionTime); err != nil {
		return telemetry.Frame{}, err
	}
	r.idx++
	return frame, nil
}

func (r *ReplaySource) waitForPlaybackTime(ctx context.Context, sessionTime float64) error {
	mult := r.speedMultiplier
	if mult <= 0 {
		mult = 1.0
	}
	target := time.Duration(sessionTime / mult * float64(time.Second))
	elapsed := time.Since(r.startWall)
	if target <= elapsed {
		return nil
	}
	select {
	case <-time.After(target - elapsed):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentFrameIndex implements ReplayProgress.
func (r *ReplaySource) CurrentFrameIndex() int { return r.idx }

// TotalFrames implements ReplayProgress.
func (r *ReplaySource) TotalFrames() int { return len(r.frames) }

// PlaybackProgress implements ReplayProgress.
func (r *ReplaySource) PlaybackProgress() float64 {
	if len(r.frames) == 0 {
		return 0
	}
	return float64(r.idx) / float64(len(r.frames))
}

var (
	_ Source         = (*ReplaySource)(nil)
	_ ReplayProgress = (*ReplaySource)(nil)
	_ Source         = (*LiveSource)(nil)
)
