package source

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// SDKReader is the narrow surface LiveSource needs from the iRacing SDK
// adapter. The adapter itself — shared-memory polling, Windows-only SDK
// bindings — is an external collaborator per spec.md §1 and is injected
// here rather than implemented; tests substitute a fake.
type SDKReader interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
	ReadSession() (telemetry.Session, error)
	// ReadFrame returns the latest frozen telemetry buffer. ok is false
	// when no new frame is available yet (the sim hasn't ticked since the
	// last read); callers should back off briefly and retry.
	ReadFrame() (frame telemetry.Frame, ok bool, err error)
}

// LiveSource adapts an SDKReader to the Source contract.
type LiveSource struct {
	sdk       SDKReader
	pollDelay time.Duration
	state     atomic.Int32
}

// NewLiveSource constructs a LiveSource. pollDelay bounds how long
// CollectTelemetryFrame sleeps between ReadFrame attempts when the sim has
// not produced a new sample yet; zero selects a 1ms default appropriate for
// 60 Hz sampling.
func NewLiveSource(sdk SDKReader, pollDelay time.Duration) *LiveSource {
	if pollDelay <= 0 {
		pollDelay = time.Millisecond
	}
	return &LiveSource{sdk: sdk, pollDelay: pollDelay}
}

func (s *LiveSource) state_() ConnectionState { return ConnectionState(s.state.Load()) }

func (s *LiveSource) IsConnected() bool {
	return s.state_() == StateConnected && s.sdk.IsConnected()
}

func (s *LiveSource) Start(ctx context.Context) error {
	s.state.Store(int32(StateConnecting))
	if err := s.sdk.Connect(); err != nil {
		s.state.Store(int32(StateDisconnected))
		return &ConnectionError{Cause: err}
	}
	s.state.Store(int32(StateConnected))
	return nil
}

func (s *LiveSource) Stop() error {
	defer s.state.Store(int32(StateDisconnected))
	return s.sdk.Disconnect()
}

func (s *LiveSource) CollectSessionFrame(ctx context.Context) (telemetry.Session, error) {
	return s.sdk.ReadSession()
}

func (s *LiveSource) CollectTelemetryFrame(ctx context.Context) (telemetry.Frame, error) {
	for {
		frame, ok, err := s.sdk.ReadFrame()
		if err != nil {
			return telemetry.Frame{}, err
		}
		if ok {
			return frame, nil
		}
		select {
		case <-ctx.Done():
			return telemetry.Frame{}, ctx.Err()
		case <-time.After(s.pollDelay):
		}
		if !s.sdk.IsConnected() {
			s.state.Store(int32(StateDisconnected))
			return telemetry.Frame{}, ErrNotStarted
		}
	}
}
