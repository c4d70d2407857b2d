// Package source abstracts the one external collaborator spec.md §6 calls
// out by name: the iRacing SDK adapter. This package defines the contract
// the collector loop (internal/collector) drives and provides two
// implementations — a live adapter around an injected SDK reader, and a
// file-replay adapter — selected by New (factory.go). Neither implementation talks
// to the real iRacing shared-memory SDK directly; that binding is an
// external collaborator per spec.md §1, matching how the teacher's
// serialmux package takes a SerialPorter rather than owning the OS serial
// driver.
package source

import (
	"context"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// ConnectionState generalizes the original client's connection.py module
// (see SPEC_FULL.md supplemental features) into a three-value state shared
// by both source implementations, which use it to answer IsConnected. The
// collector does not read it and has no retry/backoff loop.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Source is the contract consumed by the collector loop (spec.md §4.3).
// Both CollectTelemetryFrame and CollectSessionFrame take a context so a
// replay source can honor cancellation while sleeping out its playback
// timing, and so a live source can bound a blocked read.
type Source interface {
	// IsConnected reports whether the source can currently produce frames.
	IsConnected() bool
	// Start opens the source. For file replay this also reads headers and
	// determines the total frame count. It returns a *ConnectionError for
	// unrecoverable setup problems.
	Start(ctx context.Context) error
	// Stop releases resources. The source is not reusable after Stop.
	Stop() error
	// CollectSessionFrame constructs the session snapshot from the source.
	CollectSessionFrame(ctx context.Context) (telemetry.Session, error)
	// CollectTelemetryFrame returns the next frame: for live sources, the
	// latest frozen buffer; for replay, the next frame respecting the
	// configured speed multiplier and loop flag.
	CollectTelemetryFrame(ctx context.Context) (telemetry.Frame, error)
}

// ReplayProgress is exposed only by replay sources (spec.md §4.3).
type ReplayProgress interface {
	CurrentFrameIndex() int
	TotalFrames() int
	PlaybackProgress() float64
}
