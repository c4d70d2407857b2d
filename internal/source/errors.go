package source

import "errors"

// ConnectionError wraps an unrecoverable setup failure from Start. The
// collector treats it as a fatal startup error per spec.md §7: it
// publishes SessionEnd (if a session was active) and exits cleanly rather
// than retrying.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return "source: connection failed: " + e.Cause.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// ErrReplayExhausted is returned by CollectTelemetryFrame once a
// non-looping replay source reaches end of file.
var ErrReplayExhausted = errors.New("source: replay file exhausted")

// ErrNotStarted is returned by ReplaySource.CollectSessionFrame when the
// source is not connected (before Start, after Stop, or once a non-looping
// replay is exhausted), and by LiveSource.CollectTelemetryFrame once the SDK
// reports it has disconnected. Stop never returns it.
var ErrNotStarted = errors.New("source: not started")
