package analytics

import "errors"

// ErrNoFrames is the domain error raised when Extract is called on a lap
// with zero frames. telemetry.NewLap already refuses to construct an empty
// Lap, so seeing this in practice means a caller bypassed that constructor.
var ErrNoFrames = errors.New("analytics: lap has no frames")
