package source

import (
	"fmt"
	"time"
)

// Mode selects which Source implementation New constructs, driven by the
// ambient TELEMETRY_MODE setting (internal/config).
type Mode string

const (
	ModeLive   Mode = "live"
	ModeReplay Mode = "replay"
)

// Options configures New. Fields not relevant to the chosen Mode are
// ignored, mirroring how serialmux.NewRealSerialMux only looks at the
// options its one backend needs.
type Options struct {
	Mode Mode

	// Live mode.
	SDK       SDKReader
	PollDelay time.Duration

	// Replay mode.
	ReplayFilePath string
	ReplaySpeed    float64
	ReplayLoop     bool
}

// New builds the Source named by opts.Mode. It is the sole place that
// decides live vs. replay, grounded on the teacher's
// serialmux.NewRealSerialMux factory.
func New(opts Options) (Source, error) {
	switch opts.Mode {
	case ModeLive:
		if opts.SDK == nil {
			return nil, fmt.Errorf("source: live mode requires an SDKReader")
		}
		return NewLiveSource(opts.SDK, opts.PollDelay), nil
	case ModeReplay:
		if opts.ReplayFilePath == "" {
			return nil, fmt.Errorf("source: replay mode requires REPLAY_FILE_PATH")
		}
		speed := opts.ReplaySpeed
		if speed <= 0 {
			speed = 1.0
		}
		return NewReplaySource(opts.ReplayFilePath, speed, opts.ReplayLoop), nil
	default:
		return nil, fmt.Errorf("source: unknown mode %q", opts.Mode)
	}
}
