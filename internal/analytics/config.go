package analytics

import "time"

// Config holds the tunable thresholds from spec.md §4.6. Defaults match
// the spec exactly; callers needing per-track or per-car tuning construct
// their own Config rather than mutating DefaultConfig.
type Config struct {
	BrakeThreshold    float64
	MinBrakeDuration  time.Duration
	MinBrakePressure  float64

	SteeringThreshold      float64
	MinCornerDuration      time.Duration
	MinCornerGap           time.Duration
	SteeringExitHysteresis time.Duration

	ThrottleThreshold float64

	// WrapFallbackMeters is substituted for a negative lap_distance delta
	// (a lap-distance wrap between the last and first frame of the lap).
	// See spec.md §9's open question on lap-wrap handling; an implementer
	// with a known track length may override this per-track.
	WrapFallbackMeters float64
}

// DefaultConfig returns the spec.md §4.6 default thresholds.
func DefaultConfig() Config {
	return Config{
		BrakeThreshold:   0.05,
		MinBrakeDuration: 200 * time.Millisecond,
		MinBrakePressure: 0.10,

		SteeringThreshold:      0.15,
		MinCornerDuration:      500 * time.Millisecond,
		MinCornerGap:           400 * time.Millisecond,
		SteeringExitHysteresis: 350 * time.Millisecond,

		ThrottleThreshold: 0.05,

		WrapFallbackMeters: 10_000.0,
	}
}
