package analytics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// Extract computes LapMetrics for a completed lap. It is the sole public
// entry point into the package; braking.go and corner.go implement its two
// passes. Extract returns ErrNoFrames for an empty lap — telemetry.NewLap
// already prevents constructing one, so this exists to keep the package
// safe to call directly in tests and to satisfy spec.md §8's boundary case.
func Extract(cfg Config, lap telemetry.Lap) (LapMetrics, error) {
	frames := lap.Frames
	if len(frames) == 0 {
		return LapMetrics{}, ErrNoFrames
	}

	metrics := LapMetrics{
		LapID:     lap.LapID,
		SessionID: lap.SessionID,
		LapNumber: lap.LapNumber,
		LapTime:   lap.Duration(),
	}

	metrics.MaxSpeed, metrics.MinSpeed = speedRange(frames)

	metrics.BrakingZones = cfg.extractBraking(frames)
	metrics.TotalBrakingZones = len(metrics.BrakingZones)

	metrics.Corners = cfg.extractCorners(frames)
	metrics.TotalCorners = len(metrics.Corners)
	metrics.AverageCornerSpeed = averageApexSpeed(metrics.Corners)

	return metrics, nil
}

func speedRange(frames []telemetry.Frame) (max, min float64) {
	max, min = frames[0].Speed, frames[0].Speed
	for _, f := range frames[1:] {
		if f.Speed > max {
			max = f.Speed
		}
		if f.Speed < min {
			min = f.Speed
		}
	}
	return max, min
}

// averageApexSpeed is the mean of each corner's apex speed, or 0 when the
// lap had no corners (spec.md §4.6 lap summary).
func averageApexSpeed(corners []CornerMetrics) float64 {
	if len(corners) == 0 {
		return 0
	}
	apex := make([]float64, len(corners))
	for i, c := range corners {
		apex[i] = c.ApexSpeed
	}
	return stat.Mean(apex, nil)
}
