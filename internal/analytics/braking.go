package analytics

import (
	"math"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// extractBraking performs the single linear scan described in spec.md
// §4.6: a zone opens at the first frame where brake exceeds the
// threshold and closes at the first subsequent frame at or below it.
// Zones shorter than MinBrakeDuration or never reaching MinBrakePressure
// are dropped before any derived metrics are computed for them.
func (cfg Config) extractBraking(frames []telemetry.Frame) []BrakingMetrics {
	var zones []BrakingMetrics
	minDurationSec := cfg.MinBrakeDuration.Seconds()

	i := 0
	n := len(frames)
	for i < n {
		if frames[i].Brake <= cfg.BrakeThreshold {
			i++
			continue
		}
		start := i
		maxPressure := frames[i].Brake
		minSpeed := frames[i].Speed
		for i < n && frames[i].Brake > cfg.BrakeThreshold {
			if frames[i].Brake > maxPressure {
				maxPressure = frames[i].Brake
			}
			if frames[i].Speed < minSpeed {
				minSpeed = frames[i].Speed
			}
			i++
		}
		end := i - 1 // last frame still above threshold

		duration := frames[end].SessionTime - frames[start].SessionTime
		if duration < minDurationSec || maxPressure < cfg.MinBrakePressure {
			continue
		}

		zone := BrakingMetrics{
			StartDistance:        frames[start].LapDistance,
			EndDistance:          frames[end].LapDistance,
			StartTime:            frames[start].SessionTime,
			EndTime:              frames[end].SessionTime,
			BrakingPointDistance: frames[start].LapDistance,
			BrakingPointSpeed:    frames[start].Speed,
			MinimumSpeed:         minSpeed,
			MaxBrakePressure:     maxPressure,
			BrakingDuration:      duration,
		}

		zoneFrames := frames[start : end+1]
		zone.InitialDeceleration = initialDeceleration(zoneFrames)
		zone.AverageDeceleration = averageDeceleration(zoneFrames)
		if maxPressure != 0 {
			zone.BrakingEfficiency = math.Abs(zone.AverageDeceleration) / maxPressure
		}

		hasTrail, trailDistance, trailPct := cfg.trailBraking(zoneFrames)
		zone.HasTrailBraking = hasTrail
		zone.TrailBrakeDistance = trailDistance
		zone.TrailBrakePercentage = trailPct

		zones = append(zones, zone)
	}
	return zones
}

// initialDeceleration is Δspeed/Δt over the first up-to-five frames of the
// zone.
func initialDeceleration(zone []telemetry.Frame) float64 {
	span := len(zone)
	if span > 5 {
		span = 5
	}
	return rate(zone[0], zone[span-1])
}

// averageDeceleration is Δspeed/Δt over the whole zone.
func averageDeceleration(zone []telemetry.Frame) float64 {
	return rate(zone[0], zone[len(zone)-1])
}

func rate(first, last telemetry.Frame) float64 {
	dt := last.SessionTime - first.SessionTime
	if dt <= 0 {
		return 0
	}
	return (last.Speed - first.Speed) / dt
}

// trailBraking sub-scans a braking zone for frames that also have
// meaningful steering input, accumulating the distance traveled and mean
// brake pressure across those frames.
func (cfg Config) trailBraking(zone []telemetry.Frame) (has bool, distance float64, meanBrakePct float64) {
	var brakeSum float64
	var count int
	for idx, f := range zone {
		if f.Brake <= cfg.BrakeThreshold || math.Abs(f.SteeringAngle) <= cfg.SteeringThreshold {
			continue
		}
		has = true
		count++
		brakeSum += f.Brake
		if idx > 0 {
			distance += cfg.deltaDistance(zone[idx-1].LapDistance, f.LapDistance)
		}
	}
	if count == 0 {
		return false, 0, 0
	}
	return true, distance, (brakeSum / float64(count)) * 100
}
