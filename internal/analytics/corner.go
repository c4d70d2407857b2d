package analytics

import (
	"math"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// rawCorner is an intermediate result of the hysteresis scan, indexing into
// the lap's frame slice rather than copying values, so merging two raw
// corners only means picking indices.
type rawCorner struct {
	turnInIdx   int
	apexIdx     int
	exitIdx     int
	throttleIdx int // -1 if throttle never crossed ThrottleThreshold before exit
	maxLateralG float64
	minSpeed    float64
	maxSteering float64
}

// extractCorners runs the three sub-passes described in spec.md §4.6: raw
// hysteresis-based extraction, merging near-neighbor corners separated by
// less than MinCornerGap, and filtering out anything shorter than
// MinCornerDuration.
func (cfg Config) extractCorners(frames []telemetry.Frame) []CornerMetrics {
	raw := cfg.extractRawCorners(frames)
	merged := cfg.mergeCorners(frames, raw)
	return cfg.finalizeCorners(frames, merged)
}

func (cfg Config) extractRawCorners(frames []telemetry.Frame) []rawCorner {
	var corners []rawCorner
	n := len(frames)
	exitHysteresisSec := cfg.SteeringExitHysteresis.Seconds()

	i := 0
	for i < n {
		if math.Abs(frames[i].SteeringAngle) <= cfg.SteeringThreshold {
			i++
			continue
		}

		c := rawCorner{
			turnInIdx:   i,
			apexIdx:     i,
			throttleIdx: -1,
			maxLateralG: math.Abs(frames[i].LateralAcceleration),
			minSpeed:    frames[i].Speed,
			maxSteering: math.Abs(frames[i].SteeringAngle),
		}

		belowStart := -1
		j := i
		for j < n {
			steer := math.Abs(frames[j].SteeringAngle)
			if steer > cfg.SteeringThreshold {
				if lat := math.Abs(frames[j].LateralAcceleration); lat >= c.maxLateralG {
					c.maxLateralG = lat
					c.apexIdx = j
				}
				if frames[j].Speed < c.minSpeed {
					c.minSpeed = frames[j].Speed
				}
				if steer > c.maxSteering {
					c.maxSteering = steer
				}
				if c.throttleIdx == -1 && frames[j].Throttle > cfg.ThrottleThreshold {
					c.throttleIdx = j
				}
				belowStart = -1
				j++
				continue
			}

			if belowStart == -1 {
				belowStart = j
			}
			if frames[j].SessionTime-frames[belowStart].SessionTime >= exitHysteresisSec {
				break
			}
			j++
		}

		if belowStart != -1 {
			c.exitIdx = belowStart
			i = belowStart
		} else {
			// Steering never dropped back below threshold for long enough
			// before the lap ended; the corner runs to the last frame.
			c.exitIdx = n - 1
			i = n
		}

		corners = append(corners, c)
	}
	return corners
}

// mergeCorners collapses consecutive raw corners whose gap (exit of one to
// turn-in of the next) is below MinCornerGap, per spec.md §4.6 sub-pass 2.
func (cfg Config) mergeCorners(frames []telemetry.Frame, raw []rawCorner) []rawCorner {
	if len(raw) == 0 {
		return nil
	}
	minGapSec := cfg.MinCornerGap.Seconds()

	merged := []rawCorner{raw[0]}
	for _, next := range raw[1:] {
		last := &merged[len(merged)-1]
		gap := frames[next.turnInIdx].SessionTime - frames[last.exitIdx].SessionTime
		if gap >= minGapSec {
			merged = append(merged, next)
			continue
		}

		combined := rawCorner{
			turnInIdx:   last.turnInIdx,
			exitIdx:     next.exitIdx,
			maxSteering: math.Max(last.maxSteering, next.maxSteering),
			minSpeed:    math.Min(last.minSpeed, next.minSpeed),
		}
		if last.maxLateralG >= next.maxLateralG {
			combined.maxLateralG = last.maxLateralG
			combined.apexIdx = last.apexIdx
		} else {
			combined.maxLateralG = next.maxLateralG
			combined.apexIdx = next.apexIdx
		}
		combined.throttleIdx = last.throttleIdx
		if combined.throttleIdx == -1 {
			combined.throttleIdx = next.throttleIdx
		}
		merged[len(merged)-1] = combined
	}
	return merged
}

// finalizeCorners drops corners shorter than MinCornerDuration and computes
// the reported CornerMetrics for the survivors.
func (cfg Config) finalizeCorners(frames []telemetry.Frame, raw []rawCorner) []CornerMetrics {
	minDurationSec := cfg.MinCornerDuration.Seconds()
	var out []CornerMetrics
	for _, c := range raw {
		timeInCorner := frames[c.exitIdx].SessionTime - frames[c.turnInIdx].SessionTime
		if timeInCorner < minDurationSec {
			continue
		}

		var cornerDistance float64
		for idx := c.turnInIdx + 1; idx <= c.exitIdx; idx++ {
			cornerDistance += cfg.deltaDistance(frames[idx-1].LapDistance, frames[idx].LapDistance)
		}

		throttleDistance := frames[c.exitIdx].LapDistance
		if c.throttleIdx >= 0 {
			throttleDistance = frames[c.throttleIdx].LapDistance
		}

		turnInSpeed := frames[c.turnInIdx].Speed
		apexSpeed := frames[c.apexIdx].Speed
		exitSpeed := frames[c.exitIdx].Speed

		out = append(out, CornerMetrics{
			TurnInDistance:              frames[c.turnInIdx].LapDistance,
			ApexDistance:                frames[c.apexIdx].LapDistance,
			ExitDistance:                frames[c.exitIdx].LapDistance,
			ThrottleApplicationDistance: throttleDistance,
			TurnInSpeed:                 turnInSpeed,
			ApexSpeed:                   apexSpeed,
			ExitSpeed:                   exitSpeed,
			MaxLateralG:                 c.maxLateralG,
			TimeInCorner:                timeInCorner,
			CornerDistance:              cornerDistance,
			MaxSteeringAngle:            c.maxSteering,
			SpeedLoss:                   turnInSpeed - apexSpeed,
			SpeedGain:                   exitSpeed - apexSpeed,
		})
	}
	return out
}
