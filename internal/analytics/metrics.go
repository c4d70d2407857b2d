// Package analytics extracts braking-zone and corner metrics from a
// completed lap's time series. It runs off the hot path — the lap
// segmenter hands it a fully-buffered telemetry.Lap on a worker-pool
// goroutine, never on the collector's producer goroutine.
package analytics

import "github.com/google/uuid"

// BrakingMetrics describes one filtered braking zone within a lap.
type BrakingMetrics struct {
	StartDistance float64 `json:"start_distance"`
	EndDistance   float64 `json:"end_distance"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`

	BrakingPointDistance float64 `json:"braking_point_distance"`
	BrakingPointSpeed    float64 `json:"braking_point_speed"`
	MinimumSpeed         float64 `json:"minimum_speed"`
	MaxBrakePressure     float64 `json:"max_brake_pressure"`

	BrakingDuration      float64 `json:"braking_duration"`
	InitialDeceleration  float64 `json:"initial_deceleration"`
	AverageDeceleration  float64 `json:"average_deceleration"`
	BrakingEfficiency    float64 `json:"braking_efficiency"`

	HasTrailBraking       bool    `json:"has_trail_braking"`
	TrailBrakeDistance    float64 `json:"trail_brake_distance"`
	TrailBrakePercentage  float64 `json:"trail_brake_percentage"`
}

// CornerMetrics describes one filtered, possibly-merged corner within a lap.
type CornerMetrics struct {
	TurnInDistance              float64 `json:"turn_in_distance"`
	ApexDistance                float64 `json:"apex_distance"`
	ExitDistance                float64 `json:"exit_distance"`
	ThrottleApplicationDistance float64 `json:"throttle_application_distance"`

	TurnInSpeed   float64 `json:"turn_in_speed"`
	ApexSpeed     float64 `json:"apex_speed"`
	ExitSpeed     float64 `json:"exit_speed"`

	MaxLateralG      float64 `json:"max_lateral_g"`
	TimeInCorner     float64 `json:"time_in_corner"`
	CornerDistance   float64 `json:"corner_distance"`
	MaxSteeringAngle float64 `json:"max_steering_angle"`

	SpeedLoss float64 `json:"speed_loss"`
	SpeedGain float64 `json:"speed_gain"`
}

// LapMetrics is the full derived-analytics payload for one completed lap.
type LapMetrics struct {
	LapID     uuid.UUID `json:"lap_id"`
	SessionID uuid.UUID `json:"session_id"`
	LapNumber int       `json:"lap_number"`
	LapTime   float64   `json:"lap_time,omitempty"`

	MaxSpeed            float64 `json:"max_speed"`
	MinSpeed            float64 `json:"min_speed"`
	AverageCornerSpeed  float64 `json:"average_corner_speed"`
	TotalBrakingZones   int     `json:"total_braking_zones"`
	TotalCorners        int     `json:"total_corners"`

	BrakingZones []BrakingMetrics `json:"braking_zones"`
	Corners      []CornerMetrics  `json:"corners"`
}
