// Package telemetry holds the immutable per-frame and per-session value
// types that flow through the event bus, the lap segmenter, and the
// analytics extractor. Nothing in this package mutates a frame once
// constructed; handlers are expected to treat them as read-only.
package telemetry

import "time"

// TrackSurface mirrors iRacing's per-wheel surface enumeration. -1 means
// "not in world" (e.g. the car has not yet spawned).
type TrackSurface int

const (
	SurfaceNotInWorld TrackSurface = iota - 1
	SurfaceUndefined
	SurfaceAsphalt
	SurfaceGrass
	SurfaceGravel
)

// Frame is one 60 Hz sample of vehicle state. It carries no session
// identifier by itself — identity is the pair (sessionID, SessionTime),
// tracked by whatever envelope places it on the bus (see eventbus.TelemetryPayload).
type Frame struct {
	Timestamp   time.Time `json:"timestamp"`
	SessionTime float64   `json:"session_time"`

	LapNumber       int     `json:"lap_number"`
	LapDistancePct  float64 `json:"lap_distance_pct"`
	LapDistance     float64 `json:"lap_distance"`
	CurrentLapTime  float64 `json:"current_lap_time"`
	LastLapTime     float64 `json:"last_lap_time"`
	BestLapTime     float64 `json:"best_lap_time"`

	Speed float64 `json:"speed"`
	RPM   float64 `json:"rpm"`
	Gear  int     `json:"gear"`

	Throttle      float64 `json:"throttle"`
	Brake         float64 `json:"brake"`
	Clutch        float64 `json:"clutch"`
	SteeringAngle float64 `json:"steering_angle"`

	LateralAcceleration      float64 `json:"lateral_acceleration"`
	LongitudinalAcceleration float64 `json:"longitudinal_acceleration"`
	VerticalAcceleration     float64 `json:"vertical_acceleration"`
	YawRate                  float64 `json:"yaw_rate"`
	RollRate                 float64 `json:"roll_rate"`
	PitchRate                float64 `json:"pitch_rate"`
	VelocityX                float64 `json:"velocity_x"`
	VelocityY                float64 `json:"velocity_y"`
	VelocityZ                float64 `json:"velocity_z"`
	Yaw                      float64 `json:"yaw"`
	Pitch                    float64 `json:"pitch"`
	Roll                     float64 `json:"roll"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`

	Wheels Wheels `json:"wheels"`

	TrackTemp    float64 `json:"track_temp"`
	TrackWetness float64 `json:"track_wetness"`
	AirTemp      float64 `json:"air_temp"`

	SessionFlags uint32       `json:"session_flags"`
	TrackSurface TrackSurface `json:"track_surface"`
	OnPitRoad    bool         `json:"on_pit_road"`
}
