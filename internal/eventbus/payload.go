package eventbus

import (
	"github.com/google/uuid"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/analytics"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// SessionStartPayload is carried by EventSessionStart, published once by the
// collector after the source produces its first session snapshot.
type SessionStartPayload struct {
	Session telemetry.Session
}

// SessionEndPayload is carried by EventSessionEnd, published once by the
// collector when its source disconnects or its context is canceled.
type SessionEndPayload struct {
	SessionID uuid.UUID
}

// TelemetryPayload is carried by EventTelemetry, published once per sampled
// frame. SessionID disambiguates frames across a source restart since Frame
// itself carries no session identity (internal/telemetry.Frame doc comment).
type TelemetryPayload struct {
	SessionID uuid.UUID
	Frame     telemetry.Frame
}

// LapCompletedPayload is carried by EventLapCompleted, published by the lap
// segmenter once it has buffered every frame of a completed lap.
type LapCompletedPayload struct {
	Lap telemetry.Lap
}

// LapMetricsPayload is carried by EventLapMetrics, published by the
// analytics extractor after processing a LapCompletedPayload.
type LapMetricsPayload struct {
	Metrics analytics.LapMetrics
}

// LapUploadResultPayload is carried by EventLapUploadResult, published by
// the lap uploader once an upload attempt reaches a terminal outcome
// (success or exhausted retry budget).
type LapUploadResultPayload struct {
	SessionID uuid.UUID
	LapID     uuid.UUID
	Success   bool
	Err       error
}

// MetricsUploadResultPayload is carried by EventMetricsUploadResult,
// published by the metrics uploader once an upload attempt reaches a
// terminal outcome.
type MetricsUploadResultPayload struct {
	SessionID uuid.UUID
	LapID     uuid.UUID
	Success   bool
	Err       error
}
