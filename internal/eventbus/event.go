// Package eventbus is the typed pub/sub fabric that carries telemetry
// frames, lap sequences, and lifecycle events between the collector's
// producer goroutine and the handler goroutines (lap segmenter, analytics,
// uploaders) under a 60 Hz sustained / 100 Hz burst real-time budget.
//
// The internal model is one bounded FIFO, a single dispatcher goroutine
// that pops events in publication order, and a fixed worker pool that runs
// each event's handlers concurrently — the dispatcher blocks on
// sync.WaitGroup until every handler for the current event has returned
// (or panicked) before advancing to the next event. That preserves
// per-type ordering into each handler while letting handlers for the same
// event run in parallel.
package eventbus

import "time"

// EventType tags the payload carried by an Event. Handlers subscribe by
// EventType. The payload itself is an untyped any: the bus does not check
// that it matches the type documented for its EventType, so each handler
// type-asserts the payload and returns an error on a mismatch.
type EventType string

const (
	// EventSessionStart carries SessionStartPayload.
	EventSessionStart EventType = "session.start"
	// EventSessionEnd carries SessionEndPayload.
	EventSessionEnd EventType = "session.end"
	// EventTelemetry carries TelemetryPayload, published once per sampled frame.
	EventTelemetry EventType = "telemetry.frame"
	// EventLapCompleted carries LapCompletedPayload.
	EventLapCompleted EventType = "lap.completed"
	// EventLapMetrics carries LapMetricsPayload.
	EventLapMetrics EventType = "lap.metrics"
	// EventLapUploadResult carries LapUploadResultPayload.
	EventLapUploadResult EventType = "upload.lap_result"
	// EventMetricsUploadResult carries MetricsUploadResultPayload.
	EventMetricsUploadResult EventType = "upload.metrics_result"
)

// Event is the envelope placed on the bus: a typed tag, an opaque payload
// whose concrete type is determined by Type, and the wall-clock time the
// event was published (used for publish->receive latency measurements).
type Event struct {
	Type      EventType
	Payload   any
	Timestamp time.Time
}

// NewEvent stamps the current time onto a new Event.
func NewEvent(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload, Timestamp: time.Now()}
}
