package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
)

// PendingWriter mirrors every lap/metrics payload into the pending_uploads
// queue as soon as it's produced, and clears the row once the uploader
// reports success. A process restart that finds rows still queued knows
// exactly what didn't make it to the server (spec.md §4.8's "survive a
// restart" requirement) without the uploader itself having to know about
// sqlite.
type PendingWriter struct {
	db *DB
}

// NewPendingWriter binds a PendingWriter to db.
func NewPendingWriter(db *DB) *PendingWriter {
	return &PendingWriter{db: db}
}

// Handlers returns the Handler set to register on an eventbus.Bus.
func (w *PendingWriter) Handlers() []eventbus.Handler {
	return []eventbus.Handler{
		{Type: eventbus.EventLapCompleted, Fn: w.handleLapCompleted},
		{Type: eventbus.EventLapMetrics, Fn: w.handleLapMetrics},
		{Type: eventbus.EventLapUploadResult, Fn: w.handleLapUploadResult},
		{Type: eventbus.EventMetricsUploadResult, Fn: w.handleMetricsUploadResult},
	}
}

func (w *PendingWriter) handleLapCompleted(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.LapCompletedPayload)
	if !ok {
		return fmt.Errorf("store: unexpected payload type %T for lap completed", evt.Payload)
	}
	body, err := json.Marshal(payload.Lap)
	if err != nil {
		return fmt.Errorf("store: marshal lap for pending queue: %w", err)
	}
	if _, err := w.db.EnqueuePendingUpload(ctx, UploadKindLap, payload.Lap.SessionID, payload.Lap.LapID, body); err != nil {
		monitoring.Logf("store: enqueue pending lap %s: %v", payload.Lap.LapID, err)
	}
	return nil
}

func (w *PendingWriter) handleLapMetrics(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.LapMetricsPayload)
	if !ok {
		return fmt.Errorf("store: unexpected payload type %T for lap metrics", evt.Payload)
	}
	body, err := json.Marshal(payload.Metrics)
	if err != nil {
		return fmt.Errorf("store: marshal metrics for pending queue: %w", err)
	}
	if _, err := w.db.EnqueuePendingUpload(ctx, UploadKindMetrics, payload.Metrics.SessionID, payload.Metrics.LapID, body); err != nil {
		monitoring.Logf("store: enqueue pending metrics %s: %v", payload.Metrics.LapID, err)
	}
	return nil
}

func (w *PendingWriter) handleLapUploadResult(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.LapUploadResultPayload)
	if !ok {
		return fmt.Errorf("store: unexpected payload type %T for lap upload result", evt.Payload)
	}
	if !payload.Success {
		return nil
	}
	if err := w.db.DeletePendingUploadByLapID(ctx, UploadKindLap, payload.LapID); err != nil {
		monitoring.Logf("store: clear pending lap %s: %v", payload.LapID, err)
	}
	return nil
}

func (w *PendingWriter) handleMetricsUploadResult(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.MetricsUploadResultPayload)
	if !ok {
		return fmt.Errorf("store: unexpected payload type %T for metrics upload result", evt.Payload)
	}
	if !payload.Success {
		return nil
	}
	if err := w.db.DeletePendingUploadByLapID(ctx, UploadKindMetrics, payload.LapID); err != nil {
		monitoring.Logf("store: clear pending metrics %s: %v", payload.LapID, err)
	}
	return nil
}
