package analytics

import (
	"context"
	"fmt"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
)

// Extractor wires Extract onto the bus: every EventLapCompleted it sees is
// run through Extract and republished as EventLapMetrics, the same
// completed-event-triggers-derived-event shape the lap segmenter uses for
// raw frames -> completed laps.
type Extractor struct {
	cfg Config
}

// NewExtractor constructs an Extractor bound to cfg.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Handlers returns the Handler set to register on an eventbus.Bus.
func (e *Extractor) Handlers() []eventbus.Handler {
	return []eventbus.Handler{
		{Type: eventbus.EventLapCompleted, Fn: e.handleLapCompleted},
	}
}

func (e *Extractor) handleLapCompleted(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.LapCompletedPayload)
	if !ok {
		return fmt.Errorf("analytics: unexpected payload type %T for lap completed", evt.Payload)
	}

	metrics, err := Extract(e.cfg, payload.Lap)
	if err != nil {
		monitoring.Logf("analytics: extract lap %s: %v", payload.Lap.LapID, err)
		return nil
	}

	return hc.Publish(ctx, eventbus.NewEvent(eventbus.EventLapMetrics, eventbus.LapMetricsPayload{Metrics: metrics}))
}
