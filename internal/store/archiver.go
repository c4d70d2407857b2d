package store

import (
	"context"
	"fmt"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/columnar"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
)

// Archiver persists every completed lap to the local cache in columnar
// form, independent of whether its upload ever succeeds — it is the local
// record a driver can replay or re-export later (spec.md §4.7).
type Archiver struct {
	db *DB
}

// NewArchiver binds an Archiver to db.
func NewArchiver(db *DB) *Archiver {
	return &Archiver{db: db}
}

// Handlers returns the Handler set to register on an eventbus.Bus.
func (a *Archiver) Handlers() []eventbus.Handler {
	return []eventbus.Handler{
		{Type: eventbus.EventLapCompleted, Fn: a.handleLapCompleted},
	}
}

func (a *Archiver) handleLapCompleted(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.LapCompletedPayload)
	if !ok {
		return fmt.Errorf("store: unexpected payload type %T for lap completed", evt.Payload)
	}

	cols := columnar.Encode(payload.Lap, payload.Lap.Duration())
	if err := a.db.ArchiveLap(ctx, cols); err != nil {
		monitoring.Logf("store: archive lap %s: %v", payload.Lap.LapID, err)
		return nil
	}
	return nil
}
