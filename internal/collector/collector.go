// Package collector runs the producer thread described in spec.md §4.3/§4.4:
// it drives a source.Source, registers the resulting session with
// internal/session, and republishes every frame onto internal/eventbus for
// the lap segmenter, analytics extractor, and uploaders downstream. It is
// grounded on the read/dispatch loop in the teacher's
// internal/serialmux.SerialMux.Monitor — a background goroutine feeds a
// channel while an outer select loop forwards to subscribers and watches
// for cancellation — adapted here to a two-phase collect from a
// source.Source instead of a bufio.Scanner over a serial port.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/session"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/source"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// Collector owns one source.Source for the lifetime of a single session. A
// new Collector is constructed per connection attempt; it is not reusable
// across Run calls.
type Collector struct {
	src source.Source
	bus *eventbus.Bus
	reg *session.Registry
}

// New constructs a Collector. bus must already be started; reg receives
// the session on start and is cleared on exit, and may be shared with
// anything that needs to look up the active session.
func New(src source.Source, bus *eventbus.Bus, reg *session.Registry) *Collector {
	return &Collector{src: src, bus: bus, reg: reg}
}

// Run starts the source, publishes SessionStart, then loops publishing one
// TelemetryEvent per collected frame until the context is canceled or the
// source is exhausted/disconnects, at which point it publishes SessionEnd,
// stops the source, and returns. Run blocks until exit and never retries
// internally — spec.md §4.4 leaves reconnect policy to the caller.
func (c *Collector) Run(ctx context.Context) error {
	if err := c.src.Start(ctx); err != nil {
		return fmt.Errorf("collector: start source: %w", err)
	}

	sess, err := c.src.CollectSessionFrame(ctx)
	if err != nil {
		_ = c.src.Stop()
		return fmt.Errorf("collector: collect session frame: %w", err)
	}
	if sess.SessionID == uuid.Nil {
		sess.SessionID = telemetry.NewSessionID()
	}

	c.reg.StartSession(sess)
	if err := c.bus.Publish(ctx, eventbus.NewEvent(eventbus.EventSessionStart, eventbus.SessionStartPayload{Session: sess})); err != nil {
		monitoring.Logf("collector: publish session start: %v", err)
	}

	runErr := c.loop(ctx, sess.SessionID)

	c.reg.EndSession(sess.SessionID)
	if err := c.bus.Publish(context.Background(), eventbus.NewEvent(eventbus.EventSessionEnd, eventbus.SessionEndPayload{SessionID: sess.SessionID})); err != nil {
		monitoring.Logf("collector: publish session end: %v", err)
	}
	if err := c.src.Stop(); err != nil {
		monitoring.Logf("collector: stop source: %v", err)
	}

	return runErr
}

func (c *Collector) loop(ctx context.Context, sessionID uuid.UUID) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := c.src.CollectTelemetryFrame(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, source.ErrReplayExhausted) || errors.Is(err, source.ErrNotStarted) {
				return nil
			}
			var connErr *source.ConnectionError
			if errors.As(err, &connErr) {
				return err
			}
			monitoring.Logf("collector: collect telemetry frame: %v", err)
			continue
		}

		evt := eventbus.NewEvent(eventbus.EventTelemetry, eventbus.TelemetryPayload{
			SessionID: sessionID,
			Frame:     frame,
		})
		if err := c.bus.Publish(ctx, evt); err != nil {
			monitoring.Logf("collector: publish telemetry frame: %v", err)
		}
	}
}
