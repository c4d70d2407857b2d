// Package livestream gives the out-of-scope desktop GUI collaborator
// (spec.md §1) two ways to watch a running collector without coupling it
// to the event bus's internal types: a standard gRPC health-check service
// (SERVING while a session is active) built on
// google.golang.org/grpc/health/grpc_health_v1, and an HTTP Server-Sent
// Events feed that republishes bus lifecycle/lap/upload events as JSON
// lines.
//
// The SSE feed is grounded on the teacher's internal/serialmux.SerialMux's
// AttachAdminRoutes "tail" handler: a per-client subscriber channel fed by
// a broadcast fan-out, written to the response with explicit Flush calls
// and the same no-buffering headers. Unlike the teacher's admin routes
// this package does not depend on tailscale/tsweb (dropped per DESIGN.md;
// the teacher's own package runs this service behind a Tailscale-only
// debug mux, which this repo has no equivalent deployment for) — routes
// are registered directly on a *http.ServeMux the caller owns.
package livestream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
)

// serviceName is the gRPC health service name this package reports on.
// Empty string ("") is the overall-server status that grpc_health_v1
// clients check by default; reporting under a named service as well lets a
// GUI distinguish "the collector process is up" from "a session is active".
const serviceName = "racing_telemetry.Collector"

// HealthServer wraps grpc/health.Server, flipping the named service
// between SERVING and NOT_SERVING as sessions start and end. Register it
// on a *grpc.Server with grpc_health_v1.RegisterHealthServer.
type HealthServer struct {
	*health.Server
}

// NewHealthServer constructs a HealthServer with both the overall and
// named service status initialized to NOT_SERVING, matching the teacher's
// pattern of starting gRPC services unready until explicitly marked up.
func NewHealthServer() *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{Server: hs}
}

// Handlers returns the Handler set that keeps the health server's serving
// status in sync with session lifecycle events.
func (h *HealthServer) Handlers() []eventbus.Handler {
	return []eventbus.Handler{
		{Type: eventbus.EventSessionStart, Fn: h.handleSessionStart},
		{Type: eventbus.EventSessionEnd, Fn: h.handleSessionEnd},
	}
}

func (h *HealthServer) handleSessionStart(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	h.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	h.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return nil
}

func (h *HealthServer) handleSessionEnd(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	h.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return nil
}

// feedEvent is the JSON shape republished to SSE subscribers. It carries
// only the tag and a small summary, never the full TelemetryPayload — a
// 60 Hz frame stream fanned out over SSE to every connected GUI would blow
// the bus's own real-time budget (spec.md §4.1), so frames are summarized,
// not mirrored.
type feedEvent struct {
	Type    eventbus.EventType `json:"type"`
	Summary string             `json:"summary"`
}

// Feed fans out a summarized view of bus lifecycle/lap/upload events to any
// number of SSE subscribers. It never subscribes to EventTelemetry itself.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan feedEvent]struct{}
}

// NewFeed constructs an empty Feed.
func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan feedEvent]struct{})}
}

// Handlers returns the Handler set that feeds summarized events into the
// feed's subscribers. Registered for every event type a GUI would want to
// show except EventTelemetry.
func (f *Feed) Handlers() []eventbus.Handler {
	types := []eventbus.EventType{
		eventbus.EventSessionStart,
		eventbus.EventSessionEnd,
		eventbus.EventLapCompleted,
		eventbus.EventLapMetrics,
		eventbus.EventLapUploadResult,
		eventbus.EventMetricsUploadResult,
	}
	handlers := make([]eventbus.Handler, len(types))
	for i, t := range types {
		handlers[i] = eventbus.Handler{Type: t, Fn: f.handleAny}
	}
	return handlers
}

func (f *Feed) handleAny(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	f.broadcast(feedEvent{Type: evt.Type, Summary: summarize(evt)})
	return nil
}

func summarize(evt eventbus.Event) string {
	switch p := evt.Payload.(type) {
	case eventbus.SessionStartPayload:
		return fmt.Sprintf("session %s started: %s at %s", p.Session.SessionID, p.Session.CarName, p.Session.TrackName)
	case eventbus.SessionEndPayload:
		return fmt.Sprintf("session %s ended", p.SessionID)
	case eventbus.LapCompletedPayload:
		return fmt.Sprintf("lap %d completed (%d frames)", p.Lap.LapNumber, len(p.Lap.Frames))
	case eventbus.LapMetricsPayload:
		return fmt.Sprintf("lap %d metrics: %d corners, %d braking zones", p.Metrics.LapNumber, p.Metrics.TotalCorners, p.Metrics.TotalBrakingZones)
	case eventbus.LapUploadResultPayload:
		return fmt.Sprintf("lap %s upload success=%v", p.LapID, p.Success)
	case eventbus.MetricsUploadResultPayload:
		return fmt.Sprintf("metrics %s upload success=%v", p.LapID, p.Success)
	default:
		return ""
	}
}

func (f *Feed) broadcast(e feedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- e:
		default:
			// A slow subscriber drops the event rather than blocking the
			// dispatcher's handler goroutine; the teacher's serialmux
			// subscribers are unbuffered and rely on the same
			// non-blocking-send-or-drop shape for its "tail" endpoint.
		}
	}
}

func (f *Feed) subscribe() chan feedEvent {
	ch := make(chan feedEvent, 16)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed) unsubscribe(ch chan feedEvent) {
	f.mu.Lock()
	delete(f.subscribers, ch)
	f.mu.Unlock()
}

// AttachAdminRoutes registers the SSE feed at /debug/tail on mux, in the
// same spirit as the teacher's SerialMux.AttachAdminRoutes.
func (f *Feed) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/tail", f.handleTail)
}

func (f *Feed) handleTail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := f.subscribe()
	defer f.unsubscribe(ch)

	fmt.Fprint(w, ": ping\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(e)
			if err != nil {
				monitoring.Logf("livestream: marshal feed event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
