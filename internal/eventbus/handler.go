package eventbus

import "context"

// HandlerFunc processes one Event of the type it was subscribed to. It
// receives a HandlerContext so it may publish downstream events (e.g. the
// lap segmenter publishing LapCompleted from within its TelemetryEvent
// handler) without holding a reference to the whole Bus.
type HandlerFunc func(ctx context.Context, hc HandlerContext, evt Event) error

// HandlerContext is the capability a handler gets to re-publish. It
// deliberately exposes nothing else of Bus (no Subscribe, no Stop) so a
// handler cannot rewire the bus it's being driven by.
type HandlerContext struct {
	bus *Bus
}

// Publish re-enqueues an event from within a handler. Reentrant publication
// always enqueues — it never dispatches inline — so handler fan-out stays
// bounded by the queue and worker pool exactly like a top-level Publish.
func (hc HandlerContext) Publish(ctx context.Context, evt Event) error {
	return hc.bus.Publish(ctx, evt)
}

// Handler pairs an EventType with the function that handles it, for batch
// registration via RegisterHandlers.
type Handler struct {
	Type EventType
	Fn   HandlerFunc
}

// SubscriptionID identifies a single subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id SubscriptionID
	fn HandlerFunc
}
