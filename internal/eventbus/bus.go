package eventbus

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
)

// Config tunes the bus's queue depth, worker pool size, and overflow
// behavior. Zero-valued fields are replaced with defaults by NewBus.
type Config struct {
	// QueueCapacity bounds the single FIFO shared by every event type.
	// Default 1000 per spec.md §4.1; tests that need to exercise sustained
	// 60-100 Hz load without drops configure this higher.
	QueueCapacity int
	// Workers bounds the number of handlers that may run concurrently
	// across the whole bus. Default runtime.NumCPU(). Per design note §9,
	// this must be at least 2 plus the number of handlers expected to
	// block (e.g. the two upload handlers) to avoid head-of-line blocking
	// on the lap segmenter.
	Workers int
	// OverflowTimeout bounds how long Publish blocks on a full queue when
	// the caller's context carries no deadline of its own. Zero (or a
	// negative value) is replaced with the 250ms default.
	OverflowTimeout time.Duration
}

func (c Config) normalize() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 1000
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.OverflowTimeout <= 0 {
		c.OverflowTimeout = 250 * time.Millisecond
	}
	return c
}

// Bus is the in-process typed pub/sub fabric described in spec.md §4.1: a
// single bounded FIFO, one dispatcher goroutine that pops events in
// publication order, and a fixed worker pool that runs each event's
// handlers concurrently before the dispatcher advances to the next event.
type Bus struct {
	cfg Config

	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	nextSubID   uint64

	queue chan Event
	sem   chan struct{}

	running  atomic.Bool
	stopCh   chan struct{}
	loopDone sync.WaitGroup

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewBus constructs a Bus. It must be started with Start before Publish
// will succeed.
func NewBus(cfg Config) *Bus {
	cfg = cfg.normalize()
	return &Bus{
		cfg:         cfg,
		subscribers: make(map[EventType][]subscription),
		queue:       make(chan Event, cfg.QueueCapacity),
		sem:         make(chan struct{}, cfg.Workers),
	}
}

// Subscribe registers fn to receive every Event of type t, returning an id
// that can later be passed to Unsubscribe. Subscribing the same function
// value twice registers it twice — use the returned SubscriptionID to
// manage removal rather than relying on function identity.
func (b *Bus) Subscribe(t EventType, fn HandlerFunc) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSubID++
	id := SubscriptionID(b.nextSubID)
	b.subscribers[t] = append(b.subscribers[t], subscription{id: id, fn: fn})
	return id
}

// Unsubscribe removes a subscription by id. It is a no-op if the id is not
// present (already removed, or never registered for that type).
func (b *Bus) Unsubscribe(t EventType, id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[t]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[t] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// RegisterHandler subscribes a Handler{Type, Fn} pair.
func (b *Bus) RegisterHandler(h Handler) SubscriptionID {
	return b.Subscribe(h.Type, h.Fn)
}

// RegisterHandlers subscribes a batch of Handlers, returning their ids in
// the same order.
func (b *Bus) RegisterHandlers(hs []Handler) []SubscriptionID {
	ids := make([]SubscriptionID, len(hs))
	for i, h := range hs {
		ids[i] = b.RegisterHandler(h)
	}
	return ids
}

// Start begins the dispatcher goroutine. It is idempotent: calling Start on
// an already-running bus is a no-op.
func (b *Bus) Start() error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	b.stopCh = make(chan struct{})
	b.loopDone.Add(1)
	go b.dispatchLoop(b.stopCh)
	return nil
}

// Stop signals the dispatcher to stop accepting new work from the queue,
// waits for any in-flight handlers to finish, and returns. It is
// idempotent. Events still sitting in the queue when Stop is called are
// dropped, per spec.md §4.1's cancellation contract.
func (b *Bus) Stop() error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	close(b.stopCh)
	b.loopDone.Wait()
	return nil
}

// IsRunning reports whether the dispatcher is currently accepting events.
func (b *Bus) IsRunning() bool {
	return b.running.Load()
}

// Publish enqueues evt for dispatch. It is safe to call from any goroutine,
// including the single producer goroutine and from within a handler
// (reentrant publication) — a buffered channel send has no "producer
// thread" special case in Go, so Publish and ThreadSafePublish are the same
// operation; the spec.md distinction between them is preserved only as two
// names for callers that want to document intent at the call site.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if !b.IsRunning() {
		return ErrNotRunning
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var timeoutCh <-chan time.Time
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && b.cfg.OverflowTimeout > 0 {
		timer := time.NewTimer(b.cfg.OverflowTimeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case b.queue <- evt:
		b.published.Add(1)
		return nil
	case <-ctx.Done():
		b.dropped.Add(1)
		return ErrQueueFull
	case <-timeoutCh:
		b.dropped.Add(1)
		return ErrQueueFull
	case <-b.stopCh:
		return ErrNotRunning
	}
}

// ThreadSafePublish is an alias for Publish — see its doc comment.
func (b *Bus) ThreadSafePublish(ctx context.Context, evt Event) error {
	return b.Publish(ctx, evt)
}

// Stats is a point-in-time snapshot of bus counters, primarily useful in
// tests asserting zero-drop behavior under load (spec.md §8).
type Stats struct {
	Published uint64
	Delivered uint64
	Dropped   uint64
	QueueDepth int
}

// Stats returns current counters. QueueDepth is an instantaneous read of
// the channel's buffered length and may be stale by the time it's observed.
func (b *Bus) Stats() Stats {
	return Stats{
		Published:  b.published.Load(),
		Delivered:  b.delivered.Load(),
		Dropped:    b.dropped.Load(),
		QueueDepth: len(b.queue),
	}
}

func (b *Bus) dispatchLoop(stopCh chan struct{}) {
	defer b.loopDone.Done()
	for {
		select {
		case <-stopCh:
			return
		case evt := <-b.queue:
			b.dispatch(evt)
		}
	}
}

// dispatch fans evt out to every handler registered for its type, running
// each on a worker-pool goroutine, and blocks until all of them have
// returned (or panicked) before the caller (the dispatch loop) proceeds to
// the next event. This is what gives "ordered ingress / unordered egress":
// events are popped from the queue in publish order, but a single event's
// handlers race each other freely.
func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[evt.Type]...)
	b.mu.RUnlock()
	if len(subs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		b.sem <- struct{}{}
		go func(s subscription) {
			defer wg.Done()
			defer func() { <-b.sem }()
			b.runHandler(s, evt)
		}(s)
	}
	wg.Wait()
}

// runHandler invokes a single handler with panic recovery so a faulty
// handler can never take down the dispatcher or starve sibling handlers of
// the same event (spec.md §4.1 fault isolation).
func (b *Bus) runHandler(s subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("eventbus: handler %d panicked on %s: %v", s.id, evt.Type, r)
		}
	}()
	hc := HandlerContext{bus: b}
	if err := s.fn(context.Background(), hc, evt); err != nil {
		monitoring.Logf("eventbus: handler %d returned error on %s: %v", s.id, evt.Type, err)
		return
	}
	b.delivered.Add(1)
}
