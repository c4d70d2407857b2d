package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/session"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/source"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// fakeSource is a scripted source.Source: it yields a fixed session and
// frame sequence, then returns stopErr (defaulting to ErrReplayExhausted)
// to signal the collector should exit its loop.
type fakeSource struct {
	mu       sync.Mutex
	session  telemetry.Session
	frames   []telemetry.Frame
	idx      int
	endless  bool
	stopErr  error
	startErr error
	started  bool
	stopped  bool
}

func (f *fakeSource) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeSource) IsConnected() bool { return true }

func (f *fakeSource) CollectSessionFrame(ctx context.Context) (telemetry.Session, error) {
	return f.session, nil
}

func (f *fakeSource) CollectTelemetryFrame(ctx context.Context) (telemetry.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endless {
		f.idx++
		return telemetry.Frame{}, nil
	}
	if f.idx >= len(f.frames) {
		err := f.stopErr
		if err == nil {
			err = source.ErrReplayExhausted
		}
		return telemetry.Frame{}, err
	}
	fr := f.frames[f.idx]
	f.idx++
	return fr, nil
}

var _ source.Source = (*fakeSource)(nil)

func newRunningBus(t *testing.T) *eventbus.Bus {
	t.Helper()
	bus := eventbus.NewBus(eventbus.Config{})
	require.NoError(t, bus.Start())
	t.Cleanup(func() { _ = bus.Stop() })
	return bus
}

func TestCollector_PublishesSessionStartFramesThenSessionEnd(t *testing.T) {
	src := &fakeSource{
		session: telemetry.Session{SessionID: uuid.New(), TrackName: "Sebring"},
		frames: []telemetry.Frame{
			{LapNumber: 1, SessionTime: 0},
			{LapNumber: 1, SessionTime: 1.0 / 60},
			{LapNumber: 1, SessionTime: 2.0 / 60},
		},
	}
	bus := newRunningBus(t)
	reg := session.NewRegistry()

	var mu sync.Mutex
	var types []eventbus.EventType
	var frameCount int
	var sawSessionEnd sync.WaitGroup
	sawSessionEnd.Add(1)

	bus.Subscribe(eventbus.EventSessionStart, func(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
		mu.Lock()
		types = append(types, evt.Type)
		mu.Unlock()
		return nil
	})
	bus.Subscribe(eventbus.EventTelemetry, func(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
		mu.Lock()
		frameCount++
		mu.Unlock()
		return nil
	})
	bus.Subscribe(eventbus.EventSessionEnd, func(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
		mu.Lock()
		types = append(types, evt.Type)
		mu.Unlock()
		sawSessionEnd.Done()
		return nil
	})

	c := New(src, bus, reg)
	err := c.Run(context.Background())
	require.NoError(t, err)

	waitOrFail(t, &sawSessionEnd, time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, frameCount)
	require.Equal(t, []eventbus.EventType{eventbus.EventSessionStart, eventbus.EventSessionEnd}, types)
	require.True(t, src.started)
	require.True(t, src.stopped)
	require.False(t, reg.HasActiveSession())
}

func TestCollector_StartFailureReturnsErrorWithoutPublishing(t *testing.T) {
	src := &fakeSource{startErr: errors.New("boom")}
	bus := newRunningBus(t)
	reg := session.NewRegistry()

	var published bool
	bus.Subscribe(eventbus.EventSessionStart, func(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
		published = true
		return nil
	})

	c := New(src, bus, reg)
	err := c.Run(context.Background())
	require.Error(t, err)
	require.False(t, published)
}

func TestCollector_ContextCancellationStopsLoopAndEndsSession(t *testing.T) {
	src := &fakeSource{
		session: telemetry.Session{SessionID: uuid.New()},
		endless: true,
	}
	bus := newRunningBus(t)
	reg := session.NewRegistry()

	var ended sync.WaitGroup
	ended.Add(1)
	bus.Subscribe(eventbus.EventSessionEnd, func(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
		ended.Done()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(src, bus, reg)
	err := c.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	waitOrFail(t, &ended, time.Second)
	require.True(t, src.stopped)
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for expected event")
	}
}
