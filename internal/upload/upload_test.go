package upload

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/analytics"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/httputil"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

func testConfig() Config {
	return Config{BaseURL: "http://coach.invalid", PerAttemptTimeout: time.Second, MaxRetries: 3}
}

func TestConfig_Normalize_DefaultsMatchSpecBackoffBudget(t *testing.T) {
	cfg := Config{BaseURL: "http://coach.invalid"}.normalize()
	require.Equal(t, 2, cfg.MaxRetries) // 3 total attempts = 1 try + 2 retries
	require.Equal(t, 300*time.Millisecond, DefaultInitialBackoff)
}

func TestUploader_DefaultConfigExhaustsAfterThreeAttempts(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	for i := 0; i < 5; i++ {
		mock.AddResponse(http.StatusServiceUnavailable, "")
	}
	u := New(Config{BaseURL: "http://coach.invalid", PerAttemptTimeout: time.Second}, mock)

	err := u.postWithRetry(context.Background(), "http://coach.invalid/laps", []byte("{}"))
	require.Error(t, err)
	require.Equal(t, 3, mock.RequestCount())
}

func TestUploader_LapUpload_SuccessOnFirstAttempt(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusCreated, `{"ok":true}`)
	u := New(testConfig(), mock)

	lap, err := telemetry.NewLap(uuid.New(), []telemetry.Frame{{LapNumber: 1, Speed: 10}})
	require.NoError(t, err)

	var result eventbus.LapUploadResultPayload
	hc := eventbus.HandlerContext{}
	evt := eventbus.NewEvent(eventbus.EventLapCompleted, eventbus.LapCompletedPayload{Lap: lap})

	bus := eventbus.NewBus(eventbus.Config{})
	require.NoError(t, bus.Start())
	defer bus.Stop()
	done := make(chan struct{})
	bus.Subscribe(eventbus.EventLapUploadResult, func(ctx context.Context, hc eventbus.HandlerContext, e eventbus.Event) error {
		result = e.Payload.(eventbus.LapUploadResultPayload)
		close(done)
		return nil
	})
	for _, h := range u.Handlers() {
		if h.Type == eventbus.EventLapCompleted {
			bus.RegisterHandler(h)
		}
	}
	require.NoError(t, bus.Publish(context.Background(), evt))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for upload result")
	}
	_ = hc
	require.True(t, result.Success)
	require.Equal(t, 1, mock.RequestCount())
}

func TestUploader_RetriesOn503ThenSucceeds(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusServiceUnavailable, "")
	mock.AddResponse(http.StatusOK, "")
	u := New(Config{BaseURL: "http://coach.invalid", PerAttemptTimeout: time.Second, MaxRetries: 3}, mock)

	err := u.postWithRetry(context.Background(), "http://coach.invalid/laps", []byte("{}"))
	require.NoError(t, err)
	require.Equal(t, 2, mock.RequestCount())
}

func TestUploader_TerminalOn400DoesNotRetry(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusBadRequest, `{"error":"malformed"}`)
	u := New(testConfig(), mock)

	err := u.postWithRetry(context.Background(), "http://coach.invalid/laps", []byte("{}"))
	require.Error(t, err)
	require.Equal(t, 1, mock.RequestCount())
}

func TestUploader_ExhaustsRetryBudgetOnPersistent5xx(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	for i := 0; i < 10; i++ {
		mock.AddResponse(http.StatusInternalServerError, "")
	}
	u := New(Config{BaseURL: "http://coach.invalid", PerAttemptTimeout: time.Second, MaxRetries: 2}, mock)

	err := u.postWithRetry(context.Background(), "http://coach.invalid/laps", []byte("{}"))
	require.Error(t, err)
	require.Equal(t, 3, mock.RequestCount()) // first attempt + 2 retries
}

func TestUploader_MetricsUpload_PublishesResult(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusCreated, "")
	u := New(testConfig(), mock)

	bus := eventbus.NewBus(eventbus.Config{})
	require.NoError(t, bus.Start())
	defer bus.Stop()
	bus.RegisterHandlers(u.Handlers())

	done := make(chan eventbus.MetricsUploadResultPayload, 1)
	bus.Subscribe(eventbus.EventMetricsUploadResult, func(ctx context.Context, hc eventbus.HandlerContext, e eventbus.Event) error {
		done <- e.Payload.(eventbus.MetricsUploadResultPayload)
		return nil
	})

	metrics := analytics.LapMetrics{LapID: uuid.New(), SessionID: uuid.New(), LapNumber: 5}
	require.NoError(t, bus.Publish(context.Background(), eventbus.NewEvent(eventbus.EventLapMetrics, eventbus.LapMetricsPayload{Metrics: metrics})))

	select {
	case result := <-done:
		require.True(t, result.Success)
		require.Equal(t, metrics.LapID, result.LapID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for metrics upload result")
	}
}
