// Package upload republishes lap.completed and lap.metrics events to the
// racing-coach server over HTTP, with retry/backoff for transient failures
// per spec.md §4.8: 429 and 5xx responses are retried with exponential
// backoff up to a finite budget, any other 4xx is terminal, and the
// outcome is always published back onto the bus as an
// upload.lap_result/upload.metrics_result event so the caller (and any
// local cache writer) learns the final status.
//
// The HTTP plumbing is internal/httputil, adapted from the teacher's own
// client.go; the retry policy is github.com/cenkalti/backoff/v4, the same
// exponential-backoff library several repos in the example pack depend on
// for outbound HTTP retries (see DESIGN.md).
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/httputil"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
)

// Config tunes the uploader's target and retry budget.
type Config struct {
	// BaseURL is the racing-coach server root; lap payloads post to
	// BaseURL+"/laps", metrics payloads to BaseURL+"/metrics".
	BaseURL string
	// PerAttemptTimeout bounds a single HTTP attempt.
	PerAttemptTimeout time.Duration
	// MaxRetries bounds the number of retries after the first attempt.
	MaxRetries int
}

// DefaultInitialBackoff is the base exponential-backoff interval for
// retried upload attempts (spec.md §6: "base 0.3 s").
const DefaultInitialBackoff = 300 * time.Millisecond

// DefaultMaxRetries is the retry budget after the first attempt (spec.md
// §6: "max 3 attempts" = 1 initial attempt + 2 retries).
const DefaultMaxRetries = 2

func (c Config) normalize() Config {
	if c.PerAttemptTimeout <= 0 {
		c.PerAttemptTimeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

// terminalError wraps a non-retryable HTTP failure (any 4xx other than 429)
// so backoff.Permanent can signal "stop retrying" without backoff itself
// needing to know about HTTP status codes.
type terminalError struct{ err error }

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Uploader posts lap and metrics payloads to the server and republishes the
// outcome onto the bus.
type Uploader struct {
	cfg    Config
	client httputil.HTTPClient
}

// New constructs an Uploader. client defaults to a StandardClient if nil.
func New(cfg Config, client httputil.HTTPClient) *Uploader {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &Uploader{cfg: cfg.normalize(), client: client}
}

// Handlers returns the Handler set to register on an eventbus.Bus.
func (u *Uploader) Handlers() []eventbus.Handler {
	return []eventbus.Handler{
		{Type: eventbus.EventLapCompleted, Fn: u.handleLapCompleted},
		{Type: eventbus.EventLapMetrics, Fn: u.handleLapMetrics},
	}
}

func (u *Uploader) handleLapCompleted(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.LapCompletedPayload)
	if !ok {
		return fmt.Errorf("upload: unexpected payload type %T for lap completed", evt.Payload)
	}
	body, err := json.Marshal(payload.Lap)
	if err != nil {
		return fmt.Errorf("upload: marshal lap: %w", err)
	}

	uploadErr := u.postWithRetry(ctx, u.cfg.BaseURL+"/laps", body)
	result := eventbus.LapUploadResultPayload{
		SessionID: payload.Lap.SessionID,
		LapID:     payload.Lap.LapID,
		Success:   uploadErr == nil,
		Err:       uploadErr,
	}
	if uploadErr != nil {
		monitoring.Logf("upload: lap %s failed: %v", payload.Lap.LapID, uploadErr)
	}
	return hc.Publish(ctx, eventbus.NewEvent(eventbus.EventLapUploadResult, result))
}

func (u *Uploader) handleLapMetrics(ctx context.Context, hc eventbus.HandlerContext, evt eventbus.Event) error {
	payload, ok := evt.Payload.(eventbus.LapMetricsPayload)
	if !ok {
		return fmt.Errorf("upload: unexpected payload type %T for lap metrics", evt.Payload)
	}
	body, err := json.Marshal(payload.Metrics)
	if err != nil {
		return fmt.Errorf("upload: marshal metrics: %w", err)
	}

	uploadErr := u.postWithRetry(ctx, u.cfg.BaseURL+"/metrics", body)
	result := eventbus.MetricsUploadResultPayload{
		SessionID: payload.Metrics.SessionID,
		LapID:     payload.Metrics.LapID,
		Success:   uploadErr == nil,
		Err:       uploadErr,
	}
	if uploadErr != nil {
		monitoring.Logf("upload: metrics for lap %s failed: %v", payload.Metrics.LapID, uploadErr)
	}
	return hc.Publish(ctx, eventbus.NewEvent(eventbus.EventMetricsUploadResult, result))
}

// postWithRetry posts body to url, retrying 429/5xx responses and transport
// errors with exponential backoff up to cfg.MaxRetries, and giving up
// immediately on any other 4xx.
func (u *Uploader) postWithRetry(ctx context.Context, url string, body []byte) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = DefaultInitialBackoff
	bo := backoff.WithMaxRetries(exp, uint64(u.cfg.MaxRetries))
	bo = backoff.WithContext(bo, ctx)

	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, u.cfg.PerAttemptTimeout)
		defer cancel()

		resp, err := u.client.PostContext(attemptCtx, url, "application/json", bytes.NewReader(body))
		if err != nil {
			return err // network/timeout errors are retryable
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("upload: %s: status %d", url, resp.StatusCode)
		}

		respBody, _ := io.ReadAll(resp.Body)
		return backoff.Permanent(&terminalError{err: fmt.Errorf("upload: %s: status %d: %s", url, resp.StatusCode, respBody)})
	}

	if err := backoff.Retry(op, bo); err != nil {
		return err
	}
	return nil
}
