// Package config loads and validates the client's tuning parameters, in the
// same pointer-field/JSON-with-env-override shape as the teacher's
// internal/config.TuningConfig: every field is optional so a partial JSON
// file or a single environment variable can override one knob without
// restating the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/analytics"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/lapsegment"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/source"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/upload"
)

// DefaultConfigPath mirrors the teacher's DefaultConfigPath constant. It is
// the -config flag's default; this client ships no defaults file, and Load
// treats a missing file at this path as an empty config.
const DefaultConfigPath = "config/telemetry.defaults.json"

// Config is the root tuning document. Fields omitted from JSON, and not
// overridden by environment variable, retain the Get* default.
type Config struct {
	// TelemetryMode selects the source.Mode ("live" or "replay").
	TelemetryMode *string `json:"telemetry_mode,omitempty"`

	// Replay source settings, consulted only when TelemetryMode is "replay".
	ReplayFilePath *string  `json:"replay_file_path,omitempty"`
	ReplaySpeed    *float64 `json:"replay_speed,omitempty"`
	ReplayLoop     *bool    `json:"replay_loop,omitempty"`

	// Bus tuning.
	BusQueueCapacity   *int    `json:"bus_queue_capacity,omitempty"`
	BusWorkers         *int    `json:"bus_workers,omitempty"`
	BusOverflowTimeout *string `json:"bus_overflow_timeout,omitempty"`

	// Lap segmentation tuning.
	LapCompletionThreshold *float64 `json:"lap_completion_threshold,omitempty"`

	// Analytics tuning — mirrors analytics.Config field-for-field so an
	// operator can override any extraction threshold from the same file.
	BrakeThreshold         *float64 `json:"brake_threshold,omitempty"`
	MinBrakeDuration       *string  `json:"min_brake_duration,omitempty"`
	MinBrakePressure       *float64 `json:"min_brake_pressure,omitempty"`
	SteeringThreshold      *float64 `json:"steering_threshold,omitempty"`
	MinCornerDuration      *string  `json:"min_corner_duration,omitempty"`
	MinCornerGap           *string  `json:"min_corner_gap,omitempty"`
	SteeringExitHysteresis *string  `json:"steering_exit_hysteresis,omitempty"`
	ThrottleThreshold      *float64 `json:"throttle_threshold,omitempty"`
	WrapFallbackMeters     *float64 `json:"wrap_fallback_meters,omitempty"`

	// Upload tuning.
	UploadBaseURL    *string `json:"upload_base_url,omitempty"`
	UploadTimeout    *string `json:"upload_timeout,omitempty"`
	UploadMaxRetries *int    `json:"upload_max_retries,omitempty"`

	// Local cache.
	StorePath *string `json:"store_path,omitempty"`

	// Livestream.
	LivestreamGRPCListen *string `json:"livestream_grpc_listen,omitempty"`
	LivestreamHTTPListen *string `json:"livestream_http_listen,omitempty"`
}

// Empty returns a Config with every field nil, matching the teacher's
// EmptyTuningConfig.
func Empty() *Config { return &Config{} }

// Load reads a JSON tuning file, then applies any TELEMETRY_* / REPLAY_*
// environment variable overrides, then validates the result. A missing file
// at path is not an error when path equals DefaultConfigPath — callers get
// an all-defaults Config in that case, since most deployments never ship a
// JSON file and configure entirely through flags and the environment.
func Load(path string) (*Config, error) {
	cfg := Empty()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %q: %w", path, err)
			}
		case os.IsNotExist(err) && path == DefaultConfigPath:
			// no defaults file shipped; fall through with an empty config.
		default:
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv("TELEMETRY_MODE"); ok {
		c.TelemetryMode = &v
	}
	if v, ok := os.LookupEnv("REPLAY_FILE_PATH"); ok {
		c.ReplayFilePath = &v
	}
	if v, ok := os.LookupEnv("REPLAY_SPEED"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ReplaySpeed = &f
		}
	}
	if v, ok := os.LookupEnv("REPLAY_LOOP"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ReplayLoop = &b
		}
	}
	if v, ok := os.LookupEnv("LAP_COMPLETION_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LapCompletionThreshold = &f
		}
	}
	if v, ok := os.LookupEnv("UPLOAD_BASE_URL"); ok {
		c.UploadBaseURL = &v
	}
}

// Validate checks that every set field is internally consistent, mirroring
// the teacher's TuningConfig.Validate.
func (c *Config) Validate() error {
	if c.TelemetryMode != nil {
		switch source.Mode(*c.TelemetryMode) {
		case source.ModeLive, source.ModeReplay:
		default:
			return fmt.Errorf("telemetry_mode must be %q or %q, got %q", source.ModeLive, source.ModeReplay, *c.TelemetryMode)
		}
	}
	if c.ReplaySpeed != nil && *c.ReplaySpeed <= 0 {
		return fmt.Errorf("replay_speed must be positive, got %f", *c.ReplaySpeed)
	}
	if c.LapCompletionThreshold != nil {
		if *c.LapCompletionThreshold <= 0 || *c.LapCompletionThreshold > 1 {
			return fmt.Errorf("lap_completion_threshold must be in (0, 1], got %f", *c.LapCompletionThreshold)
		}
	}
	for name, s := range map[string]*string{
		"min_brake_duration":       c.MinBrakeDuration,
		"min_corner_duration":      c.MinCornerDuration,
		"min_corner_gap":           c.MinCornerGap,
		"steering_exit_hysteresis": c.SteeringExitHysteresis,
		"bus_overflow_timeout":     c.BusOverflowTimeout,
		"upload_timeout":           c.UploadTimeout,
	} {
		if s != nil && *s != "" {
			if _, err := time.ParseDuration(*s); err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, *s, err)
			}
		}
	}
	if c.UploadMaxRetries != nil && *c.UploadMaxRetries < 0 {
		return fmt.Errorf("upload_max_retries must be non-negative, got %d", *c.UploadMaxRetries)
	}
	return nil
}

func durationOrDefault(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}

// GetTelemetryMode returns the configured source.Mode, defaulting to live.
func (c *Config) GetTelemetryMode() source.Mode {
	if c.TelemetryMode == nil {
		return source.ModeLive
	}
	return source.Mode(*c.TelemetryMode)
}

func (c *Config) GetReplayFilePath() string {
	if c.ReplayFilePath == nil {
		return ""
	}
	return *c.ReplayFilePath
}

func (c *Config) GetReplaySpeed() float64 {
	if c.ReplaySpeed == nil {
		return 1.0
	}
	return *c.ReplaySpeed
}

func (c *Config) GetReplayLoop() bool {
	return c.ReplayLoop != nil && *c.ReplayLoop
}

func (c *Config) GetBusQueueCapacity() int {
	if c.BusQueueCapacity == nil {
		return 1000
	}
	return *c.BusQueueCapacity
}

func (c *Config) GetBusWorkers() int {
	if c.BusWorkers == nil {
		return 0 // 0 tells eventbus.Config.normalize to pick runtime.NumCPU()
	}
	return *c.BusWorkers
}

func (c *Config) GetBusOverflowTimeout() time.Duration {
	return durationOrDefault(c.BusOverflowTimeout, 250*time.Millisecond)
}

// GetLapCompletionThreshold returns the minimum lap_distance_pct the last
// buffered frame must reach for a forward (+1) lap-number transition to be
// treated as a completed lap; backward jumps are always discarded. Default
// 0.9 per the Open Question decision recorded in SPEC_FULL.md.
func (c *Config) GetLapCompletionThreshold() float64 {
	if c.LapCompletionThreshold == nil {
		return lapsegment.DefaultCompletionThreshold
	}
	return *c.LapCompletionThreshold
}

// GetAnalyticsConfig assembles an analytics.Config from the tuning
// document, falling back to analytics.DefaultConfig for any unset field.
func (c *Config) GetAnalyticsConfig() analytics.Config {
	def := analytics.DefaultConfig()
	cfg := def

	if c.BrakeThreshold != nil {
		cfg.BrakeThreshold = *c.BrakeThreshold
	}
	if c.MinBrakeDuration != nil {
		cfg.MinBrakeDuration = durationOrDefault(c.MinBrakeDuration, def.MinBrakeDuration)
	}
	if c.MinBrakePressure != nil {
		cfg.MinBrakePressure = *c.MinBrakePressure
	}
	if c.SteeringThreshold != nil {
		cfg.SteeringThreshold = *c.SteeringThreshold
	}
	if c.MinCornerDuration != nil {
		cfg.MinCornerDuration = durationOrDefault(c.MinCornerDuration, def.MinCornerDuration)
	}
	if c.MinCornerGap != nil {
		cfg.MinCornerGap = durationOrDefault(c.MinCornerGap, def.MinCornerGap)
	}
	if c.SteeringExitHysteresis != nil {
		cfg.SteeringExitHysteresis = durationOrDefault(c.SteeringExitHysteresis, def.SteeringExitHysteresis)
	}
	if c.ThrottleThreshold != nil {
		cfg.ThrottleThreshold = *c.ThrottleThreshold
	}
	if c.WrapFallbackMeters != nil {
		cfg.WrapFallbackMeters = *c.WrapFallbackMeters
	}
	return cfg
}

func (c *Config) GetUploadBaseURL() string {
	if c.UploadBaseURL == nil {
		return ""
	}
	return *c.UploadBaseURL
}

func (c *Config) GetUploadTimeout() time.Duration {
	return durationOrDefault(c.UploadTimeout, 30*time.Second)
}

func (c *Config) GetUploadMaxRetries() int {
	if c.UploadMaxRetries == nil {
		return upload.DefaultMaxRetries
	}
	return *c.UploadMaxRetries
}

func (c *Config) GetStorePath() string {
	if c.StorePath == nil {
		return "telemetry_cache.db"
	}
	return *c.StorePath
}

func (c *Config) GetLivestreamGRPCListen() string {
	if c.LivestreamGRPCListen == nil {
		return "localhost:50061"
	}
	return *c.LivestreamGRPCListen
}

func (c *Config) GetLivestreamHTTPListen() string {
	if c.LivestreamHTTPListen == nil {
		return ":8090"
	}
	return *c.LivestreamHTTPListen
}
