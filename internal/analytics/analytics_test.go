package analytics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

func mustLap(t *testing.T, frames []telemetry.Frame) telemetry.Lap {
	t.Helper()
	lap, err := telemetry.NewLap(uuid.New(), frames)
	require.NoError(t, err)
	return lap
}

// frameSeries builds n frames at the given sample rate with a per-frame
// mutator applied after the base fields (session_time, lap_distance,
// constant lap number) are filled in.
func frameSeries(n int, hz float64, mutate func(i int, f *telemetry.Frame)) []telemetry.Frame {
	dt := 1.0 / hz
	frames := make([]telemetry.Frame, n)
	for i := range frames {
		f := telemetry.Frame{
			LapNumber:   1,
			SessionTime: float64(i) * dt,
			LapDistance: float64(i) * dt * 50, // nominal 50 m/s baseline
			Speed:       50,
		}
		if mutate != nil {
			mutate(i, &f)
		}
		frames[i] = f
	}
	return frames
}

func TestExtract_EmptyLapIsDomainError(t *testing.T) {
	_, err := Extract(DefaultConfig(), telemetry.Lap{})
	require.ErrorIs(t, err, ErrNoFrames)
}

func TestExtract_SingleFrameHasNoZonesOrCorners(t *testing.T) {
	lap := mustLap(t, []telemetry.Frame{{LapNumber: 1, SessionTime: 0, Speed: 65, LapDistance: 0}})
	m, err := Extract(DefaultConfig(), lap)
	require.NoError(t, err)
	require.Equal(t, 0, m.TotalBrakingZones)
	require.Equal(t, 0, m.TotalCorners)
	require.Equal(t, m.MaxSpeed, m.MinSpeed)
	require.InDelta(t, 65, m.MaxSpeed, 1e-9)
}

func TestExtract_SimpleBrakingZone(t *testing.T) {
	// 10 frames at 10 Hz; brake applied frames 3..6 (0-indexed 2..5),
	// speed decelerating from 80 to 50 across the brake window.
	frames := frameSeries(10, 10, func(i int, f *telemetry.Frame) {
		switch {
		case i >= 2 && i <= 5:
			f.Brake = 0.8
			f.Speed = 80 - float64(i-1)*7.5
		default:
			f.Brake = 0
			f.Speed = 80
		}
	})
	lap := mustLap(t, frames)
	m, err := Extract(DefaultConfig(), lap)
	require.NoError(t, err)
	require.Equal(t, 1, m.TotalBrakingZones)
	zone := m.BrakingZones[0]
	require.InDelta(t, 0.8, zone.MaxBrakePressure, 1e-9)
	require.Less(t, zone.MinimumSpeed, zone.BrakingPointSpeed)
	require.GreaterOrEqual(t, zone.BrakingDuration, DefaultConfig().MinBrakeDuration.Seconds())
}

func TestExtract_ShortTapIsFiltered(t *testing.T) {
	// A single 0.1s brake pulse below MinBrakeDuration (0.2s).
	frames := frameSeries(20, 10, func(i int, f *telemetry.Frame) {
		if i == 5 {
			f.Brake = 0.12
		}
	})
	lap := mustLap(t, frames)
	m, err := Extract(DefaultConfig(), lap)
	require.NoError(t, err)
	require.Equal(t, 0, m.TotalBrakingZones)
}

func TestExtract_SimpleCorner(t *testing.T) {
	// 15 frames at 10 Hz; steering held frames 5..10 (0-indexed 4..9),
	// throttle rises mid-corner, speed dips and recovers.
	frames := frameSeries(15, 10, func(i int, f *telemetry.Frame) {
		if i >= 4 && i <= 9 {
			f.SteeringAngle = 0.3
			f.LateralAcceleration = 1.5
		}
		switch {
		case i < 7:
			f.Speed = 60 - float64(i-3)*2
		default:
			f.Speed = 50 + float64(i-6)*2
		}
		if i >= 7 {
			f.Throttle = 0.5
		}
	})
	lap := mustLap(t, frames)
	m, err := Extract(DefaultConfig(), lap)
	require.NoError(t, err)
	require.Equal(t, 1, m.TotalCorners)
	c := m.Corners[0]
	require.Greater(t, c.TurnInSpeed, c.ApexSpeed)
	require.Less(t, c.ApexSpeed, c.ExitSpeed)
}

func TestExtract_TrailBrakingDetected(t *testing.T) {
	// Braking frames 3..8 overlap steering frames 6..12.
	frames := frameSeries(20, 10, func(i int, f *telemetry.Frame) {
		if i >= 2 && i <= 7 {
			f.Brake = 0.9
		}
		if i >= 5 && i <= 11 {
			f.SteeringAngle = 0.3
		}
		f.Speed = 70 - float64(i)*1.5
	})
	lap := mustLap(t, frames)
	m, err := Extract(DefaultConfig(), lap)
	require.NoError(t, err)
	require.GreaterOrEqual(t, m.TotalBrakingZones, 1)
	var sawTrail bool
	for _, z := range m.BrakingZones {
		if z.HasTrailBraking {
			sawTrail = true
			require.Greater(t, z.TrailBrakeDistance, 0.0)
		}
	}
	require.True(t, sawTrail)
}

func TestExtract_CornersMergeAcrossShortGap(t *testing.T) {
	cfg := DefaultConfig()
	frames := frameSeries(30, 10, func(i int, f *telemetry.Frame) {
		switch {
		case i >= 2 && i <= 6:
			f.SteeringAngle = 0.3
			f.LateralAcceleration = 1.2
		case i >= 8 && i <= 12: // gap of 1 frame (0.1s) < MinCornerGap (0.4s)
			f.SteeringAngle = 0.35
			f.LateralAcceleration = 1.6
		}
	})
	lap := mustLap(t, frames)
	m, err := Extract(cfg, lap)
	require.NoError(t, err)
	require.Equal(t, 1, m.TotalCorners, "corners separated by less than MinCornerGap should merge")
}

func TestExtract_WrapAroundUsesFallbackDistance(t *testing.T) {
	cfg := DefaultConfig()
	frames := frameSeries(5, 10, nil)
	// Simulate a start/finish crossing between frames 2 and 3.
	frames[3].LapDistance = 0.5
	frames[2].LapDistance = 4990
	lap := mustLap(t, frames)
	_, err := Extract(cfg, lap)
	require.NoError(t, err)
	require.Equal(t, cfg.WrapFallbackMeters, cfg.deltaDistance(frames[2].LapDistance, frames[3].LapDistance))
}
