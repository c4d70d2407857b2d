package columnar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

func sampleLap(t *testing.T) telemetry.Lap {
	t.Helper()
	frames := make([]telemetry.Frame, 5)
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := range frames {
		frames[i] = telemetry.Frame{
			Timestamp:      base.Add(time.Duration(i) * (time.Second / 60)),
			SessionTime:    float64(i) / 60,
			LapNumber:      4,
			LapDistancePct: float64(i) / 5,
			Speed:          50 + float64(i),
			Gear:           3,
			TrackSurface:   telemetry.SurfaceAsphalt,
			OnPitRoad:      i == 0,
			SessionFlags:   0x10,
			Wheels: telemetry.Wheels{
				LF: telemetry.WheelData{TireTemp: telemetry.TireTemp{Left: 80, Middle: 82, Right: 84}, BrakeLinePress: 120},
				RF: telemetry.WheelData{TireTemp: telemetry.TireTemp{Left: 81, Middle: 83, Right: 85}, BrakeLinePress: 121},
				LR: telemetry.WheelData{TireTemp: telemetry.TireTemp{Left: 70, Middle: 72, Right: 74}, BrakeLinePress: 90},
				RR: telemetry.WheelData{TireTemp: telemetry.TireTemp{Left: 71, Middle: 73, Right: 75}, BrakeLinePress: 91},
			},
		}
	}
	lap, err := telemetry.NewLap(uuid.New(), frames)
	require.NoError(t, err)
	return lap
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	lap := sampleLap(t)

	cols := Encode(lap, lap.Duration())
	require.Equal(t, len(lap.Frames), cols.NumRows())
	require.Equal(t, lap.SessionID, cols.Header.SessionID)
	require.Equal(t, lap.LapID, cols.Header.LapID)
	require.Equal(t, lap.LapNumber, cols.Header.LapNumber)

	got, err := Decode(cols)
	require.NoError(t, err)

	if diff := cmp.Diff(lap, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_FlattensWheelColumns(t *testing.T) {
	lap := sampleLap(t)
	cols := Encode(lap, lap.Duration())

	require.Equal(t, 80.0, cols.LFTireTempLeft[0])
	require.Equal(t, 91.0, cols.RRBrakeLinePress[0])
	require.Equal(t, float64(120), cols.LFBrakeLinePress[0])
}
