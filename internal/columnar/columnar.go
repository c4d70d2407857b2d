// Package columnar implements the shared at-rest lap telemetry format used
// by both the client cache (internal/store) and, per spec.md §6, the
// server: one column per scalar field plus four {lf,rf,lr,rr}_-prefixed
// groups for the flattened per-wheel readings, with lap-level metadata
// (session id, lap number, lap time) carried once in a Header rather than
// repeated on every row.
//
// There is no ecosystem columnar-file library in the teacher's or the
// pack's dependency set (no Arrow/Parquet import anywhere in _examples),
// so this is hand-rolled the way the teacher hand-rolls its own
// db-row<->struct mapping in internal/db (see db.go's ListRecentBgSnapshots
// manual Scan calls) rather than reached for an unlisted dependency.
package columnar

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// Header carries the lap-level metadata that is constant across every row
// of Columns.
type Header struct {
	SessionID uuid.UUID
	LapID     uuid.UUID
	LapNumber int
	LapTime   float64
}

// Columns is the column-oriented encoding of a lap's frames. Every slice
// has the same length: the lap's frame count.
type Columns struct {
	Header Header

	Timestamp   []time.Time
	SessionTime []float64

	LapDistancePct []float64
	LapDistance    []float64
	CurrentLapTime []float64
	LastLapTime    []float64
	BestLapTime    []float64

	Speed []float64
	RPM   []float64
	Gear  []int

	Throttle      []float64
	Brake         []float64
	Clutch        []float64
	SteeringAngle []float64

	LateralAcceleration      []float64
	LongitudinalAcceleration []float64
	VerticalAcceleration     []float64
	YawRate                  []float64
	RollRate                 []float64
	PitchRate                []float64
	VelocityX                []float64
	VelocityY                []float64
	VelocityZ                []float64
	Yaw                      []float64
	Pitch                    []float64
	Roll                     []float64

	Latitude  []float64
	Longitude []float64
	Altitude  []float64

	TrackTemp    []float64
	TrackWetness []float64
	AirTemp      []float64

	SessionFlags []uint32
	TrackSurface []telemetry.TrackSurface
	OnPitRoad    []bool

	LFTireTempLeft   []float64
	LFTireTempMiddle []float64
	LFTireTempRight  []float64
	LFTireWearLeft   []float64
	LFTireWearMiddle []float64
	LFTireWearRight  []float64
	LFBrakeLinePress []float64

	RFTireTempLeft   []float64
	RFTireTempMiddle []float64
	RFTireTempRight  []float64
	RFTireWearLeft   []float64
	RFTireWearMiddle []float64
	RFTireWearRight  []float64
	RFBrakeLinePress []float64

	LRTireTempLeft   []float64
	LRTireTempMiddle []float64
	LRTireTempRight  []float64
	LRTireWearLeft   []float64
	LRTireWearMiddle []float64
	LRTireWearRight  []float64
	LRBrakeLinePress []float64

	RRTireTempLeft   []float64
	RRTireTempMiddle []float64
	RRTireTempRight  []float64
	RRTireWearLeft   []float64
	RRTireWearMiddle []float64
	RRTireWearRight  []float64
	RRBrakeLinePress []float64
}

// NumRows returns the frame count, inferred from the Timestamp column.
func (c Columns) NumRows() int { return len(c.Timestamp) }

// Encode flattens lap into its columnar representation. lapTime is the
// lap's total duration (telemetry.Lap.Duration()), stored once in the
// header rather than repeated per row.
func Encode(lap telemetry.Lap, lapTime float64) Columns {
	n := len(lap.Frames)
	c := Columns{
		Header: Header{
			SessionID: lap.SessionID,
			LapID:     lap.LapID,
			LapNumber: lap.LapNumber,
			LapTime:   lapTime,
		},
		Timestamp:   make([]time.Time, n),
		SessionTime: make([]float64, n),

		LapDistancePct: make([]float64, n),
		LapDistance:    make([]float64, n),
		CurrentLapTime: make([]float64, n),
		LastLapTime:    make([]float64, n),
		BestLapTime:    make([]float64, n),

		Speed: make([]float64, n),
		RPM:   make([]float64, n),
		Gear:  make([]int, n),

		Throttle:      make([]float64, n),
		Brake:         make([]float64, n),
		Clutch:        make([]float64, n),
		SteeringAngle: make([]float64, n),

		LateralAcceleration:      make([]float64, n),
		LongitudinalAcceleration: make([]float64, n),
		VerticalAcceleration:     make([]float64, n),
		YawRate:                  make([]float64, n),
		RollRate:                 make([]float64, n),
		PitchRate:                make([]float64, n),
		VelocityX:                make([]float64, n),
		VelocityY:                make([]float64, n),
		VelocityZ:                make([]float64, n),
		Yaw:                      make([]float64, n),
		Pitch:                    make([]float64, n),
		Roll:                     make([]float64, n),

		Latitude:  make([]float64, n),
		Longitude: make([]float64, n),
		Altitude:  make([]float64, n),

		TrackTemp:    make([]float64, n),
		TrackWetness: make([]float64, n),
		AirTemp:      make([]float64, n),

		SessionFlags: make([]uint32, n),
		TrackSurface: make([]telemetry.TrackSurface, n),
		OnPitRoad:    make([]bool, n),

		LFTireTempLeft: make([]float64, n), LFTireTempMiddle: make([]float64, n), LFTireTempRight: make([]float64, n),
		LFTireWearLeft: make([]float64, n), LFTireWearMiddle: make([]float64, n), LFTireWearRight: make([]float64, n),
		LFBrakeLinePress: make([]float64, n),

		RFTireTempLeft: make([]float64, n), RFTireTempMiddle: make([]float64, n), RFTireTempRight: make([]float64, n),
		RFTireWearLeft: make([]float64, n), RFTireWearMiddle: make([]float64, n), RFTireWearRight: make([]float64, n),
		RFBrakeLinePress: make([]float64, n),

		LRTireTempLeft: make([]float64, n), LRTireTempMiddle: make([]float64, n), LRTireTempRight: make([]float64, n),
		LRTireWearLeft: make([]float64, n), LRTireWearMiddle: make([]float64, n), LRTireWearRight: make([]float64, n),
		LRBrakeLinePress: make([]float64, n),

		RRTireTempLeft: make([]float64, n), RRTireTempMiddle: make([]float64, n), RRTireTempRight: make([]float64, n),
		RRTireWearLeft: make([]float64, n), RRTireWearMiddle: make([]float64, n), RRTireWearRight: make([]float64, n),
		RRBrakeLinePress: make([]float64, n),
	}

	for i, f := range lap.Frames {
		c.Timestamp[i] = f.Timestamp
		c.SessionTime[i] = f.SessionTime
		c.LapDistancePct[i] = f.LapDistancePct
		c.LapDistance[i] = f.LapDistance
		c.CurrentLapTime[i] = f.CurrentLapTime
		c.LastLapTime[i] = f.LastLapTime
		c.BestLapTime[i] = f.BestLapTime
		c.Speed[i] = f.Speed
		c.RPM[i] = f.RPM
		c.Gear[i] = f.Gear
		c.Throttle[i] = f.Throttle
		c.Brake[i] = f.Brake
		c.Clutch[i] = f.Clutch
		c.SteeringAngle[i] = f.SteeringAngle
		c.LateralAcceleration[i] = f.LateralAcceleration
		c.LongitudinalAcceleration[i] = f.LongitudinalAcceleration
		c.VerticalAcceleration[i] = f.VerticalAcceleration
		c.YawRate[i] = f.YawRate
		c.RollRate[i] = f.RollRate
		c.PitchRate[i] = f.PitchRate
		c.VelocityX[i] = f.VelocityX
		c.VelocityY[i] = f.VelocityY
		c.VelocityZ[i] = f.VelocityZ
		c.Yaw[i] = f.Yaw
		c.Pitch[i] = f.Pitch
		c.Roll[i] = f.Roll
		c.Latitude[i] = f.Latitude
		c.Longitude[i] = f.Longitude
		c.Altitude[i] = f.Altitude
		c.TrackTemp[i] = f.TrackTemp
		c.TrackWetness[i] = f.TrackWetness
		c.AirTemp[i] = f.AirTemp
		c.SessionFlags[i] = f.SessionFlags
		c.TrackSurface[i] = f.TrackSurface
		c.OnPitRoad[i] = f.OnPitRoad

		lf, rf, lr, rr := f.Wheels.LF, f.Wheels.RF, f.Wheels.LR, f.Wheels.RR
		c.LFTireTempLeft[i], c.LFTireTempMiddle[i], c.LFTireTempRight[i] = lf.TireTemp.Left, lf.TireTemp.Middle, lf.TireTemp.Right
		c.LFTireWearLeft[i], c.LFTireWearMiddle[i], c.LFTireWearRight[i] = lf.TireWear.Left, lf.TireWear.Middle, lf.TireWear.Right
		c.LFBrakeLinePress[i] = lf.BrakeLinePress

		c.RFTireTempLeft[i], c.RFTireTempMiddle[i], c.RFTireTempRight[i] = rf.TireTemp.Left, rf.TireTemp.Middle, rf.TireTemp.Right
		c.RFTireWearLeft[i], c.RFTireWearMiddle[i], c.RFTireWearRight[i] = rf.TireWear.Left, rf.TireWear.Middle, rf.TireWear.Right
		c.RFBrakeLinePress[i] = rf.BrakeLinePress

		c.LRTireTempLeft[i], c.LRTireTempMiddle[i], c.LRTireTempRight[i] = lr.TireTemp.Left, lr.TireTemp.Middle, lr.TireTemp.Right
		c.LRTireWearLeft[i], c.LRTireWearMiddle[i], c.LRTireWearRight[i] = lr.TireWear.Left, lr.TireWear.Middle, lr.TireWear.Right
		c.LRBrakeLinePress[i] = lr.BrakeLinePress

		c.RRTireTempLeft[i], c.RRTireTempMiddle[i], c.RRTireTempRight[i] = rr.TireTemp.Left, rr.TireTemp.Middle, rr.TireTemp.Right
		c.RRTireWearLeft[i], c.RRTireWearMiddle[i], c.RRTireWearRight[i] = rr.TireWear.Left, rr.TireWear.Middle, rr.TireWear.Right
		c.RRBrakeLinePress[i] = rr.BrakeLinePress
	}

	return c
}

// Decode reconstructs a telemetry.Lap from its columnar form.
func Decode(c Columns) (telemetry.Lap, error) {
	n := c.NumRows()
	frames := make([]telemetry.Frame, n)
	for i := 0; i < n; i++ {
		frames[i] = telemetry.Frame{
			Timestamp:                c.Timestamp[i],
			SessionTime:              c.SessionTime[i],
			LapNumber:                c.Header.LapNumber,
			LapDistancePct:           c.LapDistancePct[i],
			LapDistance:              c.LapDistance[i],
			CurrentLapTime:           c.CurrentLapTime[i],
			LastLapTime:              c.LastLapTime[i],
			BestLapTime:              c.BestLapTime[i],
			Speed:                    c.Speed[i],
			RPM:                      c.RPM[i],
			Gear:                     c.Gear[i],
			Throttle:                 c.Throttle[i],
			Brake:                    c.Brake[i],
			Clutch:                   c.Clutch[i],
			SteeringAngle:            c.SteeringAngle[i],
			LateralAcceleration:      c.LateralAcceleration[i],
			LongitudinalAcceleration: c.LongitudinalAcceleration[i],
			VerticalAcceleration:     c.VerticalAcceleration[i],
			YawRate:                  c.YawRate[i],
			RollRate:                 c.RollRate[i],
			PitchRate:                c.PitchRate[i],
			VelocityX:                c.VelocityX[i],
			VelocityY:                c.VelocityY[i],
			VelocityZ:                c.VelocityZ[i],
			Yaw:                      c.Yaw[i],
			Pitch:                    c.Pitch[i],
			Roll:                     c.Roll[i],
			Latitude:                 c.Latitude[i],
			Longitude:                c.Longitude[i],
			Altitude:                 c.Altitude[i],
			TrackTemp:                c.TrackTemp[i],
			TrackWetness:             c.TrackWetness[i],
			AirTemp:                  c.AirTemp[i],
			SessionFlags:             c.SessionFlags[i],
			TrackSurface:             c.TrackSurface[i],
			OnPitRoad:                c.OnPitRoad[i],
			Wheels: telemetry.Wheels{
				LF: telemetry.WheelData{
					TireTemp:       telemetry.TireTemp{Left: c.LFTireTempLeft[i], Middle: c.LFTireTempMiddle[i], Right: c.LFTireTempRight[i]},
					TireWear:       telemetry.TireWear{Left: c.LFTireWearLeft[i], Middle: c.LFTireWearMiddle[i], Right: c.LFTireWearRight[i]},
					BrakeLinePress: c.LFBrakeLinePress[i],
				},
				RF: telemetry.WheelData{
					TireTemp:       telemetry.TireTemp{Left: c.RFTireTempLeft[i], Middle: c.RFTireTempMiddle[i], Right: c.RFTireTempRight[i]},
					TireWear:       telemetry.TireWear{Left: c.RFTireWearLeft[i], Middle: c.RFTireWearMiddle[i], Right: c.RFTireWearRight[i]},
					BrakeLinePress: c.RFBrakeLinePress[i],
				},
				LR: telemetry.WheelData{
					TireTemp:       telemetry.TireTemp{Left: c.LRTireTempLeft[i], Middle: c.LRTireTempMiddle[i], Right: c.LRTireTempRight[i]},
					TireWear:       telemetry.TireWear{Left: c.LRTireWearLeft[i], Middle: c.LRTireWearMiddle[i], Right: c.LRTireWearRight[i]},
					BrakeLinePress: c.LRBrakeLinePress[i],
				},
				RR: telemetry.WheelData{
					TireTemp:       telemetry.TireTemp{Left: c.RRTireTempLeft[i], Middle: c.RRTireTempMiddle[i], Right: c.RRTireTempRight[i]},
					TireWear:       telemetry.TireWear{Left: c.RRTireWearLeft[i], Middle: c.RRTireWearMiddle[i], Right: c.RRTireWearRight[i]},
					BrakeLinePress: c.RRBrakeLinePress[i],
				},
			},
		}
	}
	lap, err := telemetry.NewLap(c.Header.SessionID, frames)
	if err != nil {
		return telemetry.Lap{}, fmt.Errorf("columnar: decode: %w", err)
	}
	lap.LapID = c.Header.LapID
	return lap, nil
}
