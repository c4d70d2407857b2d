// Package report renders a post-lap HTML trace of speed, brake, and corner
// events for a completed lap — the client-side analogue of the teacher's
// internal/lidar/monitor debug charts (echarts_handlers.go), built with the
// same github.com/go-echarts/go-echarts/v2 dependency and the same
// render-into-a-buffer-and-serve-or-save shape.
//
// It is not part of spec.md's core (§1 scopes real-time coaching feedback
// and cross-lap comparison out), but a local HTML render of the lap the
// driver just finished is a natural home for the go-echarts dependency the
// domain stack wiring plan calls for, and mirrors the teacher's own
// debugging-chart tradition of "quick HTML view, no auth, no SPA".
package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/analytics"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// assetsHost mirrors the teacher's echartsAssetsPrefix: point the rendered
// page at a CDN for the JS runtime rather than embedding it, since this is
// a debugging/analysis artifact, not a production UI.
const assetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Page renders lap and its computed metrics as a multi-chart HTML page:
// speed trace with each corner's apex marked and the braking-zone and
// corner counts in its subtitle, plus a brake/throttle/steering input trace
// beneath it. Braking zones are not drawn on the chart.
func Page(lap telemetry.Lap, metrics analytics.LapMetrics) *components.Page {
	page := components.NewPage()
	page.SetAssetsHost(assetsHost)
	page.AddCharts(speedChart(lap, metrics), inputsChart(lap))
	return page
}

// Render writes the full HTML report for lap/metrics to w.
func Render(w io.Writer, lap telemetry.Lap, metrics analytics.LapMetrics) error {
	return Page(lap, metrics).Render(w)
}

// RenderString is a convenience wrapper over Render for callers (e.g. an
// HTTP handler) that want the HTML as a string rather than writing directly
// to a response writer.
func RenderString(lap telemetry.Lap, metrics analytics.LapMetrics) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, lap, metrics); err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}
	return buf.String(), nil
}

func speedChart(lap telemetry.Lap, metrics analytics.LapMetrics) *charts.Line {
	x := make([]string, len(lap.Frames))
	speed := make([]opts.LineData, len(lap.Frames))
	for i, f := range lap.Frames {
		x[i] = fmt.Sprintf("%.2f", f.LapDistance)
		speed[i] = opts.LineData{Value: f.Speed}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Lap %d speed trace", lap.LapNumber),
			Subtitle: fmt.Sprintf("%d braking zones, %d corners, lap time %.3fs", metrics.TotalBrakingZones, metrics.TotalCorners, metrics.LapTime),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Lap distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (m/s)"}),
	)
	line.SetXAxis(x).
		AddSeries("speed", speed, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)})).
		AddSeries("apex speed", apexMarkerSeries(lap, metrics.Corners))
	return line
}

// apexMarkerSeries renders each corner's apex as a single-point series at
// its lap distance, so the speed chart shows where the corners fall
// without depending on an echarts mark-area API this repo hasn't verified
// against the vendored go-echarts version.
func apexMarkerSeries(lap telemetry.Lap, corners []analytics.CornerMetrics) []opts.LineData {
	points := make([]opts.LineData, len(lap.Frames))
	for _, c := range corners {
		idx := nearestFrameIndex(lap.Frames, c.ApexDistance)
		if idx >= 0 {
			points[idx] = opts.LineData{Value: c.ApexSpeed}
		}
	}
	return points
}

func nearestFrameIndex(frames []telemetry.Frame, distance float64) int {
	best, bestDelta := -1, 0.0
	for i, f := range frames {
		delta := f.LapDistance - distance
		if delta < 0 {
			delta = -delta
		}
		if best == -1 || delta < bestDelta {
			best, bestDelta = i, delta
		}
	}
	return best
}

func inputsChart(lap telemetry.Lap) *charts.Line {
	x := make([]string, len(lap.Frames))
	brake := make([]opts.LineData, len(lap.Frames))
	throttle := make([]opts.LineData, len(lap.Frames))
	steering := make([]opts.LineData, len(lap.Frames))
	for i, f := range lap.Frames {
		x[i] = fmt.Sprintf("%.2f", f.LapDistance)
		brake[i] = opts.LineData{Value: f.Brake}
		throttle[i] = opts.LineData{Value: f.Throttle}
		steering[i] = opts.LineData{Value: f.SteeringAngle}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Driver inputs"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Lap distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Input"}),
	)
	line.SetXAxis(x).
		AddSeries("brake", brake).
		AddSeries("throttle", throttle).
		AddSeries("steering (rad)", steering)
	return line
}
