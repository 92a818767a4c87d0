package render

import (
	"bytes"
	"fmt"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
)

// Chart renders with go-chart.
type Chart struct {
	Width  int
	Height int
}

// NewChart returns a chart renderer; zero sizes fall back to 1024x512.
func NewChart(width, height int) *Chart {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 512
	}
	return &Chart{Width: width, Height: height}
}

// markerStyle draws points only, no connecting line.
func markerStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func (c *Chart) Render(req Request) (Output, error) {
	if len(req.Series) == 0 {
		return Output{}, fmt.Errorf("render %q: no series", req.Title)
	}
	if req.TotalTime <= 0 {
		return Output{}, fmt.Errorf("render %q: total time must be positive", req.Title)
	}

	var series []chart.Series
	for i, values := range req.Series {
		if len(values) == 0 {
			continue
		}
		xs, ys := timeAxis(values, req.TotalTime)
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("sweep %d", i),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(i),
				StrokeWidth: 1,
			},
		})
	}
	if len(series) == 0 {
		return Output{}, fmt.Errorf("render %q: all series empty", req.Title)
	}
	if len(req.Minima) > 0 {
		series = append(series, markerSeries("min", req.Minima, drawing.ColorBlue))
	}
	if len(req.Maxima) > 0 {
		series = append(series, markerSeries("max", req.Maxima, drawing.ColorRed))
	}

	lo, hi := yBounds(req)
	ch := chart.Chart{
		Title:  req.Title,
		Width:  c.Width,
		Height: c.Height,
		XAxis: chart.XAxis{
			Name:  "time (s)",
			Range: &chart.ContinuousRange{Min: 0, Max: req.TotalTime},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}

	var png, svg bytes.Buffer
	if err := ch.Render(chart.PNG, &png); err != nil {
		return Output{}, fmt.Errorf("render png: %w", err)
	}
	if err := ch.Render(chart.SVG, &svg); err != nil {
		return Output{}, fmt.Errorf("render svg: %w", err)
	}
	return Output{PNG: png.Bytes(), SVG: svg.Bytes()}, nil
}

// timeAxis spreads values evenly over [0, total). A lone sample is
// repeated at the far edge so the series still draws as a line.
func timeAxis(values []float64, total float64) ([]float64, []float64) {
	step := total / float64(len(values))
	xs := make([]float64, len(values))
	for k := range values {
		xs[k] = float64(k) * step
	}
	ys := values
	if len(values) == 1 {
		xs = append(xs, total)
		ys = []float64{values[0], values[0]}
	}
	return xs, ys
}

func markerSeries(name string, markers []Marker, col drawing.Color) chart.ContinuousSeries {
	xs := make([]float64, len(markers))
	ys := make([]float64, len(markers))
	for i, m := range markers {
		xs[i] = m.Time
		ys[i] = m.Value
	}
	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: markerStyle(col)}
}

func yBounds(req Request) (float64, float64) {
	if req.YLim != nil && req.YLim.Max > req.YLim.Min {
		return req.YLim.Min, req.YLim.Max
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, values := range req.Series {
		if len(values) == 0 {
			continue
		}
		lo = math.Min(lo, floats.Min(values))
		hi = math.Max(hi, floats.Max(values))
	}
	if math.IsInf(lo, 1) {
		return -1, 1
	}
	if hi == lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
