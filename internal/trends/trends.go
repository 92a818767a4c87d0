// Package trends follows peak metrics from sweep to sweep and flags
// sweeps that stray from their neighbours.
package trends

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// DefaultSpan is the rolling window length, in sweeps.
const DefaultSpan = 4

// anomalyFactor is how many rolling standard deviations make an anomaly.
const anomalyFactor = 1.5

// Point is one sweep's value in a window's series.
type Point struct {
	Sweep      int
	Value      float64
	RollingAvg float64 // mean of the span ending here; 0 until span sweeps are seen
	HasAvg     bool
	Anomaly    bool
}

// WindowTrend is the series of one peak window across sweeps.
type WindowTrend struct {
	Window    int
	Points    []Point // sweep order
	Mean      float64
	Direction string // "rising", "falling", "stable"
	DeltaPct  float64
}

// Result holds the drift analysis of one peaks run.
type Result struct {
	Selection string
	Sweeps    int
	Windows   int
	Span      int
	Trends    []WindowTrend
}

// Compute builds per-window trends from a peaks summary (sweep index to
// per-window metric). Sweeps with fewer windows than the rest are
// skipped for the windows they lack.
func Compute(selection string, summary map[string][]float64, span int) Result {
	if span < 2 {
		span = DefaultSpan
	}
	r := Result{Selection: selection, Span: span}

	type row struct {
		sweep  int
		values []float64
	}
	var rows []row
	for k, v := range summary {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		rows = append(rows, row{n, v})
		if len(v) > r.Windows {
			r.Windows = len(v)
		}
	}
	if len(rows) == 0 {
		return r
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].sweep < rows[j].sweep })
	r.Sweeps = len(rows)

	for w := 0; w < r.Windows; w++ {
		var pts []Point
		for _, rw := range rows {
			if w < len(rw.values) {
				pts = append(pts, Point{Sweep: rw.sweep, Value: rw.values[w]})
			}
		}
		r.Trends = append(r.Trends, buildTrend(w, pts, span))
	}
	return r
}

// buildTrend computes rolling averages, anomalies and direction.
func buildTrend(window int, pts []Point, span int) WindowTrend {
	t := WindowTrend{Window: window, Points: pts, Direction: "stable"}
	if len(pts) == 0 {
		return t
	}

	values := make([]float64, len(pts))
	for i := range pts {
		values[i] = pts[i].Value
	}

	for i := range pts {
		if i < span-1 {
			continue
		}
		ra, sd := stat.PopMeanStdDev(values[i-span+1:i+1], nil)
		pts[i].RollingAvg = ra
		pts[i].HasAvg = true
		if sd > 0 && math.Abs(pts[i].Value-ra) > anomalyFactor*sd {
			pts[i].Anomaly = true
		}
	}

	t.Mean = stat.Mean(values, nil)
	t.Direction, t.DeltaPct = direction(values, span)
	return t
}

// direction compares the mean of the last span values with the span
// before it. Changes under 10% are stable.
func direction(values []float64, span int) (string, float64) {
	n := len(values)
	if n < 2*span {
		return "stable", 0
	}

	recent := stat.Mean(values[n-span:], nil)
	prev := stat.Mean(values[n-2*span:n-span], nil)
	if prev == 0 {
		return "stable", 0
	}

	delta := (recent - prev) / math.Abs(prev) * 100
	switch {
	case math.Abs(delta) < 10:
		return "stable", delta
	case delta > 0:
		return "rising", delta
	}
	return "falling", delta
}
