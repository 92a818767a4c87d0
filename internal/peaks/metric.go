package peaks

import (
	"fmt"
	"math"
	"sort"
)

// Metric derives one scalar per window from its extrema.
type Metric interface {
	Name() string
	Compute(lo, hi Extremum, w Window) float64
}

// MetricFunc adapts a function to Metric.
type MetricFunc struct {
	Label string
	Fn    func(lo, hi Extremum, w Window) float64
}

func (m MetricFunc) Name() string { return m.Label }

func (m MetricFunc) Compute(lo, hi Extremum, w Window) float64 { return m.Fn(lo, hi, w) }

// Amplitude is the peak-to-peak height of the window.
var Amplitude = MetricFunc{Label: "amplitude", Fn: func(lo, hi Extremum, _ Window) float64 {
	return hi.Value - lo.Value
}}

// Baseline is the height of the maximum above the window's first sample.
var Baseline = MetricFunc{Label: "baseline", Fn: func(_, hi Extremum, w Window) float64 {
	return hi.Value - w.Samples[0]
}}

// Relative is the peak-to-peak height relative to the minimum magnitude.
// Windows whose minimum is zero yield 0.
var Relative = MetricFunc{Label: "relative", Fn: func(lo, hi Extremum, _ Window) float64 {
	if lo.Value == 0 {
		return 0
	}
	return (hi.Value - lo.Value) / math.Abs(lo.Value)
}}

var metrics = map[string]Metric{
	Amplitude.Name(): Amplitude,
	Baseline.Name():  Baseline,
	Relative.Name():  Relative,
}

// MetricByName looks up a built-in metric. An empty name selects Amplitude.
func MetricByName(name string) (Metric, error) {
	if name == "" {
		return Amplitude, nil
	}
	m, ok := metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown peak metric %q (have %v)", name, MetricNames())
	}
	return m, nil
}

// MetricNames lists the built-in metrics.
func MetricNames() []string {
	var names []string
	for n := range metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
