// Package peaks finds per-window minima and maxima across sweeps.
package peaks

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// Extremum is one located sample.
type Extremum struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// SweepPeaks holds the per-window results for one sweep. Minima, Maxima
// and Metric all have one entry per window, in window order.
type SweepPeaks struct {
	Minima   []float64 `json:"min"`
	Maxima   []float64 `json:"max"`
	Metric   []float64 `json:"df"`
	MinTimes []float64 `json:"min_t"`
	MaxTimes []float64 `json:"max_t"`
}

// Extract evaluates spec on every sweep. dt is the sampling interval.
func Extract(sweeps sweep.Matrix, spec WindowSpec, dt float64, metric Metric) ([]SweepPeaks, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("sampling interval %g must be positive", dt)
	}
	if metric == nil {
		metric = Amplitude
	}

	out := make([]SweepPeaks, len(sweeps))
	for k, s := range sweeps {
		p, err := extractSweep(s, spec, dt, metric)
		if err != nil {
			return nil, fmt.Errorf("sweep %d: %w", k, err)
		}
		out[k] = p
	}
	return out, nil
}

func extractSweep(s sweep.Sweep, spec WindowSpec, dt float64, metric Metric) (SweepPeaks, error) {
	p := SweepPeaks{
		Minima:   make([]float64, 0, spec.Count),
		Maxima:   make([]float64, 0, spec.Count),
		Metric:   make([]float64, 0, spec.Count),
		MinTimes: make([]float64, 0, spec.Count),
		MaxTimes: make([]float64, 0, spec.Count),
	}
	for i := 0; i < spec.Count; i++ {
		lo, hi, err := spec.bounds(i, len(s), dt)
		if err != nil {
			return SweepPeaks{}, err
		}
		start := spec.Origin + float64(i)*spec.Stride
		w := Window{
			Index:   i,
			Start:   start,
			End:     start + spec.Width,
			Lo:      lo,
			Hi:      hi,
			Samples: s[lo:hi],
		}

		minAt := lo + floats.MinIdx(w.Samples)
		maxAt := lo + floats.MaxIdx(w.Samples)
		low := Extremum{Index: minAt, Time: float64(minAt) * dt, Value: s[minAt]}
		high := Extremum{Index: maxAt, Time: float64(maxAt) * dt, Value: s[maxAt]}

		p.Minima = append(p.Minima, low.Value)
		p.Maxima = append(p.Maxima, high.Value)
		p.MinTimes = append(p.MinTimes, low.Time)
		p.MaxTimes = append(p.MaxTimes, high.Time)
		p.Metric = append(p.Metric, metric.Compute(low, high, w))
	}
	return p, nil
}

// Summary maps sweep index to metric sequence, the layout of data.json.
func Summary(all []SweepPeaks) map[string][]float64 {
	out := make(map[string][]float64, len(all))
	for k, p := range all {
		out[fmt.Sprint(k)] = p.Metric
	}
	return out
}
