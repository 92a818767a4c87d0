package peaks

import (
	"fmt"
	"math"
)

// WindowSpec describes Count windows of Width seconds, the i-th starting
// at Origin + i*Stride. Windows may overlap when Stride < Width.
type WindowSpec struct {
	Origin float64 `json:"origin"`
	Stride float64 `json:"stride"`
	Width  float64 `json:"width"`
	Count  int     `json:"count"`
}

// Validate checks the only constraints the extractor imposes.
func (s WindowSpec) Validate() error {
	if s.Count < 0 {
		return fmt.Errorf("window count %d is negative", s.Count)
	}
	if !(s.Width > 0) {
		return fmt.Errorf("window width %g must be positive", s.Width)
	}
	return nil
}

// Window is one evaluated slice of a sweep.
type Window struct {
	Index   int       // position in the window sequence
	Start   float64   // seconds
	End     float64   // seconds, exclusive
	Lo      int       // first sample index
	Hi      int       // one past the last sample index
	Samples []float64 // sweep[Lo:Hi]
}

// WindowError reports a window that holds no samples of a sweep, either
// ending before its first sample or starting past its last.
type WindowError struct {
	Window  int
	Start   float64
	Samples int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %d at %gs lies outside a %d-sample sweep", e.Window, e.Start, e.Samples)
}

// eps absorbs float error when a window edge lands on a sample boundary.
const eps = 1e-9

// bounds maps window i to sample indices [lo, hi) of an n-sample sweep.
// Positions are clamped in float before conversion so far-off windows
// cannot overflow int. The range always holds at least one sample.
func (s WindowSpec) bounds(i, n int, dt float64) (int, int, error) {
	start := s.Origin + float64(i)*s.Stride
	end := start + s.Width
	if !(end > 0) || math.Ceil(start/dt-eps) >= float64(n) {
		return 0, 0, &WindowError{Window: i, Start: start, Samples: n}
	}
	lo := int(math.Max(0, math.Ceil(start/dt-eps)))
	hi := int(math.Min(float64(n), math.Ceil(end/dt-eps)))
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi, nil
}
