package sweep

import "fmt"

// Sweep is one uniformly sampled trial.
type Sweep []float64

// Matrix is the ordered set of equal-length sweeps of one recording.
type Matrix []Sweep

// Instrument carries the acquisition constants of the device that produced
// a recording.
type Instrument struct {
	DT      float64 // sampling interval in seconds
	Version string  // format tag recorded alongside unpacked data
}

// Samples returns the common sample count N, or 0 for an empty matrix.
func (m Matrix) Samples() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Validate checks the matrix invariants: non-empty, equal-length sweeps.
func (m Matrix) Validate() error {
	if len(m) == 0 {
		return &ShapeError{Reason: "matrix has no sweeps"}
	}
	n := len(m[0])
	for i, s := range m {
		if len(s) != n {
			return &ShapeError{Row: i, Want: n, Got: len(s)}
		}
	}
	return nil
}

// Duration returns the time covered by one sweep of n samples.
func (inst Instrument) Duration(n int) float64 {
	return float64(n) * inst.DT
}

func (inst Instrument) validate() error {
	if inst.DT <= 0 {
		return fmt.Errorf("invalid sampling interval %g", inst.DT)
	}
	return nil
}
