package sweep

import "gonum.org/v1/gonum/floats"

// Selection is a contiguous run of sweeps. Bounds are half-open: sweeps
// Start, Start+1, ..., End-1 are selected, so End may equal the sweep count
// but never exceed it.
type Selection struct {
	Start   int
	End     int
	Average bool
}

// Len returns the number of sweeps the selection spans.
func (s Selection) Len() int { return s.End - s.Start }

// Check validates the selection against a matrix of count sweeps.
// Out-of-range selections are rejected, never clamped.
func (s Selection) Check(count int) error {
	switch {
	case s.Start < 0:
		return &RangeError{Start: s.Start, End: s.End, Count: count, Reason: "start is negative"}
	case s.Start > s.End:
		return &RangeError{Start: s.Start, End: s.End, Count: count, Reason: "start is after end"}
	case s.End > count:
		return &RangeError{Start: s.Start, End: s.End, Count: count, Reason: "end is past the last sweep"}
	case s.Average && s.Start == s.End:
		return &RangeError{Start: s.Start, End: s.End, Count: count, Reason: "cannot average an empty range"}
	}
	return nil
}

// Select extracts the sweeps named by sel and returns them together with
// the duration of a single sweep. With sel.Average the result is a single
// sweep holding the elementwise mean of the range.
func Select(m Matrix, sel Selection, inst Instrument) (Matrix, float64, error) {
	if err := inst.validate(); err != nil {
		return nil, 0, err
	}
	if err := m.Validate(); err != nil {
		return nil, 0, err
	}
	if err := sel.Check(len(m)); err != nil {
		return nil, 0, err
	}

	perSweep := inst.Duration(m.Samples())
	picked := m[sel.Start:sel.End]

	if sel.Average {
		return Matrix{Mean(picked)}, perSweep, nil
	}

	out := make(Matrix, len(picked))
	for i, s := range picked {
		out[i] = append(Sweep(nil), s...)
	}
	return out, perSweep, nil
}

// Mean returns the elementwise arithmetic mean of equal-length sweeps.
// The caller guarantees at least one sweep.
func Mean(sweeps Matrix) Sweep {
	acc := make([]float64, len(sweeps[0]))
	for _, s := range sweeps {
		floats.Add(acc, s)
	}
	floats.Scale(1/float64(len(sweeps)), acc)
	return acc
}

// Concat joins sweeps end to end without gaps or resampling.
func Concat(sweeps Matrix) Sweep {
	n := 0
	for _, s := range sweeps {
		n += len(s)
	}
	out := make(Sweep, 0, n)
	for _, s := range sweeps {
		out = append(out, s...)
	}
	return out
}
