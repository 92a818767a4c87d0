package sweep

import "fmt"

// ShapeError reports raw rows or sweeps of unequal length.
type ShapeError struct {
	Row    int
	Want   int
	Got    int
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return "shape: " + e.Reason
	}
	return fmt.Sprintf("shape: row %d has %d samples, want %d", e.Row, e.Got, e.Want)
}

// RangeError reports a selection outside the matrix bounds.
type RangeError struct {
	Start  int
	End    int
	Count  int
	Reason string
}

func (e *RangeError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "start or end invalid"
	}
	return fmt.Sprintf("range [%d, %d) of %d sweeps: %s", e.Start, e.End, e.Count, reason)
}
