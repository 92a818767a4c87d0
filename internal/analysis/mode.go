package analysis

import (
	"fmt"
	"strings"

	"github.com/suykerbuyk/sweep-vault/internal/render"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// Mode is the output shape applied to a selection. The set of modes is
// closed: Average, InRow, All and Stacked.
type Mode interface {
	// Name is the tag used in artifact keys.
	Name() string
	// Averages reports whether the selection is collapsed to its mean
	// before composition.
	Averages() bool
	plan(c composition) ([]Job, error)
}

// Average renders and stores the elementwise mean of the selection.
type Average struct{}

// InRow renders the selected sweeps end to end and stores them as a list.
type InRow struct{}

// All renders and stores every selected sweep on its own.
type All struct{}

// Stacked overlays the selected sweeps on one time axis.
type Stacked struct{}

func (Average) Name() string { return "avrg" }
func (InRow) Name() string   { return "inrow" }
func (All) Name() string     { return "sweep" }
func (Stacked) Name() string { return "stacked" }

func (Average) Averages() bool { return true }
func (InRow) Averages() bool   { return false }
func (All) Averages() bool     { return false }
func (Stacked) Averages() bool { return false }

// Modes lists every mode in a stable order.
func Modes() []Mode {
	return []Mode{All{}, Average{}, InRow{}, Stacked{}}
}

// ParseMode accepts the key tag or a common alias.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avrg", "average", "avg":
		return Average{}, nil
	case "inrow", "in-row", "in_row", "row":
		return InRow{}, nil
	case "all", "sweep", "each":
		return All{}, nil
	case "stacked", "stack", "overlay":
		return Stacked{}, nil
	}
	return nil, fmt.Errorf("unknown analysis mode %q (want all, avrg, inrow or stacked)", s)
}

// SelectionFor builds the selection a mode needs for [start, end).
func SelectionFor(m Mode, start, end int) sweep.Selection {
	return sweep.Selection{Start: start, End: end, Average: m.Averages()}
}

func (Average) plan(c composition) ([]Job, error) {
	if len(c.sweeps) != 1 {
		return nil, fmt.Errorf("%w: average expects 1 sweep, got %d", ErrPrecondition, len(c.sweeps))
	}
	key := c.key(Average{}, -1)
	return []Job{{
		Key:    key,
		Sweeps: c.sweeps,
		Render: render.Request{
			Title:     key.Base(),
			Series:    [][]float64{sweep.Concat(c.sweeps)},
			TotalTime: float64(len(c.sweeps)) * c.perSweep,
			YLim:      c.opts.YLim,
		},
	}}, nil
}

func (InRow) plan(c composition) ([]Job, error) {
	if len(c.sweeps) == 0 {
		return nil, fmt.Errorf("%w: in-row needs at least one sweep", ErrPrecondition)
	}
	key := c.key(InRow{}, -1)
	return []Job{{
		Key:    key,
		Sweeps: c.sweeps,
		Render: render.Request{
			Title:     key.Base(),
			Series:    [][]float64{sweep.Concat(c.sweeps)},
			TotalTime: float64(len(c.sweeps)) * c.perSweep,
			YLim:      c.opts.YLim,
		},
	}}, nil
}

func (All) plan(c composition) ([]Job, error) {
	jobs := make([]Job, 0, len(c.sweeps))
	for i, s := range c.sweeps {
		key := c.key(All{}, c.sel.Start+i)
		jobs = append(jobs, Job{
			Key:    key,
			Sweeps: sweep.Matrix{s},
			Render: render.Request{
				Title:     key.Base(),
				Series:    [][]float64{s},
				TotalTime: c.perSweep,
				YLim:      c.opts.YLim,
			},
		})
	}
	return jobs, nil
}

func (Stacked) plan(c composition) ([]Job, error) {
	if len(c.sweeps) == 0 {
		return nil, fmt.Errorf("%w: stacked needs at least one sweep", ErrPrecondition)
	}
	key := c.key(Stacked{}, -1)
	series := make([][]float64, len(c.sweeps))
	for i, s := range c.sweeps {
		series[i] = s
	}
	return []Job{{
		Key:    key,
		Sweeps: c.sweeps,
		Render: render.Request{
			Title:     key.Base(),
			Series:    series,
			TotalTime: c.perSweep,
			YLim:      c.opts.YLim,
		},
	}}, nil
}
