// Package analysis arranges a sweep selection into stored artifacts and
// images. Compose is pure; Runner performs the writes.
package analysis

import (
	"errors"
	"fmt"

	"github.com/suykerbuyk/sweep-vault/internal/render"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// ErrPrecondition reports a selection that does not fit the requested mode.
var ErrPrecondition = errors.New("analysis precondition failed")

// Options are pass-through rendering hints.
type Options struct {
	YLim *render.YLim
}

// Job is one artifact to persist and draw.
type Job struct {
	Key    Key
	Sweeps sweep.Matrix
	Render render.Request
}

type composition struct {
	rec      Recording
	sel      sweep.Selection
	sweeps   sweep.Matrix
	perSweep float64
	opts     Options
}

// key names a job's artifact. A per-sweep artifact covers [index, index+1)
// so that ParseKey recovers the same Key from the store.
func (c composition) key(m Mode, index int) Key {
	k := Key{
		Recording: c.rec,
		Mode:      m.Name(),
		Start:     c.sel.Start,
		End:       c.sel.End,
		Index:     index,
	}
	if index >= 0 {
		k.Start, k.End = index, index+1
	}
	return k
}

// Compose plans the jobs for one analysis. sweeps is the output of
// sweep.Select for sel, and perSweep the duration of one sweep.
func Compose(rec Recording, mode Mode, sel sweep.Selection, sweeps sweep.Matrix, perSweep float64, opts Options) ([]Job, error) {
	if mode == nil {
		return nil, fmt.Errorf("%w: no mode", ErrPrecondition)
	}
	if sel.Average != mode.Averages() {
		return nil, fmt.Errorf("%w: mode %s with average=%t", ErrPrecondition, mode.Name(), sel.Average)
	}
	if !sel.Average && len(sweeps) != sel.Len() {
		return nil, fmt.Errorf("%w: selection [%d, %d) holds %d sweeps", ErrPrecondition, sel.Start, sel.End, len(sweeps))
	}
	if perSweep <= 0 {
		return nil, fmt.Errorf("%w: sweep duration %g", ErrPrecondition, perSweep)
	}
	return mode.plan(composition{
		rec:      rec,
		sel:      sel,
		sweeps:   sweeps,
		perSweep: perSweep,
		opts:     opts,
	})
}
