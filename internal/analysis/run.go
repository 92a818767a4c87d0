package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/suykerbuyk/sweep-vault/internal/render"
	"github.com/suykerbuyk/sweep-vault/internal/store"
)

// Runner persists and renders jobs.
type Runner struct {
	Store    store.Store
	Renderer render.Renderer
	Locks    *store.Locker
	Log      *zap.Logger
}

// Run executes jobs in order and returns the keys written. Each job's JSON
// is stored before its images; a render failure leaves the JSON in place.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Key, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	locks := r.Locks
	if locks == nil {
		locks = store.NewLocker()
	}
	rend := r.Renderer
	if rend == nil {
		rend = render.Nop{}
	}

	done := make([]Key, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := r.runOne(ctx, rend, locks, job); err != nil {
			return done, err
		}
		log.Debug("analysis written",
			zap.String("key", job.Key.DataKey()),
			zap.Int("sweeps", len(job.Sweeps)))
		done = append(done, job.Key)
	}
	return done, nil
}

func (r *Runner) runOne(ctx context.Context, rend render.Renderer, locks *store.Locker, job Job) error {
	unlock := locks.Lock(job.Key.Prefix())
	defer unlock()

	data, err := Encode(job)
	if err != nil {
		return fmt.Errorf("encode %s: %w", job.Key, err)
	}
	if err := r.dropStale(ctx, job.Key, data); err != nil {
		return err
	}
	if err := r.Store.Put(ctx, job.Key.DataKey(), data); err != nil {
		return fmt.Errorf("store %s: %w", job.Key, err)
	}

	out, err := rend.Render(job.Render)
	if err != nil {
		return fmt.Errorf("render %s: %w", job.Key, err)
	}
	return render.Save(ctx, r.Store, job.Key.Prefix(), out)
}

// dropStale removes plugin data derived from a previous, different version
// of the artifact. Identical data keeps it.
func (r *Runner) dropStale(ctx context.Context, k Key, data []byte) error {
	prev, err := r.Store.Get(ctx, k.DataKey())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", k, err)
	case bytes.Equal(prev, data):
		return nil
	}
	err = r.Store.Delete(ctx, k.Prefix()+PlugSuffix)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("drop plugin data of %s: %w", k, err)
	}
	return nil
}

// Encode returns the stored form of a job: a JSON list of sweeps.
func Encode(job Job) ([]byte, error) {
	rows := make([][]float64, len(job.Sweeps))
	for i, s := range job.Sweeps {
		rows[i] = s
	}
	return json.Marshal(rows)
}

// Decode parses a stored selection artifact.
func Decode(data []byte) ([][]float64, error) {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Run is a convenience wrapper over Runner.
func Run(ctx context.Context, s store.Store, rend render.Renderer, locks *store.Locker, jobs []Job) ([]Key, error) {
	r := &Runner{Store: s, Renderer: rend, Locks: locks}
	return r.Run(ctx, jobs)
}
