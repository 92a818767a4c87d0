package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"

	"go.uber.org/zap"

	"github.com/suykerbuyk/sweep-vault/internal/analysis"
	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/peaks"
	"github.com/suykerbuyk/sweep-vault/internal/render"
	"github.com/suykerbuyk/sweep-vault/internal/store"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// PeaksPlugin names the plugin directory peak data is written to.
const PeaksPlugin = "peaks"

// AnalyseRequest selects sweeps [Start, End) of a recording.
type AnalyseRequest struct {
	Recording analysis.Recording
	Mode      analysis.Mode
	Start     int
	End       int
	YLim      *render.YLim
}

// Analyse selects, composes, stores and renders one analysis. It returns
// the keys written, in order.
func (s *Service) Analyse(ctx context.Context, req AnalyseRequest) ([]analysis.Key, error) {
	if req.Mode == nil {
		return nil, fmt.Errorf("%w: no analysis mode", ErrInvalid)
	}
	m, err := s.Matrix(ctx, req.Recording)
	if err != nil {
		return nil, err
	}

	sel := analysis.SelectionFor(req.Mode, req.Start, req.End)
	sweeps, perSweep, err := sweep.Select(m, sel, s.inst)
	if err != nil {
		return nil, err
	}
	jobs, err := analysis.Compose(req.Recording, req.Mode, sel, sweeps, perSweep, analysis.Options{YLim: req.YLim})
	if err != nil {
		return nil, err
	}

	runner := &analysis.Runner{Store: s.store, Renderer: s.render, Locks: s.locks, Log: s.log}
	keys, runErr := runner.Run(ctx, jobs)
	for _, k := range keys {
		art := index.ArtifactFromKey(k)
		// Peak data survives a rerun that left the selection unchanged.
		art.HasPeaks, _ = s.store.Exists(ctx, peaksDataKey(k))
		if err := s.index.PutArtifact(ctx, art); err != nil {
			s.log.Warn("catalog update failed", zap.String("key", k.Prefix()), zap.Error(err))
		}
	}
	if runErr != nil {
		return keys, runErr
	}
	s.log.Info("analysed",
		zap.String("recording", req.Recording.String()),
		zap.String("mode", req.Mode.Name()),
		zap.Int("start", req.Start),
		zap.Int("end", req.End),
		zap.Int("artifacts", len(keys)))
	return keys, nil
}

func peaksDataKey(sel analysis.Key) string {
	return sel.PlugKey(PeaksPlugin) + "/data.json"
}

// PeaksResult is what Peaks stored.
type PeaksResult struct {
	Selection analysis.Key
	DataKey   string
	Sweeps    []peaks.SweepPeaks
	Summary   map[string][]float64
}

// ParseSelection accepts a selection artifact as a store key, with or
// without extension, or as the path of one of its images.
func ParseSelection(key string) (analysis.Key, error) {
	ext := path.Ext(key)
	switch ext {
	case ".png", ".svg":
		key = key[:len(key)-len(ext)]
	}
	k, ok := analysis.ParseKey(key)
	if !ok {
		return analysis.Key{}, fmt.Errorf("%w: %q is not a selection artifact", ErrInvalid, key)
	}
	return k, nil
}

// Peaks runs the peak extractor over a stored selection. data.json is
// written before any overlay image, and reruns overwrite.
func (s *Service) Peaks(ctx context.Context, sel analysis.Key, spec peaks.WindowSpec) (PeaksResult, error) {
	res := PeaksResult{Selection: sel}

	data, err := s.store.Get(ctx, sel.DataKey())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return res, fmt.Errorf("selection %s: %w", sel, ErrNotFound)
		}
		return res, err
	}
	rows, err := analysis.Decode(data)
	if err != nil {
		return res, fmt.Errorf("decode %s: %w", sel.DataKey(), err)
	}
	sweeps := make(sweep.Matrix, len(rows))
	for i, r := range rows {
		sweeps[i] = r
	}

	res.Sweeps, err = peaks.Extract(sweeps, spec, s.inst.DT, s.metric)
	if err != nil {
		return res, err
	}
	res.Summary = peaks.Summary(res.Sweeps)

	dir := sel.PlugKey(PeaksPlugin)
	res.DataKey = peaksDataKey(sel)

	unlock := s.locks.Lock(dir)
	defer unlock()

	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return res, fmt.Errorf("encode peaks: %w", err)
	}
	if err := s.store.Put(ctx, res.DataKey, summary); err != nil {
		return res, fmt.Errorf("store peaks: %w", err)
	}
	if err := s.index.MarkPeaks(ctx, sel.Prefix()); err != nil {
		s.log.Debug("peaks for uncatalogued selection", zap.String("key", sel.Prefix()))
	}

	for k, sp := range res.Sweeps {
		req := render.Request{
			Title:     fmt.Sprintf("%s sweep %d", sel.Base(), k),
			Series:    [][]float64{sweeps[k]},
			TotalTime: float64(len(sweeps[k])) * s.inst.DT,
			Minima:    markers(sp.MinTimes, sp.Minima),
			Maxima:    markers(sp.MaxTimes, sp.Maxima),
		}
		out, err := s.render.Render(req)
		if err != nil {
			return res, fmt.Errorf("render peaks %d: %w", k, err)
		}
		if err := render.Save(ctx, s.store, dir+"/"+strconv.Itoa(k), out); err != nil {
			return res, err
		}
	}

	s.log.Info("peaks extracted",
		zap.String("selection", sel.Prefix()),
		zap.String("metric", s.metric.Name()),
		zap.Int("windows", spec.Count),
		zap.Int("sweeps", len(sweeps)))
	return res, nil
}

// LoadPeaks reads the stored peak summary of a selection.
func (s *Service) LoadPeaks(ctx context.Context, sel analysis.Key) (map[string][]float64, error) {
	data, err := s.store.Get(ctx, peaksDataKey(sel))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("peaks of %s: %w", sel, ErrNotFound)
		}
		return nil, err
	}
	var out map[string][]float64
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode peaks: %w", err)
	}
	return out, nil
}

func markers(times, values []float64) []render.Marker {
	out := make([]render.Marker, len(values))
	for i := range values {
		out[i] = render.Marker{Time: times[i], Value: values[i]}
	}
	return out
}
