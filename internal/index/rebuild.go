package index

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/suykerbuyk/sweep-vault/internal/analysis"
	"github.com/suykerbuyk/sweep-vault/internal/store"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// RebuildStats counts what Rebuild catalogued.
type RebuildStats struct {
	Recordings int
	Artifacts  int
	Peaks      int
	Skipped    int
}

// Rebuild scans every key in s and rebuilds the catalog from scratch.
// Matrices are decoded to recover their shape; inst supplies DT and the
// version tag for recordings the old catalog did not know. Unreadable
// matrices are logged and skipped.
func Rebuild(ctx context.Context, s store.Store, idx *Index, inst sweep.Instrument, log *zap.Logger) (RebuildStats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var st RebuildStats

	// Keep what the store cannot tell us.
	old := map[string]Recording{}
	if prev, err := idx.Recordings(ctx); err == nil {
		for _, r := range prev {
			old[r.ID] = r
		}
	}

	keys, err := s.List(ctx, "")
	if err != nil {
		return st, fmt.Errorf("list store: %w", err)
	}
	if err := idx.Reset(ctx); err != nil {
		return st, err
	}

	var peaks []string
	for _, key := range keys {
		switch {
		case path.Base(key) == analysis.MatrixFile && strings.Count(key, "/") == 2:
			rec, err := recordingFromStore(ctx, s, key, inst)
			if err != nil {
				log.Warn("rebuild: skip matrix", zap.String("key", key), zap.Error(err))
				st.Skipped++
				continue
			}
			if prev, ok := old[rec.ID]; ok {
				rec.Version = prev.Version
				rec.DT = prev.DT
				rec.UnpackedAt = prev.UnpackedAt
			}
			if err := idx.PutRecording(ctx, rec); err != nil {
				return st, err
			}
			st.Recordings++

		case strings.HasSuffix(key, analysis.PlugSuffix+"/peaks/data.json"):
			peaks = append(peaks, strings.TrimSuffix(key, analysis.PlugSuffix+"/peaks/data.json"))

		case strings.HasSuffix(key, ".json"):
			k, ok := analysis.ParseKey(key)
			if !ok {
				log.Debug("rebuild: unrecognized key", zap.String("key", key))
				st.Skipped++
				continue
			}
			if err := idx.PutArtifact(ctx, ArtifactFromKey(k)); err != nil {
				return st, err
			}
			st.Artifacts++
		}
	}

	// Peak dirs sort after their selection only by accident of naming, so
	// flag them once every artifact is in.
	for _, sel := range peaks {
		if err := idx.MarkPeaks(ctx, sel); err != nil {
			log.Warn("rebuild: orphaned peaks", zap.String("selection", sel))
			st.Skipped++
			continue
		}
		st.Peaks++
	}
	return st, nil
}

// ArtifactFromKey builds the catalog row for an analysis key.
func ArtifactFromKey(k analysis.Key) Artifact {
	return Artifact{
		Key:       k.Prefix(),
		Recording: k.Recording.String(),
		Mode:      k.Mode,
		Start:     k.Start,
		End:       k.End,
		Index:     k.Index,
	}
}

func recordingFromStore(ctx context.Context, s store.Store, key string, inst sweep.Instrument) (Recording, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return Recording{}, err
	}
	var m sweep.Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return Recording{}, fmt.Errorf("decode matrix: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Recording{}, err
	}
	parts := strings.Split(key, "/")
	return Recording{
		ID:      parts[0] + "/" + parts[1],
		Date:    parts[0],
		Name:    parts[1],
		Version: inst.Version,
		Sweeps:  len(m),
		Samples: m.Samples(),
		DT:      inst.DT,
	}, nil
}
