package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/suykerbuyk/sweep-vault/internal/analysis"
	"github.com/suykerbuyk/sweep-vault/internal/discover"
	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/store"
)

// Analysis is a catalogued artifact together with its peak summary, when
// one was computed.
type Analysis struct {
	index.Artifact
	Key   analysis.Key
	Peaks map[string][]float64
}

// Recordings lists unpacked recordings from the catalog.
func (s *Service) Recordings(ctx context.Context) ([]index.Recording, error) {
	return s.index.Recordings(ctx)
}

// Analyses lists the artifacts of a recording ordered by selection, each
// with its peak data loaded.
func (s *Service) Analyses(ctx context.Context, rec analysis.Recording) ([]Analysis, error) {
	arts, err := s.index.Artifacts(ctx, rec.String())
	if err != nil {
		return nil, err
	}
	out := make([]Analysis, 0, len(arts))
	for _, a := range arts {
		k, ok := analysis.ParseKey(a.Key)
		if !ok {
			continue
		}
		item := Analysis{Artifact: a, Key: k}
		if a.HasPeaks {
			p, err := s.LoadPeaks(ctx, k)
			if err != nil {
				s.log.Warn("peaks unreadable", zap.String("key", a.Key), zap.Error(err))
			}
			item.Peaks = p
		}
		out = append(out, item)
	}
	return out, nil
}

// Delete removes data named by key and everything derived from it:
//
//	<date>                      every raw file and artifact of the day
//	<date>/<name>               a recording: raw file, matrix, analyses
//	<date>/<name>/<artifact>    one analysis with its images and plugin data
//	<artifact>_plug[/<plugin>]  plugin data only
//	any other key               that file or directory alone
//
// Empty parent directories are dropped.
func (s *Service) Delete(ctx context.Context, key string) error {
	key, err := store.CleanKey(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	removed := false
	drop := func(k string) error {
		err := s.store.Delete(ctx, k)
		switch {
		case err == nil:
			removed = true
			return nil
		case errors.Is(err, store.ErrNotFound):
			return nil
		}
		return fmt.Errorf("delete %s: %w", k, err)
	}

	parts := strings.Split(key, "/")
	switch {
	case len(parts) == 1:
		if err := drop(key); err != nil {
			return err
		}
		dir := filepath.Join(s.rawDir, key)
		if _, err := os.Stat(dir); err == nil {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("delete raw %s: %w", key, err)
			}
			removed = true
		}

	case len(parts) == 2:
		if err := drop(key); err != nil {
			return err
		}
		raw, err := discover.Find(s.rawDir, parts[0], parts[1], nil)
		if err == nil {
			if err := os.Remove(raw.Path); err != nil {
				return fmt.Errorf("delete raw %s: %w", key, err)
			}
			pruneEmpty(filepath.Dir(raw.Path), s.rawDir)
			removed = true
		}

	default:
		if k, ok := selectionKey(key); ok {
			key = k.Prefix()
			unlock := s.locks.Lock(k.Prefix())
			for _, ext := range []string{".json", ".png", ".svg"} {
				if err := drop(k.Prefix() + ext); err != nil {
					unlock()
					return err
				}
			}
			err := drop(k.Prefix() + analysis.PlugSuffix)
			unlock()
			if err != nil {
				return err
			}
		} else if err := drop(key); err != nil {
			return err
		}
	}

	if !removed {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err := s.index.Forget(ctx, key); err != nil {
		s.log.Warn("catalog update failed", zap.String("key", key), zap.Error(err))
	}
	s.log.Info("deleted", zap.String("key", key))
	return nil
}

// selectionKey recognizes a selection artifact by its data key, one of its
// images, or its bare prefix. Other keys, such as a matrix or peak data,
// name exactly one stored file.
func selectionKey(key string) (analysis.Key, bool) {
	switch path.Ext(key) {
	case ".png", ".svg":
		key = strings.TrimSuffix(key, path.Ext(key))
	}
	return analysis.ParseKey(key)
}

// pruneEmpty removes dir if it is empty and lies below root.
func pruneEmpty(dir, root string) {
	if dir == root || !strings.HasPrefix(dir, root) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		os.Remove(dir)
	}
}
