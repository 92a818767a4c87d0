package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suykerbuyk/sweep-vault/internal/analysis"
	"github.com/suykerbuyk/sweep-vault/internal/discover"
	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/reader"
	"github.com/suykerbuyk/sweep-vault/internal/sanitize"
	"github.com/suykerbuyk/sweep-vault/internal/store"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// Upload copies a raw recording into raw/<date>/<secure name>. An existing
// file is never overwritten. With extract the recording is unpacked
// straight away.
func (s *Service) Upload(ctx context.Context, filename string, src io.Reader, date string, extract bool) (discover.RawFile, error) {
	date = sanitize.SecureFilename(date)
	name := sanitize.SecureFilename(filepath.Base(filename))
	if date == "" || name == "" {
		return discover.RawFile{}, fmt.Errorf("%w: no file or creation date", ErrInvalid)
	}
	if !s.readers.Supports(name) {
		return discover.RawFile{}, fmt.Errorf("%s: %w", name, reader.ErrUnsupported)
	}

	dest := s.rawPath(date, name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return discover.RawFile{}, fmt.Errorf("create raw dir: %w", err)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return discover.RawFile{}, fmt.Errorf("%s/%s: %w", date, name, ErrExists)
		}
		return discover.RawFile{}, fmt.Errorf("create raw file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dest)
		return discover.RawFile{}, fmt.Errorf("write raw file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return discover.RawFile{}, fmt.Errorf("close raw file: %w", err)
	}

	raw := discover.RawFile{
		Path:    dest,
		Date:    date,
		Name:    s.recordingName(name),
		Ext:     strings.ToLower(filepath.Ext(name)),
		ModTime: time.Now().Unix(),
	}
	s.log.Info("uploaded", zap.String("recording", raw.ID()), zap.String("path", dest))

	if extract {
		if _, err := s.Unpack(ctx, date, raw.Name); err != nil {
			return raw, fmt.Errorf("unpack after upload: %w", err)
		}
	}
	return raw, nil
}

// Raw lists uploaded recordings.
func (s *Service) Raw() ([]discover.RawFile, error) {
	return discover.Discover(s.rawDir, s.accepts)
}

func (s *Service) accepts(ext string) bool { return s.readers.Supports("f" + ext) }

// recordingName turns a raw file name into a recording name: sanitized,
// with a readable extension removed.
func (s *Service) recordingName(file string) string {
	file = sanitize.SecureFilename(file)
	if s.readers.Supports(file) {
		return strings.TrimSuffix(file, filepath.Ext(file))
	}
	return file
}

// Unpack reads the raw file of <date>/<name>, reshapes it into sweeps and
// stores the matrix. An existing matrix is left alone and
// ErrAlreadyUnpacked returned.
func (s *Service) Unpack(ctx context.Context, date, name string) (index.Recording, error) {
	name = s.recordingName(name)
	rec := analysis.Recording{Date: date, Name: name}

	raw, err := discover.Find(s.rawDir, date, name, s.accepts)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return index.Recording{}, fmt.Errorf("raw file %s: %w", rec, ErrNotFound)
		}
		return index.Recording{}, err
	}

	unlock := s.locks.Lock(rec.MatrixKey())
	defer unlock()

	if ok, err := s.store.Exists(ctx, rec.MatrixKey()); err == nil && ok {
		return index.Recording{}, fmt.Errorf("%s: %w", rec, ErrAlreadyUnpacked)
	}

	rows, err := s.readers.Read(raw.Path)
	if err != nil {
		return index.Recording{}, fmt.Errorf("read %s: %w", raw.Path, err)
	}
	m, err := sweep.Reshape(rows)
	if err != nil {
		return index.Recording{}, fmt.Errorf("reshape %s: %w", rec, err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return index.Recording{}, fmt.Errorf("encode %s: %w", rec, err)
	}
	if err := s.store.Create(ctx, rec.MatrixKey(), data); err != nil {
		if errors.Is(err, store.ErrExists) {
			return index.Recording{}, fmt.Errorf("%s: %w", rec, ErrAlreadyUnpacked)
		}
		return index.Recording{}, fmt.Errorf("store %s: %w", rec, err)
	}

	entry := index.Recording{
		ID:      rec.String(),
		Date:    date,
		Name:    name,
		Version: s.inst.Version,
		Sweeps:  len(m),
		Samples: m.Samples(),
		DT:      s.inst.DT,
	}
	if err := s.index.PutRecording(ctx, entry); err != nil {
		s.log.Warn("catalog update failed", zap.String("recording", rec.String()), zap.Error(err))
	}
	s.log.Info("unpacked",
		zap.String("recording", rec.String()),
		zap.Int("sweeps", entry.Sweeps),
		zap.Int("samples", entry.Samples))
	return entry, nil
}

// Matrix loads the stored sweep matrix of a recording.
func (s *Service) Matrix(ctx context.Context, rec analysis.Recording) (sweep.Matrix, error) {
	data, err := s.store.Get(ctx, rec.MatrixKey())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("recording %s: %w", rec, ErrNotFound)
		}
		return nil, err
	}
	var m sweep.Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.MatrixKey(), err)
	}
	return m, nil
}

// NumSweeps returns the sweep count of a recording, from the catalog when
// cached and from the stored matrix otherwise.
func (s *Service) NumSweeps(ctx context.Context, rec analysis.Recording) (int, error) {
	if n, ok, err := s.index.SweepCount(ctx, rec.String()); err == nil && ok {
		return n, nil
	}
	m, err := s.Matrix(ctx, rec)
	if err != nil {
		return 0, err
	}
	entry := index.Recording{
		ID:      rec.String(),
		Date:    rec.Date,
		Name:    rec.Name,
		Version: s.inst.Version,
		Sweeps:  len(m),
		Samples: m.Samples(),
		DT:      s.inst.DT,
	}
	if err := s.index.PutRecording(ctx, entry); err != nil {
		s.log.Warn("catalog update failed", zap.String("recording", rec.String()), zap.Error(err))
	}
	return len(m), nil
}
