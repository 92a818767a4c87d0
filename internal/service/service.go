// Package service runs the sweep-vault operations: upload, unpack,
// analyse, peaks and housekeeping. It owns no storage of its own; every
// dependency is injected.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/suykerbuyk/sweep-vault/internal/config"
	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/peaks"
	"github.com/suykerbuyk/sweep-vault/internal/reader"
	"github.com/suykerbuyk/sweep-vault/internal/render"
	"github.com/suykerbuyk/sweep-vault/internal/store"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

var (
	// ErrAlreadyUnpacked is returned when a recording's matrix exists.
	ErrAlreadyUnpacked = errors.New("unpacked data already exists")
	// ErrNotFound is returned for a missing recording, raw file or artifact.
	ErrNotFound = errors.New("data does not exist")
	// ErrExists is returned when an upload would overwrite a raw file.
	ErrExists = errors.New("file already exists")
	// ErrInvalid is returned for a request missing a usable name or date.
	ErrInvalid = errors.New("invalid request")
)

// Options holds the service's dependencies. Store, Index and RawDir are
// required; the rest have defaults.
type Options struct {
	RawDir     string
	Store      store.Store
	Index      *index.Index
	Readers    *reader.Registry
	Renderer   render.Renderer
	Locks      *store.Locker
	Instrument sweep.Instrument
	Metric     peaks.Metric
	Log        *zap.Logger
}

// Service is safe for concurrent use; writes to one key are serialized.
type Service struct {
	rawDir  string
	store   store.Store
	index   *index.Index
	readers *reader.Registry
	render  render.Renderer
	locks   *store.Locker
	inst    sweep.Instrument
	metric  peaks.Metric
	log     *zap.Logger
}

// New validates opts and fills defaults.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("service: no store")
	}
	if opts.Index == nil {
		return nil, fmt.Errorf("service: no catalog")
	}
	if opts.RawDir == "" {
		return nil, fmt.Errorf("service: no raw dir")
	}
	if opts.Instrument.DT <= 0 {
		return nil, fmt.Errorf("service: instrument dt must be positive, got %g", opts.Instrument.DT)
	}
	s := &Service{
		rawDir:  opts.RawDir,
		store:   opts.Store,
		index:   opts.Index,
		readers: opts.Readers,
		render:  opts.Renderer,
		locks:   opts.Locks,
		inst:    opts.Instrument,
		metric:  opts.Metric,
		log:     opts.Log,
	}
	if s.readers == nil {
		s.readers = reader.Default()
	}
	if s.render == nil {
		s.render = render.Nop{}
	}
	if s.locks == nil {
		s.locks = store.NewLocker()
	}
	if s.metric == nil {
		s.metric = peaks.Amplitude
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

// Open builds a store, catalog and renderer from cfg and returns a service
// over them. The caller must Close it.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Service, error) {
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	idx, err := index.Open(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}
	metric, err := peaks.MetricByName(cfg.Peaks.Metric)
	if err != nil {
		idx.Close()
		return nil, err
	}
	var rend render.Renderer = render.Nop{}
	if cfg.Render.Enabled {
		rend = render.NewChart(cfg.Render.Width, cfg.Render.Height)
	}
	s, err := New(Options{
		RawDir:     cfg.RawDir(),
		Store:      st,
		Index:      idx,
		Renderer:   rend,
		Instrument: cfg.Sweep(),
		Metric:     metric,
		Log:        log,
	})
	if err != nil {
		idx.Close()
		return nil, err
	}
	return s, nil
}

// OpenStore returns the artifact store cfg selects.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "", "fs":
		return store.NewFS(cfg.StoreDir()), nil
	case "s3":
		s3cfg := cfg.Storage.S3
		cli, err := store.NewS3Client(ctx, store.S3Options{
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: envOrEmpty(s3cfg.AccessKeyEnv),
			SecretKey: envOrEmpty(s3cfg.SecretKeyEnv),
			PathStyle: s3cfg.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return store.NewS3(cli, s3cfg.Bucket, s3cfg.Prefix), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Close releases the catalog.
func (s *Service) Close() error { return s.index.Close() }

// Store returns the artifact store.
func (s *Service) Store() store.Store { return s.store }

// Index returns the catalog.
func (s *Service) Index() *index.Index { return s.index }

// Instrument returns the instrument settings in use.
func (s *Service) Instrument() sweep.Instrument { return s.inst }

// Readers returns the raw reader registry.
func (s *Service) Readers() *reader.Registry { return s.readers }

// RawDir returns the raw upload directory.
func (s *Service) RawDir() string { return s.rawDir }

func (s *Service) rawPath(date, file string) string {
	return filepath.Join(s.rawDir, date, file)
}

func envOrEmpty(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
