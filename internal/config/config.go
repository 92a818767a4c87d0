package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// Config holds all sweep-vault configuration.
type Config struct {
	DataDir string `toml:"data_dir"`

	Instrument InstrumentConfig `toml:"instrument"`
	Storage    StorageConfig    `toml:"storage"`
	Render     RenderConfig     `toml:"render"`
	Peaks      PeaksConfig      `toml:"peaks"`
	Archive    ArchiveConfig    `toml:"archive"`
	Watch      WatchConfig      `toml:"watch"`
	Log        LogConfig        `toml:"log"`
}

// InstrumentConfig describes the acquisition hardware.
type InstrumentConfig struct {
	DT      float64 `toml:"dt"`
	Version string  `toml:"version"`
}

type StorageConfig struct {
	Backend string   `toml:"backend"`
	S3      S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Prefix       string `toml:"prefix"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKeyEnv string `toml:"access_key_env"`
	SecretKeyEnv string `toml:"secret_key_env"`
	PathStyle    bool   `toml:"path_style"`
}

type RenderConfig struct {
	Enabled bool `toml:"enabled"`
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
}

type PeaksConfig struct {
	Metric string `toml:"metric"`
}

type ArchiveConfig struct {
	Codec string `toml:"codec"`
	Dir   string `toml:"dir"`
}

type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataDir: "~/sweep-vault",
		Instrument: InstrumentConfig{
			DT:      5e-5,
			Version: "V1",
		},
		Storage: StorageConfig{
			Backend: "fs",
			S3: S3Config{
				Region:       "us-east-1",
				AccessKeyEnv: "AWS_ACCESS_KEY_ID",
				SecretKeyEnv: "AWS_SECRET_ACCESS_KEY",
			},
		},
		Render: RenderConfig{
			Enabled: true,
			Width:   1024,
			Height:  512,
		},
		Peaks: PeaksConfig{
			Metric: "amplitude",
		},
		Archive: ArchiveConfig{
			Codec: "zstd",
			Dir:   "~/sweep-vault-backups",
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	cfg := DefaultConfig()
	cfg.expand()
	return cfg, nil
}

// LoadFile reads config from path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expand() {
	c.DataDir = expandHome(c.DataDir)
	c.Archive.Dir = expandHome(c.Archive.Dir)
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is empty")
	}
	if c.Instrument.DT <= 0 {
		return fmt.Errorf("instrument.dt must be positive, got %g", c.Instrument.DT)
	}
	switch c.Storage.Backend {
	case "fs":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend %q: want fs or s3", c.Storage.Backend)
	}
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return fmt.Errorf("render size %dx%d is negative", c.Render.Width, c.Render.Height)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms is negative")
	}
	return nil
}

func configPaths() []string {
	var paths []string

	if p := os.Getenv("SV_CONFIG"); p != "" {
		paths = append(paths, p)
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "sweep-vault", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "sweep-vault", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// Sweep returns the instrument settings in the form the selector takes.
func (c Config) Sweep() sweep.Instrument {
	return sweep.Instrument{DT: c.Instrument.DT, Version: c.Instrument.Version}
}

// RawDir holds uploaded raw recordings, one subdirectory per date.
func (c Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// StoreDir is the root of the filesystem artifact store.
func (c Config) StoreDir() string {
	return filepath.Join(c.DataDir, "store")
}

// StateDir returns the .sweep-vault state directory inside the data dir.
func (c Config) StateDir() string {
	return filepath.Join(c.DataDir, ".sweep-vault")
}

// CatalogPath is the sqlite catalog file.
func (c Config) CatalogPath() string {
	return filepath.Join(c.StateDir(), "catalog.db")
}
