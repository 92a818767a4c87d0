package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/suykerbuyk/sweep-vault/internal/config"
	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/peaks"
	"github.com/suykerbuyk/sweep-vault/internal/reader"
	"github.com/suykerbuyk/sweep-vault/internal/store"
)

// Status represents the outcome of a single check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "FAIL"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report aggregates all check results.
type Report struct {
	Results []Result
}

// HasFailures returns true if any result has Fail status.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == Fail {
			return true
		}
	}
	return false
}

// Format returns the human-readable report string.
func (r Report) Format() string {
	if len(r.Results) == 0 {
		return "sv check\n\n  no checks ran\n"
	}

	maxName := 0
	for _, res := range r.Results {
		if len(res.Name) > maxName {
			maxName = len(res.Name)
		}
	}

	var b strings.Builder
	b.WriteString("sv check\n\n")

	var passed, warnings, failures int
	for _, res := range r.Results {
		switch res.Status {
		case Pass:
			passed++
		case Warn:
			warnings++
		case Fail:
			failures++
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %s\n", res.Status, maxName, res.Name, res.Detail)
	}

	fmt.Fprintf(&b, "\n%d passed, %d warning, %d failure\n", passed, warnings, failures)
	return b.String()
}

// CheckConfig validates the loaded settings and reports the config path.
func CheckConfig(cfg config.Config) Result {
	cfgPath := config.CompressHome(filepath.Join(config.ConfigDir(), "config.toml"))
	if err := cfg.Validate(); err != nil {
		return Result{Name: "config", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "config", Status: Pass, Detail: cfgPath}
}

// CheckDataDir checks whether the data directory exists.
func CheckDataDir(path string) Result {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Result{Name: "data", Status: Pass, Detail: config.CompressHome(path)}
	}
	return Result{Name: "data", Status: Fail, Detail: path + " not found (run sv init)"}
}

// CheckRaw reports how many raw files the readers can decode.
func CheckRaw(rawDir string, readers *reader.Registry) Result {
	if _, err := os.Stat(rawDir); err != nil {
		return Result{Name: "raw", Status: Warn, Detail: "raw/ not found (fresh data dir)"}
	}
	var supported, other int
	filepath.WalkDir(rawDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if readers.Supports(path) {
			supported++
		} else {
			other++
		}
		return nil
	})
	if other > 0 {
		return Result{Name: "raw", Status: Warn, Detail: fmt.Sprintf("raw/ (%d recordings, %d unsupported files)", supported, other)}
	}
	return Result{Name: "raw", Status: Pass, Detail: fmt.Sprintf("raw/ (%d recordings)", supported)}
}

// CheckCatalog opens the sqlite catalog and counts its recordings.
func CheckCatalog(ctx context.Context, path string) Result {
	if _, err := os.Stat(path); err != nil {
		return Result{Name: "catalog", Status: Warn, Detail: "catalog.db not found yet (run sv index rebuild)"}
	}
	idx, err := index.Open(path)
	if err != nil {
		return Result{Name: "catalog", Status: Fail, Detail: err.Error()}
	}
	defer idx.Close()
	if err := idx.Ping(ctx); err != nil {
		return Result{Name: "catalog", Status: Fail, Detail: err.Error()}
	}
	recs, err := idx.Recordings(ctx)
	if err != nil {
		return Result{Name: "catalog", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "catalog", Status: Pass, Detail: fmt.Sprintf("catalog.db (%d recordings)", len(recs))}
}

const probeKey = ".sv-check/probe"

// CheckStore writes, reads back and removes a probe key.
func CheckStore(ctx context.Context, name string, s store.Store) Result {
	res := Result{Name: "store", Detail: name}
	if err := s.Put(ctx, probeKey, []byte("ok")); err != nil {
		res.Status, res.Detail = Fail, fmt.Sprintf("%s: write: %v", name, err)
		return res
	}
	data, err := s.Get(ctx, probeKey)
	if err != nil || string(data) != "ok" {
		res.Status, res.Detail = Fail, fmt.Sprintf("%s: probe did not read back", name)
		return res
	}
	if err := s.Delete(ctx, ".sv-check"); err != nil && !errors.Is(err, store.ErrNotFound) {
		res.Status, res.Detail = Warn, fmt.Sprintf("%s: probe left behind: %v", name, err)
		return res
	}
	res.Status = Pass
	return res
}

// CheckS3Credentials reports whether the configured key variables are set.
// Empty variable names fall back to the SDK's default chain.
func CheckS3Credentials(s3 config.S3Config) Result {
	if s3.AccessKeyEnv == "" || s3.SecretKeyEnv == "" {
		return Result{Name: "credentials", Status: Pass, Detail: "default AWS chain"}
	}
	var missing []string
	for _, env := range []string{s3.AccessKeyEnv, s3.SecretKeyEnv} {
		if os.Getenv(env) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return Result{Name: "credentials", Status: Warn, Detail: strings.Join(missing, ", ") + " not set"}
	}
	return Result{Name: "credentials", Status: Pass, Detail: s3.AccessKeyEnv + " set"}
}

// CheckMetric makes sure the configured peak metric exists.
func CheckMetric(name string) Result {
	if _, err := peaks.MetricByName(name); err != nil {
		return Result{Name: "metric", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "metric", Status: Pass, Detail: name}
}

// CheckRender reports the image settings.
func CheckRender(r config.RenderConfig) Result {
	if !r.Enabled {
		return Result{Name: "render", Status: Warn, Detail: "disabled (JSON only)"}
	}
	return Result{Name: "render", Status: Pass, Detail: fmt.Sprintf("%dx%d png+svg", r.Width, r.Height)}
}

// Run executes all checks against the given config and returns a report.
// openStore is only called when the config itself is valid.
func Run(ctx context.Context, cfg config.Config, openStore func(context.Context, config.Config) (store.Store, error)) Report {
	var results []Result

	cfgRes := CheckConfig(cfg)
	results = append(results, cfgRes)
	results = append(results, CheckDataDir(cfg.DataDir))
	results = append(results, CheckRaw(cfg.RawDir(), reader.Default()))
	results = append(results, CheckCatalog(ctx, cfg.CatalogPath()))

	if cfg.Storage.Backend == "s3" {
		results = append(results, CheckS3Credentials(cfg.Storage.S3))
	}
	if cfgRes.Status != Fail && openStore != nil {
		name := cfg.Storage.Backend
		if s, err := openStore(ctx, cfg); err != nil {
			results = append(results, Result{Name: "store", Status: Fail, Detail: err.Error()})
		} else {
			results = append(results, CheckStore(ctx, name, s))
		}
	}

	results = append(results, CheckMetric(cfg.Peaks.Metric))
	results = append(results, CheckRender(cfg.Render))

	return Report{Results: results}
}
