// Package index is the sqlite catalog of recordings and analysis artifacts.
// The store stays the source of truth; the catalog can always be rebuilt
// from it.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Recording is one unpacked recording.
type Recording struct {
	ID         string // <date>/<name>
	Date       string
	Name       string
	Version    string // instrument version tag
	Sweeps     int
	Samples    int // per sweep
	DT         float64
	UnpackedAt time.Time
}

// Artifact is one selection artifact. Key is the store prefix, without
// extension.
type Artifact struct {
	Key       string
	Recording string
	Mode      string
	Start     int
	End       int
	Index     int
	HasPeaks  bool
	UpdatedAt time.Time
}

// Index wraps the catalog database.
type Index struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	id          TEXT PRIMARY KEY,
	date        TEXT NOT NULL,
	name        TEXT NOT NULL,
	version     TEXT NOT NULL DEFAULT '',
	sweeps      INTEGER NOT NULL,
	samples     INTEGER NOT NULL,
	dt          REAL NOT NULL,
	unpacked_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS artifacts (
	prefix     TEXT PRIMARY KEY,
	recording  TEXT NOT NULL,
	mode       TEXT NOT NULL,
	sel_start  INTEGER NOT NULL,
	sel_end    INTEGER NOT NULL,
	idx        INTEGER NOT NULL,
	has_peaks  INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS artifacts_recording ON artifacts(recording);
`

// Open opens (creating if needed) the catalog at path. ":memory:" gives a
// private in-memory catalog.
func Open(path string) (*Index, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// One connection: sqlite allows a single writer, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &Index{db: db, path: path}, nil
}

// Path returns the catalog location.
func (idx *Index) Path() string { return idx.path }

// Close releases the database.
func (idx *Index) Close() error { return idx.db.Close() }

// Ping checks that the catalog answers queries.
func (idx *Index) Ping(ctx context.Context) error {
	var n int
	return idx.db.QueryRowContext(ctx, `SELECT count(*) FROM recordings`).Scan(&n)
}

// PutRecording inserts or replaces a recording.
func (idx *Index) PutRecording(ctx context.Context, r Recording) error {
	if r.ID == "" {
		r.ID = r.Date + "/" + r.Name
	}
	if r.UnpackedAt.IsZero() {
		r.UnpackedAt = time.Now()
	}
	_, err := idx.db.ExecContext(ctx, `
INSERT INTO recordings (id, date, name, version, sweeps, samples, dt, unpacked_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	date = excluded.date, name = excluded.name, version = excluded.version,
	sweeps = excluded.sweeps, samples = excluded.samples, dt = excluded.dt,
	unpacked_at = excluded.unpacked_at`,
		r.ID, r.Date, r.Name, r.Version, r.Sweeps, r.Samples, r.DT, formatTime(r.UnpackedAt))
	if err != nil {
		return fmt.Errorf("put recording %s: %w", r.ID, err)
	}
	return nil
}

// Recording looks up one recording. ok is false when it is not catalogued.
func (idx *Index) Recording(ctx context.Context, id string) (r Recording, ok bool, err error) {
	row := idx.db.QueryRowContext(ctx, `
SELECT id, date, name, version, sweeps, samples, dt, unpacked_at
FROM recordings WHERE id = ?`, id)
	r, err = scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Recording{}, false, nil
	}
	if err != nil {
		return Recording{}, false, fmt.Errorf("get recording %s: %w", id, err)
	}
	return r, true, nil
}

// SweepCount returns the cached sweep count of a recording.
func (idx *Index) SweepCount(ctx context.Context, id string) (int, bool, error) {
	r, ok, err := idx.Recording(ctx, id)
	return r.Sweeps, ok, err
}

// Recordings lists all recordings ordered by date, then name.
func (idx *Index) Recordings(ctx context.Context) ([]Recording, error) {
	rows, err := idx.db.QueryContext(ctx, `
SELECT id, date, name, version, sweeps, samples, dt, unpacked_at
FROM recordings ORDER BY date, name`)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutArtifact inserts or replaces an artifact, including its peaks flag.
func (idx *Index) PutArtifact(ctx context.Context, a Artifact) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	_, err := idx.db.ExecContext(ctx, `
INSERT INTO artifacts (prefix, recording, mode, sel_start, sel_end, idx, has_peaks, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(prefix) DO UPDATE SET
	recording = excluded.recording, mode = excluded.mode, sel_start = excluded.sel_start,
	sel_end = excluded.sel_end, idx = excluded.idx, has_peaks = excluded.has_peaks,
	updated_at = excluded.updated_at`,
		a.Key, a.Recording, a.Mode, a.Start, a.End, a.Index, boolInt(a.HasPeaks), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put artifact %s: %w", a.Key, err)
	}
	return nil
}

// MarkPeaks records that peak data exists for the artifact at key.
func (idx *Index) MarkPeaks(ctx context.Context, key string) error {
	res, err := idx.db.ExecContext(ctx, `UPDATE artifacts SET has_peaks = 1 WHERE prefix = ?`, key)
	if err != nil {
		return fmt.Errorf("mark peaks %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark peaks %s: artifact not catalogued", key)
	}
	return nil
}

// Artifacts lists the artifacts of a recording ordered by key.
func (idx *Index) Artifacts(ctx context.Context, recording string) ([]Artifact, error) {
	rows, err := idx.db.QueryContext(ctx, `
SELECT prefix, recording, mode, sel_start, sel_end, idx, has_peaks, updated_at
FROM artifacts WHERE recording = ? ORDER BY prefix`, recording)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var (
			a       Artifact
			peaks   int
			updated string
		)
		if err := rows.Scan(&a.Key, &a.Recording, &a.Mode, &a.Start, &a.End, &a.Index, &peaks, &updated); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.HasPeaks = peaks != 0
		a.UpdatedAt = parseTime(updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Forget drops every catalog row at or below key, mirroring a store delete.
// Rows below key are matched as the binary range [key+"/", key+"0"), '0'
// being the byte after '/', so "d/Cell" never matches "d/cell".
func (idx *Index) Forget(ctx context.Context, key string) error {
	key = strings.Trim(key, "/")
	lo, hi := key+"/", key+"0"
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("forget %s: %w", key, err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM recordings WHERE id = ? OR (id >= ? AND id < ?) OR date = ?`,
		`DELETE FROM artifacts WHERE prefix = ? OR (prefix >= ? AND prefix < ?) OR recording = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, key, lo, hi, key); err != nil {
			return fmt.Errorf("forget %s: %w", key, err)
		}
	}
	// Removing the peaks data, its dir or the whole plugin dir clears the
	// flag of its selection. Overlay images alone do not.
	for _, suffix := range []string{"_plug", "_plug/peaks", "_plug/peaks/data.json"} {
		sel, ok := strings.CutSuffix(key, suffix)
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE artifacts SET has_peaks = 0 WHERE prefix = ?`, sel); err != nil {
			return fmt.Errorf("forget %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Reset empties the catalog.
func (idx *Index) Reset(ctx context.Context) error {
	for _, q := range []string{`DELETE FROM recordings`, `DELETE FROM artifacts`} {
		if _, err := idx.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("reset catalog: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecording(s scanner) (Recording, error) {
	var (
		r        Recording
		unpacked string
	)
	if err := s.Scan(&r.ID, &r.Date, &r.Name, &r.Version, &r.Sweeps, &r.Samples, &r.DT, &unpacked); err != nil {
		return Recording{}, err
	}
	r.UnpackedAt = parseTime(unpacked)
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
