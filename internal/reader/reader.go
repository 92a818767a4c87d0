// Package reader decodes raw instrument exports into per-channel rows.
package reader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ErrUnsupported is returned for files no registered reader understands.
var ErrUnsupported = errors.New("unsupported recording format")

// Reader turns a recording file into rows, one per acquisition channel.
type Reader interface {
	Read(path string) ([][]float64, error)
}

// Func adapts a plain function to Reader.
type Func func(path string) ([][]float64, error)

func (f Func) Read(path string) ([][]float64, error) { return f(path) }

// Registry picks a Reader by file extension.
type Registry struct {
	byExt map[string]Reader
}

// Default returns a registry with the JSON and Parquet readers.
func Default() *Registry {
	r := &Registry{byExt: make(map[string]Reader)}
	r.Register(".json", Func(ReadJSON))
	r.Register(".parquet", Func(ReadParquet))
	return r
}

// Register binds ext (with leading dot, any case) to rd.
func (r *Registry) Register(ext string, rd Reader) {
	r.byExt[strings.ToLower(ext)] = rd
}

// Extensions returns the supported extensions without the leading dot.
func (r *Registry) Extensions() []string {
	var exts []string
	for ext := range r.byExt {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a reader is registered for path's extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Read dispatches on the extension of path.
func (r *Registry) Read(path string) ([][]float64, error) {
	rd, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	return rd.Read(path)
}

// ReadJSON reads a JSON array of numeric arrays.
func ReadJSON(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse recording %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// Row is the Parquet layout of one acquisition channel.
type Row struct {
	Channel int64     `parquet:"channel"`
	Samples []float64 `parquet:"samples,list"`
}

// ReadParquet reads Row records and orders them by channel.
func ReadParquet(path string) ([][]float64, error) {
	records, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", filepath.Base(path), err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Channel < records[j].Channel
	})
	rows := make([][]float64, len(records))
	for i, rec := range records {
		rows[i] = rec.Samples
	}
	return rows, nil
}

// WriteParquet writes rows as Row records, channel numbered by position.
func WriteParquet(path string, rows [][]float64) error {
	records := make([]Row, len(rows))
	for i, r := range rows {
		records[i] = Row{Channel: int64(i), Samples: r}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write parquet %s: %w", filepath.Base(path), err)
	}
	return nil
}
