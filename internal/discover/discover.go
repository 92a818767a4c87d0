// Package discover finds raw recordings under the raw directory, laid out
// as raw/<date>/<file>.
package discover

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var keyNumPattern = regexp.MustCompile(`\S(\d\d?)\S*`)

// RawFile represents a discovered raw recording on disk.
type RawFile struct {
	Path    string
	Date    string
	Name    string // file stem, the recording name
	Ext     string // lower-case, with dot
	ModTime int64
}

// ID returns the recording id "<date>/<name>".
func (f RawFile) ID() string { return f.Date + "/" + f.Name }

// KeyNum extracts the ordering number embedded in a recording name: the
// first one- or two-digit run that follows another character. ok is false
// when the name carries none.
func KeyNum(name string) (n int, ok bool) {
	m := keyNumPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// Less orders names by key number; numbered names come first and ties
// fall back to the name.
func Less(a, b string) bool {
	na, oka := KeyNum(a)
	nb, okb := KeyNum(b)
	switch {
	case oka && okb && na != nb:
		return na < nb
	case oka != okb:
		return oka
	}
	return a < b
}

// Discover walks rawDir and returns every file one level below a date
// directory whose extension accept allows (nil accepts all). Results are
// grouped by date, then sorted by key number.
func Discover(rawDir string, accept func(ext string) bool) ([]RawFile, error) {
	var results []RawFile

	dates, err := os.ReadDir(rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	for _, d := range dates {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(rawDir, d.Name()))
		if err != nil {
			continue // skip inaccessible entries
		}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if accept != nil && !accept(ext) {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			results = append(results, RawFile{
				Path:    filepath.Join(rawDir, d.Name(), f.Name()),
				Date:    d.Name(),
				Name:    strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())),
				Ext:     ext,
				ModTime: info.ModTime().Unix(),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Date != results[j].Date {
			return results[i].Date < results[j].Date
		}
		return Less(results[i].Name, results[j].Name)
	})

	return results, nil
}

// Find locates the raw file of recording <date>/<name>, whatever its
// extension.
func Find(rawDir, date, name string, accept func(ext string) bool) (RawFile, error) {
	files, err := os.ReadDir(filepath.Join(rawDir, date))
	if err != nil {
		return RawFile{}, err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())) != name {
			continue
		}
		if accept != nil && !accept(ext) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			return RawFile{}, err
		}
		return RawFile{
			Path:    filepath.Join(rawDir, date, f.Name()),
			Date:    date,
			Name:    name,
			Ext:     ext,
			ModTime: info.ModTime().Unix(),
		}, nil
	}
	return RawFile{}, os.ErrNotExist
}
