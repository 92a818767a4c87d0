package analysis

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MatrixFile is the name of a recording's unpacked sweep matrix.
	MatrixFile = "sweeps.json"
	// PlugSuffix marks the directory holding derived data of an artifact.
	PlugSuffix = "_plug"
)

// Recording identifies one unpacked recording: the acquisition date and
// the raw file's stem.
type Recording struct {
	Date string
	Name string
}

// ParseRecording parses "date/name".
func ParseRecording(s string) (Recording, error) {
	s = strings.Trim(s, "/")
	date, name, ok := strings.Cut(s, "/")
	if !ok || date == "" || name == "" || strings.Contains(name, "/") {
		return Recording{}, fmt.Errorf("recording %q: want <date>/<name>", s)
	}
	return Recording{Date: date, Name: name}, nil
}

func (r Recording) String() string { return r.Date + "/" + r.Name }

// MatrixKey is where the recording's sweep matrix lives.
func (r Recording) MatrixKey() string { return path.Join(r.Date, r.Name, MatrixFile) }

// Key identifies one selection artifact. Index is the absolute sweep index
// for All-mode artifacts and -1 otherwise.
type Key struct {
	Recording Recording
	Mode      string
	Start     int
	End       int
	Index     int
}

// Base is the artifact's file stem, e.g. "avrg-0-5_cell3" or
// "sweep-07_cell3".
func (k Key) Base() string {
	if k.Index >= 0 {
		return fmt.Sprintf("sweep-%02d_%s", k.Index, k.Recording.Name)
	}
	return fmt.Sprintf("%s-%d-%d_%s", k.Mode, k.Start, k.End, k.Recording.Name)
}

// Prefix is the store key without extension; images live at
// Prefix()+".png" and Prefix()+".svg".
func (k Key) Prefix() string {
	return path.Join(k.Recording.Date, k.Recording.Name, k.Base())
}

// DataKey is the store key of the persisted sweep list.
func (k Key) DataKey() string { return k.Prefix() + ".json" }

// PlugKey is the directory of derived data produced by plugin.
func (k Key) PlugKey(plugin string) string {
	return k.Prefix() + PlugSuffix + "/" + plugin
}

func (k Key) String() string { return k.Prefix() }

var (
	rangeBase = regexp.MustCompile(`^(avrg|inrow|stacked)-(\d+)-(\d+)_(.+)$`)
	indexBase = regexp.MustCompile(`^sweep-(\d+)_(.+)$`)
)

// ParseKey recognizes the store key of a selection artifact, with or
// without the .json extension.
func ParseKey(storeKey string) (Key, bool) {
	storeKey = strings.TrimSuffix(strings.Trim(storeKey, "/"), ".json")
	parts := strings.Split(storeKey, "/")
	if len(parts) != 3 {
		return Key{}, false
	}
	rec := Recording{Date: parts[0], Name: parts[1]}
	base := parts[2]

	if m := rangeBase.FindStringSubmatch(base); m != nil && m[4] == rec.Name {
		start, _ := strconv.Atoi(m[2])
		end, _ := strconv.Atoi(m[3])
		return Key{Recording: rec, Mode: m[1], Start: start, End: end, Index: -1}, true
	}
	if m := indexBase.FindStringSubmatch(base); m != nil && m[2] == rec.Name {
		idx, _ := strconv.Atoi(m[1])
		return Key{Recording: rec, Mode: All{}.Name(), Start: idx, End: idx + 1, Index: idx}, true
	}
	return Key{}, false
}
