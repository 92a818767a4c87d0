package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// Summary holds aggregate metrics computed from the catalog.
type Summary struct {
	TotalRecordings int
	TotalSweeps     int
	TotalSamples    int
	TotalDuration   float64 // seconds of recorded signal
	TotalArtifacts  int
	WithPeaks       int

	AvgSweeps float64

	Dates    []DateStats
	Versions []VersionStats
	Modes    []ModeStats
}

// DateStats holds per-acquisition-date metrics.
type DateStats struct {
	Date       string
	Recordings int
	Sweeps     int
}

// VersionStats counts recordings per instrument version.
type VersionStats struct {
	Version    string
	Recordings int
}

// ModeStats counts artifacts per analysis mode.
type ModeStats struct {
	Mode  string
	Count int
}

// Compute builds a Summary from catalog rows. arts maps recording id to
// its artifacts and may be nil.
func Compute(recs []index.Recording, arts map[string][]index.Artifact) Summary {
	var s Summary

	dateMap := make(map[string]*DateStats)
	versionMap := make(map[string]int)
	modeMap := make(map[string]int)

	for _, r := range recs {
		s.TotalRecordings++
		s.TotalSweeps += r.Sweeps
		s.TotalSamples += r.Sweeps * r.Samples
		s.TotalDuration += float64(r.Sweeps*r.Samples) * r.DT

		d, ok := dateMap[r.Date]
		if !ok {
			d = &DateStats{Date: r.Date}
			dateMap[r.Date] = d
		}
		d.Recordings++
		d.Sweeps += r.Sweeps

		v := r.Version
		if v == "" {
			v = "(unknown)"
		}
		versionMap[v]++

		for _, a := range arts[r.ID] {
			s.TotalArtifacts++
			modeMap[a.Mode]++
			if a.HasPeaks {
				s.WithPeaks++
			}
		}
	}

	if s.TotalRecordings > 0 {
		s.AvgSweeps = float64(s.TotalSweeps) / float64(s.TotalRecordings)
	}

	for _, d := range dateMap {
		s.Dates = append(s.Dates, *d)
	}
	sort.Slice(s.Dates, func(i, j int) bool { return s.Dates[i].Date < s.Dates[j].Date })

	for v, n := range versionMap {
		s.Versions = append(s.Versions, VersionStats{Version: v, Recordings: n})
	}
	sort.Slice(s.Versions, func(i, j int) bool {
		if s.Versions[i].Recordings != s.Versions[j].Recordings {
			return s.Versions[i].Recordings > s.Versions[j].Recordings
		}
		return s.Versions[i].Version < s.Versions[j].Version
	})

	for m, n := range modeMap {
		s.Modes = append(s.Modes, ModeStats{Mode: m, Count: n})
	}
	sort.Slice(s.Modes, func(i, j int) bool { return s.Modes[i].Mode < s.Modes[j].Mode })

	return s
}

// RecordingStats describes the signal of one recording.
type RecordingStats struct {
	ID            string
	Sweeps        int
	Samples       int     // per sweep
	SweepDuration float64 // seconds
	TotalDuration float64 // seconds

	Min    float64
	Max    float64
	Mean   float64
	StdDev float64

	// Range of the per-sweep means, a quick drift indicator.
	SweepMeanMin float64
	SweepMeanMax float64
}

// Recording computes signal statistics over a whole matrix.
func Recording(id string, m sweep.Matrix, inst sweep.Instrument) RecordingStats {
	rs := RecordingStats{ID: id, Sweeps: len(m), Samples: m.Samples()}
	if len(m) == 0 || rs.Samples == 0 {
		return rs
	}
	rs.SweepDuration = inst.Duration(rs.Samples)
	rs.TotalDuration = rs.SweepDuration * float64(rs.Sweeps)

	all := sweep.Concat(m)
	rs.Min = floats.Min(all)
	rs.Max = floats.Max(all)
	rs.Mean, rs.StdDev = stat.MeanStdDev(all, nil)
	if math.IsNaN(rs.StdDev) {
		rs.StdDev = 0
	}

	means := make([]float64, len(m))
	for i, s := range m {
		means[i] = stat.Mean(s, nil)
	}
	rs.SweepMeanMin = floats.Min(means)
	rs.SweepMeanMax = floats.Max(means)
	return rs
}
