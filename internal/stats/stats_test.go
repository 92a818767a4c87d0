package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

func makeRec(date, name, version string, sweeps, samples int, dt float64) index.Recording {
	return index.Recording{
		ID:      date + "/" + name,
		Date:    date,
		Name:    name,
		Version: version,
		Sweeps:  sweeps,
		Samples: samples,
		DT:      dt,
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, nil)
	if s.TotalRecordings != 0 || s.AvgSweeps != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	if !strings.Contains(Format(s), "No recordings found") {
		t.Error("empty Format should say so")
	}
}

func TestCompute_MultipleRecordings(t *testing.T) {
	recs := []index.Recording{
		makeRec("2024-03-02", "cell1", "V1", 10, 100, 0.001),
		makeRec("2024-03-01", "cell2", "V1", 4, 100, 0.001),
		makeRec("2024-03-01", "cell3", "V2", 6, 50, 0.002),
	}
	arts := map[string][]index.Artifact{
		"2024-03-01/cell2": {
			{Mode: "avrg", HasPeaks: true},
			{Mode: "sweep"},
			{Mode: "sweep"},
		},
	}
	s := Compute(recs, arts)

	if s.TotalRecordings != 3 {
		t.Errorf("TotalRecordings = %d", s.TotalRecordings)
	}
	if s.TotalSweeps != 20 {
		t.Errorf("TotalSweeps = %d", s.TotalSweeps)
	}
	if s.TotalSamples != 1000+400+300 {
		t.Errorf("TotalSamples = %d", s.TotalSamples)
	}
	if want := 1.0 + 0.4 + 0.6; math.Abs(s.TotalDuration-want) > 1e-9 {
		t.Errorf("TotalDuration = %v, want %v", s.TotalDuration, want)
	}
	if s.TotalArtifacts != 3 || s.WithPeaks != 1 {
		t.Errorf("artifacts = %d/%d", s.TotalArtifacts, s.WithPeaks)
	}
	if math.Abs(s.AvgSweeps-20.0/3) > 1e-9 {
		t.Errorf("AvgSweeps = %v", s.AvgSweeps)
	}

	if len(s.Dates) != 2 || s.Dates[0].Date != "2024-03-01" || s.Dates[0].Recordings != 2 || s.Dates[0].Sweeps != 10 {
		t.Errorf("Dates = %+v", s.Dates)
	}
	if len(s.Versions) != 2 || s.Versions[0].Version != "V1" || s.Versions[0].Recordings != 2 {
		t.Errorf("Versions = %+v", s.Versions)
	}
	if len(s.Modes) != 2 || s.Modes[0].Mode != "avrg" || s.Modes[1].Count != 2 {
		t.Errorf("Modes = %+v", s.Modes)
	}

	out := Format(s)
	for _, want := range []string{"Overview", "recordings", "Dates", "2024-03-02", "Instrument Versions", "V2", "Analysis Modes"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format missing %q:\n%s", want, out)
		}
	}
}

func TestRecording(t *testing.T) {
	m := sweep.Matrix{
		{1, 1, 1, 1},
		{3, 3, 3, 3},
	}
	rs := Recording("2024-03-01/cell3", m, sweep.Instrument{DT: 0.5})

	if rs.Sweeps != 2 || rs.Samples != 4 {
		t.Errorf("shape = %dx%d", rs.Sweeps, rs.Samples)
	}
	if rs.SweepDuration != 2 || rs.TotalDuration != 4 {
		t.Errorf("durations = %v, %v", rs.SweepDuration, rs.TotalDuration)
	}
	if rs.Min != 1 || rs.Max != 3 || rs.Mean != 2 {
		t.Errorf("min/max/mean = %v/%v/%v", rs.Min, rs.Max, rs.Mean)
	}
	// Sample std dev of four 1s and four 3s.
	if want := math.Sqrt(8.0 / 7); math.Abs(rs.StdDev-want) > 1e-12 {
		t.Errorf("StdDev = %v, want %v", rs.StdDev, want)
	}
	if rs.SweepMeanMin != 1 || rs.SweepMeanMax != 3 {
		t.Errorf("sweep means = %v..%v", rs.SweepMeanMin, rs.SweepMeanMax)
	}

	out := FormatRecording(rs)
	if !strings.Contains(out, "sv stats 2024-03-01/cell3") || !strings.Contains(out, "samples/sweep") {
		t.Errorf("FormatRecording:\n%s", out)
	}
}

func TestRecordingSingleSample(t *testing.T) {
	rs := Recording("x/y", sweep.Matrix{{7}}, sweep.Instrument{DT: 1})
	if rs.StdDev != 0 || rs.Mean != 7 {
		t.Errorf("single sample = %+v", rs)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0s"},
		{5e-5, "50.0µs"},
		{0.02, "20.0ms"},
		{1.5, "1.50s"},
		{150, "2m30s"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.in); got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatInt(tt.in); got != tt.want {
			t.Errorf("formatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
