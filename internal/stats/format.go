package stats

import (
	"fmt"
	"strings"
)

// Format renders a Summary as aligned terminal output.
func Format(s Summary) string {
	if s.TotalRecordings == 0 {
		return "sv stats\n\n  No recordings found. Run `sv upload --extract` or `sv unpack` first.\n"
	}

	var b strings.Builder
	b.WriteString("sv stats\n")

	b.WriteString("\nOverview\n")
	fmt.Fprintf(&b, "  %-20s %s\n", "recordings", formatInt(s.TotalRecordings))
	fmt.Fprintf(&b, "  %-20s %s\n", "sweeps", formatInt(s.TotalSweeps))
	fmt.Fprintf(&b, "  %-20s %s\n", "samples", formatInt(s.TotalSamples))
	fmt.Fprintf(&b, "  %-20s %s\n", "signal", formatSeconds(s.TotalDuration))
	fmt.Fprintf(&b, "  %-20s %s (%s with peaks)\n", "analyses", formatInt(s.TotalArtifacts), formatInt(s.WithPeaks))

	b.WriteString("\nAverages\n")
	fmt.Fprintf(&b, "  %-20s %.1f\n", "sweeps/recording", s.AvgSweeps)

	if len(s.Dates) > 0 {
		b.WriteString("\nDates\n")
		limit := 10
		start := 0
		if len(s.Dates) > limit {
			start = len(s.Dates) - limit
			fmt.Fprintf(&b, "  ... %d earlier\n", start)
		}
		for _, d := range s.Dates[start:] {
			fmt.Fprintf(&b, "  %-12s %3d recordings   %5s sweeps\n", d.Date, d.Recordings, formatInt(d.Sweeps))
		}
	}

	if len(s.Versions) > 0 {
		b.WriteString("\nInstrument Versions\n")
		for _, v := range s.Versions {
			pct := 100 * v.Recordings / s.TotalRecordings
			fmt.Fprintf(&b, "  %-24s %3d (%d%%)\n", v.Version, v.Recordings, pct)
		}
	}

	if len(s.Modes) > 0 {
		b.WriteString("\nAnalysis Modes\n")
		for _, m := range s.Modes {
			fmt.Fprintf(&b, "  %-24s %3d\n", m.Mode, m.Count)
		}
	}

	return b.String()
}

// FormatRecording renders the statistics of one recording.
func FormatRecording(rs RecordingStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "sv stats %s\n", rs.ID)

	if rs.Sweeps == 0 {
		b.WriteString("\n  Recording holds no sweeps.\n")
		return b.String()
	}

	b.WriteString("\nShape\n")
	fmt.Fprintf(&b, "  %-20s %s\n", "sweeps", formatInt(rs.Sweeps))
	fmt.Fprintf(&b, "  %-20s %s\n", "samples/sweep", formatInt(rs.Samples))
	fmt.Fprintf(&b, "  %-20s %s\n", "sweep duration", formatSeconds(rs.SweepDuration))
	fmt.Fprintf(&b, "  %-20s %s\n", "total duration", formatSeconds(rs.TotalDuration))

	b.WriteString("\nSignal\n")
	fmt.Fprintf(&b, "  %-20s %.4g\n", "min", rs.Min)
	fmt.Fprintf(&b, "  %-20s %.4g\n", "max", rs.Max)
	fmt.Fprintf(&b, "  %-20s %.4g\n", "mean", rs.Mean)
	fmt.Fprintf(&b, "  %-20s %.4g\n", "std dev", rs.StdDev)
	fmt.Fprintf(&b, "  %-20s %.4g .. %.4g\n", "sweep means", rs.SweepMeanMin, rs.SweepMeanMax)

	return b.String()
}

// formatSeconds picks a unit that keeps the number readable.
func formatSeconds(s float64) string {
	switch {
	case s <= 0:
		return "0s"
	case s < 1e-3:
		return fmt.Sprintf("%.1fµs", s*1e6)
	case s < 1:
		return fmt.Sprintf("%.1fms", s*1e3)
	case s < 120:
		return fmt.Sprintf("%.2fs", s)
	}
	return fmt.Sprintf("%dm%02ds", int(s)/60, int(s)%60)
}

// formatInt formats an integer with comma separators.
func formatInt(n int) string {
	if n < 0 {
		return "0"
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}
