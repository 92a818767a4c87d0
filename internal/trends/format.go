package trends

import (
	"fmt"
	"strings"
)

// Format renders a Result as aligned terminal output.
func Format(r Result) string {
	if r.Sweeps == 0 {
		return fmt.Sprintf("sv trends %s\n\n  No peak data found. Run `sv peaks` first.\n", r.Selection)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "sv trends %s\n", r.Selection)

	fmt.Fprintf(&b, "\nOverview (%d sweeps, %d windows, span %d)\n", r.Sweeps, r.Windows, r.Span)
	for _, t := range r.Trends {
		detail := ""
		if t.Direction != "stable" && t.DeltaPct != 0 {
			detail = fmt.Sprintf(" (%+.0f%%)", t.DeltaPct)
		}
		fmt.Fprintf(&b, "  window %-8d %10s avg  %s %s%s\n",
			t.Window, formatValue(t.Mean), directionArrow(t.Direction), t.Direction, detail)
	}

	for _, t := range r.Trends {
		if len(t.Points) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nWindow %d\n", t.Window)
		fmt.Fprintf(&b, "  %-8s %10s %10s\n", "Sweep", "Value", "Avg")
		for _, p := range t.Points {
			avgStr := ""
			if p.HasAvg {
				avgStr = formatValue(p.RollingAvg)
			}
			fmt.Fprintf(&b, "  %-8d %10s %10s%s\n", p.Sweep, formatValue(p.Value), avgStr, marker(p))
		}
	}

	var anomalies []string
	for _, t := range r.Trends {
		for _, p := range t.Points {
			if p.Anomaly {
				anomalies = append(anomalies, fmt.Sprintf("  sweep %-4d window %-4d %s (avg %s)  %s",
					p.Sweep, t.Window, formatValue(p.Value), formatValue(p.RollingAvg), kind(p)))
			}
		}
	}
	if len(anomalies) > 0 {
		b.WriteString("\nAnomalies\n")
		for _, a := range anomalies {
			b.WriteString(a)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func kind(p Point) string {
	if p.Value < p.RollingAvg {
		return "dip"
	}
	return "spike"
}

func marker(p Point) string {
	if !p.Anomaly {
		return ""
	}
	if kind(p) == "spike" {
		return "  ^ spike"
	}
	return "  v dip"
}

func directionArrow(dir string) string {
	switch dir {
	case "rising":
		return "↑"
	case "falling":
		return "↓"
	default:
		return "→"
	}
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
