package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bidwise/bidwise/internal/models"
)

var sparkLevels = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline renders values as a single row of block characters scaled to the
// series maximum.
func Sparkline(values []float64) string {
	peak := maxOf(values)
	var sb strings.Builder
	for _, v := range values {
		sb.WriteRune(sparkLevels[level(v, peak, len(sparkLevels)-1)])
	}
	return sb.String()
}

// Bandwidths returns the bandwidth column of points.
func Bandwidths(points []models.TrafficPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Bandwidth
	}
	return values
}

// TrafficChart renders the traffic series as a bar chart of the given size,
// followed by the time range and min/max/latest bandwidth. Series longer than
// width are averaged into width buckets.
func TrafficChart(points []models.TrafficPoint, width, height int) string {
	if len(points) == 0 {
		return Muted.Render("No traffic data.")
	}
	if width < 1 {
		width = 60
	}
	if height < 1 {
		height = 8
	}

	cols := resample(Bandwidths(points), width)
	peak := maxOf(cols)

	// Each row holds eight sub-levels.
	steps := len(sparkLevels) - 1
	rows := make([]string, height)
	for r := 0; r < height; r++ {
		floor := (height - 1 - r) * steps
		var sb strings.Builder
		for _, v := range cols {
			fill := level(v, peak, height*steps) - floor
			switch {
			case fill <= 0:
				sb.WriteRune(' ')
			case fill >= steps:
				sb.WriteRune(sparkLevels[steps])
			default:
				sb.WriteRune(sparkLevels[fill])
			}
		}
		rows[r] = sb.String()
	}
	chart := lipgloss.NewStyle().Foreground(PrimaryColor).Render(strings.Join(rows, "\n"))

	first, last := points[0].Time, points[len(points)-1].Time
	gap := len(cols) - lipgloss.Width(first) - lipgloss.Width(last)
	if gap < 1 {
		gap = 1
	}
	axis := Muted.Render(first + strings.Repeat(" ", gap) + last)

	stats := TrafficStats(points)
	summary := fmt.Sprintf("min %.1f  max %.1f  latest %.1f Mbps", stats.Min, stats.Max, stats.Latest)

	return lipgloss.JoinVertical(lipgloss.Left, chart, axis, summary)
}

// Stats summarizes a traffic series.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Latest float64 `json:"latest"`
}

// TrafficStats computes summary statistics over points. The zero value is
// returned for an empty series.
func TrafficStats(points []models.TrafficPoint) Stats {
	if len(points) == 0 {
		return Stats{}
	}
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, p := range points {
		s.Min = math.Min(s.Min, p.Bandwidth)
		s.Max = math.Max(s.Max, p.Bandwidth)
		sum += p.Bandwidth
	}
	s.Mean = sum / float64(len(points))
	s.Latest = points[len(points)-1].Bandwidth
	return s
}

// resample averages values into at most n buckets.
func resample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func maxOf(values []float64) float64 {
	var peak float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// level scales v against peak onto [0, steps]. Non-positive values map to 0.
func level(v, peak float64, steps int) int {
	if peak <= 0 || v <= 0 || math.IsNaN(v) {
		return 0
	}
	l := int(math.Round(v / peak * float64(steps)))
	if l > steps {
		return steps
	}
	return l
}
