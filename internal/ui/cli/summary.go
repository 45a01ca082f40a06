package cli

import (
	"fmt"
	"strings"
	"time"

	"pymap/internal/engine/graph"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Width(13)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)
)

// RenderSummary formats the stats of one run for the terminal.
func RenderSummary(stats graph.Stats, output string, elapsed time.Duration) string {
	row := func(label string, value any) string {
		return labelStyle.Render(label) + fmt.Sprint(value)
	}

	lines := []string{
		titleStyle.Render("pymap"),
		row("files", stats.Files),
		row("parsed", stats.Parsed),
		row("cached", stats.Cached),
	}
	skipped := row("skipped", stats.Skipped)
	if stats.Skipped > 0 {
		skipped = labelStyle.Render("skipped") + warnStyle.Render(fmt.Sprint(stats.Skipped))
	}
	lines = append(lines,
		skipped,
		row("definitions", stats.Definitions),
		row("edges", stats.Edges),
		row("elapsed", elapsed.Round(time.Millisecond)),
	)
	if output == "-" {
		lines = append(lines, successStyle.Render("Wrote mapping to stdout"))
	} else if output != "" {
		lines = append(lines, successStyle.Render("Wrote "+output))
	}
	return strings.Join(lines, "\n")
}
