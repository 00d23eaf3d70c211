package orchestrator

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"})
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"})
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"})
	infoStyle = lipgloss.NewStyle().Faint(true)
)

// label returns the status tag for a stage result.
func label(r pipeline.StageResult) string {
	switch {
	case r.Skipped:
		return skipStyle.Render("[SKIP]")
	case r.Passed():
		return passStyle.Render("[PASS]")
	case r.Role == pipeline.RoleAdvisory.String():
		return skipStyle.Render("[WARN]")
	default:
		return failStyle.Render("[FAIL]")
	}
}

// StageLines renders one line per stage result.
func StageLines(results []pipeline.StageResult) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		detail := r.Detail
		if r.Fallback {
			detail = "read-only fallback, " + detail
		}
		line := fmt.Sprintf("%s %s - %s", label(r), r.Stage, detail)
		if !r.Skipped {
			line += " " + infoStyle.Render(fmt.Sprintf("(%s)", r.Duration.Round(time.Millisecond)))
		}
		lines = append(lines, line)
	}
	return lines
}
