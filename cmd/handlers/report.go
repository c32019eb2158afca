package handlers

import (
	"fmt"
	"io"

	"trendpress/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sourceStyle  = lipgloss.NewStyle().Bold(true).MarginLeft(1)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// renderReport prints the run summary. The generated/requested line is
// always present so partial batches are never mistaken for full ones.
func renderReport(out io.Writer, report *pipeline.Report) {
	summary := fmt.Sprintf("Generated %d/%d documents in %d attempt(s)", len(report.Generated), report.Requested, report.Attempts)
	if report.Complete() {
		summary = okStyle.Render(summary)
	} else {
		summary = warnStyle.Render(summary + fmt.Sprintf(" (ceiling %d)", report.MaxAttempts))
	}

	lines := []string{
		headingStyle.Render("Run " + report.RunID.String()),
		summary,
	}
	for _, entry := range report.Generated {
		lines = append(lines, fmt.Sprintf("%s %s %s", okStyle.Render("✓"), entry.Title, dimStyle.Render(entry.Filename)))
	}

	for _, o := range report.Outcomes {
		if o.Counted() {
			continue
		}
		line := fmt.Sprintf("%s #%d %s: %s", warnStyle.Render("↻"), o.Attempt, o.Topic.Topic, o.Reason)
		if o.Err != nil {
			line += dimStyle.Render(" (" + o.Err.Error() + ")")
		}
		lines = append(lines, line)
	}

	fmt.Fprintln(out, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}
