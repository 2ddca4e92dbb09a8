package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"toolsmith/internal/orchestrate"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// printResults writes one line per tool, failures spelled out, then a
// summary.
func printResults(a *app, results []orchestrate.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(a.stdout)
	for _, r := range results {
		switch r.Outcome {
		case orchestrate.Failed:
			fmt.Fprintf(a.stdout, "%s %s: %s\n", failStyle.Render("✗"), r.Tool, r.Message)
		case orchestrate.Installed:
			fmt.Fprintf(a.stdout, "%s %s %s %s\n", okStyle.Render("✓"), r.Tool, r.Desired, dimStyle.Render("("+r.Message+")"))
		default:
			fmt.Fprintf(a.stdout, "%s %s %s\n", okStyle.Render("✓"), r.Tool, dimStyle.Render("up to date ("+r.Message+")"))
		}
	}
	s := orchestrate.Summarize(results)
	fmt.Fprintf(a.stdout, "\n%d installed, %d up to date, %d failed\n\n", s.Installed, s.Satisfied, s.Failed)
}
