package tui

import "github.com/charmbracelet/lipgloss"

// Row states shown in the STATUS column.
const (
	StatePending    = "pending"
	StateChecking   = "checking"
	StateInstalling = "installing"
	StateRetrying   = "retrying"
	StateInstalled  = "installed"
	StateUpToDate   = "up to date"
	StateFailed     = "failed"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))

	statusStyles = map[string]lipgloss.Style{
		StateInstalled:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StateUpToDate:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StateChecking:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StateInstalling: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StateRetrying:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StateFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		StatePending:    lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// finished reports whether a row has reached a terminal state.
func finished(status string) bool {
	switch status {
	case StateInstalled, StateUpToDate, StateFailed:
		return true
	}
	return false
}
