// Package report renders the installed-tools table shown before and after
// a run.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"toolsmith/internal/execx"
	"toolsmith/internal/tools"
)

// Entry is one line of the status table.
type Entry struct {
	Name    string
	Version string
	Path    string
}

// Collect resolves name, version and path for every spec, then appends an
// entry for toolsmith itself.
func Collect(ctx context.Context, r execx.Runner, binDir string, specs []tools.Spec, selfVersion string) []Entry {
	entries := make([]Entry, 0, len(specs)+1)
	for _, st := range tools.DetectAll(ctx, r, binDir, specs) {
		entries = append(entries, Entry{Name: st.Name, Version: st.Version, Path: st.Path})
	}
	entries = append(entries, Entry{Name: tools.Self, Version: selfVersion, Path: selfPath()})
	return entries
}

func selfPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return exe
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	missingStyle = lipgloss.NewStyle().Padding(0, 1).Faint(true)
)

// Print writes title and an aligned NAME/VERSION/PATH table. Missing
// versions and paths are left blank.
func Print(w io.Writer, title string, entries []Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Version, e.Path})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("NAME", "VERSION", "PATH").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(entries) && entries[row].Path == "" {
				return missingStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')
	b.WriteString(t.String())
	b.WriteByte('\n')
	_, err := fmt.Fprint(w, b.String())
	return err
}
