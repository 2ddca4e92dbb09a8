package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const marqueeGap = "   "

// Column defines a single column in the progress table.
type Column struct {
	Header string
	Width  int
}

// ToolColumns is the layout of the install progress table.
var ToolColumns = []Column{
	{Header: "TOOL", Width: 16},
	{Header: "WANT", Width: 10},
	{Header: "STATUS", Width: 10},
	{Header: "DETAIL", Width: 48},
}

// Row holds the field values for a single table row.
type Row struct {
	Tool   string
	Fields []string
}

// ProgressModel is a bubbletea model rendering one row per tool.
type ProgressModel struct {
	columns  []Column
	rows     []Row
	rowIndex map[string]int
	title    string
	spinner  spinner.Model
	done     bool

	statusCol int
	ticks     int

	interrupted bool
	onInterrupt func()
}

// NewProgressModel creates a progress model with the given title and
// columns. onInterrupt, when set, runs the first time the user presses
// ctrl+c; the model keeps rendering until the work reports done.
func NewProgressModel(title string, columns []Column, onInterrupt func()) ProgressModel {
	statusCol := -1
	for i, c := range columns {
		if strings.EqualFold(c.Header, "STATUS") {
			statusCol = i
			break
		}
	}
	return ProgressModel{
		columns:     columns,
		rowIndex:    make(map[string]int),
		title:       title,
		spinner:     spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(spinnerStyle)),
		statusCol:   statusCol,
		onInterrupt: onInterrupt,
	}
}

// AddRow pre-populates a row. Call this before the program starts.
func (m *ProgressModel) AddRow(tool string, fields []string) {
	padded := make([]string, len(m.columns))
	copy(padded, fields)
	m.rowIndex[tool] = len(m.rows)
	m.rows = append(m.rows, Row{Tool: tool, Fields: padded})
}

// Init satisfies the tea.Model interface.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update satisfies the tea.Model interface.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		m.ticks++
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RowUpdateMsg:
		m.applyRowUpdate(msg)
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case InterruptMsg:
		m.interrupt()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupt()
		}
	}
	return m, nil
}

func (m *ProgressModel) interrupt() {
	if m.interrupted {
		return
	}
	m.interrupted = true
	if m.onInterrupt != nil {
		m.onInterrupt()
	}
}

func (m *ProgressModel) applyRowUpdate(msg RowUpdateMsg) {
	idx, ok := m.rowIndex[msg.Tool]
	if !ok {
		return
	}
	row := &m.rows[idx]
	for j, col := range m.columns {
		if val, exists := msg.Fields[col.Header]; exists {
			row.Fields[j] = val
		}
	}
}

// View satisfies the tea.Model interface.
func (m ProgressModel) View() string {
	widths := make([]int, len(m.columns))
	for i, col := range m.columns {
		widths[i] = max(len(col.Header), col.Width)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	headerParts := make([]string, len(m.columns))
	for i, col := range m.columns {
		headerParts[i] = HeaderStyle.Render(pad(col.Header, widths[i]))
	}
	b.WriteString(strings.Join(headerParts, "  "))
	b.WriteByte('\n')

	for _, row := range m.rows {
		parts := make([]string, len(m.columns))
		for i := range m.columns {
			val := ""
			if i < len(row.Fields) {
				val = row.Fields[i]
			}
			if !m.done && utf8.RuneCountInString(strings.TrimSpace(val)) > widths[i] {
				val = marqueeText(val, widths[i], m.ticks)
			} else {
				val = TruncateWithEllipsis(val, widths[i])
			}
			if i == m.statusCol {
				parts[i] = StatusStyle(val).Render(pad(val, widths[i]))
			} else {
				parts[i] = pad(val, widths[i])
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteByte('\n')
	}

	if !m.done {
		processed, total := m.progressCounts()
		label := "Installing"
		if m.interrupted {
			label = "Interrupting, waiting for the current command"
		}
		fmt.Fprintf(&b, "\n%s %s %d/%d...\n", m.spinner.View(), label, processed, total)
	}

	return b.String()
}

// progressCounts returns (finished, total) over the tool rows.
func (m ProgressModel) progressCounts() (int, int) {
	total := len(m.rows)
	if m.statusCol < 0 {
		return 0, total
	}
	processed := 0
	for _, row := range m.rows {
		if m.statusCol < len(row.Fields) && finished(strings.TrimSpace(row.Fields[m.statusCol])) {
			processed++
		}
	}
	return processed, total
}

// Done returns whether the work has finished.
func (m ProgressModel) Done() bool {
	return m.done
}

// Interrupted reports whether the user asked to stop.
func (m ProgressModel) Interrupted() bool {
	return m.interrupted
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// marqueeText renders a scrolling window over text that exceeds width.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= width {
		return text
	}
	cycle := []rune(text + marqueeGap)
	offset := tick % len(cycle)
	var result strings.Builder
	result.Grow(width)
	for i := 0; i < width; i++ {
		result.WriteRune(cycle[(offset+i)%len(cycle)])
	}
	return result.String()
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string to limit runes and adds "..." if it
// had to cut.
func TruncateWithEllipsis(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
