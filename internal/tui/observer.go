package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"toolsmith/internal/orchestrate"
	"toolsmith/internal/tools"
)

// Observer turns orchestration events into row updates.
type Observer struct {
	send func(tea.Msg)
}

// NewObserver wraps a send callback, usually the one RunWithWork provides.
func NewObserver(send func(tea.Msg)) *Observer {
	return &Observer{send: send}
}

func (o *Observer) update(tool string, fields map[string]string) {
	o.send(RowUpdateMsg{Tool: tool, Fields: fields})
}

func (o *Observer) ToolStarted(tool, desired string) {
	o.update(tool, map[string]string{"WANT": NonEmptyOrDash(desired), "STATUS": StateChecking, "DETAIL": ""})
}

func (o *Observer) AttemptStarted(tool, strategy string) {
	o.update(tool, map[string]string{"STATUS": StateInstalling, "DETAIL": "via " + strategy})
}

func (o *Observer) AttemptFailed(tool, strategy string, err error) {
	o.update(tool, map[string]string{"STATUS": StateRetrying, "DETAIL": strategy + " failed: " + orchestrate.Kind(err)})
}

func (o *Observer) ToolFinished(r orchestrate.Result) {
	status := StateFailed
	switch r.Outcome {
	case orchestrate.AlreadySatisfied:
		status = StateUpToDate
	case orchestrate.Installed:
		status = StateInstalled
	}
	o.update(r.Tool, map[string]string{"WANT": NonEmptyOrDash(r.Desired), "STATUS": status, "DETAIL": r.Message})
}

// ToolRows builds a progress model with one pending row per spec.
func ToolRows(title string, specs []tools.Spec, onInterrupt func()) ProgressModel {
	m := NewProgressModel(title, ToolColumns, onInterrupt)
	for _, spec := range specs {
		m.AddRow(spec.Name, []string{spec.Name, "", StatePending, ""})
	}
	return m
}

var _ orchestrate.Observer = (*Observer)(nil)
