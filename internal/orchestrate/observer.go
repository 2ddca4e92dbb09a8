package orchestrate

import "github.com/charmbracelet/log"

// Observer follows a run as it happens. Calls arrive on the orchestrating
// goroutine, one tool at a time.
type Observer interface {
	ToolStarted(tool, desired string)
	AttemptStarted(tool, strategy string)
	AttemptFailed(tool, strategy string, err error)
	ToolFinished(result Result)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ToolStarted(string, string) {
}

func (NopObserver) AttemptStarted(string, string) {
}

func (NopObserver) AttemptFailed(string, string, error) {
}

func (NopObserver) ToolFinished(Result) {
}

// LogObserver reports progress as log lines; used when there is no
// interactive terminal.
type LogObserver struct {
	Log *log.Logger
}

func (o LogObserver) ToolStarted(tool, desired string) {
	o.Log.Info("checking", "tool", tool, "want", desired)
}

func (o LogObserver) AttemptStarted(tool, strategy string) {
	o.Log.Info("installing", "tool", tool, "strategy", strategy)
}

func (o LogObserver) AttemptFailed(tool, strategy string, err error) {
	o.Log.Warn("strategy failed", "tool", tool, "strategy", strategy, "kind", Kind(err), "err", err)
}

func (o LogObserver) ToolFinished(r Result) {
	switch r.Outcome {
	case Failed:
		o.Log.Error("failed", "tool", r.Tool, "kind", Kind(r.Err), "reason", r.Message)
	case Installed:
		o.Log.Info("installed", "tool", r.Tool, "version", r.After)
	default:
		o.Log.Info("up to date", "tool", r.Tool, "version", r.Before)
	}
}
