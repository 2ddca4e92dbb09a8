package orchestrate

import (
	"errors"

	"toolsmith/internal/backend"
	"toolsmith/internal/bindist"
)

// Outcome is how a tool ended up after a run.
type Outcome int

const (
	AlreadySatisfied Outcome = iota
	Installed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case AlreadySatisfied:
		return "up to date"
	case Installed:
		return "installed"
	default:
		return "failed"
	}
}

// Result is the record of one tool. Exactly one exists per tool per run.
type Result struct {
	Tool     string
	Desired  string
	Before   string // version found before the run, "" if absent
	After    string // version found after a successful install
	Outcome  Outcome
	Message  string
	Attempts []string // strategy names in the order they were tried
	Err      error
}

// ErrInterrupted marks tools the run never reached.
var ErrInterrupted = errors.New("interrupted")

// Kind names the error class for log lines.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInterrupted):
		return "interrupted"
	case errors.Is(err, backend.ErrDependencyInstall):
		return "dependency-install"
	case errors.Is(err, backend.ErrUnsupportedPlatform):
		return "unsupported-platform"
	case errors.Is(err, backend.ErrBackendUnavailable):
		return "backend-unavailable"
	case errors.Is(err, bindist.ErrDownload):
		return "download"
	case errors.Is(err, bindist.ErrExtract):
		return "extract"
	case errors.Is(err, bindist.ErrCopyInstall):
		return "copy-install"
	}
	return "build"
}

// Summary counts outcomes.
type Summary struct {
	Satisfied int
	Installed int
	Failed    int
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case AlreadySatisfied:
			s.Satisfied++
		case Installed:
			s.Installed++
		default:
			s.Failed++
		}
	}
	return s
}
