package bindist

import (
	"fmt"
	"os"
	"sync"
)

// Workspace is the single temporary directory of a run. It is created on
// first use and removed by Close, which is safe to call more than once and
// from a signal path.
type Workspace struct {
	base    string
	pattern string

	mu     sync.Mutex
	dir    string
	closed bool
}

// NewWorkspace prepares a workspace under base (os.TempDir when empty).
func NewWorkspace(base string) *Workspace {
	return &Workspace{base: base, pattern: "toolsmith-"}
}

// Dir returns the workspace directory, creating it on first call.
func (w *Workspace) Dir() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", fmt.Errorf("workspace already cleaned up")
	}
	if w.dir != "" {
		return w.dir, nil
	}
	dir, err := os.MkdirTemp(w.base, w.pattern)
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	w.dir = dir
	return dir, nil
}

// Sub creates a fresh directory inside the workspace.
func (w *Workspace) Sub(prefix string) (string, error) {
	root, err := w.Dir()
	if err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(root, prefix+"-")
	if err != nil {
		return "", fmt.Errorf("create %s dir: %w", prefix, err)
	}
	return dir, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}
