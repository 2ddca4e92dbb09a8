// Package exectest provides a scripted execx.Runner for tests.
package exectest

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"toolsmith/internal/execx"
)

// Response scripts the outcome of one command line. Do, when set, runs with
// the command's arguments before the response is returned, which lets a test
// put a binary "on PATH" or write a downloaded file as a side effect.
type Response struct {
	Stdout string
	Stderr string
	Err    error
	Do     func(args []string)
}

// ErrUnscripted is returned for command lines the test did not script.
var ErrUnscripted = errors.New("unscripted command")

// Fake records every call and answers from Responses, keyed by the full
// command line joined with single spaces. Prefix entries end in "*".
// Dirs holds the working directory of each call, parallel to Calls.
type Fake struct {
	mu        sync.Mutex
	Paths     map[string]string
	Responses map[string]Response
	Calls     []string
	Dirs      []string
}

// New returns a Fake with the given binaries on PATH (name -> path).
func New(paths map[string]string) *Fake {
	f := &Fake{Paths: map[string]string{}, Responses: map[string]Response{}}
	for name, path := range paths {
		f.Paths[name] = path
	}
	return f
}

// On scripts a response for a command line.
func (f *Fake) On(line string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[line] = resp
	return f
}

// Put makes name resolvable through LookPath.
func (f *Fake) Put(name, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paths[name] = path
}

func (f *Fake) Run(ctx context.Context, command string, args []string, opts execx.RunOptions) (execx.RunResult, error) {
	line := strings.TrimSpace(command + " " + strings.Join(args, " "))

	f.mu.Lock()
	f.Calls = append(f.Calls, line)
	f.Dirs = append(f.Dirs, opts.Dir)
	resp, ok := f.lookup(line)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return execx.RunResult{}, err
	}
	if !ok {
		return execx.RunResult{}, ErrUnscripted
	}
	if resp.Do != nil {
		resp.Do(args)
	}
	return execx.RunResult{Stdout: []byte(resp.Stdout), Stderr: []byte(resp.Stderr)}, resp.Err
}

func (f *Fake) lookup(line string) (Response, bool) {
	if resp, ok := f.Responses[line]; ok {
		return resp, true
	}
	best, bestLen := "", -1
	for key := range f.Responses {
		prefix, ok := strings.CutSuffix(key, "*")
		if !ok || !strings.HasPrefix(line, prefix) {
			continue
		}
		if len(prefix) > bestLen {
			best, bestLen = key, len(prefix)
		}
	}
	if bestLen < 0 {
		return Response{}, false
	}
	return f.Responses[best], true
}

func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path, ok := f.Paths[name]; ok {
		return path, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Ran reports whether a command line starting with prefix was executed.
func (f *Fake) Ran(prefix string) bool {
	return f.Count(prefix) > 0
}

// Count returns how many executed command lines start with prefix.
func (f *Fake) Count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.Calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

var _ execx.Runner = (*Fake)(nil)
