package execx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// RunOptions tweaks a single command invocation. Dir, when set, is the
// working directory. Stdout and Stderr, when set, receive a live copy of the
// output in addition to the captured buffers.
type RunOptions struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult carries the captured output of a finished command.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Combined returns stdout followed by stderr, trimmed.
func (r RunResult) Combined() string {
	out := strings.TrimSpace(string(r.Stdout))
	errOut := strings.TrimSpace(string(r.Stderr))
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// Runner is the seam between toolsmith and the host: every external command
// and every PATH lookup goes through it.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
	LookPath(name string) (string, error)
}

// CmdRunner executes real processes. Commands have no deadline; only the
// context (cancelled on interrupt) stops them.
type CmdRunner struct {
	// Stdout and Stderr, when set, receive every command's output as it is
	// produced. Per-call RunOptions writers take precedence.
	Stdout io.Writer
	Stderr io.Writer
	// Detached runs commands without the terminal's stdin, for when an
	// interactive view owns it. Prompts (sudo) then fail instead of hanging.
	Detached bool
}

func (r CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriter := io.Writer(&stdoutBuf)
	if w := pick(opts.Stdout, r.Stdout); w != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, w)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if w := pick(opts.Stderr, r.Stderr); w != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, w)
	}

	if !r.Detached {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	err := cmd.Run()
	return RunResult{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, err
}

func (CmdRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func pick(primary, fallback io.Writer) io.Writer {
	if primary != nil {
		return primary
	}
	return fallback
}

// CommandError decorates a failed command with the tail of its output so the
// failure line printed for a tool says something useful.
func CommandError(command string, args []string, res RunResult, err error) error {
	line := strings.TrimSpace(command + " " + strings.Join(args, " "))
	tail := lastLines(res.Combined(), 3)
	if tail == "" {
		return fmt.Errorf("%s: %w", line, err)
	}
	return fmt.Errorf("%s: %w: %s", line, err, tail)
}

func lastLines(text string, n int) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

var _ Runner = CmdRunner{}
