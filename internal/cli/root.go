// Package cli is the toolsmith command line: flag parsing, the run flow
// and exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"toolsmith/internal/config"
	"toolsmith/internal/execx"
	"toolsmith/internal/platform"
	"toolsmith/internal/tools"
)

// Version is stamped at build time with -ldflags "-X toolsmith/internal/cli.Version=...".
var Version = "dev"

// Exit codes.
const (
	ExitOK          = 0
	ExitFatal       = 1
	ExitInterrupted = 130
)

var errInterrupted = errors.New("interrupted")

// app carries everything the run touches on the host so tests can swap it.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	getenv  func(string) string
	isRoot  func() bool
	tmpBase string
	specs   []tools.Spec

	newRunner func(verbose, detached bool, stderr io.Writer) execx.Runner
	probe     func(ctx context.Context, r execx.Runner) (platform.Info, error)
}

func defaultApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		isRoot: func() bool { return os.Geteuid() == 0 },
		specs:  tools.All(),
		newRunner: func(verbose, detached bool, stderr io.Writer) execx.Runner {
			r := execx.CmdRunner{Detached: detached}
			if verbose {
				r.Stdout = stderr
				r.Stderr = stderr
			}
			return r
		},
		probe: func(ctx context.Context, r execx.Runner) (platform.Info, error) {
			return platform.NewProber(r).Probe(ctx)
		},
	}
}

type flags struct {
	force      bool
	verbose    bool
	statusOnly bool
}

func (f flags) options() config.Options {
	return config.Options{Force: f.force, Verbose: f.verbose, StatusOnly: f.statusOnly}
}

// Execute runs toolsmith with the process arguments and exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], defaultApp())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, a *app) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errInterrupted):
		fmt.Fprintln(a.stderr, "toolsmith: interrupted")
		return ExitInterrupted
	default:
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return ExitFatal
	}
}

func newRootCmd(a *app) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "toolsmith",
		Short: "Install and update the Haskell developer tools",
		Long: "toolsmith checks hlint, stylish-haskell, ghcid, hindent and friends,\n" +
			"then installs whatever is missing or older than wanted into ~/.local/bin\n" +
			"using cabal, stack, or a freshly downloaded stack binary.",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd.Context(), a, f)
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage.", err, c.CommandPath())
	})

	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Reinstall tools even when the installed version is recent enough")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Show debug logs and the output of every command")
	cmd.Flags().BoolVarP(&f.statusOnly, "status", "s", false, "Only print what is installed; change nothing")

	return cmd
}
