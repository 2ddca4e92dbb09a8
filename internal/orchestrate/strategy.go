package orchestrate

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"toolsmith/internal/backend"
	"toolsmith/internal/execx"
	"toolsmith/internal/tools"
)

// Backend is the slice of backend.Resolver the strategies use.
type Backend interface {
	Capability() backend.Capability
	Lookup(name string) (string, bool)
	InstallOSDeps(ctx context.Context) error
	EnsureStack(ctx context.Context, force bool) (string, error)
	Unavailable() error
}

// Target is one package to build at one version.
type Target struct {
	Spec    tools.Spec
	Version string
}

// Package is the Hackage package identifier, name-version.
func (t Target) Package() string {
	return t.Spec.Name + "-" + t.Version
}

// Job is what a strategy has to do for one tool. Closure is the tool's
// full dependency closure; Deps is the part of it that failed the gate.
type Job struct {
	Tool    Target
	Closure []Target
	Deps    []Target
}

// Strategy is one way of building a tool.
type Strategy interface {
	Name() string
	Install(ctx context.Context, job Job) error
}

// cabalDirect builds straight from Hackage with cabal. Fast, not pinned.
type cabalDirect struct {
	runner  execx.Runner
	backend Backend
	binDir  string
	workDir string
	log     *log.Logger

	updated bool
}

func (s *cabalDirect) Name() string { return "cabal-direct" }

func (s *cabalDirect) Install(ctx context.Context, job Job) error {
	cabal, ok := s.backend.Lookup("cabal")
	if !ok {
		return fmt.Errorf("%w: cabal not found", backend.ErrBackendUnavailable)
	}
	if !s.updated {
		if err := s.run(ctx, cabal, []string{"update"}); err != nil {
			return err
		}
		s.updated = true
	}
	for _, target := range append(append([]Target(nil), job.Deps...), job.Tool) {
		args := []string{
			"v2-install",
			"--installdir=" + s.binDir,
			"--install-method=copy",
			"--overwrite-policy=always",
			target.Package(),
		}
		if err := s.run(ctx, cabal, args); err != nil {
			return err
		}
	}
	return nil
}

func (s *cabalDirect) run(ctx context.Context, cabal string, args []string) error {
	s.log.Debug("running cabal", "args", args)
	res, err := s.runner.Run(ctx, cabal, args, execx.RunOptions{Dir: s.workDir})
	if err != nil {
		return execx.CommandError("cabal", args, res, err)
	}
	return nil
}

// stackSnapshot builds against a pinned Stackage snapshot, bootstrapping
// stack itself when needed. The whole dependency closure is named on the
// command line so the snapshot resolves packages it does not ship.
type stackSnapshot struct {
	runner   execx.Runner
	backend  Backend
	binDir   string
	workDir  string
	snapshot string
	force    bool
	log      *log.Logger
}

func (s *stackSnapshot) Name() string { return "stack-snapshot" }

func (s *stackSnapshot) Install(ctx context.Context, job Job) error {
	if err := s.backend.InstallOSDeps(ctx); err != nil {
		return err
	}
	stack, err := s.backend.EnsureStack(ctx, s.force)
	if err != nil {
		return err
	}

	args := []string{"--resolver", s.snapshot, "install"}
	for _, dep := range job.Closure {
		args = append(args, dep.Package())
	}
	args = append(args, job.Tool.Package(), "--local-bin-path", s.binDir)

	s.log.Debug("running stack", "args", args)
	res, err := s.runner.Run(ctx, stack, args, execx.RunOptions{Dir: s.workDir})
	if err != nil {
		return execx.CommandError("stack", args, res, err)
	}
	return nil
}
