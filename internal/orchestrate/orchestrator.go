// Package orchestrate installs the managed tools one after another, gating
// each on its installed version and falling through an ordered list of
// build strategies until one succeeds.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"toolsmith/internal/backend"
	"toolsmith/internal/config"
	"toolsmith/internal/execx"
	"toolsmith/internal/tools"
)

// Orchestrator drives a run. Build it with New.
type Orchestrator struct {
	cfg      config.Config
	runner   execx.Runner
	backend  Backend
	binDir   string
	log      *log.Logger
	observer Observer

	cabal *cabalDirect
	stack *stackSnapshot
}

// Options wires an Orchestrator. WorkDir is where cabal and stack run, away
// from any project files in the caller's directory.
type Options struct {
	Config   config.Config
	Runner   execx.Runner
	Backend  Backend
	BinDir   string
	WorkDir  string
	Log      *log.Logger
	Observer Observer
}

// New builds an Orchestrator. Strategies live as long as the run so that
// one-off steps like the cabal index update happen once.
func New(o Options) *Orchestrator {
	observer := o.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	return &Orchestrator{
		cfg:      o.Config,
		runner:   o.Runner,
		backend:  o.Backend,
		binDir:   o.BinDir,
		log:      o.Log,
		observer: observer,
		cabal: &cabalDirect{
			runner:  o.Runner,
			backend: o.Backend,
			binDir:  o.BinDir,
			workDir: o.WorkDir,
			log:     o.Log,
		},
		stack: &stackSnapshot{
			runner:   o.Runner,
			backend:  o.Backend,
			binDir:   o.BinDir,
			workDir:  o.WorkDir,
			snapshot: o.Config.Snapshot(),
			force:    o.Config.Force(),
			log:      o.Log,
		},
	}
}

// Run installs specs in order and returns one Result per spec. A failing
// tool never stops the run; cancellation does, and every tool not reached
// is recorded as interrupted.
func (o *Orchestrator) Run(ctx context.Context, specs []tools.Spec) []Result {
	results := make([]Result, 0, len(specs))
	for _, spec := range specs {
		if ctx.Err() != nil {
			r := o.interrupted(spec)
			o.observer.ToolFinished(r)
			results = append(results, r)
			continue
		}
		results = append(results, o.Install(ctx, spec))
	}
	return results
}

// Install brings one tool up to its desired version.
func (o *Orchestrator) Install(ctx context.Context, spec tools.Spec) Result {
	desired := o.cfg.Desired(spec)
	o.observer.ToolStarted(spec.Name, desired)

	result := o.install(ctx, spec, desired)
	o.observer.ToolFinished(result)
	return result
}

func (o *Orchestrator) install(ctx context.Context, spec tools.Spec, desired string) Result {
	result := Result{Tool: spec.Name, Desired: desired}

	current := tools.Detect(ctx, o.runner, o.binDir, spec)
	result.Before = current.Version
	if o.gate(spec.Name, current.Version, desired) {
		result.Outcome = AlreadySatisfied
		result.Message = fmt.Sprintf("%s >= %s", current.Version, desired)
		return result
	}

	job := Job{Tool: Target{Spec: spec, Version: desired}}
	for _, dep := range spec.Closure() {
		depWant := o.cfg.Desired(dep)
		job.Closure = append(job.Closure, Target{Spec: dep, Version: depWant})
		installed := tools.Detect(ctx, o.runner, o.binDir, dep)
		if o.gate(dep.Name, installed.Version, depWant) {
			o.log.Debug("dependency satisfied", "tool", spec.Name, "dep", dep.Name, "version", installed.Version)
			continue
		}
		job.Deps = append(job.Deps, Target{Spec: dep, Version: depWant})
	}

	capability := o.backend.Capability()
	strategies := o.strategies(capability)
	if len(strategies) == 0 {
		return o.fail(result, o.backend.Unavailable())
	}
	o.log.Debug("strategies", "tool", spec.Name, "capability", capability, "count", len(strategies))

	var errs []error
	for _, s := range strategies {
		result.Attempts = append(result.Attempts, s.Name())
		o.observer.AttemptStarted(spec.Name, s.Name())

		err := s.Install(ctx, job)
		if err == nil {
			after := tools.Detect(ctx, o.runner, o.binDir, spec)
			result.Outcome = Installed
			result.After = after.Version
			result.Message = installedMessage(s.Name(), after)
			return result
		}
		if ctx.Err() != nil {
			return o.fail(result, fmt.Errorf("%w: %w", ErrInterrupted, err))
		}
		o.observer.AttemptFailed(spec.Name, s.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return o.fail(result, errors.Join(errs...))
}

// gate applies the version gate, warning when the comparison was not purely
// numeric.
func (o *Orchestrator) gate(name, installed, desired string) bool {
	verdict := tools.Gate(installed, desired, o.cfg.Force())
	if verdict.Ambiguous {
		o.log.Warn("version comparison fell back to string ordering", "tool", name, "installed", installed, "want", desired)
	}
	return verdict.Satisfied
}

// strategies lists what to try for a capability, best first.
func (o *Orchestrator) strategies(c backend.Capability) []Strategy {
	switch c {
	case backend.CabalOnly:
		return []Strategy{o.cabal}
	case backend.Stack:
		out := []Strategy{o.stack}
		if _, ok := o.backend.Lookup("cabal"); ok {
			out = append(out, o.cabal)
		}
		return out
	case backend.BootstrapStack:
		return []Strategy{o.stack}
	}
	return nil
}

func (o *Orchestrator) fail(r Result, err error) Result {
	r.Outcome = Failed
	r.Err = err
	r.Message = err.Error()
	return r
}

func (o *Orchestrator) interrupted(spec tools.Spec) Result {
	return o.fail(Result{Tool: spec.Name, Desired: o.cfg.Desired(spec)}, ErrInterrupted)
}

func installedMessage(strategy string, st tools.Status) string {
	parts := []string{"via " + strategy}
	if st.Version != "" {
		parts = append(parts, st.Version)
	}
	if st.Path != "" {
		parts = append(parts, st.Path)
	}
	return strings.Join(parts, ", ")
}
