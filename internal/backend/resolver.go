// Package backend decides how tools get built on this host and provisions
// the pieces a backend needs: OS build dependencies and the stack binary.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"toolsmith/internal/bindist"
	"toolsmith/internal/config"
	"toolsmith/internal/execx"
	"toolsmith/internal/pkgmgr"
	"toolsmith/internal/platform"
	"toolsmith/internal/tools"
)

var (
	// ErrDependencyInstall means the OS build dependencies could not be
	// installed. It aborts one strategy attempt, never the run.
	ErrDependencyInstall = errors.New("installing OS dependencies failed")
	// ErrBackendUnavailable means neither cabal nor stack is usable and stack
	// cannot be bootstrapped.
	ErrBackendUnavailable = errors.New("no installation backend available")
)

// Capability is what the host can use to build tools.
type Capability int

const (
	NoBackend Capability = iota
	CabalOnly
	Stack
	BootstrapStack
)

func (c Capability) String() string {
	switch c {
	case CabalOnly:
		return "cabal"
	case Stack:
		return "stack"
	case BootstrapStack:
		return "bootstrap-stack"
	default:
		return "none"
	}
}

type depsInstaller interface {
	InstallDeps(ctx context.Context) error
}

type bindistInstaller interface {
	Install(ctx context.Context, url, binary, targetDir string) (string, error)
}

// Options wires a Resolver.
type Options struct {
	Runner    execx.Runner
	Info      platform.Info
	Workspace *bindist.Workspace
	BinDir    string
	BaseURL   string
	Root      bool
	Log       *log.Logger
}

// Resolver answers capability questions and provisions stack. It keeps a
// little per-run memory so dependency installs and bootstraps are not
// repeated for every tool; nothing is persisted.
type Resolver struct {
	runner  execx.Runner
	info    platform.Info
	binDir  string
	baseURL string
	log     *log.Logger

	deps    depsInstaller // nil when the host has no package manager
	bindist bindistInstaller

	depsDone  bool
	stackPath string
	forced    bool
}

// New builds a Resolver, picking the package manager for info.
func New(o Options) *Resolver {
	res := &Resolver{
		runner:  o.Runner,
		info:    o.Info,
		binDir:  o.BinDir,
		baseURL: strings.TrimRight(o.BaseURL, "/"),
		log:     o.Log,
	}
	if res.baseURL == "" {
		res.baseURL = config.DefaultBindistURL
	}

	downloader := bindist.Downloader{Runner: o.Runner, Log: o.Log}
	if m, ok := pkgmgr.Resolve(o.Runner, o.Info); ok {
		pkgs := pkgmgr.Installer{Runner: o.Runner, Manager: m, Root: o.Root, Log: o.Log}
		res.deps = pkgs
		downloader.Packages = pkgs
	}
	res.bindist = bindist.Installer{
		Runner:     o.Runner,
		Workspace:  o.Workspace,
		Downloader: downloader,
		Log:        o.Log,
	}
	return res
}

// Lookup finds name on PATH or in the user bin directory.
func (r *Resolver) Lookup(name string) (string, bool) {
	return tools.Locate(r.runner, r.binDir, name)
}

// Capability inspects the host as it is right now; a bootstrapped stack
// turns BootstrapStack into Stack for later tools.
func (r *Resolver) Capability() Capability {
	_, hasCabal := r.Lookup("cabal")
	_, hasStack := r.Lookup("stack")
	switch {
	case hasStack:
		return Stack
	case hasCabal:
		return CabalOnly
	}
	if _, _, err := Flavor(r.info); err == nil {
		return BootstrapStack
	}
	return NoBackend
}

// Unavailable explains a NoBackend capability. When the platform has no
// stack binary distribution the flavor error is part of the chain.
func (r *Resolver) Unavailable() error {
	const hint = "install cabal or stack"
	if _, _, err := Flavor(r.info); err != nil {
		return fmt.Errorf("%w: %s; %w", ErrBackendUnavailable, hint, err)
	}
	return fmt.Errorf("%w: %s", ErrBackendUnavailable, hint)
}

// InstallOSDeps installs the compiler toolchain and libraries a Haskell
// build links against. Success is remembered for the rest of the run.
func (r *Resolver) InstallOSDeps(ctx context.Context) error {
	if r.depsDone {
		return nil
	}
	if r.deps == nil {
		if r.info.OS == platform.OSDarwin {
			r.log.Debug("no package manager on darwin, relying on command line tools")
			r.depsDone = true
			return nil
		}
		return fmt.Errorf("%w: no supported package manager found", ErrDependencyInstall)
	}
	r.log.Info("installing OS build dependencies")
	if err := r.deps.InstallDeps(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDependencyInstall, err)
	}
	r.depsDone = true
	return nil
}

// EnsureStack returns a usable stack binary, bootstrapping the bindist when
// stack is missing. With force the bootstrap runs even if stack exists, but
// only once per run.
func (r *Resolver) EnsureStack(ctx context.Context, force bool) (string, error) {
	if force && !r.forced {
		return r.bootstrap(ctx)
	}
	if r.stackPath != "" {
		return r.stackPath, nil
	}
	if path, ok := r.Lookup("stack"); ok {
		r.stackPath = path
		return path, nil
	}
	return r.bootstrap(ctx)
}

func (r *Resolver) bootstrap(ctx context.Context) (string, error) {
	flavor, bestEffort, err := Flavor(r.info)
	if err != nil {
		return "", err
	}
	if bestEffort {
		r.log.Warn("unsupported distribution, installing stack on a best-effort basis", "distro", r.info.String(), "flavor", flavor)
	}
	url := r.baseURL + "/" + flavor + ".tar.gz"
	r.log.Info("bootstrapping stack", "url", url)
	path, err := r.bindist.Install(ctx, url, "stack", r.binDir)
	if err != nil {
		return "", err
	}
	r.stackPath = path
	r.forced = true
	return path, nil
}
