// Package pkgmgr drives the host's native package manager. Each supported
// distribution family maps to one Manager; unknown families probe for a
// manager on PATH.
package pkgmgr

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"toolsmith/internal/execx"
	"toolsmith/internal/platform"
)

// Manager describes how to drive one package manager.
type Manager struct {
	Name        string
	Refresh     []string // optional index refresh run before installing
	InstallArgs []string
	// Deps are the OS packages a Haskell build needs: C compiler, libc
	// headers, libffi, GMP, xz/tar and zlib.
	Deps []string
}

var (
	AptGet = Manager{
		Name:        "apt-get",
		Refresh:     []string{"update"},
		InstallArgs: []string{"install", "-y"},
		Deps:        []string{"g++", "gcc", "libc6-dev", "libffi-dev", "libgmp-dev", "make", "xz-utils", "zlib1g-dev", "git", "gnupg", "netbase"},
	}
	Dnf = Manager{
		Name:        "dnf",
		InstallArgs: []string{"install", "-y"},
		Deps:        []string{"perl", "make", "automake", "gcc", "gmp-devel", "libffi", "zlib", "zlib-devel", "xz", "tar", "git", "gnupg"},
	}
	Yum = Manager{
		Name:        "yum",
		InstallArgs: []string{"install", "-y"},
		Deps:        []string{"perl", "make", "automake", "gcc", "gmp-devel", "libffi", "zlib", "zlib-devel", "xz", "tar", "git", "gnupg"},
	}
	Apk = Manager{
		Name:        "apk",
		InstallArgs: []string{"add", "--no-cache"},
		Deps:        []string{"gcc", "g++", "make", "musl-dev", "gmp-dev", "libffi-dev", "zlib-dev", "xz", "tar", "git"},
	}
	Pkg = Manager{
		Name:        "pkg",
		InstallArgs: []string{"install", "-y"},
		Deps:        []string{"gmake", "gcc", "libffi", "gmp", "xz", "git"},
	}
	Pacman = Manager{
		Name:        "pacman",
		InstallArgs: []string{"-S", "--noconfirm", "--needed"},
		Deps:        []string{"gcc", "make", "gmp", "libffi", "zlib", "xz", "tar", "git"},
	}
)

// probeOrder is consulted for families without a dedicated manager.
var probeOrder = []Manager{AptGet, Dnf, Yum, Pacman}

// ForFamily returns the native manager of a supported family. Darwin has
// none: the Xcode command line tools provide everything stack needs.
func ForFamily(f platform.Family) (Manager, bool) {
	switch f {
	case platform.FamilyDebian:
		return AptGet, true
	case platform.FamilyFedora:
		return Dnf, true
	case platform.FamilyCentOS:
		return Yum, true
	case platform.FamilyAlpine:
		return Apk, true
	case platform.FamilyFreeBSD:
		return Pkg, true
	}
	return Manager{}, false
}

// Probe returns the first manager from the fixed priority list found on PATH.
func Probe(r execx.Runner) (Manager, bool) {
	for _, m := range probeOrder {
		if _, err := r.LookPath(m.Name); err == nil {
			return m, true
		}
	}
	return Manager{}, false
}

// Resolve picks the manager for a family, probing PATH for Linux families
// without a dedicated one.
func Resolve(r execx.Runner, info platform.Info) (Manager, bool) {
	if m, ok := ForFamily(info.Family); ok {
		return m, true
	}
	if info.OS != platform.OSLinux {
		return Manager{}, false
	}
	return Probe(r)
}

// Installer runs a Manager, escalating through sudo when not root.
type Installer struct {
	Runner  execx.Runner
	Manager Manager
	Root    bool
	Log     *log.Logger
}

// Install installs packages. An empty list is a no-op.
func (in Installer) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	if in.Manager.Name == "" {
		return fmt.Errorf("no package manager available to install %v", packages)
	}
	if len(in.Manager.Refresh) > 0 {
		if err := in.run(ctx, in.Manager.Refresh); err != nil {
			in.Log.Warn("package index refresh failed", "manager", in.Manager.Name, "err", err)
		}
	}
	args := append(append([]string{}, in.Manager.InstallArgs...), packages...)
	return in.run(ctx, args)
}

// InstallDeps installs the manager's build dependency set.
func (in Installer) InstallDeps(ctx context.Context) error {
	return in.Install(ctx, in.Manager.Deps...)
}

func (in Installer) run(ctx context.Context, args []string) error {
	command := in.Manager.Name
	if !in.Root {
		if sudo, err := in.Runner.LookPath("sudo"); err == nil {
			args = append([]string{command}, args...)
			command = sudo
		}
	}
	in.Log.Debug("running package manager", "cmd", command, "args", args)
	res, err := in.Runner.Run(ctx, command, args, execx.RunOptions{})
	if err != nil {
		return execx.CommandError(command, args, res, err)
	}
	return nil
}
