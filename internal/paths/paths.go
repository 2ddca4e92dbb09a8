// Package paths derives every host location toolsmith touches from the
// environment.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoHome is returned when HOME is unset; without it there is no user bin
// directory to install into.
var ErrNoHome = errors.New("HOME is not set")

// Locations captures the canonical locations for a run.
type Locations struct {
	Home       string
	UserBin    string
	ConfigFile string
}

// Resolve builds Locations from getenv (os.Getenv in production).
func Resolve(getenv func(string) string) (Locations, error) {
	home := strings.TrimSpace(getenv("HOME"))
	if home == "" {
		return Locations{}, ErrNoHome
	}
	home = filepath.Clean(home)

	return Locations{
		Home:       home,
		UserBin:    filepath.Join(home, ".local", "bin"),
		ConfigFile: configFile(getenv, home),
	}, nil
}

func configFile(getenv func(string) string, home string) string {
	if explicit := strings.TrimSpace(getenv("TOOLSMITH_CONFIG")); explicit != "" {
		return resolveHomePath(home, explicit)
	}
	if xdg := strings.TrimSpace(getenv("XDG_CONFIG_HOME")); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, "toolsmith", "config.yaml")
	}
	return filepath.Join(home, ".config", "toolsmith", "config.yaml")
}

func resolveHomePath(home, value string) string {
	if value == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(value, "~/"); ok {
		return filepath.Join(home, rest)
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return value
	}
	return abs
}

// EnsureUserBin makes sure the user bin directory exists.
func (l Locations) EnsureUserBin() error {
	if err := os.MkdirAll(l.UserBin, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", l.UserBin, err)
	}
	return nil
}

// OnPath reports whether dir is one of the entries of pathEnv.
func OnPath(dir, pathEnv string) bool {
	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry == "" {
			continue
		}
		if filepath.Clean(entry) == want {
			return true
		}
	}
	return false
}
