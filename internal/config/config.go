// Package config holds the run configuration: built once from flags and the
// optional overrides file, then only read.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"toolsmith/internal/tools"
)

const (
	// DefaultSnapshot is the Stackage resolver stack installs against.
	DefaultSnapshot = "lts-19.33"
	// DefaultBindistURL is where stack release tarballs are fetched from.
	DefaultBindistURL = "https://get.haskellstack.org/stable"
)

// File is the on-disk overrides document.
type File struct {
	Snapshot   string            `yaml:"snapshot"`
	BindistURL string            `yaml:"bindist_url"`
	Versions   map[string]string `yaml:"versions"`
}

// Default returns the baseline overrides: no version pins.
func Default() File {
	return File{
		Snapshot:   DefaultSnapshot,
		BindistURL: DefaultBindistURL,
	}
}

// Load reads the YAML overrides from disk if the file exists, otherwise
// returns the defaults.
func Load(path string) (File, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return File{}, fmt.Errorf("read config: %w", err)
	}

	f := Default()
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return File{}, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	f.ApplyDefaults()
	return f, nil
}

// ApplyDefaults fills fields the YAML left empty.
func (f *File) ApplyDefaults() {
	defaults := Default()
	if f.Snapshot == "" {
		f.Snapshot = defaults.Snapshot
	}
	if f.BindistURL == "" {
		f.BindistURL = defaults.BindistURL
	}
}

// Options are the command-line switches.
type Options struct {
	Force      bool
	Verbose    bool
	StatusOnly bool
}

// Config is the immutable configuration of one run. The zero value is not
// useful; build it with New.
type Config struct {
	versions   map[string]string
	snapshot   string
	bindistURL string
	opts       Options
}

// New combines overrides and flags. The versions map is copied.
func New(f File, opts Options) Config {
	f.ApplyDefaults()
	versions := make(map[string]string, len(f.Versions))
	for name, v := range f.Versions {
		versions[name] = v
	}
	return Config{
		versions:   versions,
		snapshot:   f.Snapshot,
		bindistURL: f.BindistURL,
		opts:       opts,
	}
}

// Desired returns the version to install for spec: the override when one
// is configured, else the spec's default.
func (c Config) Desired(spec tools.Spec) string {
	if v, ok := c.versions[spec.Name]; ok && v != "" {
		return v
	}
	return spec.Version
}

// Versions returns a copy of the configured version overrides.
func (c Config) Versions() map[string]string {
	out := make(map[string]string, len(c.versions))
	for name, v := range c.versions {
		out[name] = v
	}
	return out
}

// Pinned lists the tools with a version override, sorted.
func (c Config) Pinned() []string {
	names := make([]string, 0, len(c.versions))
	for name := range c.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot is the Stackage resolver for stack builds.
func (c Config) Snapshot() string {
	return c.snapshot
}

// BindistURL is the base URL stack release tarballs are fetched from.
func (c Config) BindistURL() string {
	return c.bindistURL
}

func (c Config) Force() bool {
	return c.opts.Force
}

func (c Config) Verbose() bool {
	return c.opts.Verbose
}

func (c Config) StatusOnly() bool {
	return c.opts.StatusOnly
}
