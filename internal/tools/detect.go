package tools

import (
	"context"
	"os"
	"path/filepath"

	"toolsmith/internal/execx"
)

// Locate finds an executable on PATH, then in binDir. binDir is checked
// explicitly because ~/.local/bin is often missing from PATH right after a
// fresh install.
func Locate(r execx.Runner, binDir, name string) (string, bool) {
	if path, err := r.LookPath(name); err == nil {
		return path, true
	}
	if binDir == "" {
		return "", false
	}
	candidate := filepath.Join(binDir, name)
	info, err := os.Stat(candidate)
	if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return "", false
	}
	return candidate, true
}

// Detect resolves the installed version and path of spec's binary.
func Detect(ctx context.Context, r execx.Runner, binDir string, spec Spec) Status {
	status := Status{Name: spec.Name}
	path, ok := Locate(r, binDir, spec.Binary)
	if !ok {
		return status
	}
	status.Path = path
	status.Version = readVersion(ctx, r, path, spec.VersionArgs)
	return status
}

// DetectAll runs Detect for every spec, preserving order.
func DetectAll(ctx context.Context, r execx.Runner, binDir string, specs []Spec) []Status {
	out := make([]Status, 0, len(specs))
	for _, spec := range specs {
		out = append(out, Detect(ctx, r, binDir, spec))
	}
	return out
}

func readVersion(ctx context.Context, r execx.Runner, path string, args []string) string {
	if len(args) == 0 {
		args = []string{"--version"}
	}
	res, err := r.Run(ctx, path, args, execx.RunOptions{})
	if err != nil {
		return ""
	}
	return ParseVersion(res.Combined())
}
