package bindist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"toolsmith/internal/execx"
)

// Installer fetches a binary distribution, unpacks it inside the run's
// workspace and drops one executable into a target directory.
type Installer struct {
	Runner     execx.Runner
	Workspace  *Workspace
	Downloader Downloader
	Log        *log.Logger
}

// Install downloads url, extracts it and installs binary into targetDir,
// returning the installed path. Scratch files stay in the workspace until
// it is closed.
func (in Installer) Install(ctx context.Context, url, binary, targetDir string) (string, error) {
	scratch, err := in.Workspace.Sub(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	archive := filepath.Join(scratch, archiveName(url))
	if err := in.Downloader.Download(ctx, url, archive); err != nil {
		return "", err
	}

	tree := filepath.Join(scratch, "tree")
	in.Log.Debug("extracting", "archive", archive)
	if err := Extract(ctx, in.Runner, archive, tree); err != nil {
		return "", err
	}

	dest, err := InstallBinary(tree, binary, targetDir)
	if err != nil {
		return "", err
	}
	in.Log.Info("installed binary", "name", binary, "path", dest)
	return dest, nil
}

func archiveName(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	base := url[strings.LastIndex(url, "/")+1:]
	if base == "" {
		return "download"
	}
	return base
}

// InstallBinary copies the single regular file named name found under tree
// into targetDir with mode 0755. The copy lands under a temporary name and
// is renamed into place, so an existing binary is replaced atomically.
func InstallBinary(tree, name, targetDir string) (string, error) {
	src, err := findExecutable(tree, name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCopyInstall, err)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: prepare %s: %w", ErrCopyInstall, targetDir, err)
	}

	dest := filepath.Join(targetDir, name)
	tmp, err := os.CreateTemp(targetDir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCopyInstall, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := copyInto(tmp, src); err != nil {
		return "", fmt.Errorf("%w: copy %s: %w", ErrCopyInstall, name, err)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return "", fmt.Errorf("%w: chmod %s: %w", ErrCopyInstall, name, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("%w: commit %s: %w", ErrCopyInstall, name, err)
	}
	committed = true
	return dest, nil
}

// findExecutable requires exactly one regular file called name under root.
func findExecutable(root, name string) (string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && d.Name() == name {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("binary %s not found in archive", name)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("binary %s is ambiguous: %d matches", name, len(matches))
}

func copyInto(dest *os.File, src string) error {
	source, err := os.Open(src)
	if err != nil {
		dest.Close()
		return err
	}
	defer source.Close()

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return err
	}
	return errors.Join(dest.Sync(), dest.Close())
}
