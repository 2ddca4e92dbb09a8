package bindist

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"toolsmith/internal/execx"
)

type archiveFormat string

const (
	formatUnknown archiveFormat = ""
	formatZip     archiveFormat = "zip"
	formatTarGz   archiveFormat = "tar.gz"
	formatTarXz   archiveFormat = "tar.xz"
	formatTar     archiveFormat = "tar"
)

var (
	magicZip  = []byte("PK\x03\x04")
	magicGzip = []byte{0x1f, 0x8b}
	magicXz   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicTar  = []byte("ustar")
)

// sniff identifies an archive by its leading bytes; file names are not trusted.
func sniff(path string) (archiveFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return formatUnknown, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return formatUnknown, err
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, magicZip):
		return formatZip, nil
	case bytes.HasPrefix(head, magicGzip):
		return formatTarGz, nil
	case bytes.HasPrefix(head, magicXz):
		return formatTarXz, nil
	case len(head) >= 262 && bytes.Equal(head[257:262], magicTar):
		return formatTar, nil
	}
	return formatUnknown, nil
}

// Extract unpacks archive into dest. xz tarballs go through the host's tar
// since the standard library has no xz reader.
func Extract(ctx context.Context, r execx.Runner, archive, dest string) error {
	format, err := sniff(archive)
	if err != nil {
		return fmt.Errorf("%w: %w: %w", ErrExtract, ErrArchiveCorrupt, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("%w: prepare extract dir: %w", ErrExtract, err)
	}

	switch format {
	case formatZip:
		err = extractZip(archive, dest)
	case formatTarGz:
		err = extractTarGz(archive, dest)
	case formatTar:
		err = extractTar(archive, dest)
	case formatTarXz:
		err = extractTarXz(ctx, r, archive, dest)
	default:
		return fmt.Errorf("%w: %w: %s", ErrExtract, ErrArchiveUnrecognized, filepath.Base(archive))
	}
	if err != nil {
		return fmt.Errorf("%w: %w: %w", ErrExtract, ErrArchiveCorrupt, err)
	}
	return nil
}

// entryPath joins an archive member name onto dest, refusing names that
// would land outside it.
func entryPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes extract dir", name)
	}
	return target, nil
}

func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		target, err := entryPath(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", file.Name, err)
		}
		err = writeEntry(target, file.Mode(), rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close()

	return untarStream(gz, dest)
}

func extractTar(archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()
	return untarStream(file, dest)
}

func extractTarXz(ctx context.Context, r execx.Runner, archivePath, dest string) error {
	args := []string{"-xJf", archivePath, "-C", dest}
	res, err := r.Run(ctx, "tar", args, execx.RunOptions{})
	if err != nil {
		return execx.CommandError("tar", args, res, err)
	}
	return nil
}

func untarStream(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		target, err := entryPath(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, os.FileMode(header.Mode).Perm(), tr); err != nil {
				return err
			}
		default:
			// links and devices are not needed to locate a binary
		}
	}
}

func writeEntry(target string, mode os.FileMode, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare file %s: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o600)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}
