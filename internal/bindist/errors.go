package bindist

import "errors"

var (
	// ErrDownload means the archive could not be fetched.
	ErrDownload = errors.New("download failed")
	// ErrExtract means the archive could not be unpacked. It is always joined
	// with ErrArchiveUnrecognized or ErrArchiveCorrupt.
	ErrExtract = errors.New("extract failed")
	// ErrArchiveUnrecognized means the file is not a zip, gzip tar or xz tar.
	ErrArchiveUnrecognized = errors.New("unrecognized archive format")
	// ErrArchiveCorrupt means the format was recognized but reading it failed.
	ErrArchiveCorrupt = errors.New("corrupt archive")
	// ErrCopyInstall means the binary could not be placed in the target dir.
	ErrCopyInstall = errors.New("install binary failed")
)
