package tui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode describes how progress output should be rendered.
type OutputMode int

const (
	// ModeTUI uses bubbletea for interactive progress rendering.
	ModeTUI OutputMode = iota
	// ModePlain sends progress to the logger line by line.
	ModePlain
)

// DetectMode picks the progress mode for out. Verbose output interleaves
// command output with progress, so it always gets plain lines.
func DetectMode(out io.Writer, verbose bool, getenv func(string) string) OutputMode {
	if verbose {
		return ModePlain
	}
	file, ok := out.(*os.File)
	if !ok {
		return ModePlain
	}
	fd := file.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return ModePlain
	}
	term := getenv("TERM")
	if term == "" || strings.EqualFold(term, "dumb") {
		return ModePlain
	}
	return ModeTUI
}
