package bindist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"toolsmith/internal/execx"
)

// PackageInstaller installs OS packages; pkgmgr.Installer satisfies it.
type PackageInstaller interface {
	Install(ctx context.Context, packages ...string) error
}

type fetchTool struct {
	name string
	args func(url, dest string) []string
}

// fetchTools are tried in this order.
var fetchTools = []fetchTool{
	{name: "curl", args: func(url, dest string) []string { return []string{"-sSfL", "-o", dest, url} }},
	{name: "wget", args: func(url, dest string) []string { return []string{"-q", "-O", dest, url} }},
}

// Downloader fetches URLs with curl or wget, installing curl through
// Packages when neither is present.
type Downloader struct {
	Runner   execx.Runner
	Packages PackageInstaller
	Log      *log.Logger
}

// Download writes url to dest.
func (d Downloader) Download(ctx context.Context, url, dest string) error {
	tool, path, ok := d.findTool()
	if !ok {
		if d.Packages == nil {
			return fmt.Errorf("%w: neither curl nor wget is installed", ErrDownload)
		}
		d.Log.Info("installing curl to download binaries")
		if err := d.Packages.Install(ctx, "curl"); err != nil {
			return fmt.Errorf("%w: neither curl nor wget is installed and installing curl failed: %w", ErrDownload, err)
		}
		if tool, path, ok = d.findTool(); !ok {
			return fmt.Errorf("%w: curl still missing after install", ErrDownload)
		}
	}

	args := tool.args(url, dest)
	d.Log.Debug("downloading", "url", url, "with", tool.name)
	res, err := d.Runner.Run(ctx, path, args, execx.RunOptions{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, execx.CommandError(tool.name, args, res, err))
	}
	return nil
}

func (d Downloader) findTool() (fetchTool, string, bool) {
	for _, tool := range fetchTools {
		if path, err := d.Runner.LookPath(tool.name); err == nil {
			return tool, path, true
		}
	}
	return fetchTool{}, "", false
}
