package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"toolsmith/internal/backend"
	"toolsmith/internal/bindist"
	"toolsmith/internal/config"
	"toolsmith/internal/execx"
	"toolsmith/internal/logx"
	"toolsmith/internal/orchestrate"
	"toolsmith/internal/paths"
	"toolsmith/internal/platform"
	"toolsmith/internal/report"
	"toolsmith/internal/tools"
	"toolsmith/internal/tui"
)

func runInstall(ctx context.Context, a *app, f flags) error {
	logger := logx.New(a.stderr, f.verbose)

	loc, err := paths.Resolve(a.getenv)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(loc.ConfigFile, f.options(), logger)
	if err != nil {
		return err
	}

	mode := tui.DetectMode(a.stdout, cfg.Verbose(), a.getenv)
	interactive := mode == tui.ModeTUI && !cfg.StatusOnly()
	runner := a.newRunner(cfg.Verbose(), interactive, a.stderr)

	var status *tui.StatusWriter
	if mode == tui.ModeTUI {
		status = tui.NewStatusWriter(a.stdout)
		status.Update("Probing host")
	}
	info, err := a.probe(ctx, runner)
	if err != nil {
		if status != nil {
			status.Stop()
		}
		return fmt.Errorf("probe host: %w", err)
	}
	logger.Debug("probed host", "platform", info.String(), "machine", info.Machine)

	if status != nil {
		status.Update("Checking installed tools")
	}
	before := report.Collect(ctx, runner, loc.UserBin, a.specs, Version)
	if status != nil {
		status.Stop()
	}
	if err := report.Print(a.stdout, "Installed tools", before); err != nil {
		return err
	}
	pins := cfg.Versions()
	for _, name := range cfg.Pinned() {
		logger.Debug("pinned version", "tool", name, "version", pins[name])
	}

	// Status-only runs skip orchestration but still print the final table.
	interrupted := false
	if !cfg.StatusOnly() {
		interrupted, err = install(ctx, a, cfg, runner, info, loc, logger, interactive)
		if err != nil {
			return err
		}
	}

	// The final table is printed even after an interrupt.
	after := report.Collect(context.WithoutCancel(ctx), runner, loc.UserBin, a.specs, Version)
	if err := report.Print(a.stdout, "Installed tools after run", after); err != nil {
		return err
	}

	if interrupted {
		return errInterrupted
	}
	return nil
}

// install provisions every tool and reports whether the run was interrupted.
// The scratch workspace is gone by the time it returns.
func install(ctx context.Context, a *app, cfg config.Config, runner execx.Runner, info platform.Info, loc paths.Locations, logger *log.Logger, interactive bool) (bool, error) {
	if err := loc.EnsureUserBin(); err != nil {
		return false, err
	}
	if !paths.OnPath(loc.UserBin, a.getenv("PATH")) {
		logger.Warn("user bin directory is not on PATH; add it to use the installed tools", "dir", loc.UserBin)
	}

	workspace := bindist.NewWorkspace(a.tmpBase)
	defer func() {
		if err := workspace.Close(); err != nil {
			logger.Warn("cleanup failed", "err", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resolver := backend.New(backend.Options{
		Runner:    runner,
		Info:      info,
		Workspace: workspace,
		BinDir:    loc.UserBin,
		BaseURL:   cfg.BindistURL(),
		Root:      a.isRoot(),
		Log:       logger,
	})
	logger.Debug("backend", "capability", resolver.Capability())

	opts := orchestrate.Options{
		Config:  cfg,
		Runner:  runner,
		Backend: resolver,
		BinDir:  loc.UserBin,
		WorkDir: loc.Home,
		Log:     logger,
	}

	var results []orchestrate.Result
	if interactive {
		var err error
		results, err = runInteractive(runCtx, cancel, a, opts)
		if err != nil {
			return false, err
		}
	} else {
		opts.Observer = orchestrate.LogObserver{Log: logger}
		results = orchestrate.New(opts).Run(runCtx, a.specs)
	}

	printResults(a, results)
	return runCtx.Err() != nil, nil
}

func runInteractive(ctx context.Context, cancel context.CancelFunc, a *app, opts orchestrate.Options) ([]orchestrate.Result, error) {
	// Logs would tear the progress table; keep only errors.
	quiet := logx.New(a.stderr, false)
	quiet.SetLevel(log.ErrorLevel)
	opts.Log = quiet

	var results []orchestrate.Result
	model := tui.ToolRows("Installing tools", a.specs, cancel)
	final, err := tui.RunWithWork(ctx, a.stdout, model, func(send func(tea.Msg)) {
		opts.Observer = tui.NewObserver(send)
		results = orchestrate.New(opts).Run(ctx, a.specs)
	})
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	if final.Interrupted() {
		cancel()
	}
	return results, nil
}

func loadConfig(path string, opts config.Options, logger *log.Logger) (config.Config, error) {
	file, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	var problems []string
	for _, finding := range file.Validate(isManaged) {
		if finding.IsError() {
			problems = append(problems, finding.Message)
			continue
		}
		logger.Warn(finding.Message, "config", path)
	}
	if len(problems) > 0 {
		return config.Config{}, fmt.Errorf("invalid config %s: %s", path, strings.Join(problems, "; "))
	}
	return config.New(file, opts), nil
}

func isManaged(name string) bool {
	_, ok := tools.Definition(name)
	return ok
}

var _ orchestrate.Backend = (*backend.Resolver)(nil)
