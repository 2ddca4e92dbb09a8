package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"toolsmith/internal/backend"
	"toolsmith/internal/config"
	"toolsmith/internal/execx/exectest"
	"toolsmith/internal/logx"
	"toolsmith/internal/tools"
)

type fakeBackend struct {
	runner      *exectest.Fake
	capability  backend.Capability
	depsErr     error
	stackErr    error
	unavailable error
	depsCalls   int
	ensures     []bool
}

func (b *fakeBackend) Capability() backend.Capability { return b.capability }

func (b *fakeBackend) Lookup(name string) (string, bool) {
	path, err := b.runner.LookPath(name)
	return path, err == nil
}

func (b *fakeBackend) InstallOSDeps(context.Context) error {
	b.depsCalls++
	return b.depsErr
}

func (b *fakeBackend) EnsureStack(_ context.Context, force bool) (string, error) {
	b.ensures = append(b.ensures, force)
	if b.stackErr != nil {
		return "", b.stackErr
	}
	return "/usr/bin/stack", nil
}

func (b *fakeBackend) Unavailable() error {
	if b.unavailable != nil {
		return b.unavailable
	}
	return fmt.Errorf("%w: install cabal or stack", backend.ErrBackendUnavailable)
}

// present puts a tool on PATH answering --version with version.
func present(r *exectest.Fake, binary, version string) {
	r.Put(binary, "/usr/bin/"+binary)
	r.On("/usr/bin/"+binary+" --version", exectest.Response{Stdout: binary + " version " + version})
}

// installs scripts an install command that makes binary appear.
func installs(r *exectest.Fake, line, binary, version string) {
	r.On(line, exectest.Response{Do: func([]string) { present(r, binary, version) }})
}

func spec(t *testing.T, name string) tools.Spec {
	t.Helper()
	s, ok := tools.Definition(name)
	if !ok {
		t.Fatalf("unknown tool %s", name)
	}
	return s
}

func newOrchestrator(r *exectest.Fake, b *fakeBackend, opts config.Options) *Orchestrator {
	return New(Options{
		Config:  config.New(config.Default(), opts),
		Runner:  r,
		Backend: b,
		BinDir:  "/home/dev/.local/bin",
		Log:     logx.Discard(),
	})
}

func TestSatisfiedToolsMakeNoAttempts(t *testing.T) {
	r := exectest.New(nil)
	present(r, "ghcid", "0.8.8")
	present(r, "hoogle", "5.0.18.4")
	b := &fakeBackend{runner: r, capability: backend.Stack}

	results := newOrchestrator(r, b, config.Options{}).Run(context.Background(), []tools.Spec{spec(t, "ghcid"), spec(t, "hoogle")})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Outcome != AlreadySatisfied || len(res.Attempts) != 0 {
			t.Fatalf("%s: outcome %s attempts %v", res.Tool, res.Outcome, res.Attempts)
		}
	}
	for _, call := range r.Calls {
		if !strings.HasSuffix(call, "--version") {
			t.Fatalf("unexpected command %q", call)
		}
	}
	if b.depsCalls != 0 || len(b.ensures) != 0 {
		t.Fatal("backend touched for satisfied tools")
	}
}

func TestCabalOnlyUsesSingleStrategy(t *testing.T) {
	r := exectest.New(map[string]string{"cabal": "/usr/bin/cabal"})
	r.On("/usr/bin/cabal update", exectest.Response{})
	prefix := "/usr/bin/cabal v2-install --installdir=/home/dev/.local/bin --install-method=copy --overwrite-policy=always "
	installs(r, prefix+"happy-1.20.1.1", "happy", "1.20.1.1")
	installs(r, prefix+"alex-3.2.7.1", "alex", "3.2.7.1")
	installs(r, prefix+"hlint-3.5", "hlint", "3.5")
	b := &fakeBackend{runner: r, capability: backend.CabalOnly}

	results := newOrchestrator(r, b, config.Options{}).Run(context.Background(), []tools.Spec{spec(t, "hlint")})
	res := results[0]
	if res.Outcome != Installed {
		t.Fatalf("expected installed, got %s: %s", res.Outcome, res.Message)
	}
	if strings.Join(res.Attempts, ",") != "cabal-direct" {
		t.Fatalf("expected exactly cabal-direct, got %v", res.Attempts)
	}
	if res.After != "3.5" {
		t.Fatalf("expected post-install version 3.5, got %q", res.After)
	}
	if len(b.ensures) != 0 || b.depsCalls != 0 {
		t.Fatal("stack must not be bootstrapped for a cabal-only host")
	}

	var order []string
	for _, call := range r.Calls {
		if strings.HasPrefix(call, prefix) {
			order = append(order, strings.TrimPrefix(call, prefix))
		}
	}
	if strings.Join(order, ",") != "happy-1.20.1.1,alex-3.2.7.1,hlint-3.5" {
		t.Fatalf("dependencies must be built first, got %v", order)
	}
}

func TestCabalUpdateRunsOncePerRun(t *testing.T) {
	r := exectest.New(map[string]string{"cabal": "/usr/bin/cabal"})
	r.On("/usr/bin/cabal update", exectest.Response{})
	r.On("/usr/bin/cabal v2-install *", exectest.Response{})
	b := &fakeBackend{runner: r, capability: backend.CabalOnly}

	newOrchestrator(r, b, config.Options{}).Run(context.Background(), []tools.Spec{spec(t, "ghcid"), spec(t, "hoogle")})
	if n := r.Count("/usr/bin/cabal update"); n != 1 {
		t.Fatalf("cabal update ran %d times", n)
	}
}

func TestStackFallsBackToCabal(t *testing.T) {
	r := exectest.New(map[string]string{"cabal": "/usr/bin/cabal"})
	r.On("/usr/bin/stack *", exectest.Response{Stderr: "resolver not found", Err: errors.New("exit status 1")})
	r.On("/usr/bin/cabal update", exectest.Response{})
	r.On("/usr/bin/cabal v2-install *", exectest.Response{})
	b := &fakeBackend{runner: r, capability: backend.Stack}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "ghcid"))
	if res.Outcome != Installed {
		t.Fatalf("expected fallback success, got %s: %s", res.Outcome, res.Message)
	}
	if strings.Join(res.Attempts, ",") != "stack-snapshot,cabal-direct" {
		t.Fatalf("unexpected attempts %v", res.Attempts)
	}
}

func TestStackWithoutCabalHasOneStrategy(t *testing.T) {
	r := exectest.New(nil)
	r.On("/usr/bin/stack *", exectest.Response{Err: errors.New("exit status 1")})
	b := &fakeBackend{runner: r, capability: backend.Stack}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "ghcid"))
	if res.Outcome != Failed || strings.Join(res.Attempts, ",") != "stack-snapshot" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestStackSnapshotCommand(t *testing.T) {
	r := exectest.New(nil)
	present(r, "happy", "1.20.1.1")
	want := "/usr/bin/stack --resolver lts-19.33 install happy-1.20.1.1 alex-3.2.7.1 hlint-3.5 --local-bin-path /home/dev/.local/bin"
	installs(r, want, "hlint", "3.5")
	b := &fakeBackend{runner: r, capability: backend.BootstrapStack}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "hlint"))
	if res.Outcome != Installed {
		t.Fatalf("expected installed, got %s: %s (calls %v)", res.Outcome, res.Message, r.Calls)
	}
	if b.depsCalls != 1 || len(b.ensures) != 1 || b.ensures[0] {
		t.Fatalf("expected deps then unforced stack, got deps=%d ensures=%v", b.depsCalls, b.ensures)
	}
}

func TestStackSnapshotNamesSatisfiedDependencies(t *testing.T) {
	r := exectest.New(nil)
	present(r, "happy", "1.20.1.1")
	present(r, "alex", "3.2.7.1")
	want := "/usr/bin/stack --resolver lts-19.33 install happy-1.20.1.1 alex-3.2.7.1 hlint-3.5 --local-bin-path /home/dev/.local/bin"
	installs(r, want, "hlint", "3.5")
	b := &fakeBackend{runner: r, capability: backend.Stack}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "hlint"))
	if res.Outcome != Installed {
		t.Fatalf("expected installed, got %s: %s (calls %v)", res.Outcome, res.Message, r.Calls)
	}
	if !r.Ran(want) {
		t.Fatalf("stack was not given the dependency closure: %v", r.Calls)
	}
}

func TestCabalDirectSkipsSatisfiedDependencies(t *testing.T) {
	r := exectest.New(map[string]string{"cabal": "/usr/bin/cabal"})
	present(r, "happy", "1.20.1.1")
	present(r, "alex", "3.2.7.1")
	r.On("/usr/bin/cabal update", exectest.Response{})
	prefix := "/usr/bin/cabal v2-install --installdir=/home/dev/.local/bin --install-method=copy --overwrite-policy=always "
	installs(r, prefix+"hlint-3.5", "hlint", "3.5")
	b := &fakeBackend{runner: r, capability: backend.CabalOnly}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "hlint"))
	if res.Outcome != Installed {
		t.Fatalf("expected installed, got %s: %s", res.Outcome, res.Message)
	}
	if r.Ran(prefix+"happy-1.20.1.1") || r.Ran(prefix+"alex-3.2.7.1") {
		t.Fatalf("satisfied dependencies rebuilt: %v", r.Calls)
	}
}

func TestBuildsRunInWorkDir(t *testing.T) {
	r := exectest.New(map[string]string{"cabal": "/usr/bin/cabal"})
	r.On("/usr/bin/cabal *", exectest.Response{})
	b := &fakeBackend{runner: r, capability: backend.CabalOnly}
	o := New(Options{
		Config:  config.New(config.Default(), config.Options{}),
		Runner:  r,
		Backend: b,
		BinDir:  "/home/dev/.local/bin",
		WorkDir: "/home/dev",
		Log:     logx.Discard(),
	})

	o.Install(context.Background(), spec(t, "ghcid"))
	for i, call := range r.Calls {
		if strings.HasPrefix(call, "/usr/bin/cabal") && r.Dirs[i] != "/home/dev" {
			t.Fatalf("%q ran in %q", call, r.Dirs[i])
		}
	}
}

func TestNoBackendFails(t *testing.T) {
	r := exectest.New(nil)
	b := &fakeBackend{runner: r, capability: backend.NoBackend}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "ghcid"))
	if res.Outcome != Failed || !errors.Is(res.Err, backend.ErrBackendUnavailable) {
		t.Fatalf("expected backend unavailable, got %+v", res)
	}
	if len(res.Attempts) != 0 {
		t.Fatalf("no strategy should be attempted, got %v", res.Attempts)
	}
}

func TestNoBackendCarriesPlatformReason(t *testing.T) {
	r := exectest.New(nil)
	reason := fmt.Errorf("%w: install cabal or stack; %w: freebsd x86/32-bit", backend.ErrBackendUnavailable, backend.ErrUnsupportedPlatform)
	b := &fakeBackend{runner: r, capability: backend.NoBackend, unavailable: reason}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "ghcid"))
	if !errors.Is(res.Err, backend.ErrUnsupportedPlatform) || !strings.Contains(res.Message, "32-bit") {
		t.Fatalf("expected explicit platform reason, got %q", res.Message)
	}
	if Kind(res.Err) != "unsupported-platform" {
		t.Fatalf("unexpected kind %q", Kind(res.Err))
	}
}

func TestForceReinstallsSatisfiedTool(t *testing.T) {
	r := exectest.New(nil)
	present(r, "ghcid", "0.8.8")
	r.On("/usr/bin/stack *", exectest.Response{})
	b := &fakeBackend{runner: r, capability: backend.Stack}

	res := newOrchestrator(r, b, config.Options{Force: true}).Install(context.Background(), spec(t, "ghcid"))
	if res.Outcome != Installed {
		t.Fatalf("expected forced install, got %s", res.Outcome)
	}
	if len(b.ensures) != 1 || !b.ensures[0] {
		t.Fatalf("expected forced stack bootstrap, got %v", b.ensures)
	}
}

func TestFailureDoesNotStopRun(t *testing.T) {
	r := exectest.New(nil)
	r.On("/usr/bin/stack --resolver lts-19.33 install ghcid-0.8.8 *", exectest.Response{Err: errors.New("exit status 1")})
	installs(r, "/usr/bin/stack --resolver lts-19.33 install hoogle-5.0.18.3 --local-bin-path /home/dev/.local/bin", "hoogle", "5.0.18.3")
	b := &fakeBackend{runner: r, capability: backend.Stack}

	results := newOrchestrator(r, b, config.Options{}).Run(context.Background(), []tools.Spec{spec(t, "ghcid"), spec(t, "hoogle")})
	if len(results) != 2 {
		t.Fatalf("expected one result per tool, got %d", len(results))
	}
	if results[0].Outcome != Failed || results[1].Outcome != Installed {
		t.Fatalf("unexpected outcomes %s, %s", results[0].Outcome, results[1].Outcome)
	}
	if Kind(results[0].Err) != "build" {
		t.Fatalf("unexpected kind %q", Kind(results[0].Err))
	}
	s := Summarize(results)
	if s.Failed != 1 || s.Installed != 1 || s.Satisfied != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestDependencyInstallFailureIsPerTool(t *testing.T) {
	r := exectest.New(nil)
	b := &fakeBackend{runner: r, capability: backend.BootstrapStack, depsErr: backend.ErrDependencyInstall}

	res := newOrchestrator(r, b, config.Options{}).Install(context.Background(), spec(t, "ghcid"))
	if res.Outcome != Failed || Kind(res.Err) != "dependency-install" {
		t.Fatalf("expected dependency-install failure, got %+v", res)
	}
	if len(b.ensures) != 0 {
		t.Fatal("stack must not be ensured after dependency failure")
	}
}

func TestCancelledRunRecordsEveryTool(t *testing.T) {
	r := exectest.New(nil)
	b := &fakeBackend{runner: r, capability: backend.Stack}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	all := tools.All()
	results := newOrchestrator(r, b, config.Options{}).Run(ctx, all)
	if len(results) != len(all) {
		t.Fatalf("expected %d results, got %d", len(all), len(results))
	}
	for _, res := range results {
		if res.Outcome != Failed || !errors.Is(res.Err, ErrInterrupted) {
			t.Fatalf("%s: expected interrupted, got %+v", res.Tool, res)
		}
	}
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) ToolStarted(tool, _ string) {
	o.events = append(o.events, "start "+tool)
}

func (o *recordingObserver) AttemptStarted(_, strategy string) {
	o.events = append(o.events, "try "+strategy)
}

func (o *recordingObserver) AttemptFailed(_, strategy string, _ error) {
	o.events = append(o.events, "fail "+strategy)
}

func (o *recordingObserver) ToolFinished(r Result) {
	o.events = append(o.events, "done "+r.Outcome.String())
}

func TestObserverSeesEveryStep(t *testing.T) {
	r := exectest.New(map[string]string{"cabal": "/usr/bin/cabal"})
	r.On("/usr/bin/stack *", exectest.Response{Err: errors.New("exit status 1")})
	r.On("/usr/bin/cabal *", exectest.Response{})
	b := &fakeBackend{runner: r, capability: backend.Stack}
	obs := &recordingObserver{}

	o := New(Options{
		Config:   config.New(config.Default(), config.Options{}),
		Runner:   r,
		Backend:  b,
		BinDir:   "/home/dev/.local/bin",
		Log:      logx.Discard(),
		Observer: obs,
	})
	o.Install(context.Background(), spec(t, "ghcid"))

	want := "start ghcid,try stack-snapshot,fail stack-snapshot,try cabal-direct,done installed"
	if got := strings.Join(obs.events, ","); got != want {
		t.Fatalf("events = %s\nwant     %s", got, want)
	}
}
