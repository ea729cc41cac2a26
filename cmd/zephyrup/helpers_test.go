// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/inventory"
	"github.com/zephyrup/zephyrup/internal/platform"
	"github.com/zephyrup/zephyrup/internal/runtime"
	"github.com/zephyrup/zephyrup/internal/testutil"
	"github.com/zephyrup/zephyrup/internal/venv"
)

type (
	// recordingExecutor records every spec and answers from failOn.
	recordingExecutor struct {
		mu     sync.Mutex
		calls  []runtime.ProcessSpec
		failOn func(runtime.ProcessSpec) *runtime.Result
		onRun  func(runtime.ProcessSpec)
	}

	// fakeCapturer answers probes by executable name; unknown names fail to spawn.
	fakeCapturer struct {
		results map[string]*runtime.Result
	}

	recordingInstaller struct {
		source   string
		launched *inventory.InstallPlan
	}

	testEnv struct {
		app      *App
		stdout   *bytes.Buffer
		stderr   *bytes.Buffer
		cfgPath  string
		exec     *recordingExecutor
		probes   *fakeCapturer
		install  *recordingInstaller
		stdinTxt string
	}
)

func (e *recordingExecutor) Run(_ context.Context, spec runtime.ProcessSpec, sink runtime.LogSink) *runtime.Result {
	e.mu.Lock()
	e.calls = append(e.calls, spec)
	e.mu.Unlock()

	if e.onRun != nil {
		e.onRun(spec)
	}
	if sink != nil {
		sink.Emit(runtime.LogEvent{Stream: runtime.StreamStdout, Text: "ran " + strings.Join(spec.Args, " ") + "\n"})
	}
	if e.failOn != nil {
		if res := e.failOn(spec); res != nil {
			return res
		}
	}
	return runtime.NewSuccessResult()
}

func (e *recordingExecutor) argLines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = strings.Join(c.Args, " ")
	}
	return out
}

func (f *fakeCapturer) Capture(_ context.Context, spec runtime.ProcessSpec) *runtime.Result {
	if res, ok := f.results[spec.Path]; ok {
		return res
	}
	return runtime.NewErrorResult(runtime.ExitGeneralFailure, &runtime.SpawnError{Path: spec.Path, Err: errors.New("not found")})
}

func (r *recordingInstaller) Plan(report inventory.EnvReport) (*inventory.InstallPlan, error) {
	in := inventory.NewInstaller()
	in.WingetSource = r.source
	return in.Plan(report)
}

func (r *recordingInstaller) Launch(_ context.Context, plan *inventory.InstallPlan, _ runtime.LogSink) error {
	r.launched = plan
	return nil
}

// newTestEnv builds an App whose config lives in a temp file and whose
// processes and probes are faked.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		cfgPath: filepath.Join(t.TempDir(), "config.cue"),
		exec:    &recordingExecutor{},
		probes: &fakeCapturer{results: map[string]*runtime.Result{
			"git": {Output: "git version 2.43.0\n"},
		}},
		install: &recordingInstaller{},
	}

	app, err := NewApp(Dependencies{
		Executor: env.exec,
		Checkers: func(family platform.Family) *inventory.Checker {
			return &inventory.Checker{
				Family: family,
				Catalog: inventory.Catalog{
					platform.Debian: {
						{Name: "Git", Probe: inventory.Binary("git", "--version"), Critical: true},
						{Name: "CMake", Probe: inventory.Binary("cmake", "--version"), Critical: true},
					},
				},
				Runner: env.probes,
				Shell:  runtime.NewShell(),
			}
		},
		Installers: func(source string) DependencyInstaller {
			env.install.source = source
			return env.install
		},
		Detect: func() platform.Family { return platform.Debian },
		Stdin:  strings.NewReader(""),
		Stdout: env.stdout,
		Stderr: env.stderr,
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	env.app = app
	return env
}

// run executes the command tree with args against the env's config file.
func (e *testEnv) run(args ...string) error {
	e.stdout.Reset()
	e.stderr.Reset()
	if e.stdinTxt != "" {
		e.app.stdin = strings.NewReader(e.stdinTxt)
	}

	root := NewRootCommand(e.app)
	root.SilenceErrors = true
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	return root.ExecuteContext(context.Background())
}

func (e *testEnv) config(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.NewStore(e.cfgPath).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func (e *testEnv) update(t *testing.T, fn func(*config.Config)) {
	t.Helper()
	if _, err := config.NewStore(e.cfgPath).Update(context.Background(), func(c *config.Config) error {
		fn(c)
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

// fakeVenv creates a venv layout whose interpreter exists.
func fakeVenv(t *testing.T, root string) venv.Layout {
	t.Helper()
	layout := venv.New(root)
	testutil.MustWriteFile(t, layout.Interpreter(), "")
	return layout
}

func hasLine(lines []string, want string) bool {
	return slices.Contains(lines, want)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
