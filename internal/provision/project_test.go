// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/platform"
	"github.com/zephyrup/zephyrup/internal/project"
	"github.com/zephyrup/zephyrup/internal/runtime"
	"github.com/zephyrup/zephyrup/internal/testutil"
	"github.com/zephyrup/zephyrup/internal/venv"
)

func projectOpts(t *testing.T, parent string) ProjectOptions {
	t.Helper()
	layout := fakeVenv(t, filepath.Join(t.TempDir(), venv.DirName))
	return ProjectOptions{
		Parent:      parent,
		Name:        "robot",
		ManifestURL: config.DefaultManifestURL,
		Revision:    config.DefaultManifestRevision,
		VenvPath:    layout.Root,
		Activation:  config.ActivationOverlay,
		GOOS:        layout.GOOS,
	}
}

func TestCreateProjectPlanArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		depth      int
		wantInit   string
		wantUpdate string
	}{
		{
			name:       "shallow",
			depth:      15,
			wantInit:   "-m west init -m " + config.DefaultManifestURL + " --mr main --clone-opt=--depth=15 robot",
			wantUpdate: "-m west update --fetch-opt=--depth=15",
		},
		{
			name:       "full",
			wantInit:   "-m west init -m " + config.DefaultManifestURL + " --mr main robot",
			wantUpdate: "-m west update",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parent := t.TempDir()
			opts := projectOpts(t, parent)
			opts.CloneDepth = tt.depth
			exec := &fakeExec{}

			if err := NewPipeline(exec).Run(context.Background(), CreateProjectPlan(opts), &State{Target: parent}, nil); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := exec.argLines(); !slices.Equal(got, []string{tt.wantInit, tt.wantUpdate}) {
				t.Errorf("commands = %q", got)
			}
			if exec.calls[0].Dir != parent || exec.calls[1].Dir != filepath.Join(parent, "robot") {
				t.Errorf("dirs = %q, %q", exec.calls[0].Dir, exec.calls[1].Dir)
			}
			for _, c := range exec.calls {
				if c.Env["TERM"] != "xterm" {
					t.Errorf("TERM = %q", c.Env["TERM"])
				}
				if c.Env[venv.MarkerVar] != opts.VenvPath {
					t.Errorf("overlay missing: %v", c.Env)
				}
			}
		})
	}
}

func TestWestScriptActivation(t *testing.T) {
	t.Parallel()

	posix := &State{
		Venv:        venv.Layout{Root: "/home/me/zephyr ws/.venv", GOOS: "linux"},
		Interpreter: "/home/me/zephyr ws/.venv/bin/python",
	}
	spec, err := West(posix, config.ActivationScript, "update", "--narrow")
	if err != nil {
		t.Fatalf("West() error = %v", err)
	}
	if spec.Path != "sh" || len(spec.Args) != 2 || spec.Args[0] != "-c" {
		t.Fatalf("spec = %+v", spec)
	}
	wantLine := ". '/home/me/zephyr ws/.venv/bin/activate' && west update --narrow"
	if spec.Args[1] != wantLine {
		t.Errorf("line = %q, want %q", spec.Args[1], wantLine)
	}
	if spec.Env["TERM"] != "xterm" {
		t.Errorf("TERM = %q", spec.Env["TERM"])
	}

	windows := &State{
		Venv:        venv.Layout{Root: `C:\Users\me\zephyr ws\.venv`, GOOS: "windows"},
		Interpreter: `C:\Users\me\zephyr ws\.venv\Scripts\python.exe`,
	}
	spec, err = West(windows, config.ActivationScript, "init", "-m", "https://example.com/m", "robot")
	if err != nil {
		t.Fatalf("West() error = %v", err)
	}
	wantLine = `"C:\Users\me\zephyr ws\.venv\Scripts\activate.bat" && west init -m https://example.com/m robot`
	if spec.Path != "cmd" || spec.Args[0] != "/C" || spec.Args[1] != wantLine {
		t.Errorf("spec = %+v", spec)
	}
}

func TestWestRejectsUnknownActivation(t *testing.T) {
	t.Parallel()

	_, err := West(&State{Interpreter: "/venv/bin/python"}, config.ActivationMode("magic"), "update")
	if !errors.Is(err, config.ErrInvalidActivationMode) {
		t.Errorf("West() error = %v, want ErrInvalidActivationMode", err)
	}
	if _, err := West(&State{}, config.ActivationOverlay, "update"); !errors.Is(err, ErrInterpreterMissing) {
		t.Errorf("West() error = %v, want ErrInterpreterMissing", err)
	}
}

func TestCreateProjectRenamesFromCMake(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	opts := projectOpts(t, parent)
	testutil.MustWriteFile(t, project.CMakeListsPath(opts.Workspace()), "project(Chassis LANGUAGES C)\n")
	registry := &fakeRegistry{}

	res, err := CreateProject(context.Background(), NewPipeline(&fakeExec{}), registry, opts, &runtime.BufferSink{})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if res.Name != "Chassis" || res.Workspace != filepath.Join(parent, "robot") {
		t.Errorf("result = %+v", res)
	}
	if !slices.Equal(registry.registry, []string{res.Workspace}) {
		t.Errorf("registered = %v", registry.registry)
	}
	if registry.renames[res.Workspace] != "Chassis" {
		t.Errorf("renames = %v", registry.renames)
	}
}

func TestCreateProjectFailureKeepsRegistration(t *testing.T) {
	t.Parallel()

	opts := projectOpts(t, t.TempDir())
	registry := &fakeRegistry{}
	exec := &fakeExec{failOn: failWhen("west init", 1)}

	_, err := CreateProject(context.Background(), NewPipeline(exec), registry, opts, nil)
	if _, ok := AsStepError(err); !ok {
		t.Fatalf("CreateProject() error = %v, want *StepError", err)
	}
	if len(registry.registry) != 1 {
		t.Errorf("registration should persist on failure, got %v", registry.registry)
	}
	if len(registry.renames) != 0 {
		t.Errorf("no rename on failure, got %v", registry.renames)
	}
	for _, line := range exec.argLines() {
		if strings.Contains(line, "update") {
			t.Error("west update ran after west init failed")
		}
	}
}

func TestCreateProjectValidation(t *testing.T) {
	t.Parallel()

	opts := projectOpts(t, t.TempDir())
	opts.Name = "../escape"
	registry := &fakeRegistry{}
	if _, err := CreateProject(context.Background(), NewPipeline(&fakeExec{}), registry, opts, nil); !errors.Is(err, platform.ErrInvalidName) {
		t.Errorf("CreateProject() error = %v, want ErrInvalidName", err)
	}
	if len(registry.registry) != 0 {
		t.Error("invalid names must not be recorded")
	}

	opts = projectOpts(t, t.TempDir())
	opts.VenvPath = ""
	exec := &fakeExec{}
	if _, err := CreateProject(context.Background(), NewPipeline(exec), &fakeRegistry{}, opts, nil); !errors.Is(err, ErrVenvNotConfigured) {
		t.Errorf("CreateProject() error = %v, want ErrVenvNotConfigured", err)
	}
	if len(exec.calls) != 0 {
		t.Error("nothing should run without a venv")
	}

	registryErr := errors.New("disk full")
	opts = projectOpts(t, t.TempDir())
	if _, err := CreateProject(context.Background(), NewPipeline(exec), &fakeRegistry{err: registryErr}, opts, nil); !errors.Is(err, registryErr) {
		t.Errorf("CreateProject() error = %v, want registry error", err)
	}
}

func TestProjectOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.VenvPath = "/ws/.venv"

	shallow := ProjectOptionsFromConfig(cfg, "/work", "robot", true)
	if shallow.CloneDepth != config.DefaultCloneDepth || shallow.VenvPath != "/ws/.venv" {
		t.Errorf("shallow = %+v", shallow)
	}
	full := ProjectOptionsFromConfig(cfg, "/work", "robot", false)
	if full.CloneDepth != 0 {
		t.Errorf("full CloneDepth = %d, want 0", full.CloneDepth)
	}
	if full.Workspace() != filepath.Join("/work", "robot") {
		t.Errorf("Workspace() = %q", full.Workspace())
	}
}
