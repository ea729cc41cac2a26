// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"strings"
	"testing"

	"github.com/zephyrup/zephyrup/internal/runtime"
	"github.com/zephyrup/zephyrup/internal/testutil"
	"github.com/zephyrup/zephyrup/internal/venv"
)

func TestInstallPlanStepOrder(t *testing.T) {
	t.Parallel()

	got := InstallPlan(InstallOptions{Python: "python3", GOOS: "linux"}).Names()
	want := []string{
		"create-venv", "resolve-interpreter", "upgrade-pip", "configure-index", "install-west",
		"west-init", "west-update", "zephyr-export", "python-deps", "sdk-install",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func runInstall(t *testing.T, exec *fakeExec, opts ...Option) (string, error) {
	t.Helper()
	target := t.TempDir()
	fakeVenv(t, filepath.Join(target, venv.DirName))
	_, err := Provision(context.Background(), NewPipeline(exec), target, &runtime.BufferSink{}, opts...)
	return target, err
}

func TestProvisionCommands(t *testing.T) {
	t.Parallel()

	exec := &fakeExec{}
	target, err := runInstall(t, exec,
		WithPython("python3.12"),
		WithMirror("https://mirror.example/simple"),
		WithSDKDestination("/opt/zephyr-sdk"),
	)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	want := []string{
		"-m venv .venv",
		"-m pip install -i https://mirror.example/simple pip -U",
		"-m pip config --site set global.index-url https://mirror.example/simple",
		"-m pip install west",
		"-m west init .",
		"-m west update",
		"-m west zephyr-export",
		"-m west packages pip --install",
		"-m west sdk install -d /opt/zephyr-sdk",
	}
	if got := exec.argLines(); !slices.Equal(got, want) {
		t.Fatalf("commands =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	layout := venv.InWorkspace(target)
	if exec.calls[0].Path != "python3.12" {
		t.Errorf("bootstrap interpreter = %q", exec.calls[0].Path)
	}
	if exec.calls[0].Env != nil {
		t.Errorf("create-venv must not carry the overlay, got %v", exec.calls[0].Env)
	}
	for i, c := range exec.calls[1:] {
		if c.Path != layout.Interpreter() {
			t.Errorf("call %d Path = %q, want venv interpreter", i+1, c.Path)
		}
		if c.Env[venv.MarkerVar] != layout.Root {
			t.Errorf("call %d missing %s overlay: %v", i+1, venv.MarkerVar, c.Env)
		}
		if !strings.HasPrefix(c.Env[layout.PathVar()], layout.BinDir()) {
			t.Errorf("call %d PATH = %q", i+1, c.Env[layout.PathVar()])
		}
	}
	for i, c := range exec.calls {
		if !c.HideWindow {
			t.Errorf("call %d should hide its console window", i)
		}
	}

	last := exec.calls[len(exec.calls)-1]
	if last.Dir != filepath.Join(target, ZephyrDir) {
		t.Errorf("sdk-install Dir = %q", last.Dir)
	}
	if exec.calls[4].Dir != target {
		t.Errorf("west-init Dir = %q", exec.calls[4].Dir)
	}
}

func TestProvisionWithoutMirrorSkipsIndexSteps(t *testing.T) {
	t.Parallel()

	exec := &fakeExec{}
	if _, err := runInstall(t, exec); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	lines := exec.argLines()
	for _, line := range lines {
		if strings.Contains(line, "-i ") || strings.Contains(line, "global.index-url") {
			t.Errorf("mirror step ran without a mirror: %q", line)
		}
	}
	if got := lines[len(lines)-1]; got != "-m west sdk install" {
		t.Errorf("sdk-install args = %q, want no -d", got)
	}
}

func TestProvisionShallowClone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shallow    bool
		wantInit   string
		wantUpdate string
	}{
		{shallow: true, wantInit: "-m west init . --clone-opt=--filter=blob:none", wantUpdate: "-m west update --fetch-opt=--filter=blob:none"},
		{shallow: false, wantInit: "-m west init .", wantUpdate: "-m west update"},
	}

	for _, tt := range tests {
		exec := &fakeExec{}
		if _, err := runInstall(t, exec, WithShallowClone(tt.shallow)); err != nil {
			t.Fatalf("Provision(shallow=%v) error = %v", tt.shallow, err)
		}
		lines := exec.argLines()
		if !slices.Contains(lines, tt.wantInit) {
			t.Errorf("shallow=%v: missing %q in %v", tt.shallow, tt.wantInit, lines)
		}
		if !slices.Contains(lines, tt.wantUpdate) {
			t.Errorf("shallow=%v: missing %q in %v", tt.shallow, tt.wantUpdate, lines)
		}
	}
}

func TestProvisionInitFailurePreventsUpdate(t *testing.T) {
	t.Parallel()

	exec := &fakeExec{failOn: failWhen("west init", 2)}
	_, err := runInstall(t, exec)

	se, ok := AsStepError(err)
	if !ok || se.Name != "west-init" || se.ExitCode != 2 {
		t.Fatalf("Provision() error = %v, want west-init failure", err)
	}
	for _, line := range exec.argLines() {
		if strings.Contains(line, "west update") {
			t.Fatal("west update must not run after west init failed")
		}
	}
}

func TestProvisionMissingInterpreter(t *testing.T) {
	t.Parallel()

	exec := &fakeExec{}
	_, err := Provision(context.Background(), NewPipeline(exec), t.TempDir(), nil)
	if !errors.Is(err, ErrInterpreterMissing) {
		t.Fatalf("Provision() error = %v, want ErrInterpreterMissing", err)
	}
	if len(exec.calls) != 1 {
		t.Errorf("only create-venv should have run, got %v", exec.argLines())
	}
}

func TestProvisionResultAndCompletion(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	fakeVenv(t, filepath.Join(target, venv.DirName))
	sink := &runtime.BufferSink{}

	res, err := Provision(context.Background(), NewPipeline(&fakeExec{}), target, sink)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if res.VenvPath != filepath.Join(target, venv.DirName) || res.ZephyrBase != filepath.Join(target, ZephyrDir) {
		t.Errorf("result = %+v", res)
	}
	if !strings.HasSuffix(sink.Text(runtime.StreamInfo), "Zephyr installation complete!\n") {
		t.Errorf("milestones = %q", sink.Text(runtime.StreamInfo))
	}
}

// TestProvisionWithRealProcesses drives the plan through the process runner
// with shell scripts standing in for python.
func TestProvisionWithRealProcesses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping process-spawning test in short mode")
	}
	if goruntime.GOOS == "windows" {
		t.Skip("fake interpreters are shell scripts")
	}
	t.Parallel()

	target := t.TempDir()
	bin := t.TempDir()
	log := filepath.Join(t.TempDir(), "calls.log")

	venvPython := "#!/bin/sh\n" +
		"echo \"$*\" >> '" + log + "'\n" +
		"printf 'progress 10%%\\rprogress 100%%\\n'\n" +
		"case \"$*\" in\n" +
		"  *\"west update\"*) echo \"fetch failed\" >&2; exit 5 ;;\n" +
		"esac\n"
	script := filepath.Join(bin, "venv-python")
	testutil.MustWriteFile(t, script, venvPython)
	bootstrap := testutil.WriteExecutable(t, bin, "python3",
		"mkdir -p .venv/bin && cp '"+script+"' .venv/bin/python && chmod +x .venv/bin/python")

	sink := &runtime.BufferSink{}
	_, err := Provision(context.Background(), NewPipeline(runtime.NewRunner()), target, sink, WithPython(bootstrap))

	se, ok := AsStepError(err)
	if !ok {
		t.Fatalf("Provision() error = %v, want *StepError", err)
	}
	if se.Name != "west-update" || se.ExitCode != 5 {
		t.Errorf("StepError = %+v", se)
	}
	if !slices.Contains(se.Tail, "fetch failed\n") {
		t.Errorf("Tail = %q", se.Tail)
	}

	data, readErr := os.ReadFile(log)
	if readErr != nil {
		t.Fatalf("ReadFile() error = %v", readErr)
	}
	calls := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"-m pip install west", "-m west init .", "-m west update"}
	if !slices.Equal(calls, want) {
		t.Errorf("venv interpreter calls = %q, want %q", calls, want)
	}
	if !strings.Contains(sink.Text(runtime.StreamStdout), "progress 10%\r") {
		t.Errorf("carriage-return progress line not preserved: %q", sink.Text(runtime.StreamStdout))
	}
}
