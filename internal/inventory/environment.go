// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"context"
	"os"
	goruntime "runtime"

	"golang.org/x/sync/errgroup"

	"github.com/zephyrup/zephyrup/internal/runtime"
	"github.com/zephyrup/zephyrup/internal/venv"
)

// ZephyrBaseVar names an SDK checkout when no zephyr_base is configured.
const ZephyrBaseVar = "ZEPHYR_BASE"

type (
	// EnvInputs are the configured locations CheckEnvironment looks at.
	EnvInputs struct {
		// VenvPath is the configured virtual environment root, if any.
		VenvPath string
		// ZephyrBase is the configured Zephyr checkout, if any.
		ZephyrBase string
		// Python is the interpreter to fall back on when VenvPath has none.
		Python string
		// LookupEnv defaults to os.LookupEnv.
		LookupEnv func(string) (string, bool)
	}

	// EnvStatus is a lightweight readiness summary.
	EnvStatus struct {
		Git    bool `json:"git"`
		Python bool `json:"python"`
		West   bool `json:"west"`
		SDK    bool `json:"sdk"`
	}
)

// Ready reports whether every check passed.
func (s EnvStatus) Ready() bool {
	return s.Git && s.Python && s.West && s.SDK
}

// DefaultPython is the bootstrap interpreter name on the host.
func DefaultPython() string {
	if goruntime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// ResolvePython returns the venv interpreter when it exists, otherwise fallback.
func ResolvePython(venvPath, fallback string) string {
	if venvPath != "" {
		if l := venv.New(venvPath); l.Exists() {
			return l.Interpreter()
		}
	}
	if fallback == "" {
		return DefaultPython()
	}
	return fallback
}

// CheckEnvironment reports whether git, the interpreter, west and the SDK are usable.
func (c *Checker) CheckEnvironment(ctx context.Context, in EnvInputs) EnvStatus {
	python := ResolvePython(in.VenvPath, in.Python)
	runs := func(spec runtime.ProcessSpec) bool {
		return c.Runner.Capture(ctx, spec.Hidden()).Success()
	}

	var status EnvStatus
	var g errgroup.Group
	g.Go(func() error {
		status.Git = runs(runtime.Command("git", "--version"))
		return nil
	})
	g.Go(func() error {
		status.Python = runs(runtime.Command(python, "--version"))
		return nil
	})
	g.Go(func() error {
		status.West = runs(runtime.Command(python, "-m", "west", "--version"))
		return nil
	})
	_ = g.Wait()

	status.SDK = sdkPresent(in)
	return status
}

func sdkPresent(in EnvInputs) bool {
	if in.ZephyrBase != "" {
		_, err := os.Stat(in.ZephyrBase)
		return err == nil
	}
	lookup := in.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(ZephyrBaseVar)
	return ok && v != ""
}
