// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/runtime"
	"github.com/zephyrup/zephyrup/internal/testutil"
	"github.com/zephyrup/zephyrup/internal/venv"
)

type (
	// fakeExec records every spawned spec and fails those matched by failOn.
	fakeExec struct {
		mu     sync.Mutex
		calls  []runtime.ProcessSpec
		failOn func(runtime.ProcessSpec) *runtime.Result
	}

	fakeRegistry struct {
		mu       sync.Mutex
		registry []string
		renames  map[string]string
		err      error
	}
)

func (f *fakeExec) Run(_ context.Context, spec runtime.ProcessSpec, sink runtime.LogSink) *runtime.Result {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	f.mu.Unlock()

	sink.Emit(runtime.LogEvent{Stream: runtime.StreamStdout, Text: "ran " + strings.Join(spec.Args, " ") + "\n", Seq: 1})
	if f.failOn != nil {
		if res := f.failOn(spec); res != nil {
			return res
		}
	}
	return runtime.NewSuccessResult()
}

func (f *fakeExec) argLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c.Args, " ")
	}
	return out
}

func (r *fakeRegistry) RegisterProject(_ context.Context, path, name string) (config.ProjectRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return config.ProjectRecord{}, r.err
	}
	r.registry = append(r.registry, path)
	return config.ProjectRecord{Path: path, Name: name}, nil
}

func (r *fakeRegistry) RenameProject(_ context.Context, path, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.renames == nil {
		r.renames = map[string]string{}
	}
	r.renames[path] = name
	return nil
}

// fakeVenv creates an interpreter file so State.Activate succeeds.
func fakeVenv(t *testing.T, root string) venv.Layout {
	t.Helper()
	layout := venv.New(root)
	testutil.MustWriteFile(t, layout.Interpreter(), "")
	return layout
}

// failWhen fails specs whose args contain needle with code.
func failWhen(needle string, code runtime.ExitCode) func(runtime.ProcessSpec) *runtime.Result {
	return func(spec runtime.ProcessSpec) *runtime.Result {
		if strings.Contains(strings.Join(spec.Args, " "), needle) {
			return runtime.NewExitCodeResult(code)
		}
		return nil
	}
}
