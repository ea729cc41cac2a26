// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Shell runs POSIX shell expressions in an embedded interpreter.
	// External commands named by the expression are still executed on the host.
	Shell struct {
		// Environ returns the base environment. Defaults to os.Environ.
		Environ func() []string
	}

	// ShellOptions configures one Shell.Run call.
	ShellOptions struct {
		// Dir is the working directory. Empty means the caller's directory.
		Dir string
		// Env is applied on top of the base environment.
		Env map[string]string
		// Stdout and Stderr receive output. When nil, output is captured into the Result.
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewShell creates a Shell inheriting the host environment.
func NewShell() *Shell {
	return &Shell{}
}

// Validate parses script without running it.
func (s *Shell) Validate(script string) error {
	if _, err := syntax.NewParser().Parse(strings.NewReader(script), "probe"); err != nil {
		return fmt.Errorf("invalid shell expression: %w", err)
	}
	return nil
}

// Run executes script and reports its exit status.
func (s *Shell) Run(ctx context.Context, script string, opts ShellOptions) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "probe")
	if err != nil {
		return NewErrorResult(ExitGeneralFailure, fmt.Errorf("invalid shell expression: %w", err))
	}

	if err := validateWorkDir(opts.Dir); err != nil {
		return NewErrorResult(ExitGeneralFailure, &SpawnError{Path: "sh", Dir: opts.Dir, Kind: SpawnWorkDir, Err: err})
	}

	var stdout, stderr bytes.Buffer
	outW, errW := opts.Stdout, opts.Stderr
	if outW == nil {
		outW = &stdout
	}
	if errW == nil {
		errW = &stderr
	}

	runnerOpts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(mergeEnv(s.environ(), opts.Env, false)...)),
		interp.StdIO(nil, outW, errW),
		interp.ExecHandlers(logExec),
	}
	if opts.Dir != "" {
		runnerOpts = append(runnerOpts, interp.Dir(opts.Dir))
	}

	runner, err := interp.New(runnerOpts...)
	if err != nil {
		return NewErrorResult(ExitGeneralFailure, fmt.Errorf("failed to create interpreter: %w", err))
	}

	result := NewSuccessResult()
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result = NewExitCodeResult(ExitCode(exitStatus))
		} else {
			result = NewErrorResult(ExitGeneralFailure, fmt.Errorf("shell expression failed: %w", err))
		}
	}

	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

func (s *Shell) environ() []string {
	if s.Environ != nil {
		return s.Environ()
	}
	return os.Environ()
}

func logExec(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		slog.Debug("probe exec", "args", args)
		return next(ctx, args)
	}
}
