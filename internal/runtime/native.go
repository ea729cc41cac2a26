// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	goruntime "runtime"
	"sync"
	"sync/atomic"
	"time"
)

// pipeCloseDelay is how long Run keeps reading after cancellation.
const pipeCloseDelay = 2 * time.Second

// Runner spawns external processes. The zero value is ready to use.
type Runner struct {
	// Environ returns the inherited environment. Defaults to os.Environ.
	Environ func() []string

	// wrapStream, when set, wraps each output pipe before it is read.
	wrapStream func(StreamKind, io.Reader) io.Reader
}

// NewRunner creates a Runner inheriting the host environment.
func NewRunner() *Runner {
	return &Runner{}
}

// Run spawns spec, streams its output to sink line by line, and waits for it to exit.
//
// Run returns only after both output streams are drained and the process has exited.
// Cancelling ctx kills the child; output still held open by its descendants is
// abandoned after pipeCloseDelay.
func (r *Runner) Run(ctx context.Context, spec ProcessSpec, sink LogSink) *Result {
	if sink == nil {
		sink = Discard
	}

	if err := validateWorkDir(spec.Dir); err != nil {
		return NewErrorResult(ExitGeneralFailure, &SpawnError{Path: spec.Path, Dir: spec.Dir, Kind: SpawnWorkDir, Err: err})
	}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = mergeEnv(r.environ(), spec.Env, goruntime.GOOS == "windows")
	}
	applySysProcAttr(cmd, spec.HideWindow)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return NewErrorResult(ExitGeneralFailure, fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return NewErrorResult(ExitGeneralFailure, fmt.Errorf("stderr pipe: %w", err))
	}

	slog.Debug("spawning process", "command", spec.String(), "dir", spec.Dir)

	if err := cmd.Start(); err != nil {
		spawnErr := newSpawnError(spec, err)
		return NewErrorResult(spawnErr.ExitCode(), spawnErr)
	}

	var (
		seq atomic.Uint64
		wg  sync.WaitGroup
	)
	wg.Add(2)
	go pump(&wg, r.stream(StreamStdout, stdout), StreamStdout, &seq, sink)
	go pump(&wg, r.stream(StreamStderr, stderr), StreamStderr, &seq, sink)

	done := make(chan struct{})
	go closeOnCancel(ctx, done, stdout, stderr)

	// Readers must finish before Wait closes the pipes.
	wg.Wait()
	close(done)
	return classifyExit(ctx, spec, cmd.Wait())
}

// closeOnCancel closes the read ends pipeCloseDelay after ctx is cancelled.
// Killing the child does not close pipes a grandchild inherited.
func closeOnCancel(ctx context.Context, done <-chan struct{}, pipes ...io.Closer) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	timer := time.NewTimer(pipeCloseDelay)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		for _, p := range pipes {
			_ = p.Close()
		}
	}
}

// Capture runs spec and returns its output in Result.Output and Result.ErrOutput.
func (r *Runner) Capture(ctx context.Context, spec ProcessSpec) *Result {
	var sink BufferSink
	result := r.Run(ctx, spec, &sink)
	result.Output = sink.Text(StreamStdout)
	result.ErrOutput = sink.Text(StreamStderr, StreamInfo)
	return result
}

func (r *Runner) environ() []string {
	if r.Environ != nil {
		return r.Environ()
	}
	return os.Environ()
}

func (r *Runner) stream(kind StreamKind, rd io.Reader) io.Reader {
	if r.wrapStream != nil {
		return r.wrapStream(kind, rd)
	}
	return rd
}

// pump reads r until EOF, emitting one event per line.
func pump(wg *sync.WaitGroup, r io.Reader, stream StreamKind, seq *atomic.Uint64, sink LogSink) {
	defer wg.Done()

	sc := newLineScanner(r)
	for sc.Scan() {
		sink.Emit(LogEvent{Stream: stream, Text: sc.Text(), Seq: seq.Add(1)})
	}

	if err := sc.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		slog.Warn("output stream read failed", "stream", stream, "error", err)
		sink.Emit(LogEvent{
			Stream: StreamInfo,
			Text:   fmt.Sprintf("[%s read error: %v]\n", stream, err),
			Seq:    seq.Add(1),
		})
		// Drain so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}

func classifyExit(ctx context.Context, spec ProcessSpec, err error) *Result {
	if err == nil {
		return NewSuccessResult()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewErrorResult(ExitTerminated, fmt.Errorf("%s: %w: %w", spec.Path, ErrTerminated, ctxErr))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return NewErrorResult(ExitTerminated, fmt.Errorf("%s: %w (%s)", spec.Path, ErrTerminated, exitErr.ProcessState))
		}
		return NewExitCodeResult(ExitCode(code))
	}

	return NewErrorResult(ExitGeneralFailure, fmt.Errorf("waiting for %s: %w", spec.Path, err))
}

// Start spawns spec without waiting for it and without capturing its output.
// It is used to open a terminal window or an elevated installer that outlives zephyrup.
func (r *Runner) Start(spec ProcessSpec) error {
	if err := validateWorkDir(spec.Dir); err != nil {
		return &SpawnError{Path: spec.Path, Dir: spec.Dir, Kind: SpawnWorkDir, Err: err}
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = mergeEnv(r.environ(), spec.Env, goruntime.GOOS == "windows")
	}
	applySysProcAttr(cmd, spec.HideWindow)

	slog.Debug("starting detached process", "command", spec.String())
	if err := cmd.Start(); err != nil {
		return newSpawnError(spec, err)
	}
	return cmd.Process.Release()
}
