// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zephyrup/zephyrup/internal/runtime"
)

// DefaultTailLines is the number of output lines kept for a StepError.
const DefaultTailLines = 20

type (
	// Executor runs one process to completion, streaming its output to sink.
	// *runtime.Runner implements it.
	Executor interface {
		Run(ctx context.Context, spec runtime.ProcessSpec, sink runtime.LogSink) *runtime.Result
	}

	// Pipeline runs plans sequentially through an Executor.
	Pipeline struct {
		exec      Executor
		observer  Observer
		tailLines int
	}

	// PipelineOption configures a Pipeline.
	PipelineOption func(*Pipeline)
)

// WithObserver registers fn for phase transitions.
func WithObserver(fn Observer) PipelineOption {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithTailLines sets how many output lines a StepError keeps.
func WithTailLines(n int) PipelineOption {
	return func(p *Pipeline) {
		p.tailLines = n
	}
}

// NewPipeline creates a Pipeline running processes through exec.
func NewPipeline(exec Executor, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{exec: exec, tailLines: DefaultTailLines}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the included steps of plan in order. Each step is announced
// with a milestone event on sink, and step N+1 starts only after step N's
// process has exited. The first failure stops the run and is returned as a
// *StepError. Cancelling ctx kills the running child and fails its step.
func (p *Pipeline) Run(ctx context.Context, plan Plan, state *State, sink runtime.LogSink) error {
	if sink == nil {
		sink = runtime.Discard
	}
	for _, step := range plan {
		if err := step.validate(); err != nil {
			return err
		}
	}

	p.notify(Status{Phase: NotStarted, Step: -1})

	for i, step := range plan {
		if !step.Included(state) {
			slog.Debug("skipping step", "step", step.Name)
			continue
		}

		p.notify(Status{Phase: Running, Step: i, Name: step.Name})

		if err := ctx.Err(); err != nil {
			return p.fail(&StepError{Index: i, Name: step.Name, ExitCode: runtime.ExitTerminated, Cause: err})
		}

		if step.Milestone != "" {
			sink.Emit(runtime.LogEvent{Stream: runtime.StreamInfo, Text: step.Milestone + "\n"})
		}

		if err := p.runStep(ctx, i, step, state, sink); err != nil {
			return p.fail(err)
		}
	}

	p.notify(Status{Phase: Succeeded, Step: -1})
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, i int, step Step, state *State, sink runtime.LogSink) *StepError {
	if step.Local != nil {
		slog.Debug("running local step", "step", step.Name)
		if err := step.Local(ctx, state); err != nil {
			return &StepError{Index: i, Name: step.Name, ExitCode: runtime.ExitGeneralFailure, Cause: err}
		}
		return nil
	}

	spec, err := step.Command(state)
	if err != nil {
		return &StepError{Index: i, Name: step.Name, ExitCode: runtime.ExitGeneralFailure, Cause: err}
	}

	slog.Debug("running step", "step", step.Name, "command", spec.String(), "dir", spec.Dir)
	tail := runtime.NewTailSink(p.tailLines)
	res := p.exec.Run(ctx, spec, runtime.MultiSink(sink, tail))
	if res.Success() {
		return nil
	}
	return &StepError{
		Index:    i,
		Name:     step.Name,
		Command:  spec.String(),
		ExitCode: res.ExitCode,
		Cause:    res.Err(),
		Tail:     tail.Lines(),
	}
}

func (p *Pipeline) fail(err *StepError) error {
	slog.Debug("pipeline failed", "step", err.Name, "exit_code", int(err.ExitCode), "error", err.Cause)
	p.notify(Status{Phase: Failed, Step: err.Index, Name: err.Name, Err: err})
	return err
}

func (p *Pipeline) notify(s Status) {
	if p.observer != nil {
		p.observer(s)
	}
}

// AsStepError extracts a *StepError from err's chain.
func AsStepError(err error) (*StepError, bool) {
	var se *StepError
	ok := errors.As(err, &se)
	return se, ok
}
