// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zephyrup/zephyrup/internal/runtime"
	"github.com/zephyrup/zephyrup/internal/venv"
)

const (
	// NotStarted is the phase before the first step runs.
	NotStarted Phase = iota
	// Running means Status.Step is executing.
	Running
	// Succeeded means every included step finished successfully.
	Succeeded
	// Failed means Status.Step failed and no later step ran.
	Failed
)

var (
	// ErrStepFailed is the sentinel error wrapped by StepError.
	ErrStepFailed = errors.New("provisioning step failed")
	// ErrInvalidStep is returned for a step with neither or both of Command and Local.
	ErrInvalidStep = errors.New("invalid step")
	// ErrInterpreterMissing is returned when the virtual environment has no interpreter.
	ErrInterpreterMissing = errors.New("virtual environment interpreter not found")
)

type (
	// Phase is the state of a pipeline run.
	Phase int

	// Status is a snapshot of a pipeline run reported to an Observer.
	Status struct {
		Phase Phase
		// Step is the plan index of the running or failed step, -1 otherwise.
		Step int
		// Name is the name of Step.
		Name string
		// Err is the failure cause in the Failed phase.
		Err error
	}

	// Observer is notified on every phase transition.
	Observer func(Status)

	// State carries values established by earlier steps to later ones.
	State struct {
		// Target is the directory the plan works in.
		Target string
		// Venv is the virtual environment layout, once known.
		Venv venv.Layout
		// Interpreter is the resolved venv interpreter.
		Interpreter string
		// Overlay activates Venv for child processes.
		Overlay venv.Overlay
	}

	// Step is one unit of a Plan. Exactly one of Command and Local is set.
	Step struct {
		// Name identifies the step in errors and logs.
		Name string
		// Milestone is the progress line emitted before the step runs.
		Milestone string
		// When excludes the step when it returns false. Nil means always.
		When func(*State) bool
		// Command builds the process to run from the current state.
		Command func(*State) (runtime.ProcessSpec, error)
		// Local runs in-process.
		Local func(context.Context, *State) error
	}

	// Plan is an ordered list of steps.
	Plan []Step

	// StepError describes the first failing step of a run.
	StepError struct {
		// Index is the plan index of the failing step.
		Index int
		Name  string
		// Command is the rendered command line, empty for local steps.
		Command  string
		ExitCode runtime.ExitCode
		Cause    error
		// Tail holds the last output lines of the failing command.
		Tail []string
	}
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Names returns the step names in order.
func (p Plan) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return names
}

// Included reports whether the step runs for state.
func (s Step) Included(state *State) bool {
	return s.When == nil || s.When(state)
}

func (s Step) validate() error {
	if (s.Command == nil) == (s.Local == nil) {
		return fmt.Errorf("%w: %s must set exactly one of Command and Local", ErrInvalidStep, s.Name)
	}
	return nil
}

// Error implements the error interface.
func (e *StepError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "step %d (%s) failed", e.Index+1, e.Name)
	if e.Command != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Command)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both ErrStepFailed and the cause to errors.Is/As.
func (e *StepError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrStepFailed}
	}
	return []error{ErrStepFailed, e.Cause}
}

// Activate points state at the virtual environment root on goos and computes
// its overlay from the host search path. It fails when the interpreter is missing.
func (s *State) Activate(root, goos string) error {
	layout := venv.Layout{Root: root, GOOS: goos}
	if !layout.Exists() {
		return fmt.Errorf("%w: %s", ErrInterpreterMissing, layout.Interpreter())
	}
	s.Venv = layout
	s.Interpreter = layout.Interpreter()
	s.Overlay = layout.Overlay(os.Getenv(layout.PathVar()))
	return nil
}
