// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

type (
	// ProcessSpec describes one external command invocation.
	// Values are treated as immutable; the With* helpers return modified copies.
	ProcessSpec struct {
		// Path is the executable, either an absolute path or a name resolved through PATH.
		Path string
		// Args are the arguments passed after Path.
		Args []string
		// Dir is the working directory. Empty means the caller's directory.
		// A non-empty Dir must exist before spawn.
		Dir string
		// Env is applied on top of the inherited environment.
		Env map[string]string
		// HideWindow suppresses a console window for unattended steps on Windows.
		HideWindow bool
	}

	// Result contains the terminal status of a process.
	Result struct {
		// ExitCode is the exit code of the process.
		ExitCode ExitCode
		// Error contains any error that prevented the process from starting or
		// finishing normally. It is a *SpawnError when nothing was started.
		Error error
		// Output contains captured stdout (Capture only).
		Output string
		// ErrOutput contains captured stderr (Capture only).
		ErrOutput string
	}
)

// Command returns a ProcessSpec for path with args.
func Command(path string, args ...string) ProcessSpec {
	return ProcessSpec{Path: path, Args: slices.Clone(args)}
}

// WithArgs returns a copy of s with extra arguments appended.
func (s ProcessSpec) WithArgs(args ...string) ProcessSpec {
	out := s.clone()
	out.Args = append(out.Args, args...)
	return out
}

// WithDir returns a copy of s running in dir.
func (s ProcessSpec) WithDir(dir string) ProcessSpec {
	out := s.clone()
	out.Dir = dir
	return out
}

// WithEnv returns a copy of s with env merged over its existing overlay.
func (s ProcessSpec) WithEnv(env map[string]string) ProcessSpec {
	out := s.clone()
	if out.Env == nil && len(env) > 0 {
		out.Env = make(map[string]string, len(env))
	}
	maps.Copy(out.Env, env)
	return out
}

// Hidden returns a copy of s that suppresses the console window on Windows.
func (s ProcessSpec) Hidden() ProcessSpec {
	out := s.clone()
	out.HideWindow = true
	return out
}

// String renders the command line with POSIX quoting, for messages and logs.
func (s ProcessSpec) String() string {
	words := make([]string, 0, len(s.Args)+1)
	for _, w := range append([]string{s.Path}, s.Args...) {
		q, err := syntax.Quote(w, syntax.LangPOSIX)
		if err != nil {
			q = fmt.Sprintf("%q", w)
		}
		words = append(words, q)
	}
	return strings.Join(words, " ")
}

func (s ProcessSpec) clone() ProcessSpec {
	out := s
	out.Args = slices.Clone(s.Args)
	if s.Env != nil {
		out.Env = maps.Clone(s.Env)
	}
	return out
}

// Success reports whether the process started and exited with code 0.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// Err returns nil on success, r.Error when set, or an *ExitError for a
// non-zero exit code.
func (r *Result) Err() error {
	switch {
	case r.Error != nil:
		return r.Error
	case !r.ExitCode.IsSuccess():
		return &ExitError{Code: r.ExitCode}
	default:
		return nil
	}
}
