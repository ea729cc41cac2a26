// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// Spawn failure kinds.
const (
	SpawnNotFound SpawnErrorKind = iota + 1
	SpawnPermissionDenied
	SpawnWorkDir
	SpawnOther
)

var (
	// ErrSpawn is the sentinel error wrapped by SpawnError.
	ErrSpawn = errors.New("process could not be started")

	// ErrTerminated reports a process killed before it could exit on its own.
	ErrTerminated = errors.New("process terminated")
)

type (
	// SpawnErrorKind classifies why a process could not be started.
	SpawnErrorKind int

	// SpawnError is returned when no process was ever started.
	// The sink never receives events for such a process.
	SpawnError struct {
		Path string
		Dir  string
		Kind SpawnErrorKind
		Err  error
	}
)

// String returns a short human label for the kind.
func (k SpawnErrorKind) String() string {
	switch k {
	case SpawnNotFound:
		return "executable not found"
	case SpawnPermissionDenied:
		return "permission denied"
	case SpawnWorkDir:
		return "bad working directory"
	case SpawnOther:
		return "spawn failed"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	if e.Kind == SpawnWorkDir {
		return fmt.Sprintf("cannot start %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("cannot start %s: %s", e.Path, e.Kind)
}

// Unwrap exposes both ErrSpawn and the underlying OS error.
func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// ExitCode maps the spawn failure onto the shell's conventional status.
func (e *SpawnError) ExitCode() ExitCode {
	switch e.Kind {
	case SpawnNotFound:
		return ExitNotFound
	case SpawnPermissionDenied:
		return ExitPermissionDenied
	default:
		return ExitGeneralFailure
	}
}

func newSpawnError(spec ProcessSpec, err error) *SpawnError {
	kind := SpawnOther
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		kind = SpawnNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = SpawnPermissionDenied
	}
	return &SpawnError{Path: spec.Path, Dir: spec.Dir, Kind: kind, Err: err}
}

// IsSpawnError reports whether err (or anything it wraps) is a SpawnError.
func IsSpawnError(err error) bool {
	return errors.Is(err, ErrSpawn)
}
