// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitTerminated marks a process killed by a signal or by context cancellation.
	ExitTerminated ExitCode = -1
	// ExitGeneralFailure is used when a failure has no process exit code of its own.
	ExitGeneralFailure ExitCode = 1
	// ExitPermissionDenied mirrors the shell convention for a non-executable file.
	ExitPermissionDenied ExitCode = 126
	// ExitNotFound mirrors the shell convention for a missing command.
	ExitNotFound ExitCode = 127
)

// ErrNonZeroExit is the sentinel error wrapped by ExitError.
var ErrNonZeroExit = errors.New("process exited with non-zero status")

type (
	// ExitCode represents a process exit status code.
	// The zero value (0) means success.
	ExitCode int

	// ExitError describes a process that ran and exited with a non-zero code.
	ExitError struct {
		Code ExitCode
	}
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Code == ExitTerminated {
		return "process was terminated"
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns ErrNonZeroExit so callers can use errors.Is for programmatic detection.
func (e *ExitError) Unwrap() error { return ErrNonZeroExit }

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
