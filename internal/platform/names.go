// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
var ErrInvalidName = errors.New("invalid directory name")

// windowsReservedNames cannot be used as file names on Windows regardless of extension.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// InvalidNameError explains why a project directory name was rejected.
type InvalidNameError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid directory name %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidName so callers can use errors.Is for programmatic detection.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// IsWindowsReservedName checks if a filename is a Windows reserved name,
// ignoring any extension.
func IsWindowsReservedName(name string) bool {
	upper := strings.ToUpper(name)
	if idx := strings.LastIndex(upper, "."); idx != -1 {
		upper = upper[:idx]
	}
	return windowsReservedNames[upper]
}

// ValidateDirName checks that name can be created as a single directory on every
// supported OS. West creates the workspace with this name.
func ValidateDirName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &InvalidNameError{Name: name, Reason: "name is empty"}
	case name == "." || name == "..":
		return &InvalidNameError{Name: name, Reason: "name refers to a directory alias"}
	case strings.ContainsAny(name, `/\:*?"<>|`):
		return &InvalidNameError{Name: name, Reason: "name contains a path separator or reserved character"}
	case strings.HasSuffix(name, ".") || strings.HasSuffix(name, " "):
		return &InvalidNameError{Name: name, Reason: "name ends with a dot or space"}
	case IsWindowsReservedName(name):
		return &InvalidNameError{Name: name, Reason: "name is reserved on Windows"}
	}
	return nil
}
