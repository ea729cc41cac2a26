// SPDX-License-Identifier: MPL-2.0

// Package venv computes the paths and environment overlay of a Python virtual environment.
//
// zephyrup never "activates" a virtual environment in its own process. Instead every
// spawned tool receives an Overlay that puts the environment's executable directory in
// front of the inherited search path and sets VIRTUAL_ENV, which is what the activate
// scripts do.
package venv

import (
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
)

const (
	// DirName is the virtual environment directory created inside a Zephyr workspace.
	DirName = ".venv"
	// MarkerVar tells Python tooling which environment is active.
	MarkerVar = "VIRTUAL_ENV"
)

type (
	// Layout describes a virtual environment root on a given operating system.
	Layout struct {
		Root string
		GOOS string
	}

	// Overlay is the set of variables applied on top of a child's inherited environment.
	Overlay map[string]string
)

// New returns the Layout of root on the host operating system.
func New(root string) Layout {
	return Layout{Root: root, GOOS: goruntime.GOOS}
}

// InWorkspace returns the Layout of the .venv directory inside workspace.
func InWorkspace(workspace string) Layout {
	return New(filepath.Join(workspace, DirName))
}

func (l Layout) windows() bool { return l.GOOS == "windows" }

// join builds a path using the target OS separator, so Windows layouts can be computed anywhere.
func (l Layout) join(elem ...string) string {
	if l.windows() {
		return strings.Join(append([]string{strings.TrimRight(l.Root, `\/`)}, elem...), `\`)
	}
	return filepath.Join(append([]string{l.Root}, elem...)...)
}

// BinDir is the directory holding the environment's executables.
func (l Layout) BinDir() string {
	if l.windows() {
		return l.join("Scripts")
	}
	return l.join("bin")
}

// Interpreter is the environment's Python executable.
func (l Layout) Interpreter() string {
	return l.Executable("python")
}

// Executable returns the path of a console script such as west or pip.
func (l Layout) Executable(name string) string {
	if l.windows() {
		return l.join("Scripts", name+".exe")
	}
	return l.join("bin", name)
}

// ActivateScript is the script a shell sources to activate the environment.
func (l Layout) ActivateScript() string {
	if l.windows() {
		return l.join("Scripts", "activate.bat")
	}
	return l.join("bin", "activate")
}

// Exists reports whether the interpreter is present on disk.
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Interpreter())
	return err == nil && !info.IsDir()
}

// PathVar is the search-path variable name on the target OS.
func (l Layout) PathVar() string {
	if l.windows() {
		return "Path"
	}
	return "PATH"
}

// ListSeparator is the search-path list separator on the target OS.
func (l Layout) ListSeparator() string {
	if l.windows() {
		return ";"
	}
	return ":"
}

// Overlay returns the activation variables given the inherited search path.
// An empty inherited path yields only the executable directory.
func (l Layout) Overlay(inheritedPath string) Overlay {
	path := l.BinDir()
	if inheritedPath != "" {
		path += l.ListSeparator() + inheritedPath
	}
	return Overlay{
		l.PathVar(): path,
		MarkerVar:   l.Root,
	}
}

// Build computes the overlay for root on goos with the given inherited search path.
// It is a pure function of its inputs.
func Build(root, goos, inheritedPath string) Overlay {
	return Layout{Root: root, GOOS: goos}.Overlay(inheritedPath)
}

// ActivationOverlay returns the overlay for root on the host, prefixing the current PATH.
// The calling process's own environment is never modified.
func ActivationOverlay(root string) Overlay {
	return New(root).Overlay(os.Getenv("PATH"))
}
