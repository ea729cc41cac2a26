// SPDX-License-Identifier: MPL-2.0

package project

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WestDir marks a directory as a west workspace.
const WestDir = ".west"

var (
	// ErrCMakeListsNotFound is returned when app/app/CMakeLists.txt is missing.
	ErrCMakeListsNotFound = errors.New("CMakeLists.txt not found in app/app/ directory")
	// ErrNoProjectDirective is returned when CMakeLists.txt has no project() line.
	ErrNoProjectDirective = errors.New("no project() directive found in CMakeLists.txt")
	// ErrNotDirectory is returned by DeleteDirectory for paths that are not directories.
	ErrNotDirectory = errors.New("path is not a directory")
)

// CMakeListsPath returns the application CMakeLists.txt of a workspace.
func CMakeListsPath(workspace string) string {
	return filepath.Join(workspace, "app", "app", "CMakeLists.txt")
}

// CMakeExists reports whether the workspace has an application CMakeLists.txt.
func CMakeExists(workspace string) bool {
	info, err := os.Stat(CMakeListsPath(workspace))
	return err == nil && !info.IsDir()
}

// IsWorkspace reports whether dir contains a .west directory.
func IsWorkspace(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, WestDir))
	return err == nil && info.IsDir()
}

// DetectName returns the first argument of the first project() directive in
// the workspace's application CMakeLists.txt. The directive is matched case
// insensitively; the name keeps its case.
func DetectName(workspace string) (string, error) {
	path := CMakeListsPath(workspace)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrCMakeListsNotFound, path)
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if name, ok := parseProjectDirective(scanner.Text()); ok {
			return name, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return "", fmt.Errorf("%w: %s", ErrNoProjectDirective, path)
}

func parseProjectDirective(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(strings.ToLower(trimmed), "project(") {
		return "", false
	}
	start := strings.IndexByte(trimmed, '(')
	end := strings.LastIndexByte(trimmed, ')')
	if end <= start {
		return "", false
	}
	fields := strings.Fields(trimmed[start+1 : end])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// DeleteDirectory removes a project directory tree. The path must exist and be a directory.
func DeleteDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("delete project %s: %w", path, ErrNotDirectory)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete project %s: %w", path, err)
	}
	return nil
}
