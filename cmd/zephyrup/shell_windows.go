// SPDX-License-Identifier: MPL-2.0

//go:build windows

package cmd

import (
	"io"
	"os"
	"os/exec"

	"golang.org/x/sys/windows"
)

// runInteractive runs c on the caller's console. Windows consoles need no
// pseudo-terminal; virtual terminal processing is enabled so the shell's
// escape sequences render.
func runInteractive(c *exec.Cmd, stdin io.Reader, stdout io.Writer) error {
	if f, ok := stdout.(*os.File); ok {
		h := windows.Handle(f.Fd())
		var mode uint32
		if err := windows.GetConsoleMode(h, &mode); err == nil {
			_ = windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
			defer func() { _ = windows.SetConsoleMode(h, mode) }()
		}
	}
	c.Stdin, c.Stdout, c.Stderr = stdin, stdout, os.Stderr
	return c.Run()
}
