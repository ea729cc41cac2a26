// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package cmd

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// runInteractive runs c on a pseudo-terminal wired to the caller's terminal.
// Without a terminal on stdin the shell inherits the plain streams.
func runInteractive(c *exec.Cmd, stdin io.Reader, stdout io.Writer) error {
	in, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		c.Stdin, c.Stdout, c.Stderr = stdin, stdout, os.Stderr
		return c.Run()
	}

	ptmx, err := pty.Start(c)
	if err != nil {
		return err
	}
	defer func() { _ = ptmx.Close() }()

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	defer func() {
		signal.Stop(resize)
		close(resize)
	}()
	go func() {
		for range resize {
			if err := pty.InheritSize(in, ptmx); err != nil {
				slog.Debug("failed to resize pty", "error", err)
			}
		}
	}()
	resize <- syscall.SIGWINCH

	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return err
	}
	defer func() { _ = term.Restore(int(in.Fd()), state) }()

	go func() { _, _ = io.Copy(ptmx, in) }()
	_, _ = io.Copy(stdout, ptmx)

	return c.Wait()
}
