// SPDX-License-Identifier: MPL-2.0

//go:build windows

package runtime

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// applySysProcAttr stops unattended steps from flashing a console window.
func applySysProcAttr(cmd *exec.Cmd, hide bool) {
	if !hide {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
