//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr detaches the daemon into its own process group so the
// CLI exiting does not take the server down with it.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
