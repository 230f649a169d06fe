//go:build !linux

// Package procattr places the CLI subprocess in its own process group so the
// whole tree can be signalled and does not outlive the orchestrator.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set puts cmd in a new process group.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
