package procattr

import (
	"os"
	"syscall"
	"time"
)

// SignalGroup delivers sig to every process in p's group.
func SignalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	return syscall.Kill(-p.Pid, sig)
}

// KillGroup sends SIGKILL to p's group.
func KillGroup(p *os.Process) error {
	return SignalGroup(p, syscall.SIGKILL)
}

// Terminate sends SIGTERM to p's group and escalates to SIGKILL if exited is
// not signalled within grace. It reports whether the group exited after
// SIGTERM alone.
func Terminate(p *os.Process, exited <-chan struct{}, grace time.Duration) bool {
	if p == nil {
		return true
	}
	_ = SignalGroup(p, syscall.SIGTERM)

	select {
	case <-exited:
		return true
	case <-time.After(grace):
	}

	_ = KillGroup(p)
	select {
	case <-exited:
	case <-time.After(100 * time.Millisecond):
	}
	return false
}
