package procattr

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startGroup(t *testing.T, name string, args ...string) (*exec.Cmd, chan struct{}) {
	t.Helper()
	cmd := exec.Command(name, args...)
	Set(cmd)
	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
	require.NoError(t, cmd.Start())

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	return cmd, exited
}

func TestNilProcess(t *testing.T) {
	t.Parallel()
	assert.NoError(t, SignalGroup(nil, syscall.SIGTERM))
	assert.NoError(t, KillGroup(nil))
	assert.True(t, Terminate(nil, nil, time.Millisecond))
}

func TestTerminate_GracefulExit(t *testing.T) {
	t.Parallel()
	cmd, exited := startGroup(t, "sleep", "60")

	assert.True(t, Terminate(cmd.Process, exited, 5*time.Second))
	<-exited
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	t.Parallel()
	cmd, exited := startGroup(t, "sh", "-c", "trap '' TERM; sleep 60")

	// Give the shell time to install the trap.
	time.Sleep(200 * time.Millisecond)
	assert.False(t, Terminate(cmd.Process, exited, 100*time.Millisecond))

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process group survived SIGKILL")
	}
}
