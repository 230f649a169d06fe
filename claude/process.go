package claude

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/bazelment/yoloswe/namecouncil/internal/ndjson"
	"github.com/bazelment/yoloswe/namecouncil/internal/procattr"
)

// stopGrace is how long the CLI gets to exit after SIGTERM.
const stopGrace = 500 * time.Millisecond

// processManager manages the Claude CLI process. The CLI runs in streaming
// input mode, so it stays alive across turns and reads user messages from
// stdin.
type processManager struct {
	stdin     io.WriteCloser
	stdout    io.ReadCloser
	stderr    io.ReadCloser
	cmd       *exec.Cmd
	reader    *ndjson.Reader
	exited    chan struct{}
	waitErr   error
	config    SessionConfig
	sessionID string
	mu        sync.Mutex
	writeMu   sync.Mutex
	started   bool
	stopping  bool
}

func newProcessManager(sessionID string, config SessionConfig) *processManager {
	return &processManager{
		config:    config,
		sessionID: sessionID,
	}
}

// BuildCLIArgs builds the CLI arguments from the config.
func (pm *processManager) BuildCLIArgs() ([]string, error) {
	args := []string{
		"--print",
		"--input-format", "stream-json",
		"--output-format", "stream-json",
		"--verbose",
	}

	if pm.sessionID != "" {
		args = append(args, "--session-id", pm.sessionID)
	}

	if pm.config.Model != "" {
		args = append(args, "--model", pm.config.Model)
	}

	if pm.config.SystemPrompt != "" {
		args = append(args, "--system-prompt", pm.config.SystemPrompt)
	}

	if len(pm.config.Agents) > 0 {
		agents, err := encodeAgents(pm.config.Agents)
		if err != nil {
			return nil, err
		}
		args = append(args, "--agents", agents)
	}

	for _, tool := range pm.config.AllowedTools {
		args = append(args, "--allowedTools", tool)
	}

	if len(pm.config.SettingSources) > 0 {
		sources := pm.config.SettingSources[0]
		for _, s := range pm.config.SettingSources[1:] {
			sources += "," + s
		}
		args = append(args, "--setting-sources", sources)
	}

	if len(pm.config.JSONSchema) > 0 {
		args = append(args, "--json-schema", string(pm.config.JSONSchema))
	}

	if pm.config.PermissionMode != "" && pm.config.PermissionMode != PermissionModeDefault {
		args = append(args, "--permission-mode", string(pm.config.PermissionMode))
	}

	// Add extra args (escape hatch)
	args = append(args, pm.config.ExtraArgs...)

	return args, nil
}

// Start spawns the CLI process.
func (pm *processManager) Start(ctx context.Context) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.started {
		return ErrAlreadyStarted
	}

	args, err := pm.BuildCLIArgs()
	if err != nil {
		return fmt.Errorf("build CLI args: %w", err)
	}

	cliPath := pm.config.CLIPath
	if cliPath == "" {
		cliPath = "claude"
	}

	pm.cmd = exec.CommandContext(ctx, cliPath, args...)
	pm.cmd.Env = os.Environ()
	for k, v := range pm.config.Env {
		pm.cmd.Env = append(pm.cmd.Env, k+"="+v)
	}
	procattr.Set(pm.cmd)
	if pm.config.WorkDir != "" {
		pm.cmd.Dir = pm.config.WorkDir
	}

	pm.stdin, err = pm.cmd.StdinPipe()
	if err != nil {
		return &ProcessError{Message: "failed to create stdin pipe", Cause: err}
	}
	pm.stdout, err = pm.cmd.StdoutPipe()
	if err != nil {
		return &ProcessError{Message: "failed to create stdout pipe", Cause: err}
	}
	pm.stderr, err = pm.cmd.StderrPipe()
	if err != nil {
		return &ProcessError{Message: "failed to create stderr pipe", Cause: err}
	}
	pm.reader = ndjson.NewReader(pm.stdout)

	if err := pm.cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return &CLINotFoundError{Path: cliPath, Cause: err}
		}
		return &ProcessError{Message: "failed to start CLI process", Cause: err}
	}

	pm.exited = make(chan struct{})
	pm.started = true
	return nil
}

// WriteLine writes one JSON line to the CLI's stdin.
func (pm *processManager) WriteLine(line []byte) error {
	pm.mu.Lock()
	stdin, stopping := pm.stdin, pm.stopping
	pm.mu.Unlock()

	if stdin == nil {
		return ErrNotStarted
	}
	if stopping {
		return ErrSessionClosed
	}

	pm.writeMu.Lock()
	defer pm.writeMu.Unlock()
	if _, err := stdin.Write(append(line, '\n')); err != nil {
		return &ProcessError{Message: "failed to write to CLI stdin", Cause: err}
	}
	return nil
}

// ReadLine reads the next JSON line from stdout.
func (pm *processManager) ReadLine() ([]byte, error) {
	pm.mu.Lock()
	reader := pm.reader
	pm.mu.Unlock()

	if reader == nil {
		return nil, ErrNotStarted
	}
	return reader.ReadLine()
}

// Stderr returns the stderr reader.
func (pm *processManager) Stderr() io.Reader {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.stderr
}

// Wait blocks until the process exits and returns its exit error. It must
// be called once, after stdout has been drained.
func (pm *processManager) Wait() error {
	pm.mu.Lock()
	cmd, exited := pm.cmd, pm.exited
	pm.mu.Unlock()
	if cmd == nil {
		return ErrNotStarted
	}

	err := cmd.Wait()
	pm.mu.Lock()
	pm.waitErr = err
	pm.mu.Unlock()
	close(exited)
	return err
}

// ExitError converts the process exit status into a ProcessError, or nil if
// the process has not exited or exited cleanly.
func (pm *processManager) ExitError(stderr string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.waitErr == nil {
		return nil
	}
	pe := &ProcessError{Message: "CLI process exited", Cause: pm.waitErr, Stderr: stderr}
	var exitErr *exec.ExitError
	if errors.As(pm.waitErr, &exitErr) {
		pe.ExitCode = exitErr.ExitCode()
	}
	return pe
}

// Stop closes stdin so the CLI can finish, then terminates the process group
// if it does not exit promptly.
func (pm *processManager) Stop() error {
	pm.mu.Lock()
	if !pm.started || pm.stopping {
		pm.mu.Unlock()
		return nil
	}
	pm.stopping = true
	stdin, cmd, exited := pm.stdin, pm.cmd, pm.exited
	pm.mu.Unlock()

	_ = stdin.Close()

	select {
	case <-exited:
		return nil
	case <-time.After(stopGrace):
	}

	procattr.Terminate(cmd.Process, exited, stopGrace)
	return nil
}
