package claude

import (
	"encoding/json"
	"log/slog"
)

// PermissionMode controls tool execution approval.
type PermissionMode string

const (
	PermissionModeDefault     PermissionMode = "default"
	PermissionModeAcceptEdits PermissionMode = "acceptEdits"
	PermissionModePlan        PermissionMode = "plan"
	PermissionModeBypass      PermissionMode = "bypassPermissions"
)

// SessionConfig holds session configuration.
type SessionConfig struct {
	// Logger receives session diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger

	// StderrHandler is an optional handler for CLI stderr output.
	StderrHandler func([]byte)

	// Env is appended to the inherited environment of the CLI process.
	Env map[string]string

	// JSONSchema constrains the structured output of each turn's result.
	JSONSchema json.RawMessage

	// Model to use, passed through to --model.
	Model string

	// SystemPrompt replaces the CLI's default system prompt.
	SystemPrompt string

	// PermissionMode controls tool execution approval.
	PermissionMode PermissionMode

	// WorkDir is the working directory of the CLI process.
	WorkDir string

	// CLIPath is the path to the Claude CLI binary (uses "claude" in PATH if empty).
	CLIPath string

	// RecordingDir receives a JSONL trace per session when recording is on.
	RecordingDir string

	// Agents are sub-agents offered to the main agent.
	Agents []AgentDefinition

	// AllowedTools limits the tools the agent may use.
	AllowedTools []string

	// SettingSources selects which settings files the CLI loads.
	SettingSources []string

	// ExtraArgs are appended verbatim to the CLI command line.
	ExtraArgs []string

	// EventBufferSize is the inbound message buffer size (default: 100).
	EventBufferSize int

	// RecordMessages enables session recording.
	RecordMessages bool
}

// SessionOption is a functional option for configuring a Session.
type SessionOption func(*SessionConfig)

// WithModel sets the model to use.
func WithModel(model string) SessionOption {
	return func(c *SessionConfig) {
		c.Model = model
	}
}

// WithWorkDir sets the working directory.
func WithWorkDir(dir string) SessionOption {
	return func(c *SessionConfig) {
		c.WorkDir = dir
	}
}

// WithPermissionMode sets the permission mode.
func WithPermissionMode(mode PermissionMode) SessionOption {
	return func(c *SessionConfig) {
		c.PermissionMode = mode
	}
}

// WithCLIPath sets a custom CLI binary path.
func WithCLIPath(path string) SessionOption {
	return func(c *SessionConfig) {
		c.CLIPath = path
	}
}

// WithSystemPrompt sets a custom system prompt.
func WithSystemPrompt(prompt string) SessionOption {
	return func(c *SessionConfig) {
		c.SystemPrompt = prompt
	}
}

// WithAgents sets the sub-agent roster.
func WithAgents(agents ...AgentDefinition) SessionOption {
	return func(c *SessionConfig) {
		c.Agents = append(c.Agents, agents...)
	}
}

// WithAllowedTools restricts the tools available to the agent.
func WithAllowedTools(tools ...string) SessionOption {
	return func(c *SessionConfig) {
		c.AllowedTools = tools
	}
}

// WithSettingSources selects the settings files the CLI loads.
func WithSettingSources(sources ...string) SessionOption {
	return func(c *SessionConfig) {
		c.SettingSources = sources
	}
}

// WithJSONSchema requests structured output matching schema.
func WithJSONSchema(schema json.RawMessage) SessionOption {
	return func(c *SessionConfig) {
		c.JSONSchema = schema
	}
}

// WithEnv adds environment variables for the CLI process.
func WithEnv(env map[string]string) SessionOption {
	return func(c *SessionConfig) {
		if c.Env == nil {
			c.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.Env[k] = v
		}
	}
}

// WithExtraArgs appends raw CLI arguments.
func WithExtraArgs(args ...string) SessionOption {
	return func(c *SessionConfig) {
		c.ExtraArgs = append(c.ExtraArgs, args...)
	}
}

// WithRecording enables session recording.
func WithRecording(dir string) SessionOption {
	return func(c *SessionConfig) {
		c.RecordMessages = true
		if dir != "" {
			c.RecordingDir = dir
		}
	}
}

// WithEventBufferSize sets the inbound message buffer size.
func WithEventBufferSize(size int) SessionOption {
	return func(c *SessionConfig) {
		c.EventBufferSize = size
	}
}

// WithStderrHandler sets a handler for CLI stderr output.
func WithStderrHandler(h func([]byte)) SessionOption {
	return func(c *SessionConfig) {
		c.StderrHandler = h
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *SessionConfig) {
		c.Logger = logger
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() SessionConfig {
	return SessionConfig{
		Model:           "sonnet",
		PermissionMode:  PermissionModeDefault,
		EventBufferSize: 100,
		RecordingDir:    ".claude-sessions",
	}
}
