// Package config loads the namecouncil YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bazelment/yoloswe/namecouncil/claude"
	"github.com/bazelment/yoloswe/namecouncil/conference"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "namecouncil.yaml"

// DefaultEventTimeout bounds each wait for an agent event.
const DefaultEventTimeout = 10 * time.Minute

// Config is the file-level configuration. Zero values fall back to the
// defaults applied by Load.
type Config struct {
	Env     map[string]string `yaml:"env"`
	Model   string            `yaml:"model"`
	CLIPath string            `yaml:"cli_path"`
	WorkDir string            `yaml:"work_dir"`

	// PermissionMode is passed to the CLI unless it is "default".
	PermissionMode string `yaml:"permission_mode" validate:"omitempty,oneof=default acceptEdits plan bypassPermissions"`

	// SystemPromptFile replaces the built-in moderator prompt.
	SystemPromptFile string `yaml:"system_prompt_file"`

	// RecordingDir receives session traces; empty disables recording.
	RecordingDir string `yaml:"recording_dir"`

	// LogDir receives a log file per run in addition to stderr.
	LogDir string `yaml:"log_dir"`

	// MetricsFile receives Prometheus text-format metrics on exit.
	MetricsFile string `yaml:"metrics_file"`

	GlamourStyle string `yaml:"glamour_style" validate:"omitempty,oneof=auto dark light notty"`

	// Agents replace the default expert panel.
	Agents []claude.AgentDefinition `yaml:"agents" validate:"dive"`

	MaxRetries *int `yaml:"max_retries" validate:"omitempty,min=0"`

	// EventTimeout of 0 disables the per-event wait limit.
	EventTimeout *Duration `yaml:"event_timeout" validate:"omitempty,min=0"`

	NoColor bool `yaml:"no_color"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field constraints and the agent roster.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		switch {
		case a.Name == "":
			return fmt.Errorf("invalid config: agents[%d] has no name", i)
		case a.Prompt == "":
			return fmt.Errorf("invalid config: agent %q has no prompt", a.Name)
		case seen[a.Name]:
			return fmt.Errorf("invalid config: duplicate agent %q", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = "sonnet"
	}
	if c.PermissionMode == "" {
		c.PermissionMode = string(claude.PermissionModeDefault)
	}
	if c.MaxRetries == nil {
		n := conference.DefaultMaxRetries
		c.MaxRetries = &n
	}
	if c.EventTimeout == nil {
		d := Duration(DefaultEventTimeout)
		c.EventTimeout = &d
	}
	if c.GlamourStyle == "" {
		c.GlamourStyle = "auto"
	}
}

// Retries returns the configured retry budget.
func (c *Config) Retries() int {
	if c.MaxRetries == nil {
		return conference.DefaultMaxRetries
	}
	return *c.MaxRetries
}

// Timeout returns the per-event wait limit; zero waits forever.
func (c *Config) Timeout() time.Duration {
	if c.EventTimeout == nil {
		return DefaultEventTimeout
	}
	return time.Duration(*c.EventTimeout)
}

// Duration is a time.Duration that also decodes bare integers as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	*d = Duration(v)
	return nil
}

// Experts returns the conference panel: the configured agents, or the
// default panel when none are configured. An agent's description is used
// as the expert's role.
func (c *Config) Experts() []conference.Expert {
	if len(c.Agents) == 0 {
		return conference.DefaultExperts()
	}
	experts := make([]conference.Expert, 0, len(c.Agents))
	for _, a := range c.Agents {
		role := a.Description
		if role == "" {
			role = a.Name
		}
		experts = append(experts, conference.Expert{Name: a.Name, Role: role, Prompt: a.Prompt})
	}
	return experts
}

// AgentDefinitions returns the sub-agents for the CLI. Configured agents
// keep their model and tool restrictions.
func (c *Config) AgentDefinitions() []claude.AgentDefinition {
	if len(c.Agents) > 0 {
		return c.Agents
	}
	experts := conference.DefaultExperts()
	agents := make([]claude.AgentDefinition, 0, len(experts))
	for _, e := range experts {
		agents = append(agents, claude.AgentDefinition{Name: e.Name, Description: e.Role, Prompt: e.Prompt})
	}
	return agents
}

// SystemPrompt returns the moderator prompt, read from SystemPromptFile
// when set.
func (c *Config) SystemPrompt() (string, error) {
	if c.SystemPromptFile == "" {
		return conference.ModeratorPrompt(c.Experts()), nil
	}
	data, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return string(data), nil
}
