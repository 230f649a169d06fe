package claude

import (
	"encoding/json"
	"fmt"
)

// AgentDefinition describes a sub-agent the main agent can delegate to
// through the Task tool.
type AgentDefinition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Prompt      string   `yaml:"prompt"`
	Model       string   `yaml:"model,omitempty"`
	Tools       []string `yaml:"tools,omitempty"`
}

type agentJSON struct {
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// encodeAgents renders the roster in the object form the --agents flag
// expects, keyed by agent name.
func encodeAgents(agents []AgentDefinition) (string, error) {
	m := make(map[string]agentJSON, len(agents))
	for _, a := range agents {
		if a.Name == "" {
			return "", fmt.Errorf("agent definition without a name")
		}
		if _, dup := m[a.Name]; dup {
			return "", fmt.Errorf("duplicate agent %q", a.Name)
		}
		m[a.Name] = agentJSON{
			Description: a.Description,
			Prompt:      a.Prompt,
			Model:       a.Model,
			Tools:       a.Tools,
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal agents: %w", err)
	}
	return string(b), nil
}
