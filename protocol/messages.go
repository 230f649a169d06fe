// Package protocol defines the stream-json messages exchanged with the Claude
// CLI when it runs with --input-format/--output-format stream-json.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType discriminates between message kinds.
type MessageType string

const (
	MessageTypeSystem    MessageType = "system"
	MessageTypeAssistant MessageType = "assistant"
	MessageTypeUser      MessageType = "user"
	MessageTypeResult    MessageType = "result"
)

// Message is the interface for all protocol messages.
type Message interface {
	MsgType() MessageType
}

// SystemMessage represents session initialization and system events.
type SystemMessage struct {
	Type              MessageType `json:"type"`
	Subtype           string      `json:"subtype"`
	SessionID         string      `json:"session_id"`
	UUID              string      `json:"uuid"`
	Model             string      `json:"model,omitempty"`
	CWD               string      `json:"cwd,omitempty"`
	PermissionMode    string      `json:"permissionMode,omitempty"`
	ClaudeCodeVersion string      `json:"claude_code_version,omitempty"`
	Tools             []string    `json:"tools,omitempty"`
	Agents            []string    `json:"agents,omitempty"`
}

// MsgType returns the message type.
func (m SystemMessage) MsgType() MessageType { return MessageTypeSystem }

// Usage tracks token usage.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

// FlexibleContent can be either a string or an array of content blocks.
type FlexibleContent struct {
	raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	fc.raw = append(fc.raw[:0], data...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (fc FlexibleContent) MarshalJSON() ([]byte, error) {
	if fc.raw == nil {
		return []byte("null"), nil
	}
	return fc.raw, nil
}

// IsString returns true if the content is a string.
func (fc FlexibleContent) IsString() bool {
	return len(fc.raw) > 0 && fc.raw[0] == '"'
}

// AsString returns the content as a string (if it is one).
func (fc FlexibleContent) AsString() (string, bool) {
	if !fc.IsString() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(fc.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsBlocks returns the content as content blocks (if it is an array).
func (fc FlexibleContent) AsBlocks() (ContentBlocks, bool) {
	if fc.IsString() || len(fc.raw) == 0 {
		return nil, false
	}
	var blocks ContentBlocks
	if err := json.Unmarshal(fc.raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// MessageContent is the inner content of assistant/user messages.
type MessageContent struct {
	Model      string          `json:"model,omitempty"`
	ID         string          `json:"id,omitempty"`
	Role       string          `json:"role"`
	Content    FlexibleContent `json:"content"`
	StopReason *string         `json:"stop_reason"`
	Usage      Usage           `json:"usage,omitempty"`
}

// AssistantMessage is a complete message from Claude. Messages produced by a
// sub-agent carry the Task tool use ID in ParentToolUseID.
type AssistantMessage struct {
	ParentToolUseID *string        `json:"parent_tool_use_id"`
	Type            MessageType    `json:"type"`
	SessionID       string         `json:"session_id"`
	UUID            string         `json:"uuid"`
	Message         MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m AssistantMessage) MsgType() MessageType { return MessageTypeAssistant }

// Texts returns the text blocks of the message in order.
func (m AssistantMessage) Texts() []string {
	blocks, ok := m.Message.Content.AsBlocks()
	if !ok {
		if s, ok := m.Message.Content.AsString(); ok && s != "" {
			return []string{s}
		}
		return nil
	}
	var texts []string
	for _, b := range blocks {
		if tb, ok := b.(TextBlock); ok {
			texts = append(texts, tb.Text)
		}
	}
	return texts
}

// UserMessage represents tool results echoed back by the CLI.
type UserMessage struct {
	ParentToolUseID *string        `json:"parent_tool_use_id"`
	Type            MessageType    `json:"type"`
	SessionID       string         `json:"session_id"`
	UUID            string         `json:"uuid"`
	Message         MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m UserMessage) MsgType() MessageType { return MessageTypeUser }

// ResultMessage ends a turn and carries its metrics. When the session was
// started with a JSON schema, StructuredOutput holds the validated-by-CLI
// object; callers must still validate it themselves.
type ResultMessage struct {
	TotalCostUSD     *float64        `json:"total_cost_usd,omitempty"`
	SessionID        string          `json:"session_id"`
	Subtype          string          `json:"subtype"`
	UUID             string          `json:"uuid"`
	Type             MessageType     `json:"type"`
	Result           string          `json:"result"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	Usage            Usage           `json:"usage"`
	NumTurns         int             `json:"num_turns"`
	DurationAPIMs    int64           `json:"duration_api_ms"`
	DurationMs       int64           `json:"duration_ms"`
	IsError          bool            `json:"is_error"`
}

// MsgType returns the message type.
func (m ResultMessage) MsgType() MessageType { return MessageTypeResult }

// HasStructuredOutput reports whether the result carries a non-null payload.
func (m ResultMessage) HasStructuredOutput() bool {
	return len(m.StructuredOutput) > 0 && string(m.StructuredOutput) != "null"
}

// UserMessageToSend is what we send to the CLI.
type UserMessageToSend struct {
	ParentToolUseID *string                `json:"parent_tool_use_id"`
	Type            string                 `json:"type"`
	SessionID       string                 `json:"session_id"`
	Message         UserMessageToSendInner `json:"message"`
}

// UserMessageToSendInner is the inner part of messages we send.
type UserMessageToSendInner struct {
	Content interface{} `json:"content"`
	Role    string      `json:"role"`
}

// NewUserTextMessage constructs a user message with a plain text string.
func NewUserTextMessage(sessionID, text string) UserMessageToSend {
	return UserMessageToSend{
		Type:      string(MessageTypeUser),
		SessionID: sessionID,
		Message: UserMessageToSendInner{
			Role:    "user",
			Content: text,
		},
	}
}

// Marshal serializes the message to a JSON line ready to write to the CLI.
func (m UserMessageToSend) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal UserMessageToSend: %w", err)
	}
	return b, nil
}
