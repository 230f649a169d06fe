package protocol

import (
	"encoding/json"
	"fmt"
)

// ParseMessage decodes one stream-json line. Message types this package does
// not model (stream_event, control traffic) return (nil, nil).
func ParseMessage(line []byte) (Message, error) {
	var raw struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("decode message type: %w", err)
	}

	switch raw.Type {
	case MessageTypeSystem:
		var m SystemMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("decode system message: %w", err)
		}
		return m, nil
	case MessageTypeAssistant:
		var m AssistantMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("decode assistant message: %w", err)
		}
		return m, nil
	case MessageTypeUser:
		var m UserMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("decode user message: %w", err)
		}
		return m, nil
	case MessageTypeResult:
		var m ResultMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("decode result message: %w", err)
		}
		return m, nil
	case "":
		return nil, fmt.Errorf("message has no type")
	default:
		return nil, nil
	}
}
