package protocol

import (
	"encoding/json"
	"log/slog"
)

// ContentBlockType identifies the kind of content block.
type ContentBlockType string

const (
	ContentBlockTypeText       ContentBlockType = "text"
	ContentBlockTypeThinking   ContentBlockType = "thinking"
	ContentBlockTypeToolUse    ContentBlockType = "tool_use"
	ContentBlockTypeToolResult ContentBlockType = "tool_result"
)

// ContentBlock is the interface for content block discrimination.
type ContentBlock interface {
	BlockType() ContentBlockType
}

// TextBlock is a text content block.
type TextBlock struct {
	Type ContentBlockType `json:"type"`
	Text string           `json:"text"`
}

// BlockType returns the block type.
func (b TextBlock) BlockType() ContentBlockType { return ContentBlockTypeText }

// ThinkingBlock is an extended thinking block.
type ThinkingBlock struct {
	Type      ContentBlockType `json:"type"`
	Thinking  string           `json:"thinking"`
	Signature string           `json:"signature,omitempty"`
}

// BlockType returns the block type.
func (b ThinkingBlock) BlockType() ContentBlockType { return ContentBlockTypeThinking }

// ToolUseBlock is a tool invocation, e.g. the moderator delegating to an
// expert through the Task tool.
type ToolUseBlock struct {
	Input map[string]interface{} `json:"input"`
	Type  ContentBlockType       `json:"type"`
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
}

// BlockType returns the block type.
func (b ToolUseBlock) BlockType() ContentBlockType { return ContentBlockTypeToolUse }

// ToolResultBlock carries the result of a tool invocation.
type ToolResultBlock struct {
	Content   interface{}      `json:"content"`
	IsError   *bool            `json:"is_error,omitempty"`
	Type      ContentBlockType `json:"type"`
	ToolUseID string           `json:"tool_use_id"`
}

// BlockType returns the block type.
func (b ToolResultBlock) BlockType() ContentBlockType { return ContentBlockTypeToolResult }

// UnmarshalContentBlock decodes a single content block. Unknown block types
// return (nil, nil) so newer CLI versions do not break parsing.
func UnmarshalContentBlock(data json.RawMessage) (ContentBlock, error) {
	var base struct {
		Type ContentBlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case ContentBlockTypeText:
		var b TextBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case ContentBlockTypeThinking:
		var b ThinkingBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case ContentBlockTypeToolUse:
		var b ToolUseBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case ContentBlockTypeToolResult:
		var b ToolResultBlock
		err := json.Unmarshal(data, &b)
		return b, err
	default:
		slog.Debug("skipping unknown content block type", "type", base.Type)
		return nil, nil
	}
}

// ContentBlocks is a list of content blocks with unknown types dropped.
type ContentBlocks []ContentBlock

// UnmarshalJSON implements json.Unmarshaler.
func (cb *ContentBlocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	blocks := make(ContentBlocks, 0, len(raws))
	for _, raw := range raws {
		b, err := UnmarshalContentBlock(raw)
		if err != nil {
			return err
		}
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	*cb = blocks
	return nil
}
