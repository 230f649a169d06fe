package protocol

import "encoding/json"

// Trace directions.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// TraceEntry is one line of a session recording. It wraps a protocol message
// with metadata so recordings can be replayed or used as fixtures.
type TraceEntry struct {
	ID         string          `json:"id"`
	Timestamp  string          `json:"timestamp"`
	Direction  string          `json:"direction"`
	Message    json.RawMessage `json:"message"`
	TurnNumber int             `json:"turnNumber,omitempty"`
}

// ParseTraceEntry decodes a trace line. Lines without a direction are not
// TraceEntry wrappers and are treated as raw received protocol messages.
func ParseTraceEntry(line []byte) (TraceEntry, Message, error) {
	var entry TraceEntry
	if err := json.Unmarshal(line, &entry); err != nil || entry.Direction == "" {
		msg, perr := ParseMessage(line)
		return TraceEntry{Direction: DirectionReceived, Message: line}, msg, perr
	}
	msg, err := ParseMessage(entry.Message)
	return entry, msg, err
}
