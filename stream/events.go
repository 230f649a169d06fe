// Package stream defines the events an agent connection delivers for one
// conversation turn.
//
// The set of event kinds is closed. Event has an unexported method so only
// this package can add kinds, and consumers dispatch through Handler, which
// has one method per kind. Adding a kind adds a Handler method, so every
// consumer fails to compile until it handles the new kind.
package stream

import (
	"context"
	"encoding/json"
)

// Source is the ordered event sequence of one turn. Next blocks until the
// next event arrives and returns io.EOF once the turn is over. A Source is
// not safe for concurrent use.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// Event is one inbound message of a turn.
type Event interface {
	accept(h Handler) error
}

// Handler receives events by kind. Implementations decide whether an event
// ends the turn early by returning an error.
type Handler interface {
	OnText(Text) error
	OnMetrics(Metrics) error
	OnStructured(Structured) error
}

// Dispatch routes e to the matching Handler method.
func Dispatch(e Event, h Handler) error {
	return e.accept(h)
}

// Text is a chunk of assistant text.
type Text struct {
	Text string
}

func (e Text) accept(h Handler) error { return h.OnText(e) }

// Metrics reports turn duration and, when the agent knows it, the cost.
type Metrics struct {
	// CostUSD is nil when the agent did not report a cost.
	CostUSD    *float64
	DurationMs int64
	// NumTurns is the number of agent-internal turns, 0 if unknown.
	NumTurns int
	IsError  bool
}

func (e Metrics) accept(h Handler) error { return h.OnMetrics(e) }

// Structured carries an untyped structured payload produced by the agent,
// expected to match the final report schema.
type Structured struct {
	Payload json.RawMessage
}

func (e Structured) accept(h Handler) error { return h.OnStructured(e) }
