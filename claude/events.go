package claude

import (
	"github.com/bazelment/yoloswe/namecouncil/protocol"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

// toEvents maps one CLI message to stream events. It reports whether the
// message ends the turn.
func toEvents(msg protocol.Message) ([]stream.Event, bool) {
	switch m := msg.(type) {
	case protocol.AssistantMessage:
		texts := m.Texts()
		events := make([]stream.Event, 0, len(texts))
		for _, t := range texts {
			events = append(events, stream.Text{Text: t})
		}
		return events, false
	case protocol.ResultMessage:
		events := []stream.Event{stream.Metrics{
			CostUSD:    m.TotalCostUSD,
			DurationMs: m.DurationMs,
			NumTurns:   m.NumTurns,
			IsError:    m.IsError,
		}}
		if m.HasStructuredOutput() {
			events = append(events, stream.Structured{Payload: m.StructuredOutput})
		}
		return events, true
	default:
		return nil, false
	}
}
