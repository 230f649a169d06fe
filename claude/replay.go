package claude

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bazelment/yoloswe/namecouncil/internal/ndjson"
	"github.com/bazelment/yoloswe/namecouncil/logging"
	"github.com/bazelment/yoloswe/namecouncil/protocol"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

// Replay serves the received side of a recorded session, one recorded turn
// per Query. Prompts are not compared against the recording.
type Replay struct {
	logger *slog.Logger
	turns  [][]protocol.Message
	next   int
}

// OpenReplay loads a trace written by a recording session. Lines may be
// TraceEntry wrappers or bare stream-json messages.
func OpenReplay(path string, logger *slog.Logger) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadReplay(f, logger)
}

// ReadReplay loads a trace from r.
func ReadReplay(r io.Reader, logger *slog.Logger) (*Replay, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	rp := &Replay{logger: logger}
	var current []protocol.Message
	reader := ndjson.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trace: %w", err)
		}

		entry, msg, err := protocol.ParseTraceEntry(line)
		if err != nil {
			return nil, &ProtocolError{Message: fmt.Sprintf("trace line %d", lineNo), Line: string(line), Cause: err}
		}
		if entry.Direction == protocol.DirectionSent || msg == nil {
			continue
		}

		current = append(current, msg)
		if _, ok := msg.(protocol.ResultMessage); ok {
			rp.turns = append(rp.turns, current)
			current = nil
		}
	}
	if len(current) > 0 {
		rp.turns = append(rp.turns, current)
	}
	return rp, nil
}

// Turns returns the number of recorded turns.
func (r *Replay) Turns() int {
	return len(r.turns)
}

// Remaining returns the number of turns not yet served.
func (r *Replay) Remaining() int {
	return len(r.turns) - r.next
}

// Query returns the next recorded turn.
func (r *Replay) Query(ctx context.Context, prompt string) (stream.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.next >= len(r.turns) {
		return nil, ErrReplayDone
	}
	msgs := r.turns[r.next]
	r.next++
	r.logger.Debug("replaying turn", "turn", r.next, "messages", len(msgs), "prompt_bytes", len(prompt))
	return &replayResponse{msgs: msgs}, nil
}

// Close is a no-op; it lets Replay stand in for a Session.
func (r *Replay) Close() error {
	return nil
}

type replayResponse struct {
	msgs    []protocol.Message
	pending []stream.Event
	done    bool
}

// Next returns the next recorded event. A turn recorded without a result
// ends in ErrProcessExited, as the live session would.
func (r *replayResponse) Next(ctx context.Context) (stream.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(r.pending) > 0 {
			e := r.pending[0]
			r.pending = r.pending[1:]
			return e, nil
		}
		if r.done {
			return nil, io.EOF
		}
		if len(r.msgs) == 0 {
			return nil, ErrProcessExited
		}
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.pending, r.done = toEvents(msg)
	}
}
