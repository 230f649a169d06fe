// Package claude connects to the Claude CLI running in stream-json mode and
// exposes each conversation turn as a stream.Source.
package claude

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bazelment/yoloswe/namecouncil/logging"
	"github.com/bazelment/yoloswe/namecouncil/protocol"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

// stderrTailSize bounds how much CLI stderr is kept for error reports.
const stderrTailSize = 4096

// Session is one long-lived CLI process. Queries are sequential: a new
// query may be issued while an earlier Response is unfinished, in which case
// the unread remainder of the earlier turn is discarded when the new
// Response is read.
type Session struct {
	logger   *slog.Logger
	process  *processManager
	recorder *recorder
	msgs     chan protocol.Message
	done     chan struct{}
	readErr  error
	id       string
	stderr   []byte
	config   SessionConfig
	wg       sync.WaitGroup
	mu       sync.Mutex
	queried  int
	consumed int
	started  bool
	closed   bool

	// stderrDone is closed once stderr has been read to EOF. The process is
	// only waited on after that.
	stderrDone chan struct{}
}

// NewSession creates a new session with the given options.
func NewSession(opts ...SessionOption) *Session {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.EventBufferSize <= 0 {
		config.EventBufferSize = defaultConfig().EventBufferSize
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	id := uuid.NewString()
	return &Session{
		config:  config,
		logger:  logger.With("session_id", id),
		id:      id,
		process: newProcessManager(id, config),
		msgs:    make(chan protocol.Message, config.EventBufferSize),
		done:    make(chan struct{}),

		stderrDone: make(chan struct{}),
	}
}

// ID returns the session ID passed to the CLI.
func (s *Session) ID() string {
	return s.id
}

// CLIArgs returns the arguments the CLI is (or would be) started with.
func (s *Session) CLIArgs() ([]string, error) {
	return s.process.BuildCLIArgs()
}

// RecordingPath returns the trace file path, or "" when not recording.
func (s *Session) RecordingPath() string {
	if s.recorder == nil {
		return ""
	}
	return s.recorder.Path()
}

// Start spawns the CLI process and begins reading its output.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	if s.config.RecordMessages {
		rec, err := newRecorder(s.config.RecordingDir, s.id)
		if err != nil {
			return fmt.Errorf("start recording: %w", err)
		}
		s.recorder = rec
	}

	if err := s.process.Start(ctx); err != nil {
		if s.recorder != nil {
			_ = s.recorder.Close()
			s.recorder = nil
		}
		return err
	}

	s.started = true
	s.wg.Add(2)
	go s.readLoop()
	go s.stderrLoop()

	s.logger.Debug("CLI started", "model", s.config.Model, "recording", s.RecordingPath())
	return nil
}

// Query sends prompt as a new user turn and returns a Response for it.
func (s *Session) Query(ctx context.Context, prompt string) (stream.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrSessionClosed
	case !s.started:
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	s.queried++
	turn := s.queried
	s.mu.Unlock()

	line, err := protocol.NewUserTextMessage(s.id, prompt).Marshal()
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.Record(protocol.DirectionSent, line, turn)
	}
	if err := s.process.WriteLine(line); err != nil {
		return nil, err
	}

	s.logger.Debug("query sent", "turn", turn, "prompt_bytes", len(prompt))
	return &Response{session: s, turn: turn}, nil
}

// Close stops the CLI and waits for the reader goroutines to exit.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	close(s.done)
	if !started {
		return nil
	}

	err := s.process.Stop()
	s.wg.Wait()
	if s.recorder != nil {
		if cerr := s.recorder.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Response is the event sequence of one turn.
type Response struct {
	session *Session
	pending []stream.Event
	turn    int
	done    bool
}

// Next returns the next event of the turn, or io.EOF once the turn's result
// has been delivered.
func (r *Response) Next(ctx context.Context) (stream.Event, error) {
	for {
		if len(r.pending) > 0 {
			e := r.pending[0]
			r.pending = r.pending[1:]
			return e, nil
		}
		if r.done {
			return nil, io.EOF
		}

		msg, err := r.session.nextFor(ctx, r.turn)
		if err != nil {
			return nil, err
		}
		r.pending, r.done = toEvents(msg)
	}
}

// nextFor returns the next message belonging to turn, discarding anything
// left over from earlier turns.
func (s *Session) nextFor(ctx context.Context, turn int) (protocol.Message, error) {
	for {
		s.mu.Lock()
		consumed := s.consumed
		s.mu.Unlock()
		if turn <= consumed {
			return nil, ErrStaleResponse
		}

		msg, err := s.receive(ctx)
		if err != nil {
			return nil, err
		}

		if _, ok := msg.(protocol.ResultMessage); ok {
			s.mu.Lock()
			s.consumed++
			consumed = s.consumed
			s.mu.Unlock()
			if consumed < turn {
				s.logger.Debug("discarded remainder of abandoned turn", "turn", consumed)
				continue
			}
			return msg, nil
		}
		if consumed+1 < turn {
			continue
		}
		return msg, nil
	}
}

func (s *Session) receive(ctx context.Context) (protocol.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrSessionClosed
	case msg, ok := <-s.msgs:
		if ok {
			return msg, nil
		}
		return nil, s.terminalError()
	}
}

// terminalError explains why the message stream ended.
func (s *Session) terminalError() error {
	s.mu.Lock()
	tail := string(s.stderr)
	readErr := s.readErr
	s.mu.Unlock()

	if err := s.process.ExitError(tail); err != nil {
		return err
	}
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return &ProcessError{Message: "failed to read CLI output", Cause: readErr, Stderr: tail}
	}
	return ErrProcessExited
}

// readLoop decodes CLI stdout until it closes. After Close it keeps draining
// so the process can be reaped.
func (s *Session) readLoop() {
	defer s.wg.Done()
	defer close(s.msgs)

	turn := 1
	deliver := true
	for {
		line, err := s.process.ReadLine()
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			<-s.stderrDone
			_ = s.process.Wait()
			return
		}

		if s.recorder != nil {
			s.recorder.Record(protocol.DirectionReceived, line, turn)
		}

		msg, err := protocol.ParseMessage(line)
		if err != nil {
			s.logger.Warn("dropping undecodable CLI output",
				"error", &ProtocolError{Message: "failed to parse message", Line: string(line), Cause: err})
			continue
		}
		if msg == nil {
			continue
		}

		switch m := msg.(type) {
		case protocol.SystemMessage:
			if m.Subtype == "init" {
				s.logger.Info("CLI session ready",
					"model", m.Model, "cli_version", m.ClaudeCodeVersion, "agents", m.Agents)
			}
			continue
		case protocol.ResultMessage:
			turn++
		}

		if !deliver {
			continue
		}
		select {
		case s.msgs <- msg:
		case <-s.done:
			deliver = false
		}
	}
}

// stderrLoop keeps a bounded tail of CLI stderr for error reports.
func (s *Session) stderrLoop() {
	defer s.wg.Done()
	defer close(s.stderrDone)

	stderr := s.process.Stderr()
	if stderr == nil {
		return
	}

	buf := make([]byte, 4096)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			s.mu.Lock()
			s.stderr = append(s.stderr, chunk...)
			if over := len(s.stderr) - stderrTailSize; over > 0 {
				s.stderr = s.stderr[over:]
			}
			s.mu.Unlock()
			if s.config.StderrHandler != nil {
				s.config.StderrHandler(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}
