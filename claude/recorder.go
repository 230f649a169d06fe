package claude

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bazelment/yoloswe/namecouncil/protocol"
)

// recorder appends every line exchanged with the CLI to a JSONL trace.
type recorder struct {
	file *os.File
	enc  *json.Encoder
	err  error
	path string
	mu   sync.Mutex
}

func newRecorder(dir, sessionID string) (*recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &recorder{file: f, enc: json.NewEncoder(f), path: path}, nil
}

// Path returns the trace file path.
func (r *recorder) Path() string {
	return r.path
}

// Record appends one line. The first write error stops recording and is
// reported by Close.
func (r *recorder) Record(direction string, line []byte, turn int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil || r.file == nil {
		return
	}

	msg := make(json.RawMessage, len(line))
	copy(msg, line)
	r.err = r.enc.Encode(protocol.TraceEntry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Direction:  direction,
		Message:    msg,
		TurnNumber: turn,
	})
}

// Close flushes and closes the trace file.
func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if r.err != nil {
		return fmt.Errorf("write recording %s: %w", r.path, r.err)
	}
	return err
}
