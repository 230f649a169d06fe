package conference

import (
	"errors"
	"fmt"

	"github.com/bazelment/yoloswe/namecouncil/phase"
)

// ErrIdleTimeout means the connection produced no event within the
// configured event timeout.
var ErrIdleTimeout = errors.New("no event from agent within timeout")

// TransportError is a failure of the agent connection. It ends the session.
type TransportError struct {
	Err error
	Op  string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("agent connection: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// transportError wraps err unless it already is a TransportError.
func transportError(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// IncompletePhaseWarning reports a round that ended below the final stage
// after exhausting its retries. It is not fatal.
type IncompletePhaseWarning struct {
	// Stalled is the last completed stage.
	Stalled phase.Phase
	Retries int
}

func (w *IncompletePhaseWarning) Error() string {
	return fmt.Sprintf("conference incomplete after %d retries: stalled before %s (last completed: %s)",
		w.Retries, w.Stalled.Next(), w.Stalled)
}
