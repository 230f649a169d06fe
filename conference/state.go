// Package conference drives a moderated three-stage naming conference over
// one agent connection: it sends prompts, follows stage markers in the
// streamed replies, retries stalled rounds, and opens a one-time window for
// the user to add names of their own.
package conference

import (
	"context"

	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

// DefaultMaxRetries bounds the continue prompts sent per round.
const DefaultMaxRetries = 2

// Connection is an agent conversation. Each Query starts a new turn; the
// caller may abandon a turn's Source before it is exhausted.
type Connection interface {
	Query(ctx context.Context, prompt string) (stream.Source, error)
}

// SessionState is the mutable state of one round. It is owned by a single
// round and passed by pointer to every step of it.
type SessionState struct {
	// Report is the last validated report delivered in this round.
	Report *report.FinalReport

	Phase             phase.Phase
	Retries           int
	MaxRetries        int
	NominationOffered bool
}

// NewSessionState returns the state for a fresh round.
func NewSessionState(maxRetries int) *SessionState {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &SessionState{MaxRetries: maxRetries}
}

// Advance raises the phase to p. It reports false, leaving the state alone,
// when p is not beyond the current phase.
func (s *SessionState) Advance(p phase.Phase) bool {
	if p <= s.Phase {
		return false
	}
	s.Phase = p
	return true
}

// Complete reports whether the final stage has been reached.
func (s *SessionState) Complete() bool {
	return s.Phase >= phase.FinalSelection
}

// Presenter shows conference progress to the user.
type Presenter interface {
	Text(text string)
	PhaseComplete(p phase.Phase)
	Metrics(m stream.Metrics)
	Report(r *report.FinalReport)
	Retry(stalled phase.Phase, attempt, maxRetries int)
	NominationAccepted(names []string)
	NominationSkipped()
	Warning(w *IncompletePhaseWarning)
}

// Nominator collects the user's own name ideas as free text. An empty
// answer skips the nomination.
type Nominator interface {
	Nominations(ctx context.Context) (string, error)
}

type nopPresenter struct{}

func (nopPresenter) Text(string) {}
func (nopPresenter) PhaseComplete(phase.Phase) {}
func (nopPresenter) Metrics(stream.Metrics) {}
func (nopPresenter) Report(*report.FinalReport) {}
func (nopPresenter) Retry(phase.Phase, int, int) {}
func (nopPresenter) NominationAccepted([]string) {}
func (nopPresenter) NominationSkipped() {}
func (nopPresenter) Warning(*IncompletePhaseWarning) {}
