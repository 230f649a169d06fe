package conference

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bazelment/yoloswe/namecouncil/logging"
	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
)

// Config configures a Conference.
type Config struct {
	Conn      Connection
	Presenter Presenter

	// Nominator is asked for the user's names after the first round's
	// nominations. Nil disables the nomination window.
	Nominator Nominator

	Logger  *slog.Logger
	Metrics *Metrics

	// MaxRetries bounds the continue prompts per round.
	MaxRetries int

	// EventTimeout bounds each wait for an agent event; zero waits forever.
	EventTimeout time.Duration
}

// RoundResult summarizes one round.
type RoundResult struct {
	// Report is the validated report of the round, nil if none arrived.
	Report *report.FinalReport

	// Warning is set when the round ended below the final stage.
	Warning *IncompletePhaseWarning

	ID      string
	Phase   phase.Phase
	Retries int

	// Attempts counts every prompt sent in the round, including the
	// nomination follow-up.
	Attempts int

	Complete bool
}

// Conference runs rounds over one connection. It is not safe for concurrent
// use; rounds run one after another.
type Conference struct {
	conn      Connection
	presenter Presenter
	logger    *slog.Logger
	metrics   *Metrics
	processor *Processor
	window    *NominationWindow
	config    Config
	rounds    int
}

// New returns a Conference for cfg.
func New(cfg Config) (*Conference, error) {
	if cfg.Conn == nil {
		return nil, errors.New("conference: connection is required")
	}
	if cfg.Presenter == nil {
		cfg.Presenter = nopPresenter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	c := &Conference{
		conn:      cfg.Conn,
		presenter: cfg.Presenter,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		config:    cfg,
		processor: NewProcessor(cfg.Presenter, cfg.Logger, cfg.Metrics, cfg.EventTimeout),
	}
	if cfg.Nominator != nil {
		c.window = &NominationWindow{nominator: cfg.Nominator, presenter: cfg.Presenter, logger: cfg.Logger}
	}
	return c, nil
}

// Start runs the opening round for req, with the nomination window.
func (c *Conference) Start(ctx context.Context, req Request) (*RoundResult, error) {
	return c.RunRound(ctx, InitialPrompt(req), true)
}

// FollowUp runs a round for the user's feedback, without nomination.
func (c *Conference) FollowUp(ctx context.Context, text string) (*RoundResult, error) {
	return c.RunRound(ctx, text, false)
}

// RunRound sends prompt and keeps the round going until the final stage is
// reached or the retries run out. The nomination window can only open in
// the session's first round.
//
// Transport and report validation errors end the round and are returned
// as is. Running out of retries is not an error: the result carries an
// IncompletePhaseWarning instead.
func (c *Conference) RunRound(ctx context.Context, prompt string, allowNomination bool) (*RoundResult, error) {
	c.rounds++
	res := &RoundResult{ID: uuid.NewString()}
	logger := c.logger.With("round", res.ID, "round_number", c.rounds)
	state := NewSessionState(c.config.MaxRetries)
	nominate := c.rounds == 1 && allowNomination && c.window != nil

	logger.Info("round started", "nomination", nominate, "max_retries", state.MaxRetries)

	stopAfter := phase.None
	if nominate {
		stopAfter = phase.Nomination
	}
	if err := c.attempt(ctx, logger, "initial", prompt, state, stopAfter, res); err != nil {
		return nil, c.fail(logger, err)
	}

	if state.Phase == phase.Nomination && nominate && !state.NominationOffered {
		followUp, err := c.window.Offer(ctx, state)
		if err != nil {
			return nil, c.fail(logger, err)
		}
		if err := c.attempt(ctx, logger, "nomination", followUp, state, phase.None, res); err != nil {
			return nil, c.fail(logger, err)
		}
	}

	for !state.Complete() && state.Retries < state.MaxRetries {
		state.Retries++
		c.presenter.Retry(state.Phase, state.Retries, state.MaxRetries)
		logger.Info("round incomplete, retrying",
			"phase", state.Phase, "retry", state.Retries, "max_retries", state.MaxRetries)
		if err := c.attempt(ctx, logger, "retry", ContinuePrompt(), state, phase.None, res); err != nil {
			return nil, c.fail(logger, err)
		}
	}

	res.Phase = state.Phase
	res.Retries = state.Retries
	res.Report = state.Report
	res.Complete = state.Complete()

	if !res.Complete {
		res.Warning = &IncompletePhaseWarning{Stalled: state.Phase, Retries: state.Retries}
		c.presenter.Warning(res.Warning)
		logger.Warn("round ended incomplete", "phase", state.Phase, "retries", state.Retries)
		c.metrics.round("incomplete")
		return res, nil
	}

	logger.Info("round complete", "attempts", res.Attempts, "retries", res.Retries, "report", res.Report != nil)
	c.metrics.round("complete")
	return res, nil
}

// attempt sends one prompt and processes its turn.
func (c *Conference) attempt(ctx context.Context, logger *slog.Logger, kind, prompt string, state *SessionState, stopAfter phase.Phase, res *RoundResult) error {
	res.Attempts++
	c.metrics.attempt(kind)
	logger.Log(ctx, logging.LevelTrace, "sending prompt", "kind", kind, "prompt", prompt)

	src, err := c.conn.Query(ctx, prompt)
	if err != nil {
		return transportError("query", err)
	}
	reached, err := c.processor.Process(ctx, src, state, stopAfter)
	logger.Debug("attempt finished", "kind", kind, "reached", reached, "phase", state.Phase)
	return err
}

func (c *Conference) fail(logger *slog.Logger, err error) error {
	c.metrics.round("error")
	logger.Error("round aborted", "error", err)
	return err
}
