package conference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bazelment/yoloswe/namecouncil/logging"
	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

// errStopped ends a run once the requested stage is reached.
var errStopped = errors.New("stop phase reached")

// Processor consumes one turn of agent events, tracking stage markers in
// the text and validating the structured report.
type Processor struct {
	presenter    Presenter
	logger       *slog.Logger
	metrics      *Metrics
	eventTimeout time.Duration
}

// NewProcessor returns a Processor. eventTimeout bounds each wait for the
// next event; zero waits forever.
func NewProcessor(presenter Presenter, logger *slog.Logger, metrics *Metrics, eventTimeout time.Duration) *Processor {
	if presenter == nil {
		presenter = nopPresenter{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Processor{
		presenter:    presenter,
		logger:       logger,
		metrics:      metrics,
		eventTimeout: eventTimeout,
	}
}

// Process reads src until the turn ends, or until a text event completes
// stage stopAfter, in which case the rest of the turn is left unread.
// phase.None never stops early. It returns the highest stage whose marker
// was seen during this run, phase.None if there was none.
//
// Invalid structured payloads end the run with a *report.SchemaValidationError.
// Connection failures and idle timeouts end it with a *TransportError.
func (p *Processor) Process(ctx context.Context, src stream.Source, state *SessionState, stopAfter phase.Phase) (phase.Phase, error) {
	r := &run{p: p, state: state, stopAfter: stopAfter}
	for {
		ev, err := p.next(ctx, src)
		if errors.Is(err, io.EOF) {
			return r.observed, nil
		}
		if err != nil {
			return r.observed, transportError("receive", err)
		}

		if err := stream.Dispatch(ev, r); err != nil {
			if errors.Is(err, errStopped) {
				p.logger.Debug("stopping turn early", "phase", stopAfter)
				return r.observed, nil
			}
			return r.observed, err
		}
	}
}

func (p *Processor) next(ctx context.Context, src stream.Source) (stream.Event, error) {
	if p.eventTimeout <= 0 {
		return src.Next(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.eventTimeout)
	defer cancel()
	ev, err := src.Next(waitCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, fmt.Errorf("%w (%s)", ErrIdleTimeout, p.eventTimeout)
	}
	return ev, err
}

// run is the stream.Handler for one Process call.
type run struct {
	p         *Processor
	state     *SessionState
	observed  phase.Phase
	stopAfter phase.Phase
}

func (r *run) OnText(e stream.Text) error {
	r.p.presenter.Text(e.Text)
	r.p.logger.Log(context.Background(), logging.LevelTrace, "agent text", "text", e.Text)

	detected, ok := phase.Detect(e.Text)
	if !ok {
		return nil
	}
	if detected > r.observed {
		r.observed = detected
	}
	if !r.state.Advance(detected) {
		return nil
	}

	r.p.presenter.PhaseComplete(detected)
	r.p.metrics.phase(detected)
	r.p.logger.Info("phase complete", "phase", detected)
	if detected == r.stopAfter {
		return errStopped
	}
	return nil
}

func (r *run) OnMetrics(e stream.Metrics) error {
	r.p.presenter.Metrics(e)
	r.p.metrics.turn(time.Duration(e.DurationMs)*time.Millisecond, e.CostUSD)

	attrs := []any{"duration_ms", e.DurationMs, "num_turns", e.NumTurns}
	if e.CostUSD != nil {
		attrs = append(attrs, "cost_usd", *e.CostUSD)
	}
	if e.IsError {
		r.p.logger.Warn("agent turn ended with an error", attrs...)
	} else {
		r.p.logger.Debug("agent turn finished", attrs...)
	}
	return nil
}

func (r *run) OnStructured(e stream.Structured) error {
	rep, err := report.Parse(e.Payload)
	if err != nil {
		r.p.metrics.report(false)
		r.p.logger.Error("structured output rejected", "error", err)
		return fmt.Errorf("structured output: %w", err)
	}

	r.p.metrics.report(true)
	r.state.Report = rep
	r.p.presenter.Report(rep)
	r.p.logger.Info("final report received", "ranked_names", len(rep.RankedNames))
	return nil
}
