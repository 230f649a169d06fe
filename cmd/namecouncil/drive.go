package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bazelment/yoloswe/namecouncil/claude"
	"github.com/bazelment/yoloswe/namecouncil/conference"
	"github.com/bazelment/yoloswe/namecouncil/config"
	"github.com/bazelment/yoloswe/namecouncil/intake"
	"github.com/bazelment/yoloswe/namecouncil/render"
)

// userInput is the human side of a conference.
type userInput interface {
	conference.Nominator
	Request(ctx context.Context) (conference.Request, error)
	FollowUp(ctx context.Context) (text string, exit bool, err error)
}

// driver runs the opening round and then follow-up rounds until the user
// leaves.
type driver struct {
	conn     conference.Connection
	input    userInput
	renderer *render.Renderer
	logger   *slog.Logger
	registry *prometheus.Registry
	cfg      *config.Config
}

func (d *driver) run(ctx context.Context) error {
	conf, err := conference.New(conference.Config{
		Conn:         d.conn,
		Presenter:    d.renderer,
		Nominator:    d.input,
		Logger:       d.logger,
		Metrics:      conference.NewMetrics(d.registry),
		MaxRetries:   d.cfg.Retries(),
		EventTimeout: d.cfg.Timeout(),
	})
	if err != nil {
		return err
	}

	d.renderer.Welcome()
	req, err := d.input.Request(ctx)
	if err != nil {
		return err
	}
	d.logger.Info("conference requested", "family_name", req.FamilyName, "gender", req.Gender)

	d.renderer.ConferenceStarted()
	if _, err := conf.Start(ctx, req); err != nil {
		return err
	}

	for {
		text, exit, err := d.input.FollowUp(ctx)
		if err != nil {
			return err
		}
		if exit {
			return nil
		}
		d.renderer.FollowUpStarted()
		if _, err := conf.FollowUp(ctx, text); err != nil {
			return err
		}
	}
}

// finish reports the outcome of a driver run. User interrupts end the
// session quietly; other errors are shown and turned into errReported.
func (d *driver) finish(ctx context.Context, err error) error {
	switch {
	case err == nil, errors.Is(err, intake.ErrAborted), ctx.Err() != nil && errors.Is(err, context.Canceled):
		d.renderer.Goodbye()
		return nil
	case errors.Is(err, claude.ErrReplayDone):
		d.logger.Warn("trace ended inside a round", "error", err)
		d.renderer.Goodbye()
		return nil
	default:
		d.renderer.Error(err)
		attrs := []any{"error", err}
		var pe *claude.ProcessError
		if errors.As(err, &pe) && pe.Stderr != "" {
			d.renderer.Detail("CLI stderr:", pe.Stderr)
			attrs = append(attrs, "stderr", pe.Stderr)
		}
		d.logger.Error("conference failed", attrs...)
		return errReported
	}
}

// writeMetrics exports the run's metrics when a metrics file is configured.
func writeMetrics(path string, registry *prometheus.Registry) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
