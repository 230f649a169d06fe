package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bazelment/yoloswe/namecouncil/claude"
	"github.com/bazelment/yoloswe/namecouncil/conference"
	"github.com/bazelment/yoloswe/namecouncil/render"
)

type replayFlags struct {
	familyName  string
	gender      string
	nominations string
	metricsFile string
}

func newReplayCmd(root *rootFlags) *cobra.Command {
	flags := &replayFlags{}

	cmd := &cobra.Command{
		Use:   "replay <trace.jsonl>",
		Short: "Drive the conference from a recorded session",
		Long: `Replay feeds a trace written by 'run --record' to the conference instead of
a live CLI. Each prompt consumes one recorded turn, so stage detection,
retries, nomination handling and report validation run exactly as they did
live. Rounds continue until the recorded turns are used up.`,
		Example: `  namecouncil replay .namecouncil/sessions/0b9f....jsonl
  namecouncil replay --nominate "李想, 李然" trace.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.MetricsFile = flags.metricsFile
			}

			logger, _, closeLog := root.newLogger(cmd.ErrOrStderr(), cfg.LogDir)
			defer closeLog()

			replay, err := claude.OpenReplay(args[0], logger)
			if err != nil {
				return err
			}
			defer replay.Close()
			logger.Info("replaying trace", "path", args[0], "turns", replay.Turns())

			input := &scriptedInput{
				request:     conference.Request{FamilyName: flags.familyName, Gender: flags.gender},
				nominations: flags.nominations,
				more:        func() bool { return replay.Remaining() > 0 },
			}
			registry := prometheus.NewRegistry()
			d := &driver{
				conn:     replay,
				input:    input,
				renderer: render.NewRenderer(cmd.OutOrStdout(), cfg.NoColor, cfg.GlamourStyle),
				logger:   logger,
				registry: registry,
				cfg:      cfg,
			}
			runErr := d.finish(cmd.Context(), d.run(cmd.Context()))
			if err := writeMetrics(cfg.MetricsFile, registry); err != nil {
				logger.Warn("metrics export failed", "error", err)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&flags.familyName, "family-name", "李", "Family name used for the opening prompt")
	cmd.Flags().StringVar(&flags.gender, "gender", "男孩", "Gender used for the opening prompt")
	cmd.Flags().StringVar(&flags.nominations, "nominate", "", "Names to add in the nomination window (comma separated)")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	return cmd
}

// scriptedInput answers for the user during a replay. Follow-up rounds
// continue while more reports that recorded turns remain.
type scriptedInput struct {
	more        func() bool
	request     conference.Request
	nominations string
}

func (s *scriptedInput) Request(context.Context) (conference.Request, error) {
	return s.request, nil
}

func (s *scriptedInput) Nominations(context.Context) (string, error) {
	return s.nominations, nil
}

func (s *scriptedInput) FollowUp(context.Context) (string, bool, error) {
	if !s.more() {
		return "", true, nil
	}
	return conference.ContinuePrompt(), false, nil
}
