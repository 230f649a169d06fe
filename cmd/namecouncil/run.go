package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bazelment/yoloswe/namecouncil/claude"
	"github.com/bazelment/yoloswe/namecouncil/config"
	"github.com/bazelment/yoloswe/namecouncil/intake"
	"github.com/bazelment/yoloswe/namecouncil/render"
	"github.com/bazelment/yoloswe/namecouncil/report"
)

// Run command flags. Each one overrides the config file when set.
type runFlags struct {
	model          string
	cliPath        string
	workDir        string
	permissionMode string
	recordDir      string
	metricsFile    string
	logDir         string
	maxRetries     int
	eventTimeout   time.Duration
}

func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive naming conference",
		Long: `Run asks for the family name, gender, birth information and wishes, then
starts the conference. After the nomination stage you may add your own names.
Once the final report is shown you can ask for adjustments or type 'exit'.`,
		Example: `  namecouncil run
  namecouncil run --model opus --record .namecouncil/sessions
  namecouncil run -vv --log-dir .namecouncil/logs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			return runConference(cmd, root, cfg)
		},
	}

	flags.register(cmd)
	return cmd
}

// register binds the run flags to cmd.
func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "Model for the moderator (default from config, else sonnet)")
	cmd.Flags().StringVar(&f.cliPath, "cli-path", "", "Path to the claude binary (default: claude in PATH)")
	cmd.Flags().StringVar(&f.workDir, "dir", "", "Working directory of the CLI process")
	cmd.Flags().StringVar(&f.permissionMode, "permission-mode", "", "CLI permission mode: default, acceptEdits, plan, bypassPermissions")
	cmd.Flags().StringVar(&f.recordDir, "record", "", "Directory for session recordings (disabled if empty)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	cmd.Flags().StringVar(&f.logDir, "log-dir", "", "Also write logs to a timestamped file in this directory")
	cmd.Flags().IntVar(&f.maxRetries, "max-retries", 0, "Continue prompts per round when a stage stalls")
	cmd.Flags().DurationVar(&f.eventTimeout, "event-timeout", 0, "Maximum wait for each agent event")
}

// apply copies the flags the user set onto cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("model") {
		cfg.Model = f.model
	}
	if changed("cli-path") {
		cfg.CLIPath = f.cliPath
	}
	if changed("dir") {
		cfg.WorkDir = f.workDir
	}
	if changed("permission-mode") {
		cfg.PermissionMode = f.permissionMode
	}
	if changed("record") {
		cfg.RecordingDir = f.recordDir
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if changed("log-dir") {
		cfg.LogDir = f.logDir
	}
	if changed("max-retries") {
		n := f.maxRetries
		cfg.MaxRetries = &n
	}
	if changed("event-timeout") {
		d := config.Duration(f.eventTimeout)
		cfg.EventTimeout = &d
	}
}

func runConference(cmd *cobra.Command, root *rootFlags, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	logger, logFile, closeLog := root.newLogger(cmd.ErrOrStderr(), cfg.LogDir)
	defer closeLog()

	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}
	opts = append(opts,
		claude.WithLogger(logger),
		claude.WithStderrHandler(func(chunk []byte) {
			logger.Debug("CLI stderr", "output", strings.TrimRight(string(chunk), "\n"))
		}),
	)
	session := claude.NewSession(opts...)

	renderer := render.NewRenderer(cmd.OutOrStdout(), cfg.NoColor, cfg.GlamourStyle)
	if err := session.Start(ctx); err != nil {
		renderer.Error(err)
		return errReported
	}
	defer session.Close()

	registry := prometheus.NewRegistry()
	d := &driver{
		conn:     session,
		input:    intake.New(os.Stdin, cmd.OutOrStdout()),
		renderer: renderer,
		logger:   logger,
		registry: registry,
		cfg:      cfg,
	}
	runErr := d.finish(ctx, d.run(ctx))

	if err := writeMetrics(cfg.MetricsFile, registry); err != nil {
		logger.Warn("metrics export failed", "error", err)
	}
	if path := session.RecordingPath(); path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Session recorded to: %s\n", path)
	}
	if logFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n", logFile)
	}
	return runErr
}

// sessionOptions maps the config onto CLI session options.
func sessionOptions(cfg *config.Config) ([]claude.SessionOption, error) {
	systemPrompt, err := cfg.SystemPrompt()
	if err != nil {
		return nil, err
	}

	opts := []claude.SessionOption{
		claude.WithModel(cfg.Model),
		claude.WithPermissionMode(claude.PermissionMode(cfg.PermissionMode)),
		claude.WithSystemPrompt(systemPrompt),
		claude.WithAgents(cfg.AgentDefinitions()...),
		claude.WithAllowedTools("Task"),
		claude.WithSettingSources("project"),
		claude.WithJSONSchema(report.Schema()),
	}
	if cfg.CLIPath != "" {
		opts = append(opts, claude.WithCLIPath(cfg.CLIPath))
	}
	if cfg.WorkDir != "" {
		opts = append(opts, claude.WithWorkDir(cfg.WorkDir))
	}
	if len(cfg.Env) > 0 {
		opts = append(opts, claude.WithEnv(cfg.Env))
	}
	if cfg.RecordingDir != "" {
		opts = append(opts, claude.WithRecording(cfg.RecordingDir))
	}
	return opts, nil
}
