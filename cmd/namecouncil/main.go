// Command namecouncil runs a moderated naming conference: a panel of expert
// agents nominates Chinese given names, critiques them and ranks them.
//
// Commands:
//   - run: start an interactive conference against the Claude CLI
//   - replay: drive the conference from a recorded session trace
//   - schema: print the JSON schema of the final report
//   - validate: check a final report JSON file
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bazelment/yoloswe/namecouncil/config"
	"github.com/bazelment/yoloswe/namecouncil/logging"
)

// errReported is returned by commands that already showed the error.
var errReported = errors.New("error already reported")

type rootFlags struct {
	configPath string
	verbosity  int
	noColor    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "namecouncil",
		Short: "Multi-expert naming conference",
		Long: `namecouncil runs a three-stage naming conference over one Claude CLI session.
A moderator delegates to expert sub-agents who nominate names, critique and
score them, and agree on a ranked final report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultPath, "Path to the YAML config file")
	cmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colors and markdown rendering")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newReplayCmd(flags))
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newValidateCmd())
	return cmd
}

// loadConfig reads the config file and applies the root flags.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.noColor {
		cfg.NoColor = true
	}
	return cfg, nil
}

// newLogger builds the run logger. Without -v the console stays quiet and
// logs only go to the log file, if one is configured.
func (f *rootFlags) newLogger(stderr io.Writer, logDir string) (*slog.Logger, string, func()) {
	console := stderr
	if f.verbosity == 0 {
		console = io.Discard
	}
	if logDir != "" {
		return logging.NewFile(console, logDir, f.verbosity)
	}
	if f.verbosity == 0 {
		return logging.Nop(), "", func() {}
	}
	return logging.New(console, f.verbosity), "", func() {}
}
