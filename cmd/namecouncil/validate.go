package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bazelment/yoloswe/namecouncil/report"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <report.json|->",
		Short: "Validate a final report against the report contract",
		Long: `Validate checks a final report JSON document: schema, score ranges,
totals, averages and ordering. Use '-' to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r, err := report.Parse(data)
			var sve *report.SchemaValidationError
			if errors.As(err, &sve) {
				fmt.Fprintf(out, "invalid report: %d problem(s)\n", len(sve.Problems))
				for _, p := range sve.Problems {
					fmt.Fprintf(out, "  - %s\n", p)
				}
				return errReported
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "valid report: %d ranked name(s)\n", len(r.RankedNames))
			if top, ok := r.Top(); ok {
				fmt.Fprintf(out, "top: %s (%s) total %d, average %.2f\n",
					top.NameInfo.Name, top.NameInfo.Pinyin, top.TotalScore, top.AverageScore)
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return data, nil
}
