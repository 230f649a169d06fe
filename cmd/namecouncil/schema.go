package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bazelment/yoloswe/namecouncil/report"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the final report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := json.Indent(&buf, report.Schema(), "", "  "); err != nil {
				return fmt.Errorf("format schema: %w", err)
			}
			buf.WriteByte('\n')
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
}
