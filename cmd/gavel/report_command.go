package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gavel/internal/casefile"
	"gavel/internal/report"
	"gavel/internal/store"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Print a run's audit report",
		Long:  "Print the stored report for a run as Markdown, or raw JSON with --json.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run.ReportJSON == "" {
				return errors.New("run has no report; it may still be in progress or failed before synthesis")
			}

			if jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), run.ReportJSON)
				return nil
			}

			var rep casefile.Report
			if err := json.Unmarshal([]byte(run.ReportJSON), &rep); err != nil {
				return fmt.Errorf("decode stored report for run %s: %w", shortID(run.ID), err)
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderMarkdown(&rep, cfg.Synthesis.ScaleMax))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw report JSON")
	return cmd
}
