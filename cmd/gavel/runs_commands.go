package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gavel/internal/store"
)

const defaultRunsLimit = 20

type runView struct {
	ID            string   `json:"id"`
	Target        string   `json:"target"`
	RubricName    string   `json:"rubric_name"`
	RubricVersion string   `json:"rubric_version"`
	Phase         string   `json:"phase"`
	Incomplete    bool     `json:"incomplete"`
	OverallScore  *float64 `json:"overall_score,omitempty"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func newRunView(run *store.Run) runView {
	return runView{
		ID:            run.ID,
		Target:        run.Target,
		RubricName:    run.RubricName,
		RubricVersion: run.RubricVersion,
		Phase:         string(run.Phase),
		Incomplete:    run.Incomplete,
		OverallScore:  run.OverallScore,
		ErrorMessage:  run.ErrorMessage,
		CreatedAt:     run.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     run.UpdatedAt.Format(time.RFC3339),
	}
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded audit runs",
	}
	cmd.AddCommand(newRunsListCommand(ctx))
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
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

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run))
				}
				return writeJSON(cmd, views)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := "complete"
				switch {
				case !run.Phase.Terminal():
					status = "in progress"
				case run.Incomplete:
					status = "incomplete"
				}
				rows = append(rows, []string{
					shortID(run.ID),
					run.Target,
					string(run.Phase),
					overallCell(run.OverallScore),
					status,
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table := renderTable(
				[]string{"ID", "Target", "Phase", "Overall", "Status", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultRunsLimit, "Maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run in detail",
		Long:  "Show one run's record. Run IDs may be abbreviated to a unique prefix.",
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

			if jsonOut {
				return writeJSON(cmd, newRunView(run))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:        %s\n", run.ID)
			fmt.Fprintf(out, "Target:     %s\n", run.Target)
			fmt.Fprintf(out, "Rubric:     %s v%s\n", run.RubricName, run.RubricVersion)
			fmt.Fprintf(out, "Phase:      %s\n", run.Phase)
			fmt.Fprintf(out, "Incomplete: %s\n", yesNo(run.Incomplete))
			fmt.Fprintf(out, "Overall:    %s\n", overallCell(run.OverallScore))
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:      %s\n", run.ErrorMessage)
			}
			fmt.Fprintf(out, "Created:    %s\n", run.CreatedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Updated:    %s\n", run.UpdatedAt.Local().Format(time.RFC3339))
			if run.ReportJSON != "" {
				fmt.Fprintf(out, "\nUse %q for the full report.\n", "gavel report "+shortID(run.ID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
