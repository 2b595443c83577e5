package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"gavel/internal/logging"
	"gavel/internal/preflight"
	"gavel/internal/rubric"
	"gavel/internal/store"
	"gavel/internal/textutil"
	"gavel/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var docsDir string
	var rubricPath string
	var checkOnly bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run <target>",
		Short: "Audit a repository and write the report",
		Long: `Audit a repository URL or local checkout against the configured rubric.

Evidence collection, evaluation, and synthesis run as one pipeline; the
report lands in the configured report directory as JSON and Markdown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if checkOnly {
				printPreflight(cmd, results)
				if !preflight.AllPassed(results) {
					return errors.New("preflight failed")
				}
				return nil
			}
			if failures := preflight.Failures(results); len(failures) > 0 {
				printPreflight(cmd, failures)
				return errors.New("preflight failed; fix the checks above and retry")
			}

			lock := flock.New(filepath.Join(cfg.Workspace.RootDir, "gavel.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire workspace lock: %w", err)
			}
			if !locked {
				return errors.New("another audit run is active in this workspace")
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			logging.CleanupOldLogs(cmd.Context(), logger, cfg.Logging.RetentionDays,
				cfg.Workspace.LogDir, filepath.Join(cfg.Workspace.LogDir, "gavel.log"))

			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			path := strings.TrimSpace(rubricPath)
			if path == "" {
				path = cfg.Rubric.Path
			}
			rub, err := rubric.Load(path)
			if err != nil {
				return err
			}

			runner, err := workflow.NewRunner(cfg, st, rub, logger, workflow.WithDocsDir(docsDir))
			if err != nil {
				return err
			}

			result, runErr := runner.Execute(cmd.Context(), args[0])
			if runErr != nil {
				if result != nil && result.Paths.Markdown != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Run %s failed; best-effort report written to %s\n",
						shortID(result.Run.ID), result.Paths.Markdown)
				}
				return runErr
			}

			if jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(result.Run.ReportJSON, "\n"))
				return nil
			}
			printRunSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "Documentation directory inside the repository")
	cmd.Flags().StringVar(&rubricPath, "rubric", "", "Rubric file overriding the configured one")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Run preflight checks and exit")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report JSON instead of a summary")
	return cmd
}

func printPreflight(cmd *cobra.Command, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := textutil.Ternary(result.Passed, "OK", "FAIL")
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	table := renderTable([]string{"Check", "Status", "Detail"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
	fmt.Fprintln(cmd.OutOrStdout(), table)
}

func printRunSummary(cmd *cobra.Command, result *workflow.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Audit complete: %s\n", result.Run.Target)
	fmt.Fprintf(out, "  Run:     %s\n", shortID(result.Run.ID))
	fmt.Fprintf(out, "  Overall: %s\n", overallCell(result.Run.OverallScore))
	status := "complete"
	if result.Run.Incomplete {
		status = fmt.Sprintf("incomplete (%d degradations)", len(result.Report.Degradations))
	}
	fmt.Fprintf(out, "  Status:  %s\n", status)
	fmt.Fprintf(out, "  Report:  %s\n", result.Paths.Markdown)
	fmt.Fprintf(out, "           %s\n", result.Paths.JSON)
}

func overallCell(score *float64) string {
	if score == nil {
		return "unscored"
	}
	return fmt.Sprintf("%.2f", *score)
}
