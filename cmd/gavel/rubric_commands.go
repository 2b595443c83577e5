package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gavel/internal/rubric"
)

func newRubricCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rubric",
		Short: "Inspect and lint grading rubrics",
	}
	cmd.AddCommand(newRubricShowCommand(ctx))
	cmd.AddCommand(newRubricLintCommand(ctx))
	return cmd
}

func loadRubricForCommand(ctx *commandContext, override string) (*rubric.Rubric, error) {
	path := strings.TrimSpace(override)
	if path == "" {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Rubric.Path
	}
	return rubric.Load(path)
}

func newRubricShowCommand(ctx *commandContext) *cobra.Command {
	var rubricPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active rubric's criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rub, err := loadRubricForCommand(ctx, rubricPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s v%s (grading %s)\n\n", rub.Metadata.Name, rub.Metadata.Version, rub.Metadata.GradingTarget)

			rows := make([][]string, 0, len(rub.Criteria))
			for _, criterion := range rub.Criteria {
				rows = append(rows, []string{
					criterion.ID,
					criterion.DisplayName(),
					criterion.TargetArtifact,
					yesNo(criterion.Security()),
				})
			}
			table := renderTable(
				[]string{"ID", "Name", "Artifact", "Security"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(out, table)
			return nil
		},
	}

	cmd.Flags().StringVar(&rubricPath, "rubric", "", "Rubric file overriding the configured one")
	return cmd
}

func newRubricLintCommand(ctx *commandContext) *cobra.Command {
	var rubricPath string

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate a rubric and report advisory findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rub, err := loadRubricForCommand(ctx, rubricPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			findings := rubric.Lint(rub)
			if len(findings) == 0 {
				fmt.Fprintf(out, "%s v%s: no lint findings\n", rub.Metadata.Name, rub.Metadata.Version)
				return nil
			}
			fmt.Fprintf(out, "%s v%s: %d finding(s)\n", rub.Metadata.Name, rub.Metadata.Version, len(findings))
			for _, finding := range findings {
				fmt.Fprintf(out, "  - %s\n", finding)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rubricPath, "rubric", "", "Rubric file overriding the configured one")
	return cmd
}
