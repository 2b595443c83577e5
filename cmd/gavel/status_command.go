package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gavel/internal/config"
	"gavel/internal/deps"
	"gavel/internal/preflight"
	"gavel/internal/store"
	"gavel/internal/textutil"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if ctx.configExists {
				fmt.Fprintln(stdout, renderStatusLine("Config", statusOK, ctx.configPath, colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Config", statusWarn, fmt.Sprintf("Not found, using defaults (%s)", ctx.configPath), colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Workspace", statusInfo, cfg.Workspace.RootDir, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Workspace Paths", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, directoryStatusLine("Reports", cfg.Workspace.ReportDir, colorize))
			fmt.Fprintln(stdout, directoryStatusLine("Scratch", cfg.Workspace.ScratchDir, colorize))
			fmt.Fprintln(stdout, directoryStatusLine("Logs", cfg.Workspace.LogDir, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, status := range preflight.CheckSystemDeps(cfg) {
				fmt.Fprintln(stdout, dependencyStatusLine(status, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Services", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, resultStatusLine(preflight.CheckLLMFromConfig(cmd.Context(), cfg), colorize))
			fmt.Fprintln(stdout, resultStatusLine(preflight.CheckNotificationsFromConfig(cfg), colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Rubric", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, resultStatusLine(preflight.CheckRubric(cfg), colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Runs", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, resultStatusLine(preflight.CheckStore(cmd.Context(), cfg), colorize))
			fmt.Fprintln(stdout, latestRunLine(cmd.Context(), cfg, colorize))
			return nil
		},
	}
}

func resultStatusLine(result preflight.Result, colorize bool) string {
	kind := textutil.Ternary(result.Passed, statusOK, statusError)
	return renderStatusLine(result.Name, kind, result.Detail, colorize)
}

func directoryStatusLine(label, path string, colorize bool) string {
	result := preflight.CheckDirectoryAccess(label, path)
	if result.Passed {
		return renderStatusLine(label, statusOK, result.Detail, colorize)
	}
	return renderStatusLine(label, statusError, result.Detail, colorize)
}

func dependencyStatusLine(status deps.Status, colorize bool) string {
	if status.Available {
		return renderStatusLine(status.Name, statusOK, status.Detail, colorize)
	}
	if status.Optional {
		return renderStatusLine(status.Name, statusWarn, status.Detail+" (optional)", colorize)
	}
	return renderStatusLine(status.Name, statusError, status.Detail, colorize)
}

func latestRunLine(ctx context.Context, cfg *config.Config, colorize bool) string {
	st, err := store.Open(cfg)
	if err != nil {
		return renderStatusLine("Latest Run", statusWarn, "Unavailable", colorize)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, 1)
	if err != nil {
		return renderStatusLine("Latest Run", statusWarn, "Unavailable", colorize)
	}
	if len(runs) == 0 {
		return renderStatusLine("Latest Run", statusInfo, "No runs recorded", colorize)
	}
	run := runs[0]
	detail := fmt.Sprintf("%s %s (%s, %s)", shortID(run.ID), run.Target, run.Phase, overallCell(run.OverallScore))
	kind := statusOK
	if run.Phase == store.PhaseError {
		kind = statusWarn
	}
	return renderStatusLine("Latest Run", kind, detail, colorize)
}
