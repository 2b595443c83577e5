package preflight

import (
	"context"

	"gavel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only included when their failure would doom a run: a missing
// git binary matters only while the repository collector is required, and
// the LLM endpoint matters only while the evaluators use it.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace root", cfg.Workspace.RootDir),
		CheckDirectoryAccess("Report directory", cfg.Workspace.ReportDir),
		CheckDirectoryAccess("Scratch directory", cfg.Workspace.ScratchDir),
		CheckRubric(cfg),
		CheckStore(ctx, cfg),
	}

	if cfg.Collectors.Repo.Enabled && cfg.Collectors.Repo.Required {
		results = append(results, CheckGit(cfg.GitBinary()))
	}

	if cfg.LLMBacked() {
		results = append(results, CheckLLM(ctx, "OpenRouter API", cfg.GetLLM()))
	}

	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// Failures returns the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
