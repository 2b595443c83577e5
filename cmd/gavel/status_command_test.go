package main

import (
	"testing"
)

func TestCLIStatusRendersSections(t *testing.T) {
	env := setupCLITestEnv(t)
	writeStubGit(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	for _, section := range []string{"Configuration", "Workspace Paths", "Dependencies", "Services", "Rubric", "Runs"} {
		requireContains(t, out, "== "+section+" ==")
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "Disabled (heuristic evaluators)")
	requireContains(t, out, "No runs recorded")
}

func TestCLIStatusFlagsMissingGit(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not found")
}
