package main

import (
	"strings"
	"testing"

	"gavel/internal/testsupport"
)

func TestCLIRunsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "No runs recorded yet.")
}

func TestCLIRunsListShowsSeededRun(t *testing.T) {
	env := setupCLITestEnv(t)

	st := testsupport.MustOpenStore(t, env.cfg)
	run := testsupport.NewRun(t, st, "https://example.com/audit/repo.git")

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, shortID(run.ID))
	requireContains(t, out, "https://example.com/audit/repo.git")
	requireContains(t, out, "unscored")
	requireContains(t, out, "in progress")

	out, _, err = runCLI(t, []string{"runs", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list --json: %v", err)
	}
	requireContains(t, out, `"id": "`+run.ID+`"`)
	requireContains(t, out, `"phase": "idle"`)
}

func TestCLIRunsShowResolvesPrefix(t *testing.T) {
	env := setupCLITestEnv(t)

	st := testsupport.MustOpenStore(t, env.cfg)
	run := testsupport.NewRun(t, st, "https://example.com/audit/repo.git")

	out, _, err := runCLI(t, []string{"runs", "show", run.ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, run.ID)
	requireContains(t, out, "Incomplete: no")
}

func TestCLIRunsShowUnknownID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"runs", "show", "doesnotexist"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown run id")
	}
	if !strings.Contains(err.Error(), "doesnotexist") {
		t.Fatalf("expected error to name the id, got %v", err)
	}
}
