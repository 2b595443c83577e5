package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gavel/internal/config"
	"gavel/internal/store"
	"gavel/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	// Keep host API keys from leaking into config.Load, which would switch
	// the docs collector onto the real model endpoint.
	for _, key := range []string{"GAVEL_LLM_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path, base string) {
	t.Helper()
	workspace := filepath.Join(base, "gavel")
	content := fmt.Sprintf(`[workspace]
root_dir = %q
log_dir = %q
report_dir = %q
scratch_dir = %q

[evaluators]
backend = "heuristic"

[notifications]
ntfy_topic = ""
`,
		workspace,
		filepath.Join(workspace, "logs"),
		filepath.Join(workspace, "reports"),
		filepath.Join(workspace, "scratch"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// writeStubGit places a git stub on PATH so dependency checks pass without
// a real git install. The stub exits zero with no output, which the repo
// collector treats as a checkout with no commit history.
func writeStubGit(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\nexit 0\n"
	if err := os.WriteFile(filepath.Join(dir, "git"), []byte(script), 0o755); err != nil {
		t.Fatalf("write git stub: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestRootCommandStructure(t *testing.T) {
	root := newRootCommand()
	expected := []string{"run", "runs", "report", "status", "rubric", "config", "test-notify"}
	for _, name := range expected {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestCLIRunAuditsLocalRepo(t *testing.T) {
	env := setupCLITestEnv(t)
	writeStubGit(t)
	repoDir := testsupport.NewRepoFixture(t)

	out, _, err := runCLI(t, []string{"run", repoDir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Audit complete")
	requireContains(t, out, "Report:")

	st, err := store.Open(env.cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Phase != store.PhaseDone {
		t.Fatalf("expected phase done, got %s (error %q)", run.Phase, run.ErrorMessage)
	}
	if run.OverallScore == nil {
		t.Fatal("expected overall score to be recorded")
	}
	if run.ReportJSON == "" {
		t.Fatal("expected report JSON to be persisted")
	}

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, shortID(run.ID))
	requireContains(t, out, string(store.PhaseDone))

	out, _, err = runCLI(t, []string{"runs", "show", shortID(run.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, run.ID)
	requireContains(t, out, repoDir)

	out, _, err = runCLI(t, []string{"report", shortID(run.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	requireContains(t, out, "# Audit Report:")
	requireContains(t, out, "## Criterion Results")
}

func TestCLIRunCheckReportsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	writeStubGit(t)

	out, _, err := runCLI(t, []string{"run", "--check", "ignored-target"}, env.configPath)
	if err != nil {
		t.Fatalf("run --check: %v", err)
	}
	requireContains(t, out, "Workspace root")
	requireContains(t, out, "Rubric")
	requireContains(t, out, "Run store")
	if strings.Contains(out, "FAIL") {
		t.Fatalf("expected all preflight checks to pass, got:\n%s", out)
	}
}

func TestCLIRunFailsPreflightWithoutGit(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	_, _, err := runCLI(t, []string{"run", "ignored-target"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure without git on PATH")
	}
	requireContains(t, err.Error(), "preflight failed")
}
