package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gavel/internal/config"
	"gavel/internal/testsupport"
)

func writeStubGit(t *testing.T) string {
	t.Helper()
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "git")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write git stub: %v", err)
	}
	t.Setenv("PATH", binDir)
	return stub
}

func llmHealthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckGit(t *testing.T) {
	writeStubGit(t)

	if result := CheckGit("git"); !result.Passed {
		t.Fatalf("expected stubbed git to pass, got: %s", result.Detail)
	}
	if result := CheckGit("clearly-not-present-binary"); result.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestCheckRubric_Default(t *testing.T) {
	cfg := config.Default()
	result := CheckRubric(&cfg)
	if !result.Passed {
		t.Fatalf("built-in rubric should pass, got: %s", result.Detail)
	}
	if result.Detail == "" {
		t.Fatal("expected rubric summary in detail")
	}
}

func TestCheckRubric_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rubric.toml")
	if err := os.WriteFile(path, []byte("[metadata]\nname = \"empty\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testsupport.NewConfig(t, testsupport.WithRubricPath(path))
	result := CheckRubric(cfg)
	if result.Passed {
		t.Fatal("expected failure for rubric without criteria")
	}
}

func TestCheckStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckStore(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected store check to pass, got: %s", result.Detail)
	}
	if result.Detail == "" {
		t.Fatal("expected database path in detail")
	}
}

func TestCheckLLM_OK(t *testing.T) {
	srv := llmHealthServer(t, http.StatusOK)

	cfg := config.LLMConfig{APIKey: "key", BaseURL: srv.URL, Model: "test-model"}
	result := CheckLLM(context.Background(), "LLM", cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLLM_Unauthorized(t *testing.T) {
	srv := llmHealthServer(t, http.StatusUnauthorized)

	cfg := config.LLMConfig{APIKey: "bad", BaseURL: srv.URL, Model: "test-model"}
	result := CheckLLM(context.Background(), "LLM", cfg)
	if result.Passed {
		t.Fatal("expected failure for rejected key")
	}
	if result.Detail == "" {
		t.Fatal("expected failure detail")
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "LLM", config.LLMConfig{})
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_HeuristicConfig(t *testing.T) {
	writeStubGit(t)

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %+v", len(results), results)
	}
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", Failures(results))
	}
	for _, result := range results {
		if result.Name == "OpenRouter API" {
			t.Fatal("heuristic config should not include the LLM check")
		}
	}
}

func TestRunAll_IncludesLLMWhenBacked(t *testing.T) {
	writeStubGit(t)
	srv := llmHealthServer(t, http.StatusOK)

	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("key"))
	cfg.LLM.BaseURL = srv.URL
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	found := false
	for _, result := range results {
		if result.Name == "OpenRouter API" {
			found = true
			if !result.Passed {
				t.Errorf("LLM check failed: %s", result.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected LLM check in results")
	}
}

func TestRunAll_SkipsGitForOptionalRepoCollector(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Collectors.Repo.Required = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	t.Setenv("PATH", t.TempDir())

	results := RunAll(context.Background(), cfg)
	for _, result := range results {
		if result.Name == "Git" {
			t.Fatal("optional repo collector should not gate on git")
		}
	}
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", Failures(results))
	}
}

func TestCheckLLMFromConfig_HeuristicDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckLLMFromConfig(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("heuristic config should report disabled, got: %s", result.Detail)
	}
}

func TestCheckNotificationsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if result := CheckNotificationsFromConfig(cfg); !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("unexpected result: %+v", result)
	}
	enabled := testsupport.NewConfig(t, testsupport.WithNtfyTopic("https://ntfy.sh/audits"))
	if result := CheckNotificationsFromConfig(enabled); !result.Passed || result.Detail != "https://ntfy.sh/audits" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
