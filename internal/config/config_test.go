package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gavel/internal/config"
)

func TestLoadDefaultConfigUsesEnvLLMKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("GAVEL_LLM_API_KEY", "")
	os.Unsetenv("GAVEL_LLM_API_KEY")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, ".local", "share", "gavel")
	if cfg.Workspace.RootDir != wantRoot {
		t.Fatalf("unexpected root dir: got %q want %q", cfg.Workspace.RootDir, wantRoot)
	}
	if cfg.Workspace.ReportDir != filepath.Join(wantRoot, "reports") {
		t.Fatalf("unexpected report dir: %q", cfg.Workspace.ReportDir)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Evaluators.Backend != "llm" {
		t.Fatalf("expected llm backend by default, got %q", cfg.Evaluators.Backend)
	}
	if cfg.Workflow.ConcurrencyLimit != 4 {
		t.Fatalf("unexpected concurrency limit: %d", cfg.Workflow.ConcurrencyLimit)
	}
	if cfg.Synthesis.TechLeadWeight != 1.3 {
		t.Fatalf("unexpected tech lead weight: %v", cfg.Synthesis.TechLeadWeight)
	}
	if cfg.Synthesis.ScaleMin != 1 || cfg.Synthesis.ScaleMax != 5 {
		t.Fatalf("unexpected scale bounds: %d..%d", cfg.Synthesis.ScaleMin, cfg.Synthesis.ScaleMax)
	}
	if !cfg.Collectors.Repo.Required {
		t.Fatal("expected repo collector to be required by default")
	}
	if cfg.Collectors.Docs.Required {
		t.Fatal("expected docs collector to be optional by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Workspace.RootDir, cfg.Workspace.LogDir, cfg.Workspace.ReportDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gavel.toml")

	type payload struct {
		Workflow struct {
			ConcurrencyLimit int `toml:"concurrency_limit"`
		} `toml:"workflow"`
		Synthesis struct {
			TechLeadWeight float64 `toml:"tech_lead_weight"`
			DissentSpread  int     `toml:"dissent_spread"`
		} `toml:"synthesis"`
		Evaluators struct {
			Backend string `toml:"backend"`
		} `toml:"evaluators"`
	}
	custom := payload{}
	custom.Workflow.ConcurrencyLimit = 2
	custom.Synthesis.TechLeadWeight = 1.5
	custom.Synthesis.DissentSpread = 1
	custom.Evaluators.Backend = "heuristic"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Workflow.ConcurrencyLimit != 2 {
		t.Fatalf("expected concurrency override, got %d", cfg.Workflow.ConcurrencyLimit)
	}
	if cfg.Synthesis.TechLeadWeight != 1.5 {
		t.Fatalf("expected tech lead weight override, got %v", cfg.Synthesis.TechLeadWeight)
	}
	if cfg.Synthesis.DissentSpread != 1 {
		t.Fatalf("expected dissent spread override, got %d", cfg.Synthesis.DissentSpread)
	}
	if cfg.Evaluators.Backend != "heuristic" {
		t.Fatalf("expected heuristic backend, got %q", cfg.Evaluators.Backend)
	}
	if cfg.LLM.BaseURL != config.Default().LLM.BaseURL {
		t.Fatalf("expected default LLM base url, got %q", cfg.LLM.BaseURL)
	}
}

func TestLoadRejectsInvalidScale(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gavel.toml")

	type payload struct {
		Synthesis struct {
			ScaleMin int `toml:"scale_min"`
			ScaleMax int `toml:"scale_max"`
		} `toml:"synthesis"`
		Evaluators struct {
			Backend string `toml:"backend"`
		} `toml:"evaluators"`
	}
	custom := payload{}
	custom.Synthesis.ScaleMin = 5
	custom.Synthesis.ScaleMax = 5
	custom.Evaluators.Backend = "heuristic"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	_, _, _, err = config.Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for degenerate scale")
	}
	if !strings.Contains(err.Error(), "scale_min") {
		t.Fatalf("expected scale_min in error, got %v", err)
	}
}

func TestLoadRequiresLLMKeyForLLMBackend(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	os.Unsetenv("OPENROUTER_API_KEY")
	t.Setenv("GAVEL_LLM_API_KEY", "")
	os.Unsetenv("GAVEL_LLM_API_KEY")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error when llm backend has no key")
	}
	if !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm.api_key in error, got %v", err)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.HasPrefix(string(data), "# gavel configuration") {
		t.Fatalf("unexpected sample header: %q", string(data[:40]))
	}
}
