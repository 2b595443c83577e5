package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Workspace contains directory configuration for run artifacts.
type Workspace struct {
	RootDir    string `toml:"root_dir"`
	LogDir     string `toml:"log_dir"`
	ReportDir  string `toml:"report_dir"`
	ScratchDir string `toml:"scratch_dir"`
}

// Rubric contains configuration for the rubric source.
type Rubric struct {
	Path string `toml:"path"`
}

// Workflow contains concurrency limits and deadlines for a run.
type Workflow struct {
	ConcurrencyLimit int `toml:"concurrency_limit"`
	CollectTimeout   int `toml:"collect_timeout"`
	EvaluateTimeout  int `toml:"evaluate_timeout"`
	RunTimeout       int `toml:"run_timeout"`
	OpinionRetries   int `toml:"opinion_retries"`
}

// Synthesis contains the numeric constants the rule engine applies when
// resolving opinions into a final score.
type Synthesis struct {
	SecurityTrigger       int     `toml:"security_trigger"`
	SecurityCap           int     `toml:"security_cap"`
	DissentSpread         int     `toml:"dissent_spread"`
	ContradictionDiscount float64 `toml:"contradiction_discount"`
	TechLeadWeight        float64 `toml:"tech_lead_weight"`
	SatisfactoryScore     int     `toml:"satisfactory_score"`
	ScaleMin              int     `toml:"scale_min"`
	ScaleMax              int     `toml:"scale_max"`
}

// LLM contains shared LLM connection settings used by evaluators and the
// documentation analyst.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Evaluators selects the judging backend.
type Evaluators struct {
	Backend string `toml:"backend"`
}

// CollectorToggle enables a collector and marks whether its absence degrades
// the run.
type CollectorToggle struct {
	Enabled  bool `toml:"enabled"`
	Required bool `toml:"required"`
}

// Collectors contains per-collector enablement.
type Collectors struct {
	Repo   CollectorToggle `toml:"repo"`
	Docs   CollectorToggle `toml:"docs"`
	Assets CollectorToggle `toml:"assets"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunStarted     bool   `toml:"run_started"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for gavel.
//
// Configuration sections by subsystem:
//   - Workspace: run artifact directories (logs, reports, clone scratch)
//   - Rubric: rubric file location (embedded default when unset)
//   - Workflow: concurrency cap, per-task deadlines, global run deadline
//   - Synthesis: numeric thresholds and weights for the rule engine
//   - LLM: shared connection settings for model-backed tasks
//   - Evaluators: judging backend selection (llm or heuristic)
//   - Collectors: evidence collector enablement and required flags
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Workspace     Workspace     `toml:"workspace"`
	Rubric        Rubric        `toml:"rubric"`
	Workflow      Workflow      `toml:"workflow"`
	Synthesis     Synthesis     `toml:"synthesis"`
	LLM           LLM           `toml:"llm"`
	Evaluators    Evaluators    `toml:"evaluators"`
	Collectors    Collectors    `toml:"collectors"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gavel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/gavel/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gavel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// ScratchDir is created on a best-effort basis since collectors recreate
// their own sandboxes per run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Workspace.RootDir, c.Workspace.LogDir, c.Workspace.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Workspace.ScratchDir) != "" {
		_ = os.MkdirAll(c.Workspace.ScratchDir, 0o755)
	}
	return nil
}

// GitBinary returns the git executable name used by the repository collector.
func (c *Config) GitBinary() string {
	return "git"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultScratchDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "gavel", "scratch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/gavel/scratch"
	}
	return filepath.Join(home, ".cache", "gavel", "scratch")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains common LLM settings used across features.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// LLMBacked reports whether the configured evaluator backend calls a model.
func (c *Config) LLMBacked() bool {
	return strings.EqualFold(strings.TrimSpace(c.Evaluators.Backend), "llm")
}
