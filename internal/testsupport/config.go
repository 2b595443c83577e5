package testsupport

import (
	"path/filepath"
	"testing"

	"gavel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The evaluator backend defaults to heuristic so tests run without network
// access or API keys.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Workspace.RootDir = base
	cfgVal.Workspace.LogDir = filepath.Join(base, "logs")
	cfgVal.Workspace.ReportDir = filepath.Join(base, "reports")
	cfgVal.Workspace.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Evaluators.Backend = "heuristic"
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMKey sets the API key and switches the evaluator backend to llm.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
		b.cfg.Evaluators.Backend = "llm"
	}
}

// WithBackend overrides the evaluator backend on the test config.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Evaluators.Backend = backend
	}
}

// WithNtfyTopic points notifications at the provided topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithRubricPath points the config at a rubric file on disk.
func WithRubricPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rubric.Path = path
	}
}
