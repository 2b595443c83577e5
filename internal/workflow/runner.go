package workflow

import (
	"context"
	"log/slog"
	"time"

	"gavel/internal/collect"
	"gavel/internal/config"
	"gavel/internal/judge"
	"gavel/internal/logging"
	"gavel/internal/notifications"
	"gavel/internal/report"
	"gavel/internal/rubric"
	"gavel/internal/services"
	"gavel/internal/services/llm"
	"gavel/internal/store"
	"gavel/internal/synthesis"
)

const defaultConcurrencyLimit = 4

// TargetResolver turns a raw target argument into a checkout. It matches
// collect.ResolveTarget and exists so tests can supply prepared directories.
type TargetResolver func(ctx context.Context, gitBinary, rawTarget, docsDir, scratchDir string) (*collect.Target, func(), error)

// Runner executes audit runs against a fixed rubric.
type Runner struct {
	cfg       *config.Config
	store     *store.Store
	rubric    *rubric.Rubric
	logger    *slog.Logger
	notifier  notifications.Service
	resolver  TargetResolver
	collect   []collect.Collector
	evaluate  []judge.Evaluator
	engine    *synthesis.Engine
	assembler *report.Assembler
	params    synthesis.Params

	docsDir         string
	concurrency     int
	collectTimeout  time.Duration
	evaluateTimeout time.Duration
	runTimeout      time.Duration
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*Runner)

// WithNotifier overrides the notification service.
func WithNotifier(notifier notifications.Service) RunnerOption {
	return func(r *Runner) {
		if notifier != nil {
			r.notifier = notifier
		}
	}
}

// WithCollectors overrides the evidence collectors.
func WithCollectors(collectors ...collect.Collector) RunnerOption {
	return func(r *Runner) { r.collect = collectors }
}

// WithEvaluators overrides the evaluator set.
func WithEvaluators(evaluators ...judge.Evaluator) RunnerOption {
	return func(r *Runner) { r.evaluate = evaluators }
}

// WithTargetResolver overrides target resolution (primarily for tests).
func WithTargetResolver(resolver TargetResolver) RunnerOption {
	return func(r *Runner) {
		if resolver != nil {
			r.resolver = resolver
		}
	}
}

// WithDocsDir points the documentation collector at a directory other than
// the repository default.
func WithDocsDir(dir string) RunnerOption {
	return func(r *Runner) {
		if dir != "" {
			r.docsDir = dir
		}
	}
}

// NewRunner wires a runner from configuration. The LLM client is shared by
// the docs collector, the evaluators, and the executive summary; it is nil
// when no API key is configured, which selects the heuristic paths.
func NewRunner(cfg *config.Config, st *store.Store, rub *rubric.Rubric, logger *slog.Logger, opts ...RunnerOption) (*Runner, error) {
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new runner", "run store required", nil)
	}
	if rub == nil || len(rub.Criteria) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new runner", "rubric with at least one criterion required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")

	var client *llm.Client
	if llmCfg := cfg.GetLLM(); llmCfg.APIKey != "" {
		client = llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})
	}

	params := synthesis.ParamsFromConfig(cfg.Synthesis)
	runner := &Runner{
		cfg:             cfg,
		store:           st,
		rubric:          rub,
		logger:          logger,
		notifier:        notifications.NewService(cfg),
		resolver:        collect.ResolveTarget,
		collect:         collect.BuildCollectors(cfg, client, logger),
		engine:          synthesis.NewEngine(params),
		assembler:       report.NewAssembler(params, client, logger),
		params:          params,
		concurrency:     cfg.Workflow.ConcurrencyLimit,
		collectTimeout:  time.Duration(cfg.Workflow.CollectTimeout) * time.Second,
		evaluateTimeout: time.Duration(cfg.Workflow.EvaluateTimeout) * time.Second,
		runTimeout:      time.Duration(cfg.Workflow.RunTimeout) * time.Second,
	}
	if runner.concurrency <= 0 {
		runner.concurrency = defaultConcurrencyLimit
	}

	evaluators, err := judge.BuildEvaluators(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	runner.evaluate = evaluators

	for _, opt := range opts {
		opt(runner)
	}

	if len(runner.collect) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new runner", "no collectors enabled", nil)
	}
	if len(runner.evaluate) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new runner", "no evaluators configured", nil)
	}
	return runner, nil
}

// Rubric returns the rubric this runner audits against.
func (r *Runner) Rubric() *rubric.Rubric {
	return r.rubric
}
