package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gavel/internal/casefile"
	"gavel/internal/collect"
	"gavel/internal/judge"
	"gavel/internal/logging"
	"gavel/internal/report"
	"gavel/internal/rubric"
	"gavel/internal/services"
	"gavel/internal/store"
)

// RunResult bundles everything Execute produced for one run.
type RunResult struct {
	Run    *store.Run
	Report *casefile.Report
	Paths  report.Paths
}

// execution carries the mutable state of one run.
type execution struct {
	runner  *Runner
	run     *store.Run
	state   *casefile.State
	started time.Time

	mu             sync.Mutex
	degradations   []casefile.Degradation
	requiredFailed int
}

// Execute audits rawTarget and returns the run record, the report, and the
// artifact locations. A non-nil error with a non-nil result means the run
// failed but still produced a best-effort report.
func (r *Runner) Execute(ctx context.Context, rawTarget string) (*RunResult, error) {
	run, err := r.store.CreateRun(ctx, rawTarget, r.rubric.Metadata.Name, r.rubric.Metadata.Version)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "create run", "persist new run", err)
	}

	ctx = services.WithRunID(ctx, run.ID)
	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}

	if err := r.notifier.NotifyRunStarted(ctx, rawTarget); err != nil {
		logging.WithContext(ctx, r.logger).Warn("run started notification failed", logging.Error(err))
	}

	exec := &execution{runner: r, run: run, state: casefile.NewState(), started: time.Now()}
	return exec.execute(ctx, rawTarget)
}

func (e *execution) execute(ctx context.Context, rawTarget string) (*RunResult, error) {
	r := e.runner

	if err := e.transition(ctx, store.PhaseCollecting); err != nil {
		return nil, err
	}
	target, cleanup, err := r.resolver(ctx, r.cfg.GitBinary(), rawTarget, r.docsDir, r.cfg.Workspace.ScratchDir)
	if err != nil {
		if services.IsFatal(err) {
			return e.failHard(ctx, err)
		}
		e.addDegradation(store.PhaseCollecting, "target", err.Error())
		return e.failSoft(ctx, services.Wrap(services.ErrCollection, "workflow", "resolve target", "no checkout to audit", err))
	}
	defer cleanup()

	e.collectEvidence(ctx, target)
	if err := e.abortIfCancelled(ctx); err != nil {
		return e.failHard(ctx, err)
	}

	if err := e.transition(ctx, store.PhaseAggregatingEvidence); err != nil {
		return nil, err
	}
	requiredTotal := 0
	for _, collector := range r.collect {
		if collector.Required() {
			requiredTotal++
		}
	}
	e.mu.Lock()
	requiredFailed := e.requiredFailed
	e.mu.Unlock()

	logging.WithContext(ctx, r.logger).Info("evidence aggregated",
		logging.Int("evidence", e.state.EvidenceCount()),
		logging.Int("required_failed", requiredFailed),
	)
	if e.state.EvidenceCount() == 0 {
		return e.failSoft(ctx, services.Wrap(services.ErrCollection, "workflow", "aggregate evidence", "no evidence collected from any source", nil))
	}
	if requiredTotal > 0 && requiredFailed == requiredTotal {
		return e.failSoft(ctx, services.Wrap(services.ErrCollection, "workflow", "aggregate evidence", "all required collectors failed", nil))
	}

	if err := e.transition(ctx, store.PhaseEvaluating); err != nil {
		return nil, err
	}
	e.evaluateCriteria(ctx)
	if err := e.abortIfCancelled(ctx); err != nil {
		return e.failHard(ctx, err)
	}

	if err := e.transition(ctx, store.PhaseAggregatingOpinions); err != nil {
		return nil, err
	}
	collected := e.state.OpinionCount()
	logging.WithContext(ctx, r.logger).Info("opinions aggregated",
		logging.Int("opinions", collected),
	)
	if expected := len(r.rubric.Criteria) * len(r.evaluate); collected < expected {
		shortfall := services.Wrap(services.ErrAggregation, "workflow", "aggregate opinions",
			fmt.Sprintf("%d of %d opinions collected", collected, expected), nil)
		logging.WithContext(ctx, r.logger).Warn("opinion aggregation incomplete",
			logging.Error(shortfall),
			logging.String(logging.FieldErrorKind, string(services.Kind(shortfall))),
		)
	}

	if err := e.transition(ctx, store.PhaseSynthesizing); err != nil {
		return nil, err
	}
	rep, paths, err := e.synthesizeAndWrite(context.WithoutCancel(ctx))
	if err != nil {
		return e.failHard(ctx, err)
	}

	e.run.Phase = store.PhaseDone
	e.run.Incomplete = rep.Incomplete
	if len(rep.ScoredCriteria()) > 0 {
		overall := rep.OverallScore
		e.run.OverallScore = &overall
	}
	if err := e.persistRun(ctx); err != nil {
		return nil, err
	}

	duration := time.Since(e.started)
	if err := r.notifier.NotifyRunCompleted(context.WithoutCancel(ctx), e.run.Target, e.run.OverallScore, e.run.Incomplete, duration); err != nil {
		logging.WithContext(ctx, r.logger).Warn("run completed notification failed", logging.Error(err))
	}
	logging.WithContext(ctx, r.logger).Info("run completed",
		logging.Bool("incomplete", e.run.Incomplete),
		logging.Duration(logging.FieldDuration, duration),
	)
	return &RunResult{Run: e.run, Report: rep, Paths: paths}, nil
}

// collectEvidence fans the collectors out under the concurrency cap. Each
// failure becomes a degradation; successful batches merge into shared state
// whole, so a failed collector contributes nothing.
func (e *execution) collectEvidence(ctx context.Context, target *collect.Target) {
	r := e.runner
	ctx = services.WithPhase(ctx, string(store.PhaseCollecting))

	r.runTasks(ctx, len(r.collect), func(ctx context.Context, index int) {
		collector := r.collect[index]
		taskCtx := ctx
		if r.collectTimeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(ctx, r.collectTimeout)
			defer cancel()
		}

		logger := logging.WithContext(taskCtx, r.logger)
		evidence, err := collector.Collect(taskCtx, target, r.rubric.Criteria)
		if err != nil {
			e.addDegradation(store.PhaseCollecting, collector.Name(), taskFailureReason(err))
			if collector.Required() {
				e.mu.Lock()
				e.requiredFailed++
				e.mu.Unlock()
			}
			logger.Warn("collector failed",
				logging.String(logging.FieldCollector, collector.Name()),
				logging.Bool("required", collector.Required()),
				logging.Error(err),
			)
			return
		}

		e.state.Merge(casefile.Update{Evidence: map[string][]casefile.Evidence{collector.Group(): evidence}})
		logger.Info("collector finished",
			logging.String(logging.FieldCollector, collector.Name()),
			logging.Int("evidence", len(evidence)),
		)
	})
}

// evaluateCriteria fans out one task per evaluator-criterion pair over the
// aggregated evidence. A failed pair leaves its criterion short one opinion
// and is recorded as a degradation.
func (e *execution) evaluateCriteria(ctx context.Context) {
	r := e.runner
	ctx = services.WithPhase(ctx, string(store.PhaseEvaluating))

	snapshot := e.state.Snapshot()
	flattened := snapshot.Flatten()

	type pair struct {
		criterion rubric.Criterion
		evaluator judge.Evaluator
	}
	var pairs []pair
	for _, criterion := range r.rubric.Criteria {
		for _, evaluator := range r.evaluate {
			pairs = append(pairs, pair{criterion: criterion, evaluator: evaluator})
		}
	}

	r.runTasks(ctx, len(pairs), func(ctx context.Context, index int) {
		criterion := pairs[index].criterion
		evaluator := pairs[index].evaluator

		taskCtx := services.WithCriterion(ctx, criterion.ID)
		taskCtx = services.WithPersona(taskCtx, evaluator.Persona())
		if r.evaluateTimeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(taskCtx, r.evaluateTimeout)
			defer cancel()
		}

		opinion, err := evaluator.Evaluate(taskCtx, criterion, flattened)
		if err != nil {
			source := fmt.Sprintf("%s/%s", evaluator.Persona(), criterion.ID)
			e.addDegradation(store.PhaseEvaluating, source, taskFailureReason(err))
			logging.WithContext(taskCtx, r.logger).Warn("evaluation failed", logging.Error(err))
			return
		}
		e.state.Merge(casefile.Update{Opinions: []casefile.Opinion{opinion}})
	})
}

// synthesizeAndWrite resolves every criterion, assembles the report, and
// lands the artifacts. It runs on an uncancellable context: once the run
// reaches synthesis, a report is always emitted.
func (e *execution) synthesizeAndWrite(ctx context.Context) (*casefile.Report, report.Paths, error) {
	r := e.runner

	snapshot := e.state.Snapshot()
	flattened := snapshot.Flatten()

	results := make([]casefile.CriterionResult, 0, len(r.rubric.Criteria))
	for _, criterion := range r.rubric.Criteria {
		results = append(results, r.engine.Synthesize(criterion, flattened, snapshot.OpinionsFor(criterion.ID)))
	}

	rep := r.assembler.Assemble(ctx,
		report.Meta{RunID: e.run.ID, Target: e.run.Target},
		r.rubric, snapshot, results, e.degradationList(),
	)

	paths, err := report.Write(rep, r.params.ScaleMax, r.cfg.Workspace.ReportDir)
	if err != nil {
		return nil, report.Paths{}, services.Wrap(services.ErrSynthesis, "workflow", "write report", "land report artifacts", err)
	}
	if err := e.state.SetReport(rep); err != nil {
		return nil, report.Paths{}, err
	}

	encoded, err := report.EncodeJSON(rep)
	if err != nil {
		return nil, report.Paths{}, err
	}
	e.run.ReportJSON = string(encoded)
	return rep, paths, nil
}

// failSoft emits a best-effort incomplete report, marks the run errored,
// and returns the cause alongside the result.
func (e *execution) failSoft(ctx context.Context, cause error) (*RunResult, error) {
	r := e.runner
	base := context.WithoutCancel(ctx)

	rep, paths, synthErr := e.synthesizeAndWrite(base)
	if synthErr != nil {
		logging.WithContext(ctx, r.logger).Error("best-effort report failed", logging.Error(synthErr))
	}

	e.run.Phase = store.PhaseError
	e.run.Incomplete = true
	e.run.ErrorMessage = cause.Error()
	if err := e.persistRun(ctx); err != nil {
		return nil, err
	}

	if err := r.notifier.NotifyRunFailed(base, e.run.Target, cause); err != nil {
		logging.WithContext(ctx, r.logger).Warn("run failed notification failed", logging.Error(err))
	}
	details := services.Details(cause)
	logging.WithContext(ctx, r.logger).Error("run failed with best-effort report",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.Alert("run_failure"),
		logging.String(logging.FieldEventType, "run_failure"),
	)

	if rep == nil {
		return nil, cause
	}
	return &RunResult{Run: e.run, Report: rep, Paths: paths}, cause
}

// failHard marks the run errored without attempting a report.
func (e *execution) failHard(ctx context.Context, cause error) (*RunResult, error) {
	r := e.runner

	e.run.Phase = store.PhaseError
	e.run.ErrorMessage = cause.Error()
	if err := e.persistRun(ctx); err != nil {
		logging.WithContext(ctx, r.logger).Error("persist failed run", logging.Error(err))
	}
	if err := r.notifier.NotifyRunFailed(context.WithoutCancel(ctx), e.run.Target, cause); err != nil {
		logging.WithContext(ctx, r.logger).Warn("run failed notification failed", logging.Error(err))
	}
	details := services.Details(cause)
	logging.WithContext(ctx, r.logger).Error("run failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.Alert("run_failure"),
		logging.String(logging.FieldEventType, "run_failure"),
	)
	return nil, cause
}

// transition advances the persisted phase. Persistence uses an
// uncancellable context so a run deadline cannot strand the store in a
// stale phase.
func (e *execution) transition(ctx context.Context, phase store.Phase) error {
	e.run.Phase = phase
	if err := e.persistRun(ctx); err != nil {
		return err
	}
	logging.WithContext(services.WithPhase(ctx, string(phase)), e.runner.logger).Info("phase transition",
		logging.String(logging.FieldEventType, "phase_transition"),
	)
	return nil
}

func (e *execution) persistRun(ctx context.Context) error {
	if err := e.runner.store.UpdateRun(context.WithoutCancel(ctx), e.run); err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "persist run", "update run record", err)
	}
	return nil
}

func (e *execution) addDegradation(phase store.Phase, source, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.degradations = append(e.degradations, casefile.Degradation{
		Phase:  string(phase),
		Source: source,
		Reason: reason,
	})
}

func (e *execution) degradationList() []casefile.Degradation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]casefile.Degradation(nil), e.degradations...)
}

// abortIfCancelled distinguishes an operator cancel from a run deadline.
// Deadlines degrade and continue toward a best-effort report; cancellation
// stops the run.
func (e *execution) abortIfCancelled(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return services.Wrap(services.ErrTimeout, "workflow", "run", "run cancelled", ctx.Err())
	}
	return nil
}

func taskFailureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "task deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "run cancelled before task completed"
	default:
		return err.Error()
	}
}
