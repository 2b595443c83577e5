package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gavel/internal/casefile"
	"gavel/internal/logging"
	"gavel/internal/rubric"
	"gavel/internal/services/llm"
	"gavel/internal/synthesis"
)

// Meta identifies the run a report belongs to.
type Meta struct {
	RunID  string
	Target string
}

// Assembler folds synthesized results into the final report document.
type Assembler struct {
	params synthesis.Params
	client *llm.Client
	logger *slog.Logger
	now    func() time.Time
}

// AssemblerOption customizes assembly.
type AssemblerOption func(*Assembler)

// WithClock overrides the generation timestamp source (for tests).
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAssembler constructs an assembler. A nil client selects the
// deterministic executive summary.
func NewAssembler(params synthesis.Params, client *llm.Client, logger *slog.Logger, opts ...AssemblerOption) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	assembler := &Assembler{
		params: params,
		client: client,
		logger: logging.NewComponentLogger(logger, "report"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(assembler)
	}
	return assembler
}

// Assemble builds the report. Results are reordered to match the rubric so
// the same inputs always produce the same document. The report is marked
// incomplete when degradations exist or any criterion went unscored; an
// incomplete report is still a full document.
func (a *Assembler) Assemble(
	ctx context.Context,
	meta Meta,
	rub *rubric.Rubric,
	snapshot casefile.Snapshot,
	results []casefile.CriterionResult,
	degradations []casefile.Degradation,
) *casefile.Report {
	ordered := orderByRubric(rub, results)

	var scoredSum, scoredCount int
	incomplete := len(degradations) > 0
	for _, result := range ordered {
		if result.Scored {
			scoredSum += result.FinalScore
			scoredCount++
		} else {
			incomplete = true
		}
	}

	overall := 0.0
	if scoredCount > 0 {
		overall = float64(scoredSum) / float64(scoredCount)
	}

	report := &casefile.Report{
		RunID:           meta.RunID,
		Target:          meta.Target,
		RubricName:      rub.Metadata.Name,
		RubricVersion:   rub.Metadata.Version,
		OverallScore:    overall,
		Criteria:        ordered,
		RemediationPlan: a.remediationPlan(ordered),
		Incomplete:      incomplete,
		Degradations:    degradations,
		GeneratedAt:     a.now().UTC(),
	}
	report.ExecutiveSummary = a.executiveSummary(ctx, report, snapshot, scoredCount)
	return report
}

func orderByRubric(rub *rubric.Rubric, results []casefile.CriterionResult) []casefile.CriterionResult {
	byID := make(map[string]casefile.CriterionResult, len(results))
	for _, result := range results {
		byID[result.CriterionID] = result
	}

	ordered := make([]casefile.CriterionResult, 0, len(results))
	for _, criterion := range rub.Criteria {
		if result, ok := byID[criterion.ID]; ok {
			ordered = append(ordered, result)
			delete(byID, criterion.ID)
		}
	}
	// Results for criteria outside the rubric should not happen; keep them
	// at the end rather than dropping data.
	for _, result := range results {
		if _, remaining := byID[result.CriterionID]; remaining {
			ordered = append(ordered, result)
		}
	}
	return ordered
}

// remediationPlan ladders scored criteria by severity. The critical band is
// everything at or below the security trigger, the improvement band sits
// between the trigger and the satisfactory cutoff.
func (a *Assembler) remediationPlan(results []casefile.CriterionResult) string {
	var critical, improvements []casefile.CriterionResult
	for _, result := range results {
		if !result.Scored {
			continue
		}
		switch {
		case result.FinalScore <= a.params.SecurityTrigger:
			critical = append(critical, result)
		case result.FinalScore < a.params.SatisfactoryScore:
			improvements = append(improvements, result)
		}
	}

	parts := []string{"# Remediation Plan\n"}

	if len(critical) > 0 {
		parts = append(parts, fmt.Sprintf("\n## Priority 1: Critical Issues (Score <= %d)\n", a.params.SecurityTrigger))
		for _, result := range critical {
			parts = append(parts, planEntry(result, a.params.ScaleMax)...)
		}
	}
	if len(improvements) > 0 {
		parts = append(parts, fmt.Sprintf("\n## Priority 2: Improvements Needed (Score %d-%d)\n", a.params.SecurityTrigger+1, a.params.SatisfactoryScore-1))
		for _, result := range improvements {
			parts = append(parts, planEntry(result, a.params.ScaleMax)...)
		}
	}
	if len(critical) == 0 && len(improvements) == 0 {
		parts = append(parts,
			"\n## Status: All Criteria Meet Quality Standards\n",
			"No remediation required. The codebase meets all evaluated criteria.",
		)
	}
	return strings.Join(parts, "\n")
}

func planEntry(result casefile.CriterionResult, scaleMax int) []string {
	action := result.Remediation
	if strings.TrimSpace(action) == "" {
		action = fmt.Sprintf("Review and improve %s to meet the success pattern defined in the rubric.", result.CriterionID)
	}
	return []string{
		fmt.Sprintf("\n### %s (%s)", result.CriterionName, result.CriterionID),
		fmt.Sprintf("- Current Score: %d/%d", result.FinalScore, scaleMax),
		fmt.Sprintf("- Action: %s", action),
	}
}

// executiveSummary prefers the model-written summary and falls back to the
// deterministic one on any failure. Scores in the summary always come from
// the synthesized results, never from the model.
func (a *Assembler) executiveSummary(ctx context.Context, report *casefile.Report, snapshot casefile.Snapshot, scoredCount int) string {
	deterministic := a.deterministicSummary(report, snapshot, scoredCount)
	if a.client == nil {
		return deterministic
	}

	summary, err := a.modelSummary(ctx, report, snapshot)
	if err != nil {
		a.logger.WarnContext(ctx, "falling back to deterministic executive summary", logging.Error(err))
		return deterministic
	}
	return summary
}

func (a *Assembler) deterministicSummary(report *casefile.Report, snapshot casefile.Snapshot, scoredCount int) string {
	var builder strings.Builder
	if scoredCount > 0 {
		fmt.Fprintf(&builder, "Audit of %s scored %.2f/%d overall across %d criteria.",
			report.Target, report.OverallScore, a.params.ScaleMax, scoredCount)
	} else {
		fmt.Fprintf(&builder, "Audit of %s produced no scored criteria.", report.Target)
	}

	var capped, dissents, low []string
	for _, result := range report.Criteria {
		if result.SecurityCapped {
			capped = append(capped, result.CriterionID)
		}
		if result.DissentSummary != "" {
			dissents = append(dissents, result.CriterionID)
		}
		if result.Scored && result.FinalScore <= a.params.SecurityTrigger {
			low = append(low, result.CriterionID)
		}
	}
	if len(low) > 0 {
		fmt.Fprintf(&builder, " Critical findings: %s.", strings.Join(low, ", "))
	}
	if len(capped) > 0 {
		fmt.Fprintf(&builder, " Security override capped: %s.", strings.Join(capped, ", "))
	}
	if len(dissents) > 0 {
		fmt.Fprintf(&builder, " Evaluator dissent recorded on: %s.", strings.Join(dissents, ", "))
	}
	fmt.Fprintf(&builder, " Based on %d evidence entries and %d opinions.", len(snapshot.Flatten()), len(snapshot.Opinions))
	if report.Incomplete {
		builder.WriteString(" The audit is incomplete; see the degradation notes.")
	}
	return builder.String()
}

const summarySystem = `You write the executive summary of a repository audit report. The scores were already determined by deterministic synthesis rules; never propose different scores. Summarize the overall verdict, the strongest and weakest criteria, and any security caps or dissent in under 180 words of plain prose. Respond with JSON only, shaped as {"executive_summary":"..."}.`

func (a *Assembler) modelSummary(ctx context.Context, report *casefile.Report, snapshot casefile.Snapshot) (string, error) {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Target: %s\n", report.Target)
	fmt.Fprintf(&builder, "Overall score: %.2f/%d\n", report.OverallScore, a.params.ScaleMax)
	fmt.Fprintf(&builder, "Evidence entries: %d, opinions: %d\n\n", len(snapshot.Flatten()), len(snapshot.Opinions))
	builder.WriteString("Criterion results:\n")
	for _, result := range report.Criteria {
		if result.Scored {
			fmt.Fprintf(&builder, "- %s: %d/%d", result.CriterionID, result.FinalScore, a.params.ScaleMax)
		} else {
			fmt.Fprintf(&builder, "- %s: unscored", result.CriterionID)
		}
		if result.SecurityCapped {
			builder.WriteString(" (security capped)")
		}
		if result.DissentSummary != "" {
			builder.WriteString(" (dissent)")
		}
		builder.WriteString("\n")
	}
	if report.Incomplete {
		builder.WriteString("\nThe audit is incomplete: some evidence sources or evaluations were unavailable.\n")
	}

	payload, err := a.client.CompleteJSON(ctx, summarySystem, builder.String())
	if err != nil {
		return "", err
	}
	var decoded struct {
		ExecutiveSummary string `json:"executive_summary"`
	}
	if err := llm.DecodeLLMJSON(payload, &decoded); err != nil {
		return "", err
	}
	summary := strings.TrimSpace(decoded.ExecutiveSummary)
	if summary == "" {
		return "", fmt.Errorf("model returned an empty executive summary")
	}
	return summary, nil
}
