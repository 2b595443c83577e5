package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/logging"
	"gavel/internal/rubric"
	"gavel/internal/services"
	"gavel/internal/services/llm"
)

const opinionContract = `Respond with JSON only, shaped as {"judge":"...","criterion_id":"...","score":0,"argument":"...","cited_evidence":["group:index"]}. Base the opinion only on the evidence list. In cited_evidence include only reference IDs from the list, and cite at least one. Keep the argument under 150 words.`

// LLMEvaluator prompts a model for one opinion and validates the response
// against the evidence catalog before accepting it.
type LLMEvaluator struct {
	persona string
	client  *llm.Client
	bounds  Bounds
	retries int
	logger  *slog.Logger
}

// NewLLMEvaluator binds a persona to the shared LLM client. retries is the
// number of additional attempts after a rejected response.
func NewLLMEvaluator(persona string, client *llm.Client, bounds Bounds, retries int, logger *slog.Logger) *LLMEvaluator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if retries < 0 {
		retries = 0
	}
	return &LLMEvaluator{
		persona: persona,
		client:  client,
		bounds:  bounds,
		retries: retries,
		logger:  logging.NewComponentLogger(logger, "judge."+persona),
	}
}

func (e *LLMEvaluator) Persona() string { return e.persona }

// Evaluate prompts for one opinion on the criterion. Responses that fail the
// acceptance contract are retried up to the configured budget; the last
// rejection reason is reported when the budget runs out.
func (e *LLMEvaluator) Evaluate(ctx context.Context, criterion rubric.Criterion, evidence []casefile.RefEvidence) (casefile.Opinion, error) {
	if len(evidence) == 0 {
		return casefile.Opinion{}, services.Wrap(services.ErrEvaluation, "judge", e.persona, "evidence catalog is empty", nil)
	}

	systemPrompt := personaCharge[e.persona] + "\n" + opinionContract
	userPrompt := buildOpinionPrompt(e.persona, criterion, e.bounds, evidence)
	refs := casefile.RefSet(evidence)

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return casefile.Opinion{}, services.Wrap(services.ErrEvaluation, "judge", e.persona, "evaluation cancelled", err)
		}

		payload, err := e.client.CompleteJSON(ctx, systemPrompt, userPrompt)
		if err != nil {
			lastErr = err
		} else {
			var wire wireOpinion
			if err := llm.DecodeLLMJSON(payload, &wire); err != nil {
				lastErr = err
			} else if err := validateOpinion(e.persona, criterion, e.bounds, refs, wire); err != nil {
				lastErr = err
			} else {
				return toOpinion(e.persona, wire), nil
			}
		}

		e.logger.WarnContext(ctx, "opinion rejected",
			logging.String(logging.FieldCriterion, criterion.ID),
			logging.Int("attempt", attempt+1),
			logging.Error(lastErr),
		)
	}

	return casefile.Opinion{}, services.Wrap(services.ErrEvaluation, "judge", e.persona,
		fmt.Sprintf("no acceptable opinion for %s after %d attempt(s)", criterion.ID, e.retries+1), lastErr)
}

func buildOpinionPrompt(persona string, criterion rubric.Criterion, bounds Bounds, evidence []casefile.RefEvidence) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Judge role: %s\n", casefile.PersonaDisplayName(persona))
	fmt.Fprintf(&builder, "Score exactly one criterion, setting criterion_id to %q and score between %d and %d inclusive.\n\n", criterion.ID, bounds.Min, bounds.Max)

	fmt.Fprintf(&builder, "Criterion:\n- id=%s | name=%s | target_artifact=%s\n", criterion.ID, criterion.DisplayName(), criterion.TargetArtifact)
	if criterion.ForensicInstruction != "" {
		fmt.Fprintf(&builder, "  forensic_instruction: %s\n", criterion.ForensicInstruction)
	}
	if criterion.SuccessPattern != "" {
		fmt.Fprintf(&builder, "  success_pattern: %s\n", criterion.SuccessPattern)
	}
	if criterion.FailurePattern != "" {
		fmt.Fprintf(&builder, "  failure_pattern: %s\n", criterion.FailurePattern)
	}

	builder.WriteString("\nEvidence list:\n")
	for _, entry := range evidence {
		builder.WriteString(casefile.FormatEvidenceLine(entry))
		builder.WriteString("\n")
	}
	return builder.String()
}
