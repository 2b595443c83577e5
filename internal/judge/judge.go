package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/config"
	"gavel/internal/rubric"
	"gavel/internal/services"
	"gavel/internal/services/llm"
)

// Evaluator scores one criterion from the evidence catalog. The persona is
// fixed at construction; Evaluate returns exactly one opinion or an error,
// never a partial result.
type Evaluator interface {
	Persona() string
	Evaluate(ctx context.Context, criterion rubric.Criterion, evidence []casefile.RefEvidence) (casefile.Opinion, error)
}

// Bounds is the inclusive score range evaluators must stay within.
type Bounds struct {
	Min int
	Max int
}

func (b Bounds) contains(score int) bool {
	return score >= b.Min && score <= b.Max
}

// personaCharge is the standing instruction that shapes each persona's read
// of the same evidence.
var personaCharge = map[string]string{
	casefile.PersonaProsecutor: "You are the Prosecutor: a skeptic who hunts for flaws, gaps, and risk. Score low unless the evidence affirmatively demonstrates quality.",
	casefile.PersonaDefense:    "You are the Defense: an advocate who credits demonstrated strengths and reasonable intent. Score generously where the evidence supports it.",
	casefile.PersonaTechLead:   "You are the TechLead: a pragmatist who weighs engineering tradeoffs. Score what the evidence shows a maintainer would actually inherit.",
}

// BuildEvaluators assembles one evaluator per persona for the configured
// backend. The llm backend requires a client.
func BuildEvaluators(cfg *config.Config, client *llm.Client, logger *slog.Logger) ([]Evaluator, error) {
	bounds := Bounds{Min: cfg.Synthesis.ScaleMin, Max: cfg.Synthesis.ScaleMax}

	backend := strings.ToLower(strings.TrimSpace(cfg.Evaluators.Backend))
	switch backend {
	case "", "llm":
		if client == nil {
			return nil, services.Wrap(services.ErrConfiguration, "judge", "build evaluators", "llm backend selected without an API key", nil)
		}
		evaluators := make([]Evaluator, 0, len(casefile.Personas()))
		for _, persona := range casefile.Personas() {
			evaluators = append(evaluators, NewLLMEvaluator(persona, client, bounds, cfg.Workflow.OpinionRetries, logger))
		}
		return evaluators, nil
	case "heuristic":
		evaluators := make([]Evaluator, 0, len(casefile.Personas()))
		for _, persona := range casefile.Personas() {
			evaluators = append(evaluators, NewHeuristicEvaluator(persona, bounds))
		}
		return evaluators, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "judge", "build evaluators", fmt.Sprintf("unknown evaluator backend %q", backend), nil)
	}
}

// wireOpinion is the JSON shape evaluator backends produce.
type wireOpinion struct {
	Judge         string   `json:"judge"`
	CriterionID   string   `json:"criterion_id"`
	Score         int      `json:"score"`
	Argument      string   `json:"argument"`
	CitedEvidence []string `json:"cited_evidence"`
}

// validateOpinion enforces the acceptance contract: the opinion must come
// from the requested persona, score the requested criterion within bounds,
// and cite only references that resolve against the catalog.
func validateOpinion(persona string, criterion rubric.Criterion, bounds Bounds, refs map[string]struct{}, wire wireOpinion) error {
	if !strings.EqualFold(wire.Judge, casefile.PersonaDisplayName(persona)) && !strings.EqualFold(wire.Judge, persona) {
		return fmt.Errorf("opinion names judge %q, expected %s", wire.Judge, casefile.PersonaDisplayName(persona))
	}
	if wire.CriterionID != criterion.ID {
		return fmt.Errorf("opinion scores criterion %q, expected %q", wire.CriterionID, criterion.ID)
	}
	if !bounds.contains(wire.Score) {
		return fmt.Errorf("score %d outside the %d..%d scale", wire.Score, bounds.Min, bounds.Max)
	}
	if strings.TrimSpace(wire.Argument) == "" {
		return fmt.Errorf("opinion has no argument")
	}
	if len(wire.CitedEvidence) == 0 {
		return fmt.Errorf("opinion cites no evidence")
	}
	var unknown []string
	for _, ref := range wire.CitedEvidence {
		if _, ok := refs[ref]; !ok {
			unknown = append(unknown, ref)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("opinion cites unknown evidence references: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func toOpinion(persona string, wire wireOpinion) casefile.Opinion {
	return casefile.Opinion{
		EvaluatorID:   persona,
		CriterionID:   wire.CriterionID,
		Score:         wire.Score,
		Argument:      strings.TrimSpace(wire.Argument),
		CitedEvidence: append([]string(nil), wire.CitedEvidence...),
	}
}
