package judge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/rubric"
	"gavel/internal/services"
)

// HeuristicEvaluator scores criteria from evidence presence alone. It exists
// for offline runs and tests: the same evidence always yields the same
// opinion. Each persona reads the presence ratio with its own bias.
type HeuristicEvaluator struct {
	persona string
	bounds  Bounds
}

// NewHeuristicEvaluator binds a persona to the deterministic backend.
func NewHeuristicEvaluator(persona string, bounds Bounds) *HeuristicEvaluator {
	return &HeuristicEvaluator{persona: persona, bounds: bounds}
}

func (e *HeuristicEvaluator) Persona() string { return e.persona }

// Evaluate derives a score from the confidence-weighted share of relevant
// evidence marked found, then applies the persona bias.
func (e *HeuristicEvaluator) Evaluate(ctx context.Context, criterion rubric.Criterion, evidence []casefile.RefEvidence) (casefile.Opinion, error) {
	if err := ctx.Err(); err != nil {
		return casefile.Opinion{}, services.Wrap(services.ErrEvaluation, "judge", e.persona, "evaluation cancelled", err)
	}
	if len(evidence) == 0 {
		return casefile.Opinion{}, services.Wrap(services.ErrEvaluation, "judge", e.persona, "evidence catalog is empty", nil)
	}

	relevant := relevantTo(criterion, evidence)
	scoped := relevant
	if len(scoped) == 0 {
		scoped = evidence
	}

	var foundWeight, totalWeight float64
	for _, entry := range scoped {
		weight := entry.Evidence.Confidence
		if weight <= 0 {
			weight = 0.1
		}
		totalWeight += weight
		if entry.Evidence.Found {
			foundWeight += weight
		}
	}
	ratio := 0.5
	if totalWeight > 0 {
		ratio = foundWeight / totalWeight
	}

	span := float64(e.bounds.Max - e.bounds.Min)
	score := e.bounds.Min + int(math.Round(ratio*span))
	switch e.persona {
	case casefile.PersonaProsecutor:
		score--
	case casefile.PersonaDefense:
		score++
	}
	if score < e.bounds.Min {
		score = e.bounds.Min
	}
	if score > e.bounds.Max {
		score = e.bounds.Max
	}

	citations := citationRefs(scoped)
	wire := wireOpinion{
		Judge:         casefile.PersonaDisplayName(e.persona),
		CriterionID:   criterion.ID,
		Score:         score,
		Argument:      e.argument(criterion, scoped, len(relevant) > 0),
		CitedEvidence: citations,
	}
	if err := validateOpinion(e.persona, criterion, e.bounds, casefile.RefSet(evidence), wire); err != nil {
		return casefile.Opinion{}, services.Wrap(services.ErrEvaluation, "judge", e.persona, "heuristic opinion rejected", err)
	}
	return toOpinion(e.persona, wire), nil
}

func (e *HeuristicEvaluator) argument(criterion rubric.Criterion, scoped []casefile.RefEvidence, targeted bool) string {
	found := 0
	for _, entry := range scoped {
		if entry.Evidence.Found {
			found++
		}
	}
	scope := "targeted evidence"
	if !targeted {
		scope = "general evidence"
	}

	switch e.persona {
	case casefile.PersonaProsecutor:
		missing := len(scoped) - found
		return fmt.Sprintf("Of %d %s entries for %s, %d report the expected artifact missing. Absences weigh against the target until proven otherwise.", len(scoped), scope, criterion.DisplayName(), missing)
	case casefile.PersonaDefense:
		return fmt.Sprintf("%d of %d %s entries for %s confirm the expected artifact. The demonstrated work deserves credit.", found, len(scoped), scope, criterion.DisplayName())
	default:
		return fmt.Sprintf("%d of %d %s entries for %s confirm presence. Scored on what a maintainer inherits today.", found, len(scoped), scope, criterion.DisplayName())
	}
}

func relevantTo(criterion rubric.Criterion, evidence []casefile.RefEvidence) []casefile.RefEvidence {
	id := strings.ToLower(criterion.ID)
	name := strings.ToLower(criterion.DisplayName())

	var relevant []casefile.RefEvidence
	for _, entry := range evidence {
		goal := strings.ToLower(entry.Evidence.Goal)
		if strings.Contains(goal, id) || (name != "" && strings.Contains(goal, name)) {
			relevant = append(relevant, entry)
		}
	}
	return relevant
}

// citationRefs picks up to three references, highest confidence first, ties
// broken by reference order.
func citationRefs(scoped []casefile.RefEvidence) []string {
	ranked := append([]casefile.RefEvidence(nil), scoped...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Evidence.Confidence > ranked[j].Evidence.Confidence
	})
	limit := 3
	if len(ranked) < limit {
		limit = len(ranked)
	}
	refs := make([]string, 0, limit)
	for _, entry := range ranked[:limit] {
		refs = append(refs, entry.Ref)
	}
	return refs
}
