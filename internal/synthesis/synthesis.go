package synthesis

import (
	"math"
	"sort"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/config"
	"gavel/internal/rubric"
)

// Params holds the numeric constants the rule engine applies. Every
// threshold is configurable so deployments can tune severity without code
// changes.
type Params struct {
	// SecurityTrigger is the score at or below which an opinion on a
	// security-tagged criterion activates the override. It also bounds what
	// counts as an absence claim for fact supremacy.
	SecurityTrigger int
	// SecurityCap is the ceiling the override applies to the final score.
	SecurityCap int
	// DissentSpread is the raw score spread above which a dissent summary
	// becomes mandatory.
	DissentSpread int
	// ContradictionDiscount multiplies the weight of an opinion contradicted
	// by evidence.
	ContradictionDiscount float64
	// TechLeadWeight is the tech_lead persona weight; other personas weigh 1.
	TechLeadWeight float64
	// SatisfactoryScore is the cutoff below which remediation is generated.
	// It also bounds what counts as a presence claim for fact supremacy.
	SatisfactoryScore int
	// ScaleMin and ScaleMax bound the score scale.
	ScaleMin int
	ScaleMax int
}

// ParamsFromConfig copies the [synthesis] config section into engine params.
func ParamsFromConfig(cfg config.Synthesis) Params {
	return Params{
		SecurityTrigger:       cfg.SecurityTrigger,
		SecurityCap:           cfg.SecurityCap,
		DissentSpread:         cfg.DissentSpread,
		ContradictionDiscount: cfg.ContradictionDiscount,
		TechLeadWeight:        cfg.TechLeadWeight,
		SatisfactoryScore:     cfg.SatisfactoryScore,
		ScaleMin:              cfg.ScaleMin,
		ScaleMax:              cfg.ScaleMax,
	}
}

// Engine synthesizes criterion results with deterministic rules.
type Engine struct {
	params Params
}

// NewEngine constructs an engine. Params are assumed validated by config.
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Synthesize adjudicates one criterion from the full evidence catalog and
// the opinions collected for that criterion. The same inputs always produce
// an identical result.
func (e *Engine) Synthesize(criterion rubric.Criterion, evidence []casefile.RefEvidence, opinions []casefile.Opinion) casefile.CriterionResult {
	result := casefile.CriterionResult{
		CriterionID:   criterion.ID,
		CriterionName: criterion.DisplayName(),
	}

	if len(opinions) == 0 {
		result.Opinions = []casefile.Opinion{}
		return result
	}

	sorted := make([]casefile.Opinion, len(opinions))
	copy(sorted, opinions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EvaluatorID < sorted[j].EvaluatorID
	})
	result.Opinions = sorted
	result.Scored = true

	relevant := relevantEvidence(criterion, evidence)
	byRef := make(map[string]casefile.Evidence, len(evidence))
	for _, entry := range evidence {
		byRef[entry.Ref] = entry.Evidence
	}

	var weightedSum, totalWeight float64
	for _, opinion := range sorted {
		weight := 1.0
		if opinion.EvaluatorID == casefile.PersonaTechLead {
			weight = e.params.TechLeadWeight
		}
		if e.contradicted(opinion, relevant, byRef) {
			weight *= e.params.ContradictionDiscount
			result.DiscountedEvaluators = append(result.DiscountedEvaluators, opinion.EvaluatorID)
		}
		weightedSum += float64(opinion.Score) * weight
		totalWeight += weight
	}

	result.WeightedScore = weightedSum / totalWeight
	final := clip(int(math.Round(result.WeightedScore)), e.params.ScaleMin, e.params.ScaleMax)

	if criterion.Security() && lowestScore(sorted) <= e.params.SecurityTrigger && final > e.params.SecurityCap {
		final = e.params.SecurityCap
		result.SecurityCapped = true
	}
	result.FinalScore = final

	spread := highestScore(sorted) - lowestScore(sorted)
	if spread > e.params.DissentSpread {
		result.DissentSummary = e.buildDissent(sorted, spread, final)
	}

	if final < e.params.SatisfactoryScore {
		result.Remediation = e.buildRemediation(criterion, sorted, byRef)
	}

	return result
}

// relevantEvidence selects entries whose goal mentions the criterion, by id
// or display name.
func relevantEvidence(criterion rubric.Criterion, evidence []casefile.RefEvidence) []casefile.RefEvidence {
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

// contradicted applies the fact supremacy test. A high score claiming
// presence is contradicted when every relevant fact marks absence and no
// citation backs the claim; a low score claiming absence is the mirror case.
// Middle scores are never contradicted.
func (e *Engine) contradicted(opinion casefile.Opinion, relevant []casefile.RefEvidence, byRef map[string]casefile.Evidence) bool {
	if len(relevant) == 0 {
		return false
	}
	switch {
	case opinion.Score >= e.params.SatisfactoryScore:
		return allFound(relevant, false) && !citesFound(opinion, byRef, true)
	case opinion.Score <= e.params.SecurityTrigger:
		return allFound(relevant, true) && !citesFound(opinion, byRef, false)
	}
	return false
}

func allFound(entries []casefile.RefEvidence, found bool) bool {
	for _, entry := range entries {
		if entry.Evidence.Found != found {
			return false
		}
	}
	return true
}

func citesFound(opinion casefile.Opinion, byRef map[string]casefile.Evidence, found bool) bool {
	for _, ref := range opinion.CitedEvidence {
		if evidence, ok := byRef[ref]; ok && evidence.Found == found {
			return true
		}
	}
	return false
}

func lowestScore(opinions []casefile.Opinion) int {
	lowest := opinions[0].Score
	for _, opinion := range opinions[1:] {
		if opinion.Score < lowest {
			lowest = opinion.Score
		}
	}
	return lowest
}

func highestScore(opinions []casefile.Opinion) int {
	highest := opinions[0].Score
	for _, opinion := range opinions[1:] {
		if opinion.Score > highest {
			highest = opinion.Score
		}
	}
	return highest
}

func clip(score, low, high int) int {
	if score < low {
		return low
	}
	if score > high {
		return high
	}
	return score
}
