package synthesis

import (
	"fmt"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/rubric"
	"gavel/internal/textutil"
)

const argumentSnippetLimit = 100

// buildDissent renders the mandatory disagreement summary. Opinions arrive
// sorted by evaluator id, so the text is identical across runs.
func (e *Engine) buildDissent(opinions []casefile.Opinion, spread, finalScore int) string {
	scores := make([]string, 0, len(opinions))
	for _, opinion := range opinions {
		scores = append(scores, fmt.Sprintf("%s=%d", opinion.EvaluatorID, opinion.Score))
	}

	low := opinions[0]
	high := opinions[0]
	for _, opinion := range opinions[1:] {
		if opinion.Score < low.Score {
			low = opinion
		}
		if opinion.Score > high.Score {
			high = opinion
		}
	}

	return fmt.Sprintf(
		"Score spread of %d detected across evaluators: %s. %s argued for %d: %s %s argued for %d: %s Final score %d reflects the tech_lead-weighted synthesis.",
		spread,
		strings.Join(scores, ", "),
		casefile.PersonaDisplayName(low.EvaluatorID),
		low.Score,
		argumentSnippet(low.Argument),
		casefile.PersonaDisplayName(high.EvaluatorID),
		high.Score,
		argumentSnippet(high.Argument),
		finalScore,
	)
}

// buildRemediation generates instructions anchored on the locations cited by
// the lowest-scoring opinions, so the advice points at real artifacts.
func (e *Engine) buildRemediation(criterion rubric.Criterion, opinions []casefile.Opinion, byRef map[string]casefile.Evidence) string {
	lowest := lowestScore(opinions)

	var locations []string
	seen := make(map[string]struct{})
	for _, opinion := range opinions {
		if opinion.Score != lowest {
			continue
		}
		for _, ref := range opinion.CitedEvidence {
			evidence, ok := byRef[ref]
			if !ok || evidence.Location == "" {
				continue
			}
			if _, dup := seen[evidence.Location]; dup {
				continue
			}
			seen[evidence.Location] = struct{}{}
			locations = append(locations, evidence.Location)
		}
	}

	var parts []string
	if len(locations) > 0 {
		if len(locations) > 3 {
			locations = locations[:3]
		}
		parts = append(parts, fmt.Sprintf("Address findings at: %s", strings.Join(locations, ", ")))
	}

	for _, opinion := range opinions {
		switch {
		case opinion.EvaluatorID == casefile.PersonaProsecutor && opinion.Score <= e.params.SecurityTrigger:
			parts = append(parts, fmt.Sprintf(
				"Address concerns raised by Prosecutor: %s",
				textutil.Truncate(opinion.Argument, argumentSnippetLimit),
			))
		case opinion.EvaluatorID == casefile.PersonaTechLead && opinion.Score < e.params.SatisfactoryScore:
			parts = append(parts, fmt.Sprintf(
				"Improve architectural patterns per TechLead: %s",
				textutil.Truncate(opinion.Argument, argumentSnippetLimit),
			))
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Review and improve %s to meet the success pattern defined in the rubric.", criterion.ID)
	}
	return strings.Join(parts, "; ")
}

func argumentSnippet(argument string) string {
	snippet := textutil.Truncate(argument, argumentSnippetLimit)
	if snippet == "" {
		snippet = "(no argument recorded)"
	}
	return fmt.Sprintf("%q.", snippet)
}
