package report

import (
	"fmt"
	"strings"
	"time"

	"gavel/internal/casefile"
)

// RenderMarkdown renders the report for human review. scaleMax is the upper
// bound of the scoring scale.
func RenderMarkdown(report *casefile.Report, scaleMax int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Audit Report: %s\n\n", report.Target)
	fmt.Fprintf(&b, "- Run: %s\n", report.RunID)
	fmt.Fprintf(&b, "- Rubric: %s v%s\n", report.RubricName, report.RubricVersion)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.UTC().Format(time.RFC3339))
	if len(report.ScoredCriteria()) > 0 {
		fmt.Fprintf(&b, "- Overall Score: %.2f/%d\n", report.OverallScore, scaleMax)
	} else {
		b.WriteString("- Overall Score: unscored\n")
	}
	if report.Incomplete {
		b.WriteString("- Status: incomplete (some evidence sources or evaluations were unavailable)\n")
	} else {
		b.WriteString("- Status: complete\n")
	}

	b.WriteString("\n## Executive Summary\n\n")
	b.WriteString(strings.TrimSpace(report.ExecutiveSummary))
	b.WriteString("\n")

	b.WriteString("\n## Criterion Results\n")
	for _, result := range report.Criteria {
		fmt.Fprintf(&b, "\n### %s (%s)\n\n", result.CriterionName, result.CriterionID)
		if !result.Scored {
			b.WriteString("- Final Score: unscored (no opinions received)\n")
			continue
		}
		fmt.Fprintf(&b, "- Final Score: %d/%d\n", result.FinalScore, scaleMax)
		fmt.Fprintf(&b, "- Weighted Average: %.4f\n", result.WeightedScore)
		if result.SecurityCapped {
			b.WriteString("- Security Override: final score capped\n")
		}
		if len(result.DiscountedEvaluators) > 0 {
			fmt.Fprintf(&b, "- Fact Supremacy: discounted %s\n", strings.Join(result.DiscountedEvaluators, ", "))
		}
		if len(result.Opinions) > 0 {
			b.WriteString("- Opinions:\n")
			for _, opinion := range result.Opinions {
				fmt.Fprintf(&b, "  - %s scored %d: %s (cites %s)\n",
					casefile.PersonaDisplayName(opinion.EvaluatorID), opinion.Score,
					opinion.Argument, strings.Join(opinion.CitedEvidence, ", "))
			}
		}
		if result.DissentSummary != "" {
			fmt.Fprintf(&b, "- Dissent: %s\n", result.DissentSummary)
		}
		if strings.TrimSpace(result.Remediation) != "" {
			fmt.Fprintf(&b, "- Remediation: %s\n", result.Remediation)
		} else {
			b.WriteString("- Remediation: No remediation required.\n")
		}
	}

	b.WriteString("\n## Remediation Plan\n\n")
	b.WriteString(strings.TrimSpace(report.RemediationPlan))
	b.WriteString("\n")

	if len(report.Degradations) > 0 {
		b.WriteString("\n## Degradations\n\n")
		for _, degradation := range report.Degradations {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", degradation.Phase, degradation.Source, degradation.Reason)
		}
	}

	return b.String()
}
