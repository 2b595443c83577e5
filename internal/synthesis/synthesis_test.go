package synthesis

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"gavel/internal/casefile"
	"gavel/internal/rubric"
)

func testParams() Params {
	return Params{
		SecurityTrigger:       2,
		SecurityCap:           3,
		DissentSpread:         2,
		ContradictionDiscount: 0.5,
		TechLeadWeight:        1.3,
		SatisfactoryScore:     4,
		ScaleMin:              1,
		ScaleMax:              5,
	}
}

func securityCriterion() rubric.Criterion {
	return rubric.Criterion{
		ID:             "security_posture",
		Name:           "Security Posture",
		TargetArtifact: rubric.ArtifactRepository,
		Tags:           []string{"security"},
	}
}

func plainCriterion() rubric.Criterion {
	return rubric.Criterion{
		ID:             "git_history",
		Name:           "Git History",
		TargetArtifact: rubric.ArtifactRepository,
	}
}

func opinion(evaluator string, score int, cited ...string) casefile.Opinion {
	return casefile.Opinion{
		EvaluatorID:   evaluator,
		CriterionID:   "git_history",
		Score:         score,
		Argument:      "argument from " + evaluator,
		CitedEvidence: cited,
	}
}

func TestSecurityOverrideCapsHighAverage(t *testing.T) {
	engine := NewEngine(testParams())
	opinions := []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 5),
		opinion(casefile.PersonaDefense, 5),
		opinion(casefile.PersonaTechLead, 2),
	}

	result := engine.Synthesize(securityCriterion(), nil, opinions)
	if result.FinalScore > 3 {
		t.Fatalf("expected security cap at 3, got %d", result.FinalScore)
	}
	if !result.SecurityCapped {
		t.Fatal("expected SecurityCapped flag")
	}
	// The uncapped weighted average rounds to 4; the cap must bind.
	if round := int(math.Round(result.WeightedScore)); round <= 3 {
		t.Fatalf("test premise broken: uncapped round %d should exceed cap", round)
	}
}

func TestSecurityOverrideIgnoresUntaggedCriteria(t *testing.T) {
	engine := NewEngine(testParams())
	opinions := []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 5),
		opinion(casefile.PersonaDefense, 5),
		opinion(casefile.PersonaTechLead, 2),
	}

	result := engine.Synthesize(plainCriterion(), nil, opinions)
	if result.SecurityCapped {
		t.Fatal("override must not fire on untagged criteria")
	}
	if result.FinalScore != 4 {
		t.Fatalf("expected uncapped score 4, got %d", result.FinalScore)
	}
}

func TestTechLeadWeightingExactNumeric(t *testing.T) {
	engine := NewEngine(testParams())
	opinions := []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 2),
		opinion(casefile.PersonaDefense, 2),
		opinion(casefile.PersonaTechLead, 5),
	}

	result := engine.Synthesize(plainCriterion(), nil, opinions)

	want := (2.0 + 2.0 + 5.0*1.3) / (1.0 + 1.0 + 1.3)
	if math.Abs(result.WeightedScore-want) > 1e-12 {
		t.Fatalf("expected weighted score %.10f, got %.10f", want, result.WeightedScore)
	}
	if math.Abs(result.WeightedScore-3.1818) > 0.001 {
		t.Fatalf("expected weighted score near 3.1818, got %.4f", result.WeightedScore)
	}
	if result.FinalScore != 3 {
		t.Fatalf("expected rounded score 3, got %d", result.FinalScore)
	}
}

func TestDissentPresentOnlyAboveSpreadThreshold(t *testing.T) {
	engine := NewEngine(testParams())

	tight := engine.Synthesize(plainCriterion(), nil, []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 3),
		opinion(casefile.PersonaDefense, 4),
		opinion(casefile.PersonaTechLead, 5),
	})
	if tight.DissentSummary != "" {
		t.Fatalf("spread 2 must not produce dissent, got %q", tight.DissentSummary)
	}

	wide := engine.Synthesize(plainCriterion(), nil, []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 2),
		opinion(casefile.PersonaDefense, 5),
		opinion(casefile.PersonaTechLead, 4),
	})
	if wide.DissentSummary == "" {
		t.Fatal("spread 3 requires a dissent summary")
	}
	if !strings.Contains(wide.DissentSummary, "Score spread of 3") {
		t.Fatalf("expected spread in summary, got %q", wide.DissentSummary)
	}
	if !strings.Contains(wide.DissentSummary, "defense=5, prosecutor=2, tech_lead=4") {
		t.Fatalf("expected evaluator-sorted scores, got %q", wide.DissentSummary)
	}
	if !strings.Contains(wide.DissentSummary, "Prosecutor argued for 2") {
		t.Fatalf("expected low-side argument, got %q", wide.DissentSummary)
	}
	if !strings.Contains(wide.DissentSummary, "Defense argued for 5") {
		t.Fatalf("expected high-side argument, got %q", wide.DissentSummary)
	}
}

func TestSecurityCriterionEndToEndShape(t *testing.T) {
	engine := NewEngine(testParams())
	evidence := []casefile.RefEvidence{{
		Ref:   "repository_facts:1",
		Group: "repository_facts",
		Evidence: casefile.Evidence{
			Goal:       "security_posture credential handling",
			Found:      true,
			Location:   "internal/auth/token.go",
			Rationale:  "token validation exists",
			Confidence: 0.9,
		},
	}}
	opinions := []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 2, "repository_facts:1"),
		opinion(casefile.PersonaDefense, 5, "repository_facts:1"),
		opinion(casefile.PersonaTechLead, 4, "repository_facts:1"),
	}

	result := engine.Synthesize(securityCriterion(), evidence, opinions)
	if result.FinalScore > 3 {
		t.Fatalf("expected capped score, got %d", result.FinalScore)
	}
	if result.DissentSummary == "" {
		t.Fatal("expected dissent for spread 3")
	}
}

func TestFactSupremacyDiscountsUnsupportedPresenceClaim(t *testing.T) {
	engine := NewEngine(testParams())
	evidence := []casefile.RefEvidence{
		{
			Ref:   "repository_facts:1",
			Group: "repository_facts",
			Evidence: casefile.Evidence{
				Goal:       "git_history commit traceability",
				Found:      false,
				Location:   ".git/logs",
				Rationale:  "history is a single squash commit",
				Confidence: 0.95,
			},
		},
		{
			Ref:   "claim_set:1",
			Group: "claim_set",
			Evidence: casefile.Evidence{
				Goal:       "documentation architecture claim",
				Found:      true,
				Location:   "docs/architecture.md",
				Rationale:  "claim stated in docs",
				Confidence: 0.8,
			},
		},
	}
	opinions := []casefile.Opinion{
		// Cites only absent evidence while scoring high: discounted.
		opinion(casefile.PersonaDefense, 5, "repository_facts:1"),
		// Cites a found entry: the claim has backing, keep full weight.
		opinion(casefile.PersonaProsecutor, 4, "claim_set:1"),
		opinion(casefile.PersonaTechLead, 4, "claim_set:1"),
	}

	result := engine.Synthesize(plainCriterion(), evidence, opinions)
	if len(result.DiscountedEvaluators) != 1 || result.DiscountedEvaluators[0] != casefile.PersonaDefense {
		t.Fatalf("expected only defense discounted, got %v", result.DiscountedEvaluators)
	}

	want := (5.0*0.5 + 4.0 + 4.0*1.3) / (0.5 + 1.0 + 1.3)
	if math.Abs(result.WeightedScore-want) > 1e-12 {
		t.Fatalf("expected discounted weighted score %.10f, got %.10f", want, result.WeightedScore)
	}
}

func TestFactSupremacySkipsMiddleScores(t *testing.T) {
	engine := NewEngine(testParams())
	evidence := []casefile.RefEvidence{{
		Ref:   "repository_facts:1",
		Group: "repository_facts",
		Evidence: casefile.Evidence{
			Goal:       "git_history commit traceability",
			Found:      false,
			Location:   ".git/logs",
			Rationale:  "sparse history",
			Confidence: 0.9,
		},
	}}
	opinions := []casefile.Opinion{
		opinion(casefile.PersonaDefense, 3, "repository_facts:1"),
	}

	result := engine.Synthesize(plainCriterion(), evidence, opinions)
	if len(result.DiscountedEvaluators) != 0 {
		t.Fatalf("middle scores are never contradicted, got %v", result.DiscountedEvaluators)
	}
}

func TestFactSupremacyNoRelevantEvidenceNoDiscount(t *testing.T) {
	engine := NewEngine(testParams())
	evidence := []casefile.RefEvidence{{
		Ref:   "claim_set:1",
		Group: "claim_set",
		Evidence: casefile.Evidence{
			Goal:       "unrelated documentation claim",
			Found:      false,
			Location:   "docs/readme.md",
			Rationale:  "claim not found",
			Confidence: 0.7,
		},
	}}
	opinions := []casefile.Opinion{opinion(casefile.PersonaDefense, 5, "claim_set:1")}

	result := engine.Synthesize(plainCriterion(), evidence, opinions)
	if len(result.DiscountedEvaluators) != 0 {
		t.Fatalf("no relevant evidence means no contradiction, got %v", result.DiscountedEvaluators)
	}
}

func TestZeroOpinionsMarksUnscored(t *testing.T) {
	engine := NewEngine(testParams())
	result := engine.Synthesize(plainCriterion(), nil, nil)
	if result.Scored {
		t.Fatal("expected unscored result")
	}
	if result.FinalScore != 0 || result.WeightedScore != 0 {
		t.Fatalf("unscored criteria carry no score, got final=%d weighted=%f", result.FinalScore, result.WeightedScore)
	}
	if result.Remediation != "" || result.DissentSummary != "" {
		t.Fatal("unscored criteria carry no remediation or dissent")
	}
}

func TestRemediationOnlyBelowCutoffAndCitesLocations(t *testing.T) {
	engine := NewEngine(testParams())
	evidence := []casefile.RefEvidence{{
		Ref:   "repository_facts:1",
		Group: "repository_facts",
		Evidence: casefile.Evidence{
			Goal:       "git_history commit traceability",
			Found:      false,
			Location:   ".git/logs",
			Rationale:  "no meaningful messages",
			Confidence: 0.9,
		},
	}}

	low := engine.Synthesize(plainCriterion(), evidence, []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 2, "repository_facts:1"),
		opinion(casefile.PersonaDefense, 3, "repository_facts:1"),
		opinion(casefile.PersonaTechLead, 2, "repository_facts:1"),
	})
	if low.Remediation == "" {
		t.Fatal("expected remediation below cutoff")
	}
	if !strings.Contains(low.Remediation, ".git/logs") {
		t.Fatalf("expected cited location in remediation, got %q", low.Remediation)
	}
	if !strings.Contains(low.Remediation, "Prosecutor") {
		t.Fatalf("expected prosecutor concern in remediation, got %q", low.Remediation)
	}

	high := engine.Synthesize(plainCriterion(), nil, []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 4),
		opinion(casefile.PersonaDefense, 5),
		opinion(casefile.PersonaTechLead, 5),
	})
	if high.Remediation != "" {
		t.Fatalf("remediation must be empty at or above cutoff, got %q", high.Remediation)
	}
}

func TestSynthesisIsIdempotent(t *testing.T) {
	engine := NewEngine(testParams())
	evidence := []casefile.RefEvidence{{
		Ref:   "repository_facts:1",
		Group: "repository_facts",
		Evidence: casefile.Evidence{
			Goal:       "git_history commit traceability",
			Found:      true,
			Location:   ".git/logs",
			Rationale:  "descriptive history",
			Confidence: 0.92,
		},
	}}
	opinions := []casefile.Opinion{
		opinion(casefile.PersonaProsecutor, 2, "repository_facts:1"),
		opinion(casefile.PersonaDefense, 5, "repository_facts:1"),
		opinion(casefile.PersonaTechLead, 4, "repository_facts:1"),
	}

	first := engine.Synthesize(plainCriterion(), evidence, opinions)
	second := engine.Synthesize(plainCriterion(), evidence, opinions)

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("synthesis not idempotent:\n%s\n%s", a, b)
	}
}

func TestSynthesisSortsOpinionsByEvaluator(t *testing.T) {
	engine := NewEngine(testParams())
	result := engine.Synthesize(plainCriterion(), nil, []casefile.Opinion{
		opinion(casefile.PersonaTechLead, 4),
		opinion(casefile.PersonaProsecutor, 3),
		opinion(casefile.PersonaDefense, 3),
	})

	want := []string{casefile.PersonaDefense, casefile.PersonaProsecutor, casefile.PersonaTechLead}
	for i, op := range result.Opinions {
		if op.EvaluatorID != want[i] {
			t.Fatalf("expected order %v, got %v", want, result.Opinions)
		}
	}
}
