package casefile

import (
	"fmt"
	"strings"
	"time"
)

// Evaluator persona ids. The set is closed: every opinion carries one of
// these, and synthesis weights tech_lead above the others.
const (
	PersonaProsecutor = "prosecutor"
	PersonaDefense    = "defense"
	PersonaTechLead   = "tech_lead"
)

// Personas returns the evaluator ids in dispatch order.
func Personas() []string {
	return []string{PersonaProsecutor, PersonaDefense, PersonaTechLead}
}

// ValidPersona reports whether id names a known evaluator persona.
func ValidPersona(id string) bool {
	switch id {
	case PersonaProsecutor, PersonaDefense, PersonaTechLead:
		return true
	}
	return false
}

// PersonaDisplayName renders an evaluator id for report prose.
func PersonaDisplayName(id string) string {
	switch id {
	case PersonaProsecutor:
		return "Prosecutor"
	case PersonaDefense:
		return "Defense"
	case PersonaTechLead:
		return "TechLead"
	}
	return id
}

// Evidence is a single forensic finding produced by a collector.
type Evidence struct {
	Goal       string  `json:"goal"`
	Found      bool    `json:"found"`
	Content    string  `json:"content,omitempty"`
	Location   string  `json:"location"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// Validate checks field-level soundness of a single evidence entry.
func (e Evidence) Validate() error {
	if strings.TrimSpace(e.Goal) == "" {
		return fmt.Errorf("evidence is missing a goal")
	}
	if strings.TrimSpace(e.Location) == "" {
		return fmt.Errorf("evidence %q is missing a location", e.Goal)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("evidence %q confidence %.2f is outside [0,1]", e.Goal, e.Confidence)
	}
	return nil
}

// Opinion is one evaluator's verdict on one criterion.
type Opinion struct {
	EvaluatorID   string   `json:"evaluator_id"`
	CriterionID   string   `json:"criterion_id"`
	Score         int      `json:"score"`
	Argument      string   `json:"argument"`
	CitedEvidence []string `json:"cited_evidence"`
}

// CriterionResult is the synthesized outcome for one criterion.
//
// WeightedScore preserves the exact pre-rounding weighted average so report
// consumers can assert synthesis numerics without re-deriving them. Scored is
// false when no opinions arrived for the criterion; such results carry no
// score and are excluded from the overall average.
type CriterionResult struct {
	CriterionID          string    `json:"criterion_id"`
	CriterionName        string    `json:"criterion_name"`
	FinalScore           int       `json:"final_score"`
	WeightedScore        float64   `json:"weighted_score"`
	Scored               bool      `json:"scored"`
	SecurityCapped       bool      `json:"security_capped,omitempty"`
	DiscountedEvaluators []string  `json:"discounted_evaluators,omitempty"`
	Opinions             []Opinion `json:"opinions"`
	DissentSummary       string    `json:"dissent_summary,omitempty"`
	Remediation          string    `json:"remediation"`
}

// Degradation records a task failure the run survived. The report names
// every degradation so an incomplete audit is never mistaken for a clean one.
type Degradation struct {
	Phase  string `json:"phase"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Report is the final audit artifact.
type Report struct {
	RunID            string            `json:"run_id"`
	Target           string            `json:"target"`
	RubricName       string            `json:"rubric_name"`
	RubricVersion    string            `json:"rubric_version"`
	ExecutiveSummary string            `json:"executive_summary"`
	OverallScore     float64           `json:"overall_score"`
	Criteria         []CriterionResult `json:"criteria"`
	RemediationPlan  string            `json:"remediation_plan"`
	Incomplete       bool              `json:"incomplete"`
	Degradations     []Degradation     `json:"degradations,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// ScoredCriteria returns only criteria that received opinions.
func (r *Report) ScoredCriteria() []CriterionResult {
	scored := make([]CriterionResult, 0, len(r.Criteria))
	for _, criterion := range r.Criteria {
		if criterion.Scored {
			scored = append(scored, criterion)
		}
	}
	return scored
}
