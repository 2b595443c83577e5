package store

import "time"

// Phase is a workflow state persisted with each run. The progression is
// linear; error is reachable from any non-terminal phase.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseCollecting          Phase = "collecting_evidence"
	PhaseAggregatingEvidence Phase = "aggregating_evidence"
	PhaseEvaluating          Phase = "evaluating"
	PhaseAggregatingOpinions Phase = "aggregating_opinions"
	PhaseSynthesizing        Phase = "synthesizing"
	PhaseDone                Phase = "done"
	PhaseError               Phase = "error"
)

// PhaseOrder returns the non-terminal progression in execution order.
func PhaseOrder() []Phase {
	return []Phase{
		PhaseIdle,
		PhaseCollecting,
		PhaseAggregatingEvidence,
		PhaseEvaluating,
		PhaseAggregatingOpinions,
		PhaseSynthesizing,
	}
}

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseError
}

// Valid reports whether the phase is one of the known states.
func (p Phase) Valid() bool {
	if p.Terminal() {
		return true
	}
	for _, phase := range PhaseOrder() {
		if p == phase {
			return true
		}
	}
	return false
}

// Run is one audit of one target against one rubric.
type Run struct {
	ID            string
	Target        string
	RubricName    string
	RubricVersion string
	Phase         Phase
	Incomplete    bool
	OverallScore  *float64
	ReportJSON    string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
