package casefile

import (
	"errors"
	"sort"
	"sync"
)

// Update is the delta a single task contributes to the shared state. A task
// builds its update locally and merges it only after it fully succeeds, so a
// failed task leaves no partial trace.
type Update struct {
	Evidence map[string][]Evidence
	Opinions []Opinion
}

// State accumulates evidence and opinions across concurrent tasks.
//
// Merge is commutative across tasks: evidence groups union by key (same-key
// contributions concatenate), and opinions accumulate as a set ordered on
// read. Snapshots copy, so callers never observe a mid-merge view.
type State struct {
	mu       sync.Mutex
	evidence map[string][]Evidence
	opinions []Opinion
	report   *Report
}

// NewState returns an empty run state.
func NewState() *State {
	return &State{evidence: make(map[string][]Evidence)}
}

// Merge folds a task update into the state.
func (s *State) Merge(update Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for group, items := range update.Evidence {
		if len(items) == 0 {
			continue
		}
		copied := make([]Evidence, len(items))
		copy(copied, items)
		s.evidence[group] = append(s.evidence[group], copied...)
	}

	if len(update.Opinions) > 0 {
		s.opinions = append(s.opinions, update.Opinions...)
	}
}

// Snapshot is a point-in-time copy of the accumulated state.
type Snapshot struct {
	Evidence map[string][]Evidence
	Opinions []Opinion
}

// Snapshot copies the current state. Opinions come back sorted by criterion
// then evaluator so downstream consumers see one canonical order no matter
// how evaluator tasks interleaved.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	evidence := make(map[string][]Evidence, len(s.evidence))
	for group, items := range s.evidence {
		copied := make([]Evidence, len(items))
		copy(copied, items)
		evidence[group] = copied
	}

	opinions := make([]Opinion, len(s.opinions))
	copy(opinions, s.opinions)
	sortOpinions(opinions)

	return Snapshot{Evidence: evidence, Opinions: opinions}
}

// EvidenceCount returns the total number of evidence entries.
func (s *State) EvidenceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, items := range s.evidence {
		count += len(items)
	}
	return count
}

// OpinionCount returns the number of accumulated opinions.
func (s *State) OpinionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.opinions)
}

// SetReport stores the final report. The slot is write-once.
func (s *State) SetReport(report *Report) error {
	if report == nil {
		return errors.New("nil report")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report != nil {
		return errors.New("report already set")
	}
	s.report = report
	return nil
}

// Report returns the final report if synthesis has produced one.
func (s *State) Report() (*Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return nil, false
	}
	return s.report, true
}

// OpinionsFor selects the snapshot opinions targeting one criterion,
// preserving the canonical sort.
func (snap Snapshot) OpinionsFor(criterionID string) []Opinion {
	var selected []Opinion
	for _, opinion := range snap.Opinions {
		if opinion.CriterionID == criterionID {
			selected = append(selected, opinion)
		}
	}
	return selected
}

// Flatten orders the snapshot evidence into referenced entries.
func (snap Snapshot) Flatten() []RefEvidence {
	return FlattenEvidence(snap.Evidence)
}

func sortOpinions(opinions []Opinion) {
	sort.SliceStable(opinions, func(i, j int) bool {
		if opinions[i].CriterionID != opinions[j].CriterionID {
			return opinions[i].CriterionID < opinions[j].CriterionID
		}
		return opinions[i].EvaluatorID < opinions[j].EvaluatorID
	})
}
