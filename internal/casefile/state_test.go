package casefile

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func evidenceFixture(goal string) Evidence {
	return Evidence{
		Goal:       goal,
		Found:      true,
		Location:   "README.md",
		Rationale:  "explicit in file",
		Confidence: 0.9,
	}
}

func TestMergeIsOrderIndependentAcrossGroups(t *testing.T) {
	repoUpdate := Update{Evidence: map[string][]Evidence{
		"repository_facts": {evidenceFixture("commit quality"), evidenceFixture("test layout")},
	}}
	docsUpdate := Update{Evidence: map[string][]Evidence{
		"claim_set": {evidenceFixture("architecture claim")},
	}}
	opinionUpdate := Update{Opinions: []Opinion{
		{EvaluatorID: PersonaTechLead, CriterionID: "git_history", Score: 4, Argument: "solid", CitedEvidence: []string{"repository_facts:1"}},
		{EvaluatorID: PersonaProsecutor, CriterionID: "git_history", Score: 2, Argument: "gaps", CitedEvidence: []string{"repository_facts:2"}},
	}}

	forward := NewState()
	forward.Merge(repoUpdate)
	forward.Merge(docsUpdate)
	forward.Merge(opinionUpdate)

	reversed := NewState()
	reversed.Merge(opinionUpdate)
	reversed.Merge(docsUpdate)
	reversed.Merge(repoUpdate)

	a, b := forward.Snapshot(), reversed.Snapshot()
	if !reflect.DeepEqual(a.Evidence, b.Evidence) {
		t.Fatalf("evidence differs by merge order:\n%v\n%v", a.Evidence, b.Evidence)
	}
	if !reflect.DeepEqual(a.Opinions, b.Opinions) {
		t.Fatalf("opinions differ by merge order:\n%v\n%v", a.Opinions, b.Opinions)
	}
	if !reflect.DeepEqual(a.Flatten(), b.Flatten()) {
		t.Fatal("flattened references differ by merge order")
	}
}

func TestMergeConcatenatesSameGroup(t *testing.T) {
	state := NewState()
	state.Merge(Update{Evidence: map[string][]Evidence{
		"repository_facts": {evidenceFixture("first")},
	}})
	state.Merge(Update{Evidence: map[string][]Evidence{
		"repository_facts": {evidenceFixture("second")},
	}})

	snap := state.Snapshot()
	if len(snap.Evidence["repository_facts"]) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Evidence["repository_facts"]))
	}
}

func TestConcurrentMergesLoseNothing(t *testing.T) {
	state := NewState()
	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			state.Merge(Update{
				Evidence: map[string][]Evidence{
					fmt.Sprintf("group_%02d", n): {evidenceFixture("goal")},
				},
				Opinions: []Opinion{{
					EvaluatorID:   PersonaDefense,
					CriterionID:   fmt.Sprintf("criterion_%02d", n),
					Score:         3,
					Argument:      "fine",
					CitedEvidence: []string{"repository_facts:1"},
				}},
			})
		}(i)
	}
	wg.Wait()

	if got := state.EvidenceCount(); got != workers {
		t.Fatalf("expected %d evidence entries, got %d", workers, got)
	}
	if got := state.OpinionCount(); got != workers {
		t.Fatalf("expected %d opinions, got %d", workers, got)
	}
}

func TestSnapshotIsolatesCallers(t *testing.T) {
	state := NewState()
	state.Merge(Update{Evidence: map[string][]Evidence{
		"repository_facts": {evidenceFixture("goal")},
	}})

	snap := state.Snapshot()
	snap.Evidence["repository_facts"][0].Goal = "mutated"
	snap.Evidence["injected"] = []Evidence{evidenceFixture("sneaky")}

	fresh := state.Snapshot()
	if fresh.Evidence["repository_facts"][0].Goal != "goal" {
		t.Fatal("snapshot mutation leaked into state")
	}
	if _, ok := fresh.Evidence["injected"]; ok {
		t.Fatal("snapshot map mutation leaked into state")
	}
}

func TestSnapshotSortsOpinionsCanonically(t *testing.T) {
	state := NewState()
	state.Merge(Update{Opinions: []Opinion{
		{EvaluatorID: PersonaTechLead, CriterionID: "testing_rigor", Score: 4},
		{EvaluatorID: PersonaProsecutor, CriterionID: "git_history", Score: 2},
		{EvaluatorID: PersonaDefense, CriterionID: "git_history", Score: 3},
	}})

	snap := state.Snapshot()
	want := []string{PersonaDefense, PersonaProsecutor, PersonaTechLead}
	for i, opinion := range snap.Opinions {
		if i < 2 && opinion.CriterionID != "git_history" {
			t.Fatalf("expected git_history opinions first, got %v", snap.Opinions)
		}
		if opinion.EvaluatorID != want[i] {
			t.Fatalf("expected evaluator order %v, got %v", want, snap.Opinions)
		}
	}
}

func TestOpinionsForFiltersByCriterion(t *testing.T) {
	state := NewState()
	state.Merge(Update{Opinions: []Opinion{
		{EvaluatorID: PersonaDefense, CriterionID: "git_history", Score: 3},
		{EvaluatorID: PersonaDefense, CriterionID: "testing_rigor", Score: 4},
	}})

	snap := state.Snapshot()
	selected := snap.OpinionsFor("git_history")
	if len(selected) != 1 || selected[0].CriterionID != "git_history" {
		t.Fatalf("unexpected selection %v", selected)
	}
}

func TestSetReportIsWriteOnce(t *testing.T) {
	state := NewState()
	if _, ok := state.Report(); ok {
		t.Fatal("expected no report on fresh state")
	}
	if err := state.SetReport(&Report{RunID: "run-1"}); err != nil {
		t.Fatalf("first SetReport failed: %v", err)
	}
	if err := state.SetReport(&Report{RunID: "run-2"}); err == nil {
		t.Fatal("expected second SetReport to fail")
	}
	report, ok := state.Report()
	if !ok || report.RunID != "run-1" {
		t.Fatalf("expected first report to win, got %v", report)
	}
}

func TestFlattenAssignsStableOneBasedRefs(t *testing.T) {
	groups := map[string][]Evidence{
		"repository_facts": {evidenceFixture("a"), evidenceFixture("b")},
		"claim_set":        {evidenceFixture("c")},
	}
	flattened := FlattenEvidence(groups)
	if len(flattened) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(flattened))
	}
	// Groups sort alphabetically, so claim_set leads.
	wantRefs := []string{"claim_set:1", "repository_facts:1", "repository_facts:2"}
	for i, entry := range flattened {
		if entry.Ref != wantRefs[i] {
			t.Fatalf("expected refs %v, got entry %d = %q", wantRefs, i, entry.Ref)
		}
	}

	set := RefSet(flattened)
	for _, ref := range wantRefs {
		if _, ok := set[ref]; !ok {
			t.Fatalf("missing ref %q in set", ref)
		}
	}
}

func TestParseRefRoundTrip(t *testing.T) {
	ref := FormatRef("repository_facts", 2)
	group, index, err := ParseRef(ref)
	if err != nil {
		t.Fatalf("ParseRef returned error: %v", err)
	}
	if group != "repository_facts" || index != 2 {
		t.Fatalf("unexpected parse result %s %d", group, index)
	}

	for _, bad := range []string{"", "nogroup", ":1", "group:", "group:0", "group:x"} {
		if _, _, err := ParseRef(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestEvidenceValidate(t *testing.T) {
	valid := evidenceFixture("goal")
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	missingGoal := valid
	missingGoal.Goal = " "
	if err := missingGoal.Validate(); err == nil {
		t.Fatal("expected goal error")
	}

	badConfidence := valid
	badConfidence.Confidence = 1.2
	if err := badConfidence.Validate(); err == nil {
		t.Fatal("expected confidence error")
	}
}
