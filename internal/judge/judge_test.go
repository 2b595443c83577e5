package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"gavel/internal/casefile"
	"gavel/internal/config"
	"gavel/internal/rubric"
	"gavel/internal/services"
	"gavel/internal/services/llm"
)

func testBounds() Bounds { return Bounds{Min: 1, Max: 5} }

func testCriterion() rubric.Criterion {
	return rubric.Criterion{
		ID:                  "git_history",
		Name:                "Git History",
		TargetArtifact:      rubric.ArtifactRepository,
		ForensicInstruction: "Evaluate commit quality and traceability.",
	}
}

func testCatalog() []casefile.RefEvidence {
	return casefile.FlattenEvidence(map[string][]casefile.Evidence{
		"repository_facts": {
			{Goal: "git_history: commit history and traceability", Found: true, Location: ".git/logs", Rationale: "parsed log", Confidence: 0.95},
			{Goal: "testing_rigor: automated test coverage", Found: false, Location: ".", Rationale: "census", Confidence: 0.9},
		},
		"claim_set": {
			{Goal: "documentation claim: quickstart", Found: true, Location: "README.md", Rationale: "stated in README", Confidence: 0.6},
		},
	})
}

// opinionServer cycles through payloads as chat completion contents, then
// repeats the last one. It reports how many calls arrived.
func opinionServer(t *testing.T, payloads ...string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		index := calls
		if index >= len(payloads) {
			index = len(payloads) - 1
		}
		calls++
		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": payloads[index]}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func llmClientFor(server *httptest.Server) *llm.Client {
	return llm.NewClient(llm.Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
}

func TestLLMEvaluatorAcceptsValidOpinion(t *testing.T) {
	server, calls := opinionServer(t,
		`{"judge":"Prosecutor","criterion_id":"git_history","score":2,"argument":"History is shallow.","cited_evidence":["repository_facts:1"]}`,
	)

	evaluator := NewLLMEvaluator(casefile.PersonaProsecutor, llmClientFor(server), testBounds(), 0, nil)
	opinion, err := evaluator.Evaluate(context.Background(), testCriterion(), testCatalog())
	if err != nil {
		t.Fatal(err)
	}

	if opinion.EvaluatorID != casefile.PersonaProsecutor {
		t.Fatalf("unexpected evaluator id: %q", opinion.EvaluatorID)
	}
	if opinion.CriterionID != "git_history" || opinion.Score != 2 {
		t.Fatalf("unexpected opinion: %+v", opinion)
	}
	if len(opinion.CitedEvidence) != 1 || opinion.CitedEvidence[0] != "repository_facts:1" {
		t.Fatalf("unexpected citations: %v", opinion.CitedEvidence)
	}
	if *calls != 1 {
		t.Fatalf("expected a single model call, got %d", *calls)
	}
}

func TestLLMEvaluatorRetriesRejectedResponses(t *testing.T) {
	server, calls := opinionServer(t,
		`{"judge":"Defense","criterion_id":"wrong_criterion","score":4,"argument":"Off target.","cited_evidence":["repository_facts:1"]}`,
		`{"judge":"Defense","criterion_id":"git_history","score":4,"argument":"Commits are descriptive.","cited_evidence":["repository_facts:1","claim_set:1"]}`,
	)

	evaluator := NewLLMEvaluator(casefile.PersonaDefense, llmClientFor(server), testBounds(), 1, nil)
	opinion, err := evaluator.Evaluate(context.Background(), testCriterion(), testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if opinion.Score != 4 || len(opinion.CitedEvidence) != 2 {
		t.Fatalf("unexpected opinion after retry: %+v", opinion)
	}
	if *calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", *calls)
	}
}

func TestLLMEvaluatorRejectsUnknownCitations(t *testing.T) {
	server, _ := opinionServer(t,
		`{"judge":"TechLead","criterion_id":"git_history","score":4,"argument":"Looks fine.","cited_evidence":["nonexistent:9"]}`,
	)

	evaluator := NewLLMEvaluator(casefile.PersonaTechLead, llmClientFor(server), testBounds(), 0, nil)
	_, err := evaluator.Evaluate(context.Background(), testCriterion(), testCatalog())
	if err == nil {
		t.Fatal("expected rejection for unknown citation")
	}
	if !errors.Is(err, services.ErrEvaluation) {
		t.Fatalf("expected evaluation failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown evidence references") {
		t.Fatalf("error does not name the rejection: %v", err)
	}
}

func TestLLMEvaluatorRejectsOutOfScaleScore(t *testing.T) {
	server, _ := opinionServer(t,
		`{"judge":"Prosecutor","criterion_id":"git_history","score":9,"argument":"Too enthusiastic.","cited_evidence":["repository_facts:1"]}`,
	)

	evaluator := NewLLMEvaluator(casefile.PersonaProsecutor, llmClientFor(server), testBounds(), 0, nil)
	_, err := evaluator.Evaluate(context.Background(), testCriterion(), testCatalog())
	if err == nil {
		t.Fatal("expected rejection for out-of-scale score")
	}
	if !strings.Contains(err.Error(), "outside the 1..5 scale") {
		t.Fatalf("error does not name the scale: %v", err)
	}
}

func TestLLMEvaluatorRequiresEvidence(t *testing.T) {
	server, calls := opinionServer(t, `{}`)

	evaluator := NewLLMEvaluator(casefile.PersonaProsecutor, llmClientFor(server), testBounds(), 0, nil)
	_, err := evaluator.Evaluate(context.Background(), testCriterion(), nil)
	if !errors.Is(err, services.ErrEvaluation) {
		t.Fatalf("expected evaluation failure, got %v", err)
	}
	if *calls != 0 {
		t.Fatalf("model should not be called without evidence, got %d calls", *calls)
	}
}

func TestHeuristicEvaluatorIsDeterministicAndInBounds(t *testing.T) {
	evaluator := NewHeuristicEvaluator(casefile.PersonaTechLead, testBounds())

	first, err := evaluator.Evaluate(context.Background(), testCriterion(), testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	second, err := evaluator.Evaluate(context.Background(), testCriterion(), testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("heuristic opinion is not deterministic:\n%+v\n%+v", first, second)
	}
	if first.Score < 1 || first.Score > 5 {
		t.Fatalf("score out of bounds: %d", first.Score)
	}
	if len(first.CitedEvidence) == 0 {
		t.Fatal("heuristic opinion must cite evidence")
	}
	refs := casefile.RefSet(testCatalog())
	for _, ref := range first.CitedEvidence {
		if _, ok := refs[ref]; !ok {
			t.Fatalf("citation %q does not resolve", ref)
		}
	}
}

func TestHeuristicPersonaBiasOrdering(t *testing.T) {
	catalog := casefile.FlattenEvidence(map[string][]casefile.Evidence{
		"repository_facts": {
			{Goal: "quality_bar: probe one", Found: true, Location: "a", Rationale: "r", Confidence: 0.9},
			{Goal: "quality_bar: probe two", Found: true, Location: "b", Rationale: "r", Confidence: 0.9},
		},
	})
	criterion := rubric.Criterion{ID: "quality_bar", Name: "Quality Bar", TargetArtifact: rubric.ArtifactRepository}

	scores := map[string]int{}
	for _, persona := range casefile.Personas() {
		opinion, err := NewHeuristicEvaluator(persona, testBounds()).Evaluate(context.Background(), criterion, catalog)
		if err != nil {
			t.Fatal(err)
		}
		scores[persona] = opinion.Score
	}

	if scores[casefile.PersonaDefense] < scores[casefile.PersonaTechLead] ||
		scores[casefile.PersonaTechLead] < scores[casefile.PersonaProsecutor] {
		t.Fatalf("persona bias ordering violated: %v", scores)
	}
	if scores[casefile.PersonaProsecutor] >= scores[casefile.PersonaDefense] {
		t.Fatalf("prosecutor should score below defense on identical evidence: %v", scores)
	}
}

func TestHeuristicEvaluatorCitesHighestConfidence(t *testing.T) {
	catalog := casefile.FlattenEvidence(map[string][]casefile.Evidence{
		"repository_facts": {
			{Goal: "quality_bar: weak probe", Found: true, Location: "a", Rationale: "r", Confidence: 0.2},
			{Goal: "quality_bar: strong probe", Found: true, Location: "b", Rationale: "r", Confidence: 0.9},
		},
	})
	criterion := rubric.Criterion{ID: "quality_bar", Name: "Quality Bar", TargetArtifact: rubric.ArtifactRepository}

	opinion, err := NewHeuristicEvaluator(casefile.PersonaProsecutor, testBounds()).Evaluate(context.Background(), criterion, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if opinion.CitedEvidence[0] != "repository_facts:2" {
		t.Fatalf("expected highest-confidence citation first, got %v", opinion.CitedEvidence)
	}
}

func TestBuildEvaluatorsBackendSelection(t *testing.T) {
	cfg := config.Default()
	cfg.Evaluators.Backend = "heuristic"

	evaluators, err := BuildEvaluators(&cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(evaluators) != 3 {
		t.Fatalf("expected one evaluator per persona, got %d", len(evaluators))
	}
	for i, persona := range casefile.Personas() {
		if evaluators[i].Persona() != persona {
			t.Fatalf("unexpected persona order: %q at %d", evaluators[i].Persona(), i)
		}
	}

	cfg.Evaluators.Backend = "llm"
	if _, err := BuildEvaluators(&cfg, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for llm backend without client, got %v", err)
	}

	cfg.Evaluators.Backend = "quantum"
	if _, err := BuildEvaluators(&cfg, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown backend, got %v", err)
	}
}
