package collect

import (
	"context"
	"strings"
	"testing"

	"gavel/internal/rubric"
)

func TestAssetsCollectorFindsDiagrams(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"docs/images/pipeline.png": "png",
		"docs/flow.mmd":            "graph TD",
		"main.go":                  "package main",
		"node_modules/x/logo.svg":  "ignored",
	})

	collector := NewAssetsCollector(false, nil)
	criteria := []rubric.Criterion{
		{ID: "diagram_quality", Name: "Diagram Quality", TargetArtifact: rubric.ArtifactAssets},
	}

	evidence, err := collector.Collect(context.Background(), &Target{RepoPath: root}, criteria)
	if err != nil {
		t.Fatal(err)
	}
	if len(evidence) != 2 {
		t.Fatalf("expected general entry plus one per criterion, got %d", len(evidence))
	}

	general := evidence[0]
	if !general.Found {
		t.Fatalf("expected assets to be found: %+v", general)
	}
	if !strings.Contains(general.Content, "2 visual artifact(s)") {
		t.Fatalf("unexpected content: %q", general.Content)
	}
	if strings.Contains(general.Content, "logo.svg") {
		t.Fatalf("skipped directory leaked into matches: %q", general.Content)
	}

	perCriterion := evidence[1]
	if !strings.HasPrefix(perCriterion.Goal, "diagram_quality:") {
		t.Fatalf("unexpected criterion goal: %q", perCriterion.Goal)
	}
	for _, item := range evidence {
		if err := item.Validate(); err != nil {
			t.Fatalf("invalid evidence %+v: %v", item, err)
		}
	}
}

func TestAssetsCollectorReportsAbsence(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.go": "package main"})

	collector := NewAssetsCollector(false, nil)
	evidence, err := collector.Collect(context.Background(), &Target{RepoPath: root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(evidence) != 1 {
		t.Fatalf("expected single general entry, got %d", len(evidence))
	}
	if evidence[0].Found {
		t.Fatalf("expected absence evidence: %+v", evidence[0])
	}
	if evidence[0].Location != "." {
		t.Fatalf("unexpected location: %q", evidence[0].Location)
	}
	if err := evidence[0].Validate(); err != nil {
		t.Fatal(err)
	}
}
