package collect

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/logging"
	"gavel/internal/rubric"
	"gavel/internal/services"
	"gavel/internal/services/llm"
	"gavel/internal/textutil"
)

const (
	maxDocFiles    = 12
	maxDocBytes    = 16 * 1024
	maxDocClaims   = 40
	docExtraction  = `You are a documentation analyst for a repository audit. Extract verifiable claims from the supplied documentation: statements about what the project does, supports, guarantees, or requires. Respond with JSON only, shaped as {"evidences":[{"goal":"...","found":true,"content":"...","location":"...","rationale":"...","confidence":0.0}]}. Set goal to a short claim summary, location to the source file and section, and confidence to your certainty that the claim is actually stated, between 0 and 1. Do not invent claims absent from the text.`
	docClaimPrefix = "documentation claim"
)

// DocsCollector reads project documentation and turns it into claim
// evidence. With an LLM client it extracts claims from the text; without
// one it falls back to a deterministic heading and keyword scan.
type DocsCollector struct {
	client   *llm.Client
	required bool
	logger   *slog.Logger
}

// NewDocsCollector constructs the documentation collector. A nil client
// selects the heuristic scan.
func NewDocsCollector(client *llm.Client, required bool, logger *slog.Logger) *DocsCollector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DocsCollector{
		client:   client,
		required: required,
		logger:   logging.NewComponentLogger(logger, "collect.docs"),
	}
}

func (c *DocsCollector) Name() string   { return "docs" }
func (c *DocsCollector) Group() string  { return GroupClaimSet }
func (c *DocsCollector) Required() bool { return c.required }

// Collect loads README and docs-directory files and produces claim evidence.
// Missing documentation yields absence evidence rather than an error.
func (c *DocsCollector) Collect(ctx context.Context, target *Target, criteria []rubric.Criterion) ([]casefile.Evidence, error) {
	files, err := loadDocFiles(target)
	if err != nil {
		return nil, services.Wrap(services.ErrCollection, "collect", "docs", "load documentation files", err)
	}

	selected := criteriaForArtifact(criteria, rubric.ArtifactDocs)
	if len(files) == 0 {
		return absentDocsEvidence(target, selected), nil
	}

	var evidence []casefile.Evidence
	if c.client != nil {
		evidence, err = c.extractWithLLM(ctx, files, selected)
		if err != nil {
			return nil, err
		}
	} else {
		evidence = scanHeuristically(files, selected)
	}

	c.logger.InfoContext(ctx, "documentation claims collected",
		logging.Int("files", len(files)),
		logging.Int("evidence", len(evidence)),
		logging.Bool("llm", c.client != nil),
	)
	return evidence, nil
}

type docFile struct {
	relPath string
	content string
}

func loadDocFiles(target *Target) ([]docFile, error) {
	var paths []string

	entries, err := os.ReadDir(target.RepoPath)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(strings.ToLower(entry.Name()), "readme") {
			paths = append(paths, entry.Name())
		}
	}

	if info, err := os.Stat(target.DocsPath); err == nil && info.IsDir() {
		walkErr := filepath.WalkDir(target.DocsPath, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			if !isDocFile(entry.Name()) {
				return nil
			}
			rel, relErr := filepath.Rel(target.RepoPath, path)
			if relErr != nil {
				rel = path
			}
			paths = append(paths, filepath.ToSlash(rel))
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	sort.Strings(paths)
	if len(paths) > maxDocFiles {
		paths = paths[:maxDocFiles]
	}

	files := make([]docFile, 0, len(paths))
	for _, rel := range paths {
		raw, err := os.ReadFile(filepath.Join(target.RepoPath, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		content := string(raw)
		if len(content) > maxDocBytes {
			content = content[:maxDocBytes]
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		files = append(files, docFile{relPath: rel, content: content})
	}
	return files, nil
}

func isDocFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".rst", ".txt", ".adoc":
		return true
	}
	return false
}

func absentDocsEvidence(target *Target, criteria []rubric.Criterion) []casefile.Evidence {
	location := "docs"
	if rel, err := filepath.Rel(target.RepoPath, target.DocsPath); err == nil {
		location = filepath.ToSlash(rel)
	}
	if len(criteria) == 0 {
		return []casefile.Evidence{{
			Goal:       docClaimPrefix + ": project documentation present",
			Found:      false,
			Location:   location,
			Rationale:  "no README or docs-directory files found",
			Confidence: 0.9,
		}}
	}
	evidence := make([]casefile.Evidence, 0, len(criteria))
	for _, criterion := range criteria {
		evidence = append(evidence, casefile.Evidence{
			Goal:       fmt.Sprintf("%s: documented claims for %s", criterion.ID, criterion.DisplayName()),
			Found:      false,
			Location:   location,
			Rationale:  "no README or docs-directory files found",
			Confidence: 0.9,
		})
	}
	return evidence
}

func (c *DocsCollector) extractWithLLM(ctx context.Context, files []docFile, criteria []rubric.Criterion) ([]casefile.Evidence, error) {
	payload, err := c.client.CompleteJSON(ctx, docExtraction, buildDocPrompt(files, criteria))
	if err != nil {
		return nil, services.Wrap(services.ErrCollection, "collect", "docs", "extract documentation claims", err)
	}

	var decoded struct {
		Evidences []casefile.Evidence `json:"evidences"`
	}
	if err := llm.DecodeLLMJSON(payload, &decoded); err != nil {
		return nil, services.Wrap(services.ErrCollection, "collect", "docs", "decode documentation claims", err)
	}

	evidence := make([]casefile.Evidence, 0, len(decoded.Evidences))
	for _, item := range decoded.Evidences {
		item.Confidence = clampConfidence(item.Confidence)
		if item.Location == "" {
			item.Location = files[0].relPath
		}
		if err := item.Validate(); err != nil {
			c.logger.WarnContext(ctx, "dropping malformed claim", logging.Error(err))
			continue
		}
		evidence = append(evidence, item)
		if len(evidence) >= maxDocClaims {
			break
		}
	}
	if len(evidence) == 0 {
		return nil, services.Wrap(services.ErrCollection, "collect", "docs", "extract documentation claims", fmt.Errorf("model returned no usable claims"))
	}
	return evidence, nil
}

func buildDocPrompt(files []docFile, criteria []rubric.Criterion) string {
	var builder strings.Builder
	if len(criteria) > 0 {
		builder.WriteString("Audit dimensions these claims will be checked against:\n")
		for _, criterion := range criteria {
			fmt.Fprintf(&builder, "- id=%s | name=%s | %s\n", criterion.ID, criterion.DisplayName(), criterion.ForensicInstruction)
		}
		builder.WriteString("\n")
	}
	builder.WriteString("Documentation:\n")
	for _, file := range files {
		fmt.Fprintf(&builder, "--- %s ---\n%s\n", file.relPath, file.content)
	}
	return builder.String()
}

func scanHeuristically(files []docFile, criteria []rubric.Criterion) []casefile.Evidence {
	var evidence []casefile.Evidence

	var combined strings.Builder
	for _, file := range files {
		combined.WriteString(strings.ToLower(file.content))
		combined.WriteString("\n")

		heading := firstHeading(file.content)
		if heading == "" {
			heading = file.relPath
		}
		evidence = append(evidence, casefile.Evidence{
			Goal:       fmt.Sprintf("%s: %s", docClaimPrefix, heading),
			Found:      true,
			Content:    textutil.Truncate(firstParagraph(file.content), 200),
			Location:   file.relPath,
			Rationale:  "heading and lead paragraph present in documentation",
			Confidence: 0.6,
		})
	}

	haystack := combined.String()
	for _, criterion := range criteria {
		matched := ""
		for _, file := range files {
			if docMentions(strings.ToLower(file.content), criterion) {
				matched = file.relPath
				break
			}
		}
		location := matched
		if location == "" {
			location = files[0].relPath
		}
		evidence = append(evidence, casefile.Evidence{
			Goal:       fmt.Sprintf("%s: documentation addresses %s", criterion.ID, criterion.DisplayName()),
			Found:      docMentions(haystack, criterion),
			Location:   location,
			Rationale:  "keyword scan against the criterion name",
			Confidence: 0.55,
		})
	}
	return evidence
}

func docMentions(lowered string, criterion rubric.Criterion) bool {
	for _, word := range strings.Fields(strings.ToLower(criterion.DisplayName())) {
		if len(word) >= 4 && strings.Contains(lowered, word) {
			return true
		}
	}
	return strings.Contains(lowered, strings.ReplaceAll(criterion.ID, "_", " "))
}

func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return ""
}

func firstParagraph(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, " ")
}

func clampConfidence(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
