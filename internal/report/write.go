package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/fileutil"
	"gavel/internal/textutil"
)

// Paths locates the rendered artifacts for one run.
type Paths struct {
	JSON     string
	Markdown string
}

// EncodeJSON renders the report as indented JSON with a trailing newline.
// Key order and indentation are fixed so identical reports encode to
// identical bytes.
func EncodeJSON(report *casefile.Report) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(report); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write lands report.json and report.md in reportDir atomically and returns
// their locations. File names derive from the target and the run id so
// repeated audits of the same target do not collide.
func Write(report *casefile.Report, scaleMax int, reportDir string) (Paths, error) {
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create report directory: %w", err)
	}

	base := baseName(report)
	paths := Paths{
		JSON:     filepath.Join(reportDir, base+".json"),
		Markdown: filepath.Join(reportDir, base+".md"),
	}

	encoded, err := EncodeJSON(report)
	if err != nil {
		return Paths{}, err
	}
	if err := fileutil.WriteFileAtomic(paths.JSON, encoded, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write %s: %w", paths.JSON, err)
	}

	markdown := RenderMarkdown(report, scaleMax)
	if err := fileutil.WriteFileAtomic(paths.Markdown, []byte(markdown), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write %s: %w", paths.Markdown, err)
	}
	return paths, nil
}

// baseName derives a short file stem from the target's last path segment
// and the run id prefix.
func baseName(report *casefile.Report) string {
	target := strings.TrimRight(report.Target, "/")
	if idx := strings.LastIndexAny(target, "/:"); idx >= 0 && idx < len(target)-1 {
		target = target[idx+1:]
	}
	target = strings.TrimSuffix(target, ".git")
	target = textutil.SanitizeToken(target)

	runID := report.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	if runID == "" {
		runID = "run"
	}
	return fmt.Sprintf("audit-%s-%s", target, runID)
}
