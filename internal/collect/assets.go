package collect

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/logging"
	"gavel/internal/rubric"
	"gavel/internal/services"
)

const maxAssetMatches = 50

var assetExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {},
	".drawio": {}, ".puml": {}, ".mmd": {},
}

// AssetsCollector scans the checkout for diagrams, screenshots, and other
// visual artifacts referenced by documentation.
type AssetsCollector struct {
	required bool
	logger   *slog.Logger
}

// NewAssetsCollector constructs the visual artifact collector.
func NewAssetsCollector(required bool, logger *slog.Logger) *AssetsCollector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AssetsCollector{
		required: required,
		logger:   logging.NewComponentLogger(logger, "collect.assets"),
	}
}

func (c *AssetsCollector) Name() string   { return "assets" }
func (c *AssetsCollector) Group() string  { return GroupVisualArtifacts }
func (c *AssetsCollector) Required() bool { return c.required }

// Collect walks the repository for asset files and reports presence evidence
// for each assets-targeted criterion plus one general entry.
func (c *AssetsCollector) Collect(ctx context.Context, target *Target, criteria []rubric.Criterion) ([]casefile.Evidence, error) {
	matches, err := findAssets(target.RepoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrCollection, "collect", "assets", "scan for visual artifacts", err)
	}

	found := len(matches) > 0
	location := "."
	content := ""
	if found {
		location = filepath.ToSlash(filepath.Dir(matches[0]))
		if location == "." {
			location = matches[0]
		}
		content = fmt.Sprintf("%d visual artifact(s): %s", len(matches), strings.Join(capSlice(matches, 5), ", "))
	}

	evidence := []casefile.Evidence{{
		Goal:       "visual artifacts: diagrams or screenshots present",
		Found:      found,
		Content:    content,
		Location:   location,
		Rationale:  "file extension scan across the checkout",
		Confidence: 0.9,
	}}
	for _, criterion := range criteriaForArtifact(criteria, rubric.ArtifactAssets) {
		evidence = append(evidence, casefile.Evidence{
			Goal:       fmt.Sprintf("%s: visual artifacts for %s", criterion.ID, criterion.DisplayName()),
			Found:      found,
			Content:    content,
			Location:   location,
			Rationale:  "file extension scan across the checkout",
			Confidence: 0.9,
		})
	}

	c.logger.InfoContext(ctx, "visual artifacts scanned",
		logging.Int("matches", len(matches)),
		logging.Int("evidence", len(evidence)),
	)
	return evidence, nil
}

func findAssets(root string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if _, skip := skipDirs[entry.Name()]; skip {
				return fs.SkipDir
			}
			return nil
		}
		if len(matches) >= maxAssetMatches {
			return fs.SkipAll
		}
		if _, ok := assetExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		matches = append(matches, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
