package collect

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gavel/internal/casefile"
	"gavel/internal/logging"
	"gavel/internal/rubric"
	"gavel/internal/services"
	"gavel/internal/textutil"
)

type gitRunner func(ctx context.Context, dir string, args ...string) (string, error)

// RepoCollector inspects the checkout itself: git history, branch layout,
// and a file census covering tests, CI, manifests, and secret hygiene.
type RepoCollector struct {
	required bool
	logger   *slog.Logger
	run      gitRunner
}

// RepoOption customizes the collector.
type RepoOption func(*RepoCollector)

// WithGitRunner injects a custom git runner (primarily for tests).
func WithGitRunner(run gitRunner) RepoOption {
	return func(c *RepoCollector) {
		if run != nil {
			c.run = run
		}
	}
}

// NewRepoCollector constructs the repository collector.
func NewRepoCollector(gitBinary string, required bool, logger *slog.Logger, opts ...RepoOption) *RepoCollector {
	if logger == nil {
		logger = logging.NewNop()
	}
	collector := &RepoCollector{
		required: required,
		logger:   logging.NewComponentLogger(logger, "collect.repo"),
		run:      defaultGitRunner(gitBinary),
	}
	for _, opt := range opts {
		opt(collector)
	}
	return collector
}

func (c *RepoCollector) Name() string   { return "repo" }
func (c *RepoCollector) Group() string  { return GroupRepositoryFacts }
func (c *RepoCollector) Required() bool { return c.required }

// Collect gathers git and census facts, then answers each repository-targeted
// criterion with the probes that match its id.
func (c *RepoCollector) Collect(ctx context.Context, target *Target, criteria []rubric.Criterion) ([]casefile.Evidence, error) {
	facts, err := c.gatherFacts(ctx, target.RepoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrCollection, "collect", "repo", "gather repository facts", err)
	}

	selected := criteriaForArtifact(criteria, rubric.ArtifactRepository)
	evidence := make([]casefile.Evidence, 0, len(selected)+1)
	for _, criterion := range selected {
		evidence = append(evidence, c.probe(criterion, facts)...)
	}

	c.logger.InfoContext(ctx, "repository facts collected",
		logging.Int("commits", len(facts.commits)),
		logging.Int("source_files", facts.sourceFiles),
		logging.Int("test_files", facts.testFiles),
		logging.Int("evidence", len(evidence)),
	)
	return evidence, nil
}

type commitStat struct {
	hash         string
	date         string
	author       string
	message      string
	filesChanged int
	insertions   int
	deletions    int
}

type repoFacts struct {
	gitAvailable bool
	commits      []commitStat
	authors      map[string]int
	activeDays   int
	branches     int

	sourceFiles  int
	sourceDirs   int
	topLevelDirs []string
	testFiles    int
	firstTest    string
	ciConfigs    []string
	readmePath   string
	licensePath  string
	manifests    []string
	lockfiles    []string
	secretFiles  []string
}

func (c *RepoCollector) gatherFacts(ctx context.Context, repoPath string) (*repoFacts, error) {
	facts := &repoFacts{authors: map[string]int{}}

	if _, err := c.run(ctx, repoPath, "rev-parse", "--is-inside-work-tree"); err == nil {
		facts.gitAvailable = true

		logOutput, err := c.run(ctx, repoPath, "log", "--all", "--pretty=format:%H|%ad|%an|%ae|%s", "--date=short", "--numstat")
		if err != nil && ctx.Err() != nil {
			return nil, err
		}
		if err == nil {
			facts.commits = parseGitLog(logOutput)
		}

		days := map[string]struct{}{}
		for _, commit := range facts.commits {
			facts.authors[commit.author]++
			days[commit.date] = struct{}{}
		}
		facts.activeDays = len(days)

		if branchOutput, err := c.run(ctx, repoPath, "branch", "-a"); err == nil {
			for _, line := range strings.Split(branchOutput, "\n") {
				if strings.TrimSpace(line) != "" {
					facts.branches++
				}
			}
		}
	}

	if err := walkCensus(repoPath, facts); err != nil {
		return nil, err
	}
	return facts, nil
}

func (c *RepoCollector) probe(criterion rubric.Criterion, facts *repoFacts) []casefile.Evidence {
	id := strings.ToLower(criterion.ID)
	switch {
	case containsAny(id, "git", "history", "commit"):
		return []casefile.Evidence{probeCommits(criterion, facts)}
	case containsAny(id, "test", "coverage"):
		return []casefile.Evidence{probeTests(criterion, facts)}
	case containsAny(id, "security", "secret", "vulnerab"):
		return probeSecurity(criterion, facts)
	case containsAny(id, "structure", "layout", "architecture", "modul"):
		return []casefile.Evidence{probeStructure(criterion, facts)}
	case containsAny(id, "doc", "readme"):
		return []casefile.Evidence{probeReadme(criterion, facts)}
	default:
		return []casefile.Evidence{probeOverview(criterion, facts)}
	}
}

func probeCommits(criterion rubric.Criterion, facts *repoFacts) casefile.Evidence {
	if !facts.gitAvailable {
		return casefile.Evidence{
			Goal:       criterion.ID + ": commit history and traceability",
			Found:      false,
			Location:   ".git",
			Rationale:  "target is not a git work tree",
			Confidence: 0.95,
		}
	}

	meaningful := 0
	for _, commit := range facts.commits {
		if len(strings.TrimSpace(commit.message)) >= 10 {
			meaningful++
		}
	}
	found := len(facts.commits) >= 2 && meaningful*2 > len(facts.commits)

	content := fmt.Sprintf("%d commits by %d author(s) across %d active day(s); %d branch ref(s)",
		len(facts.commits), len(facts.authors), facts.activeDays, facts.branches)
	if len(facts.commits) > 0 {
		content += "; latest: " + textutil.Truncate(facts.commits[0].message, 60)
	}

	return casefile.Evidence{
		Goal:       criterion.ID + ": commit history and traceability",
		Found:      found,
		Content:    content,
		Location:   ".git/logs",
		Rationale:  fmt.Sprintf("git log parsed with per-commit stats; %d of %d messages are descriptive", meaningful, len(facts.commits)),
		Confidence: 0.95,
	}
}

func probeTests(criterion rubric.Criterion, facts *repoFacts) casefile.Evidence {
	location := facts.firstTest
	if location == "" {
		location = "."
	}
	content := fmt.Sprintf("%d test file(s) across %d source file(s)", facts.testFiles, facts.sourceFiles)
	if len(facts.ciConfigs) > 0 {
		content += "; CI: " + strings.Join(capSlice(facts.ciConfigs, 3), ", ")
	}
	return casefile.Evidence{
		Goal:       criterion.ID + ": automated test coverage",
		Found:      facts.testFiles > 0,
		Content:    content,
		Location:   location,
		Rationale:  "file census matched test naming patterns and CI workflow paths",
		Confidence: 0.9,
	}
}

func probeSecurity(criterion rubric.Criterion, facts *repoFacts) []casefile.Evidence {
	pinLocation := "."
	pinRationale := "no dependency manifests found to pin"
	if len(facts.lockfiles) > 0 {
		pinLocation = facts.lockfiles[0]
		pinRationale = "lockfile present alongside dependency manifests"
	} else if len(facts.manifests) > 0 {
		pinLocation = facts.manifests[0]
		pinRationale = "dependency manifests present without lockfiles"
	}

	pinned := casefile.Evidence{
		Goal:       criterion.ID + ": dependencies pinned by lockfiles",
		Found:      len(facts.lockfiles) > 0,
		Content:    fmt.Sprintf("%d manifest(s), %d lockfile(s)", len(facts.manifests), len(facts.lockfiles)),
		Location:   pinLocation,
		Rationale:  pinRationale,
		Confidence: 0.85,
	}

	secretLocation := "."
	secretContent := ""
	if len(facts.secretFiles) > 0 {
		secretLocation = facts.secretFiles[0]
		secretContent = "matched: " + strings.Join(capSlice(facts.secretFiles, 5), ", ")
	}
	secrets := casefile.Evidence{
		Goal:       criterion.ID + ": credential files kept out of the tree",
		Found:      len(facts.secretFiles) == 0,
		Content:    secretContent,
		Location:   secretLocation,
		Rationale:  "census scanned for .env, key material, and credential file patterns",
		Confidence: 0.8,
	}

	return []casefile.Evidence{pinned, secrets}
}

func probeStructure(criterion rubric.Criterion, facts *repoFacts) casefile.Evidence {
	return casefile.Evidence{
		Goal:       criterion.ID + ": source layout and module boundaries",
		Found:      facts.sourceDirs >= 2,
		Content:    fmt.Sprintf("%d source file(s) in %d dir(s); top-level: %s", facts.sourceFiles, facts.sourceDirs, strings.Join(capSlice(facts.topLevelDirs, 6), ", ")),
		Location:   ".",
		Rationale:  "file census grouped source files by directory",
		Confidence: 0.85,
	}
}

func probeReadme(criterion rubric.Criterion, facts *repoFacts) casefile.Evidence {
	location := facts.readmePath
	if location == "" {
		location = "README.md"
	}
	return casefile.Evidence{
		Goal:       criterion.ID + ": top-level README present",
		Found:      facts.readmePath != "",
		Location:   location,
		Rationale:  "census looked for README files at the repository root",
		Confidence: 0.95,
	}
}

func probeOverview(criterion rubric.Criterion, facts *repoFacts) casefile.Evidence {
	return casefile.Evidence{
		Goal:       fmt.Sprintf("%s: repository census relevant to %s", criterion.ID, criterion.DisplayName()),
		Found:      facts.sourceFiles > 0,
		Content:    fmt.Sprintf("%d source file(s), %d test file(s), %d commit(s)", facts.sourceFiles, facts.testFiles, len(facts.commits)),
		Location:   ".",
		Rationale:  "static census only; no targeted probe for this criterion",
		Confidence: 0.5,
	}
}

// parseGitLog parses "hash|date|author|email|subject" headers interleaved
// with numstat lines.
func parseGitLog(output string) []commitStat {
	var commits []commitStat
	var current *commitStat

	for _, line := range strings.Split(output, "\n") {
		if strings.Count(line, "|") >= 4 {
			parts := strings.SplitN(line, "|", 5)
			commits = append(commits, commitStat{
				hash:    parts[0],
				date:    parts[1],
				author:  parts[2],
				message: parts[4],
			})
			current = &commits[len(commits)-1]
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}
		stats := strings.Split(line, "\t")
		if len(stats) < 2 {
			continue
		}
		insertions, errIns := parseNumstatField(stats[0])
		deletions, errDel := parseNumstatField(stats[1])
		if errIns != nil || errDel != nil {
			continue
		}
		current.insertions += insertions
		current.deletions += deletions
		current.filesChanged++
	}
	return commits
}

func parseNumstatField(field string) (int, error) {
	field = strings.TrimSpace(field)
	if field == "-" {
		return 0, nil
	}
	return strconv.Atoi(field)
}

var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	".venv":        {},
	"__pycache__":  {},
}

var sourceExtensions = map[string]struct{}{
	".go": {}, ".py": {}, ".js": {}, ".ts": {}, ".rs": {}, ".java": {},
	".rb": {}, ".c": {}, ".cc": {}, ".cpp": {}, ".h": {}, ".cs": {},
	".kt": {}, ".swift": {}, ".php": {},
}

var lockfileNames = map[string]struct{}{
	"go.sum": {}, "package-lock.json": {}, "yarn.lock": {}, "pnpm-lock.yaml": {},
	"poetry.lock": {}, "uv.lock": {}, "cargo.lock": {}, "gemfile.lock": {},
}

var manifestNames = map[string]struct{}{
	"go.mod": {}, "package.json": {}, "pyproject.toml": {}, "requirements.txt": {},
	"cargo.toml": {}, "gemfile": {}, "setup.py": {},
}

func walkCensus(root string, facts *repoFacts) error {
	dirsWithSource := map[string]struct{}{}

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if _, skip := skipDirs[entry.Name()]; skip {
				return fs.SkipDir
			}
			if !strings.Contains(rel, "/") {
				facts.topLevelDirs = append(facts.topLevelDirs, rel)
			}
			return nil
		}

		name := strings.ToLower(entry.Name())
		ext := filepath.Ext(name)

		if _, ok := sourceExtensions[ext]; ok {
			facts.sourceFiles++
			dirsWithSource[filepath.Dir(rel)] = struct{}{}
			if isTestFile(rel, name) {
				facts.testFiles++
				if facts.firstTest == "" {
					facts.firstTest = rel
				}
			}
		}

		switch {
		case isCIConfig(rel, name):
			facts.ciConfigs = append(facts.ciConfigs, rel)
		case !strings.Contains(rel, "/") && strings.HasPrefix(name, "readme"):
			if facts.readmePath == "" {
				facts.readmePath = rel
			}
		case !strings.Contains(rel, "/") && (strings.HasPrefix(name, "license") || strings.HasPrefix(name, "copying")):
			if facts.licensePath == "" {
				facts.licensePath = rel
			}
		}

		if _, ok := manifestNames[name]; ok {
			facts.manifests = append(facts.manifests, rel)
		}
		if _, ok := lockfileNames[name]; ok {
			facts.lockfiles = append(facts.lockfiles, rel)
		}
		if isSecretFile(name) {
			facts.secretFiles = append(facts.secretFiles, rel)
		}
		return nil
	})
	if err != nil {
		return err
	}

	facts.sourceDirs = len(dirsWithSource)
	sort.Strings(facts.topLevelDirs)
	return nil
}

func isTestFile(rel, name string) bool {
	if strings.HasSuffix(name, "_test.go") || strings.HasPrefix(name, "test_") {
		return true
	}
	if strings.HasSuffix(name, ".spec.ts") || strings.HasSuffix(name, ".spec.js") ||
		strings.HasSuffix(name, ".test.ts") || strings.HasSuffix(name, ".test.js") {
		return true
	}
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if segment == "test" || segment == "tests" {
			return true
		}
	}
	return false
}

func isCIConfig(rel, name string) bool {
	if strings.HasPrefix(rel, ".github/workflows/") && (strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
		return true
	}
	return name == ".gitlab-ci.yml" || name == "jenkinsfile"
}

func isSecretFile(name string) bool {
	if name == ".env" || name == "credentials.json" || name == "id_rsa" {
		return true
	}
	return strings.HasSuffix(name, ".pem")
}

func containsAny(value string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(value, sub) {
			return true
		}
	}
	return false
}

func capSlice(values []string, limit int) []string {
	if len(values) <= limit {
		return values
	}
	return values[:limit]
}

func defaultGitRunner(binary string) gitRunner {
	return func(ctx context.Context, dir string, args ...string) (string, error) {
		cmd := exec.CommandContext(ctx, binary, args...)
		cmd.Dir = dir
		output, err := cmd.CombinedOutput()
		if err != nil {
			return "", services.Wrap(services.ErrExternalTool, "collect", "git "+args[0], strings.TrimSpace(string(output)), err)
		}
		return string(output), nil
	}
}
