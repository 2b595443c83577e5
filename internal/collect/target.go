package collect

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"gavel/internal/services"
	"gavel/internal/textutil"
)

// Target is the resolved artifact under audit: a local repository checkout
// plus the documentation root inside or beside it.
type Target struct {
	// RepoURL is the requested source, or "local:<path>" for a pre-existing
	// checkout.
	RepoURL  string
	RepoPath string
	DocsPath string
}

// ResolveTarget turns a raw target argument into a usable checkout. A path
// to an existing directory is used in place; anything else is treated as a
// clone URL and cloned into scratchDir. The returned cleanup removes the
// clone and is a no-op for local targets.
func ResolveTarget(ctx context.Context, gitBinary, rawTarget, docsDir, scratchDir string) (*Target, func(), error) {
	rawTarget = strings.TrimSpace(rawTarget)
	if rawTarget == "" {
		return nil, nil, services.Wrap(services.ErrValidation, "collect", "resolve target", "target required", nil)
	}

	noop := func() {}

	if info, err := os.Stat(rawTarget); err == nil && info.IsDir() {
		abs, err := filepath.Abs(rawTarget)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrValidation, "collect", "resolve target", "resolve local path", err)
		}
		target := &Target{
			RepoURL:  "local:" + abs,
			RepoPath: abs,
			DocsPath: resolveDocsPath(abs, docsDir),
		}
		return target, noop, nil
	}

	if scratchDir == "" {
		return nil, nil, services.Wrap(services.ErrConfiguration, "collect", "resolve target", "scratch directory required for clone targets", nil)
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "collect", "resolve target", "create scratch directory", err)
	}

	cloneRoot := filepath.Join(scratchDir, fmt.Sprintf("clone-%s", uuid.NewString()[:8]))
	clonePath := filepath.Join(cloneRoot, repoNameFromURL(rawTarget))

	cmd := exec.CommandContext(ctx, gitBinary, "clone", "--quiet", rawTarget, clonePath)
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(cloneRoot)
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return nil, nil, services.Wrap(services.ErrCollection, "collect", "resolve target", fmt.Sprintf("clone %s", rawTarget), err)
	}

	cleanup := func() { _ = os.RemoveAll(cloneRoot) }
	target := &Target{
		RepoURL:  rawTarget,
		RepoPath: clonePath,
		DocsPath: resolveDocsPath(clonePath, docsDir),
	}
	return target, cleanup, nil
}

func resolveDocsPath(repoPath, docsDir string) string {
	docsDir = strings.TrimSpace(docsDir)
	if docsDir == "" {
		docsDir = "docs"
	}
	if filepath.IsAbs(docsDir) {
		return docsDir
	}
	return filepath.Join(repoPath, docsDir)
}

func repoNameFromURL(rawURL string) string {
	name := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		name = strings.TrimSuffix(parsed.Path, "/")
	}
	if name == "" {
		name = rawURL
	}
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	name = textutil.SanitizeFileName(name)
	if name == "" {
		return "repo"
	}
	return name
}
