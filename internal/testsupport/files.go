package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// NewRepoFixture lays out a minimal repository tree with source, tests, and
// documentation so collectors have something real to walk.
func NewRepoFixture(t testing.TB) string {
	t.Helper()

	root := t.TempDir()
	WriteFile(t, filepath.Join(root, "README.md"), "# Fixture\n\nA small project used by tests.\n")
	WriteFile(t, filepath.Join(root, "go.mod"), "module fixture\n\ngo 1.22\n")
	WriteFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {}\n")
	WriteFile(t, filepath.Join(root, "main_test.go"), "package main\n\nimport \"testing\"\n\nfunc TestMain(t *testing.T) {}\n")
	WriteFile(t, filepath.Join(root, "docs", "guide.md"), "# Guide\n\nHow the fixture works.\n")
	return root
}
