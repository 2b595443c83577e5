package testsupport

import (
	"context"
	"testing"

	"gavel/internal/config"
	"gavel/internal/store"
)

// MustOpenStore opens a run store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRun creates a run record for tests using the provided store.
func NewRun(t testing.TB, st *store.Store, target string) *store.Run {
	t.Helper()

	run, err := st.CreateRun(context.Background(), target, "test-rubric", "1")
	if err != nil {
		t.Fatalf("store.CreateRun: %v", err)
	}
	return run
}
