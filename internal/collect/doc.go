// Package collect gathers forensic evidence about an audit target.
//
// Each collector owns one evidence group and returns its findings as a
// complete batch: a collector that fails contributes nothing, never a
// partial slice. The workflow merges successful batches into shared state
// and records failures as degradations.
//
// Three collectors exist:
//   - repo: git history and file census facts (group repository_facts)
//   - docs: documentation claims, LLM-extracted when a client is configured
//     (group claim_set)
//   - assets: diagrams and screenshots on disk (group visual_artifacts)
//
// The repo collector is required by default; docs and assets degrade the
// report to incomplete when they fail but never halt the run.
package collect
