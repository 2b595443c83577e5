// Package report assembles and renders the final audit artifact.
//
// The assembler folds criterion results, degradations, and run metadata
// into a Report: overall score over scored criteria only, a remediation
// plan laddered by severity, and an executive summary. Scores are never
// produced here; they arrive already synthesized. Renderers emit the
// report as markdown for humans and canonical JSON for tooling, and the
// writer lands both in the report directory atomically.
package report
