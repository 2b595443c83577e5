// Package preflight provides readiness checks for the tools, files, and
// services an audit run depends on.
//
// These checks run in two contexts:
//   - The CLI "gavel run" command calls RunAll before starting a run. A
//     failed check aborts before any run record or report exists, so a
//     misconfigured host never produces a half-written audit.
//   - The CLI "gavel status" command uses the individual check functions
//     to display host health without starting a run.
//
// Checks are gated by configuration: a collector that is disabled or
// optional does not get its prerequisites checked here, because its absence
// at runtime degrades the report instead of aborting the run.
package preflight
