// Package workflow executes one audit run end to end.
//
// The runner drives the fixed phase progression: collecting evidence,
// aggregating it, evaluating, aggregating opinions, synthesizing, and
// reporting. Collectors and evaluator-criterion pairs fan out under a
// shared concurrency cap with per-task deadlines; each phase boundary is a
// barrier, so evaluation never starts before every collector has finished
// or failed. Failed tasks contribute nothing to shared state and are
// recorded as degradations instead.
//
// Failure is soft wherever possible: optional losses and deadline overruns
// degrade the report rather than abort the run, and even the error path
// emits a best-effort report marked incomplete. Every phase transition is
// persisted, so an interrupted run is visible in the store exactly as far
// as it got.
package workflow
