// Package casefile holds the audit data model and the shared run state.
//
// Evidence, opinions, and the final report all live here so that collectors,
// evaluators, synthesis, and the workflow share one vocabulary. State is the
// concurrent accumulation point: collector and evaluator tasks merge their
// results through it under a single mutex, and merges are commutative so the
// outcome does not depend on task arrival order.
//
// Evidence entries are addressed by reference strings of the form
// "group:index" with 1-based indexes, for example "repository_facts:1".
// Opinions cite evidence exclusively through these references.
package casefile
