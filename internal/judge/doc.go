// Package judge produces persona-bound opinions on rubric criteria.
//
// An Evaluator is bound to a single persona at construction and scores one
// criterion per call from the shared evidence catalog. Two backends exist:
// the LLM evaluator prompts a model and validates its response against the
// catalog, and the heuristic evaluator derives deterministic scores from
// evidence presence for offline runs. Every accepted opinion cites at least
// one evidence reference that resolves against the catalog.
package judge
