// Package synthesis resolves evaluator opinions into one adjudicated result
// per criterion.
//
// The engine applies a fixed rule order: fact supremacy discounting,
// tech-lead weighting, weighted-average aggregation, the security override,
// dissent detection, and remediation generation. Every rule is deterministic, so
// synthesizing the same evidence and opinions twice yields byte-identical
// results. All numeric thresholds come from configuration rather than being
// baked into the rules.
//
// A criterion with zero opinions is marked unscored instead of receiving a
// fabricated score, and unscored criteria stay out of the overall average.
package synthesis
