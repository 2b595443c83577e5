// Package services defines shared utilities consumed by the workflow phases
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, phase names, criterion and
//     persona labels, and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's taxonomy (collection, evaluation, aggregation,
//     synthesis, configuration) and decide fatal versus degraded routing.
//
// Use these helpers when wiring new task logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
