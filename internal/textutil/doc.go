// Package textutil provides text helpers for report generation and safe
// filesystem naming.
//
// The primary use cases are:
//   - Sanitizing run targets and rubric names into report filenames
//   - Truncating evaluator arguments for dissent and remediation text
package textutil
