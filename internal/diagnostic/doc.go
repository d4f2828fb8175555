// Package diagnostic provides structured warnings, errors, and counters
// for the transformation pipeline.
//
// Most of the pipeline drops data silently by design: rows without a key,
// orphaned rows, child links to undeclared sheets and rules whose conditions
// fail all produce no output rather than an error. This package keeps those
// decisions observable.
//
// Key capabilities:
//   - Dropped and orphaned row reports with the sheet and row key involved
//   - Dangling sheet references with "did you mean" suggestions
//   - Per-run counters (Stats) for every stage
package diagnostic
