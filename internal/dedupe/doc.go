// Package dedupe merges the per-context outputs of a run and collapses
// records that share a composite key.
package dedupe
