// Package query evaluates sheet paths against annotated rows.
//
// A path such as "Observation[Species|Count]" selects, from every row of the
// Observation sheet, the non-empty values of the Species and Count columns.
// Rows are visited depth-first in member order, so a path evaluated against
// a tree sees parents before their children.
package query
