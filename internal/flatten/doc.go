// Package flatten expands a row tree into flat contexts.
//
// Each context holds one row from every nesting level on a single path of
// choices through the tree. Where a row has several children of the same
// sheet, every child starts its own context; where it has children of
// several sheets, every combination does. Sibling groups A=[a1,a2] and
// B=[b1,b2,b3] combine as
//
//	(a1,b1) (a2,b1) (a1,b2) (a2,b2) (a1,b3) (a2,b3)
//
// The current context continues with the first combination. The others fork
// into new contexts queued from the last combination back to the second, so
// the contexts above come out as (a1,b1) (a2,b3) (a1,b3) (a2,b2) (a1,b2)
// (a2,b1).
//
// Rows of leaf sheets join a context but never contribute their children.
package flatten
