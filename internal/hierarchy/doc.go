// Package hierarchy links annotated rows into a forest following the sheet
// queue. A row at depth d is attached under every row at depth d-1 that
// offers the row's parent key as one of its child keys.
package hierarchy
