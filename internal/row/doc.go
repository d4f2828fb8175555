// Package row turns raw sheet rows into identity-bearing Rows.
//
// A Row is tagged with its template sheet and role and carries three derived
// keys: its own Key, the ParentKey it expects a parent to offer, and one
// ChildKey per declared child link. Keys are column values joined with ":".
package row
