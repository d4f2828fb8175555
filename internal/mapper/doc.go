// Package mapper evaluates map rules against flattened contexts.
//
// Every context is mapped independently. The rules are processed as a
// growable list: a fired rule may append further rules through the add list
// of its winning candidates and its own add list. A rule is evaluated at most
// once per context; a rule that would be appended while already present on
// the list is skipped and reported.
//
// Field values come from the first candidate that yields a non-empty value.
// A static candidate yields its value as-is; a path candidate yields the
// values of its first path with any values, joined with the candidate's join
// separator and followed by its postfix.
package mapper
