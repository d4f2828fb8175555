package query

import (
	"template-transformer/internal/row"
	"template-transformer/internal/schema"
)

// Walk visits the rows and their descendants depth-first. It stops early
// when fn returns false and reports whether the walk completed.
func Walk(rows []*row.Row, fn func(r *row.Row) bool) bool {
	for _, r := range rows {
		if r == nil {
			continue
		}

		if !fn(r) {
			return false
		}

		if !Walk(r.Children, fn) {
			return false
		}
	}

	return true
}

// SelectValues returns the non-empty values addressed by the path in
// traversal order. Duplicates are kept.
func SelectValues(members []*row.Row, p schema.Path) []string {
	var out []string

	Walk(members, func(r *row.Row) bool {
		if r.Sheet != p.Sheet {
			return true
		}

		for _, col := range p.Columns {
			if v, ok := r.Value(col); ok {
				out = append(out, v)
			}
		}

		return true
	})

	return out
}

// Exists reports whether the path addresses at least one non-empty value.
func Exists(members []*row.Row, p schema.Path) bool {
	found := false

	Walk(members, func(r *row.Row) bool {
		if r.Sheet != p.Sheet {
			return true
		}

		for _, col := range p.Columns {
			if _, ok := r.Value(col); ok {
				found = true
				return false
			}
		}

		return true
	})

	return found
}
