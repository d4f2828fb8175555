package row

import (
	"template-transformer/internal/schema"
)

// SheetData holds raw source rows per sheet name. Values are scalars
// (string, bool, integer or floating point types, or nil) already trimmed of
// incidental whitespace.
type SheetData map[string][]map[string]any

// Row is an annotated source row.
type Row struct {
	// Sheet is the template sheet the row came from.
	Sheet string
	// Role of the sheet in the hierarchy.
	Role schema.Role
	// Values holds the row's cells as strings.
	Values map[string]string
	// Key is the row's primary key.
	Key string
	// ParentKey must appear in a parent row's ChildKeys for the row to attach.
	ParentKey string
	// ChildKeys holds one key per child link of the sheet, in link order.
	ChildKeys []string
	// Children is populated by the hierarchy builder.
	Children []*Row
}

// Value returns the value of a column. The pseudo-columns "_key" and
// "_parentKey" return the derived keys.
func (r *Row) Value(column string) (string, bool) {
	switch column {
	case schema.ColumnKey:
		return r.Key, r.Key != ""
	case schema.ColumnParentKey:
		return r.ParentKey, r.ParentKey != ""
	}

	v, ok := r.Values[column]

	return v, ok && v != ""
}

// HasChildKey returns true if key is one of the row's non-empty child keys.
func (r *Row) HasChildKey(key string) bool {
	if key == "" {
		return false
	}

	for _, ck := range r.ChildKeys {
		if ck == key {
			return true
		}
	}

	return false
}

// Stripped returns a copy of the row without children. Values and ChildKeys
// are shared with the original.
func (r *Row) Stripped() *Row {
	c := *r
	c.Children = nil

	return &c
}
