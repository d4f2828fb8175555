package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Pseudo-columns resolve to a row's derived identities instead of its data.
const (
	ColumnKey       = "_key"
	ColumnParentKey = "_parentKey"
)

const columnSeparator = "|"

// Path selects the values of one or more columns from the rows of one sheet.
type Path struct {
	Sheet   string
	Columns []string
}

// ParsePath parses a path string into a Path.
// Supports: "Sheet[Column]", "Sheet[A|B|C]". Sheet and column names may
// contain spaces and punctuation other than '[', ']' and '|'.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, errors.New("empty path")
	}

	open := strings.IndexByte(s, '[')
	if open < 0 || !strings.HasSuffix(s, "]") {
		return Path{}, fmt.Errorf("invalid path %q: expected Sheet[Column]", s)
	}

	sheet := strings.TrimSpace(s[:open])
	if sheet == "" {
		return Path{}, fmt.Errorf("invalid path %q: empty sheet name", s)
	}

	inner := s[open+1 : len(s)-1]
	if strings.ContainsAny(inner, "[]") {
		return Path{}, fmt.Errorf("invalid path %q: nested brackets", s)
	}

	var columns []string

	for part := range strings.SplitSeq(inner, columnSeparator) {
		col := strings.TrimSpace(part)
		if col == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty column name", s)
		}

		columns = append(columns, col)
	}

	return Path{Sheet: sheet, Columns: columns}, nil
}

// MustParsePath is like ParsePath but panics on error. For fixed paths in code and tests.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return p
}

// String returns the text form of the path.
func (p Path) String() string {
	return p.Sheet + "[" + strings.Join(p.Columns, columnSeparator) + "]"
}

// IsZero returns true for the zero Path.
func (p Path) IsZero() bool {
	return p.Sheet == "" && len(p.Columns) == 0
}
