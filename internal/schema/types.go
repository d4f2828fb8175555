package schema

// AutoPostfix is the postfix placeholder replaced with a sequence number by Prepare.
const AutoPostfix = "auto"

// Document represents the root of a rule document.
type Document struct {
	// Sheets describes the template sheets: keys, role and child links.
	// The sheets must form a tree with exactly one root.
	Sheets []SheetSchema `yaml:"templateMeta"`

	// Rules are evaluated in order against every flattened context.
	Rules []*MapRule `yaml:"map"`

	// TargetKeys holds the composite key of each target sheet.
	TargetKeys []TargetKeySpec `yaml:"dwcMeta"`
}

// SheetSchema describes one template sheet.
type SheetSchema struct {
	// Name of the sheet as it appears in the source workbook.
	Name string `yaml:"name"`

	// PrimaryKey columns, joined with ":" to form a row's key.
	PrimaryKey []string `yaml:"primaryKey"`

	// ParentKey columns, joined with ":" to form the key a parent row must offer.
	ParentKey []string `yaml:"parentKey"`

	// Role of the sheet in the hierarchy.
	Role Role `yaml:"type"`

	// Children lists the child sheets and the columns on this sheet's rows
	// that a child row's parent key must match.
	Children []ChildLink `yaml:"foreignKeys"`
}

// ChildLink links a sheet to one of its child sheets.
type ChildLink struct {
	// Sheet is the child sheet name.
	Sheet string `yaml:"name"`
	// Columns on the parent row that make up the child key.
	Columns []string `yaml:"primaryKey"`
}

// MapRule produces one record in a target sheet for every context that
// satisfies its condition.
type MapRule struct {
	// Sheet is the target sheet name.
	Sheet string `yaml:"name"`

	// Condition gates the rule. Nil always passes.
	Condition *Condition `yaml:"condition,omitempty"`

	// Fields are the output columns, in order.
	Fields []FieldSpec `yaml:"fields"`

	// Add lists rules appended to the active rule list when this rule fires.
	Add []*MapRule `yaml:"add,omitempty"`

	// addFirst records that the document lists add before fields.
	addFirst bool
}

// FieldSpec defines one output column.
type FieldSpec struct {
	// Column is the output column name.
	Column string `yaml:"columnName"`

	// Candidates are tried left to right; the first yielding a non-empty
	// value fixes the column.
	Candidates []ValueCandidate `yaml:"columnValue"`
}

// ValueCandidate is one way of producing a column value.
type ValueCandidate struct {
	// Paths are evaluated in order; the first returning any value wins.
	// Ignored when Value is set.
	Paths []Path `yaml:"paths,omitempty"`

	// Value is a static value used in place of Paths.
	Value string `yaml:"value,omitempty"`

	// Join separates multiple path values and the postfix.
	// Empty means the mapper's default separator.
	Join string `yaml:"join,omitempty"`

	// Postfix is appended to a non-empty path value. "auto" is replaced with
	// a sequence number during preprocessing.
	Postfix string `yaml:"postfix,omitempty"`

	// PostfixPaths are evaluated like Paths when Postfix is empty, and the
	// first non-empty result is used as the postfix.
	PostfixPaths []Path `yaml:"-"`

	// Condition gates the candidate. Nil always passes.
	Condition *Condition `yaml:"condition,omitempty"`

	// Add lists rules appended to the active rule list when this candidate
	// produces the column value.
	Add []*MapRule `yaml:"add,omitempty"`
}

// IsStatic returns true if the candidate yields a literal value.
func (c *ValueCandidate) IsStatic() bool {
	return c.Value != ""
}

// ConditionMode combines the checks of a condition.
type ConditionMode string

const (
	// ConditionAnd requires every check to pass.
	ConditionAnd ConditionMode = "and"
	// ConditionOr requires at least one check to pass.
	ConditionOr ConditionMode = "or"
)

// Condition is a list of non-empty checks.
// YAML formats supported:
//   - List of checks (and): [{if: "Observation[Count]"}]
//   - Object: {type: or, checks: [{ifNotEmpty: "Observation[Count]"}]}
type Condition struct {
	Mode   ConditionMode
	Checks []Check
}

// Check passes when its path selects at least one non-empty value.
type Check struct {
	Path Path
}

// TargetKeySpec names the composite key of a target sheet.
type TargetKeySpec struct {
	Sheet   string   `yaml:"name"`
	Columns []string `yaml:"primaryKey"`
}
