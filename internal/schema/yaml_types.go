package schema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// --- Role YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for Role.
func (r *Role) UnmarshalYAML(node *yaml.Node) error {
	var s string

	err := node.Decode(&s)
	if err != nil {
		return err
	}

	role, err := ParseRole(s)
	if err != nil {
		return err
	}

	*r = role

	return nil
}

// MarshalYAML implements custom YAML marshaling for Role.
// RolePlain is written as the empty string.
func (r Role) MarshalYAML() (any, error) {
	if r == RolePlain {
		return "", nil
	}

	return r.String(), nil
}

// --- Path YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for Path.
// Accepts:
//   - String: "Observation[Date]"
//   - Map: {sheet: Observation, columns: [Date]} or {sheet: Observation, columns: Date}
func (p *Path) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string

		err := node.Decode(&s)
		if err != nil {
			return err
		}

		parsed, err := ParsePath(s)
		if err != nil {
			return err
		}

		*p = parsed

		return nil

	case yaml.MappingNode:
		var raw struct {
			Sheet   string    `yaml:"sheet"`
			Columns yaml.Node `yaml:"columns"`
		}

		err := node.Decode(&raw)
		if err != nil {
			return err
		}

		if raw.Sheet == "" {
			return errors.New("path object requires a sheet")
		}

		var columns []string

		switch raw.Columns.Kind {
		case yaml.ScalarNode:
			var col string
			if err := raw.Columns.Decode(&col); err != nil {
				return err
			}

			columns = []string{col}
		case yaml.SequenceNode:
			if err := raw.Columns.Decode(&columns); err != nil {
				return err
			}
		default:
			return fmt.Errorf("path object for sheet %q requires columns", raw.Sheet)
		}

		if len(columns) == 0 {
			return fmt.Errorf("path object for sheet %q requires columns", raw.Sheet)
		}

		*p = Path{Sheet: raw.Sheet, Columns: columns}

		return nil

	default:
		return fmt.Errorf("expected path string or map, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for Path.
func (p Path) MarshalYAML() (any, error) {
	return p.String(), nil
}

// --- Check YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for Check.
// Accepts {if: path} and {ifNotEmpty: path}.
func (c *Check) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return errors.New("expected single key check like {if: Sheet[Column]}")
	}

	var key string

	err := node.Content[0].Decode(&key)
	if err != nil {
		return err
	}

	if key != "if" && key != "ifNotEmpty" {
		return fmt.Errorf("unknown check %q (expected 'if' or 'ifNotEmpty')", key)
	}

	var p Path

	err = node.Content[1].Decode(&p)
	if err != nil {
		return fmt.Errorf("invalid %s check: %w", key, err)
	}

	c.Path = p

	return nil
}

// MarshalYAML implements custom YAML marshaling for Check.
func (c Check) MarshalYAML() (any, error) {
	return map[string]string{"if": c.Path.String()}, nil
}

// --- Condition YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for Condition.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var checks []Check

		err := node.Decode(&checks)
		if err != nil {
			return err
		}

		*c = Condition{Mode: ConditionAnd, Checks: checks}

		return nil

	case yaml.MappingNode:
		var raw struct {
			Type   string  `yaml:"type"`
			Checks []Check `yaml:"checks"`
		}

		err := node.Decode(&raw)
		if err != nil {
			return err
		}

		mode := ConditionMode(raw.Type)

		switch mode {
		case "":
			mode = ConditionAnd
		case ConditionAnd, ConditionOr:
		default:
			return fmt.Errorf("invalid condition type %q (expected 'and' or 'or')", raw.Type)
		}

		*c = Condition{Mode: mode, Checks: raw.Checks}

		return nil

	default:
		return fmt.Errorf("expected condition list or map, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for Condition.
// Outputs the list form for "and" conditions, otherwise the object form.
func (c Condition) MarshalYAML() (any, error) {
	if c.Mode == ConditionAnd || c.Mode == "" {
		return c.Checks, nil
	}

	return map[string]any{
		"type":   string(c.Mode),
		"checks": c.Checks,
	}, nil
}

// --- Sheet name aliases ---
//
// Newer rule documents name sheets with sheetName instead of name. Both are
// accepted; name wins when both are set.

// UnmarshalYAML implements custom YAML unmarshaling for SheetSchema.
func (s *SheetSchema) UnmarshalYAML(node *yaml.Node) error {
	type plain SheetSchema

	var raw struct {
		Sheet     plain  `yaml:",inline"`
		SheetName string `yaml:"sheetName"`
	}

	err := node.Decode(&raw)
	if err != nil {
		return err
	}

	*s = SheetSchema(raw.Sheet)
	if s.Name == "" {
		s.Name = raw.SheetName
	}

	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for ChildLink.
func (l *ChildLink) UnmarshalYAML(node *yaml.Node) error {
	type plain ChildLink

	var raw struct {
		Link      plain  `yaml:",inline"`
		SheetName string `yaml:"sheetName"`
	}

	err := node.Decode(&raw)
	if err != nil {
		return err
	}

	*l = ChildLink(raw.Link)
	if l.Sheet == "" {
		l.Sheet = raw.SheetName
	}

	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for TargetKeySpec.
func (t *TargetKeySpec) UnmarshalYAML(node *yaml.Node) error {
	type plain TargetKeySpec

	var raw struct {
		Key       plain  `yaml:",inline"`
		SheetName string `yaml:"sheetName"`
	}

	err := node.Decode(&raw)
	if err != nil {
		return err
	}

	*t = TargetKeySpec(raw.Key)
	if t.Sheet == "" {
		t.Sheet = raw.SheetName
	}

	return nil
}

// --- MapRule YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for MapRule.
// Accepts sheetName for name and remembers whether add precedes fields.
func (r *MapRule) UnmarshalYAML(node *yaml.Node) error {
	type plain MapRule

	var raw struct {
		Rule      plain  `yaml:",inline"`
		SheetName string `yaml:"sheetName"`
	}

	err := node.Decode(&raw)
	if err != nil {
		return err
	}

	*r = MapRule(raw.Rule)
	if r.Sheet == "" {
		r.Sheet = raw.SheetName
	}

	r.addFirst = keyIndex(node, "add") < keyIndex(node, "fields")

	return nil
}

// MarshalYAML implements custom YAML marshaling for MapRule.
// Keeps add ahead of fields when the rule was read that way.
func (r MapRule) MarshalYAML() (any, error) {
	type plain MapRule

	if !r.addFirst {
		return plain(r), nil
	}

	var node yaml.Node

	err := node.Encode(plain(r))
	if err != nil {
		return nil, err
	}

	add, fields := keyIndex(&node, "add"), keyIndex(&node, "fields")
	if add < fields || add == len(node.Content) {
		return &node, nil
	}

	pair := append([]*yaml.Node(nil), node.Content[add:add+2]...)
	content := append([]*yaml.Node(nil), node.Content[:add]...)
	content = append(content, node.Content[add+2:]...)
	content = append(content[:fields], append(pair, content[fields:]...)...)
	node.Content = content

	return &node, nil
}

// keyIndex returns the position of key among the keys of a mapping node,
// or len(node.Content) when it is absent.
func keyIndex(node *yaml.Node, key string) int {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return i
		}
	}

	return len(node.Content)
}

// --- ValueCandidate YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for ValueCandidate.
// Accepts static for value, and a postfix given as:
//   - String: "auto", "15:1"
//   - Map: {value: "0"}, {static: "0"} or {paths: ["Observation[Count]"]}
func (c *ValueCandidate) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Paths     []Path     `yaml:"paths"`
		Value     string     `yaml:"value"`
		Static    string     `yaml:"static"`
		Join      string     `yaml:"join"`
		Postfix   yaml.Node  `yaml:"postfix"`
		Condition *Condition `yaml:"condition"`
		Add       []*MapRule `yaml:"add"`
	}

	err := node.Decode(&raw)
	if err != nil {
		return err
	}

	*c = ValueCandidate{
		Paths:     raw.Paths,
		Value:     raw.Value,
		Join:      raw.Join,
		Condition: raw.Condition,
		Add:       raw.Add,
	}

	if c.Value == "" {
		c.Value = raw.Static
	}

	switch raw.Postfix.Kind {
	case 0:
	case yaml.ScalarNode:
		c.Postfix = raw.Postfix.Value
	case yaml.MappingNode:
		var pf struct {
			Paths  []Path `yaml:"paths"`
			Value  string `yaml:"value"`
			Static string `yaml:"static"`
		}

		if err := raw.Postfix.Decode(&pf); err != nil {
			return fmt.Errorf("invalid postfix: %w", err)
		}

		c.Postfix = pf.Value
		if c.Postfix == "" {
			c.Postfix = pf.Static
		}

		if c.Postfix == "" {
			c.PostfixPaths = pf.Paths
		}
	default:
		return fmt.Errorf("expected postfix string or map, got %v", raw.Postfix.Kind)
	}

	return nil
}

// MarshalYAML implements custom YAML marshaling for ValueCandidate.
// Path postfixes are written in the object form.
func (c ValueCandidate) MarshalYAML() (any, error) {
	out := struct {
		Paths     []Path     `yaml:"paths,omitempty"`
		Value     string     `yaml:"value,omitempty"`
		Join      string     `yaml:"join,omitempty"`
		Postfix   any        `yaml:"postfix,omitempty"`
		Condition *Condition `yaml:"condition,omitempty"`
		Add       []*MapRule `yaml:"add,omitempty"`
	}{
		Paths:     c.Paths,
		Value:     c.Value,
		Join:      c.Join,
		Condition: c.Condition,
		Add:       c.Add,
	}

	switch {
	case c.Postfix != "":
		out.Postfix = c.Postfix
	case len(c.PostfixPaths) > 0:
		out.Postfix = map[string][]Path{"paths": c.PostfixPaths}
	}

	return out, nil
}
