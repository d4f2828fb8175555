package mapper

import (
	"fmt"
	"strings"

	"template-transformer/internal/common"
	"template-transformer/internal/diagnostic"
	"template-transformer/internal/flatten"
	"template-transformer/internal/output"
	"template-transformer/internal/query"
	"template-transformer/internal/row"
	"template-transformer/internal/schema"
)

// Mapper maps contexts to target records. It holds no per-context state
// and is safe for concurrent use.
type Mapper struct {
	rules     []*schema.MapRule
	separator string
}

// New returns a Mapper for the given rules. An empty separator defaults
// to ":".
func New(rules []*schema.MapRule, separator string) *Mapper {
	if separator == "" {
		separator = common.KeySeparator
	}

	return &Mapper{rules: rules, separator: separator}
}

// Separator returns the default join separator.
func (m *Mapper) Separator() string { return m.separator }

// Map evaluates the rules against one context. Counters and diagnostics are
// written to diags, which may be nil.
func (m *Mapper) Map(c *flatten.Context, diags *diagnostic.Diagnostics) *output.SheetSet {
	if diags == nil {
		diags = &diagnostic.Diagnostics{}
	}

	set := output.NewSheetSet()
	if c == nil {
		return set
	}

	p := &pass{
		members: c.Members,
		active:  make([]*schema.MapRule, 0, len(m.rules)),
		listed:  make(map[*schema.MapRule]struct{}, len(m.rules)),
		diags:   diags,
	}
	p.seed(m.rules)

	for i := 0; i < len(p.active); i++ {
		rule := p.active[i]

		if !p.check(rule.Condition) {
			diags.Stats.RulesSkipped++
			continue
		}

		diags.Stats.RulesFired++

		sheet := set.Sheet(rule.Sheet)
		rec := sheet.NewRecord()

		var adds [][]*schema.MapRule

		for _, field := range rule.Fields {
			value, winner := m.evaluate(p, field)
			sheet.Set(rec, field.Column, value)

			if winner != nil && len(winner.Add) > 0 {
				adds = append(adds, winner.Add)
			}
		}

		for _, add := range adds {
			p.splice(add)
		}

		p.splice(rule.Add)
	}

	return set
}

// evaluate returns the value of a field and the candidate that produced it.
func (m *Mapper) evaluate(p *pass, field schema.FieldSpec) (string, *schema.ValueCandidate) {
	for i := range field.Candidates {
		cand := &field.Candidates[i]

		if !p.check(cand.Condition) {
			p.diags.Stats.CandidatesSkipped++
			continue
		}

		if cand.IsStatic() {
			return cand.Value, cand
		}

		if v := m.pathValue(p.members, cand); v != "" {
			return v, cand
		}
	}

	return "", nil
}

func (m *Mapper) pathValue(members []*row.Row, cand *schema.ValueCandidate) string {
	sep := cand.Join
	if sep == "" {
		sep = m.separator
	}

	for _, path := range cand.Paths {
		values := query.SelectValues(members, path)
		if len(values) == 0 {
			continue
		}

		v := strings.Join(values, sep)
		if postfix := postfixValue(members, cand, sep); postfix != "" {
			v += sep + postfix
		}

		return v
	}

	return ""
}

// postfixValue returns the fixed postfix of a candidate, or else the value of
// the first of its postfix paths that selects anything.
func postfixValue(members []*row.Row, cand *schema.ValueCandidate, sep string) string {
	if cand.Postfix != "" {
		return cand.Postfix
	}

	for _, path := range cand.PostfixPaths {
		if values := query.SelectValues(members, path); len(values) > 0 {
			return strings.Join(values, sep)
		}
	}

	return ""
}

// pass is the state of mapping a single context.
type pass struct {
	members []*row.Row
	active  []*schema.MapRule
	listed  map[*schema.MapRule]struct{}
	diags   *diagnostic.Diagnostics
}

// splice appends rules to the active list, skipping rules already on it.
func (p *pass) splice(rules []*schema.MapRule) {
	for _, r := range rules {
		if r == nil {
			continue
		}

		if _, ok := p.listed[r]; ok {
			p.diags.Stats.AddCycles++
			p.diags.AddWarning(diagnostic.CodeAddCycle,
				fmt.Sprintf("rule for sheet %q is already scheduled in this context", r.Sheet), r.Sheet, "")

			continue
		}

		p.diags.Stats.AddsSpliced++
		p.listed[r] = struct{}{}
		p.active = append(p.active, r)
	}
}

// seed lists the top-level rules. A rule listed twice is evaluated once.
func (p *pass) seed(rules []*schema.MapRule) {
	for _, r := range rules {
		if r == nil {
			continue
		}

		if _, ok := p.listed[r]; ok {
			continue
		}

		p.listed[r] = struct{}{}
		p.active = append(p.active, r)
	}
}

// check reports whether a condition holds. A nil condition always holds,
// as does a condition without checks.
func (p *pass) check(c *schema.Condition) bool {
	if c == nil || common.IsEmpty(c.Checks) {
		return true
	}

	if c.Mode == schema.ConditionOr {
		for _, chk := range c.Checks {
			if query.Exists(p.members, chk.Path) {
				return true
			}
		}

		return false
	}

	for _, chk := range c.Checks {
		if !query.Exists(p.members, chk.Path) {
			return false
		}
	}

	return true
}
