package schema

import (
	"errors"
	"fmt"
	"strconv"

	"template-transformer/internal/common"
	"template-transformer/internal/diagnostic"
	"template-transformer/internal/match"
)

// ErrMissingRootSchema is returned when no template sheet has type "root".
var ErrMissingRootSchema = errors.New("no root template sheet was defined")

// maxSuggestions limits "did you mean" lists on dangling sheet references.
const maxSuggestions = 3

// QueueItem is a template sheet with its distance from the root sheet.
type QueueItem struct {
	Sheet          *SheetSchema
	DistanceToRoot int
}

// Prepared is a rule document ready for transformation. It is read-only
// once built and safe to share between goroutines.
type Prepared struct {
	// Queue lists the reachable template sheets root-first.
	Queue []QueueItem

	// Rules is a copy of the document's rules with "auto" postfixes resolved.
	Rules []*MapRule

	// AutoPostfixes is the number of "auto" postfixes that were resolved.
	AutoPostfixes int

	// TargetKeys maps a target sheet name to its composite key columns.
	TargetKeys map[string][]string

	// TargetOrder lists the distinct target sheets of the top-level rules in
	// document order.
	TargetOrder []string

	sheets map[string]*SheetSchema
}

// Sheet returns the schema of a reachable template sheet.
func (p *Prepared) Sheet(name string) (*SheetSchema, bool) {
	s, ok := p.sheets[name]
	return s, ok
}

// Prepare builds the sheet queue and resolves auto postfixes.
// Dangling child references are reported to diags, which may be nil.
func Prepare(doc *Document, diags *diagnostic.Diagnostics) (*Prepared, error) {
	if doc == nil {
		return nil, errors.New("rule document is nil")
	}

	if diags == nil {
		diags = &diagnostic.Diagnostics{}
	}

	queue, err := BuildQueue(doc.Sheets, diags)
	if err != nil {
		return nil, err
	}

	rules, autos := ResolveAutoPostfix(doc.Rules)

	p := &Prepared{
		Queue:         queue,
		Rules:         rules,
		AutoPostfixes: autos,
		TargetKeys:    make(map[string][]string, len(doc.TargetKeys)),
		sheets:        make(map[string]*SheetSchema, len(queue)),
	}

	for _, item := range queue {
		p.sheets[item.Sheet.Name] = item.Sheet
	}

	for _, tk := range doc.TargetKeys {
		if _, exists := p.TargetKeys[tk.Sheet]; exists {
			// First declaration wins
			continue
		}

		p.TargetKeys[tk.Sheet] = tk.Columns
	}

	for _, rule := range doc.Rules {
		if rule != nil {
			p.TargetOrder = common.AppendUnique(p.TargetOrder, rule.Sheet)
		}
	}

	return p, nil
}

// BuildQueue orders the sheets root-first by breadth-first traversal of the
// child links, so that every sheet's distance is its parent's distance + 1.
// When several sheets share a name, the first one is used.
func BuildQueue(sheets []SheetSchema, diags *diagnostic.Diagnostics) ([]QueueItem, error) {
	if diags == nil {
		diags = &diagnostic.Diagnostics{}
	}

	byName := make(map[string]*SheetSchema, len(sheets))
	names := make([]string, 0, len(sheets))

	var root *SheetSchema

	for i := range sheets {
		s := &sheets[i]
		if _, exists := byName[s.Name]; !exists {
			byName[s.Name] = s
			names = append(names, s.Name)
		}

		if root == nil && s.Role == RoleRoot {
			root = s
		}
	}

	if root == nil {
		return nil, ErrMissingRootSchema
	}

	queue := []QueueItem{{Sheet: root, DistanceToRoot: 0}}
	visited := map[string]bool{root.Name: true}

	level := []*SheetSchema{root}
	for distance := 1; len(level) > 0; distance++ {
		var next []*SheetSchema

		for _, parent := range level {
			for _, link := range parent.Children {
				child, ok := byName[link.Sheet]
				if !ok {
					diags.Stats.DanglingLinks++
					diags.AddWarningWithSuggestions(
						diagnostic.CodeDanglingChildSheet,
						fmt.Sprintf("child sheet %q is not declared", link.Sheet),
						parent.Name,
						match.Suggest(link.Sheet, names, maxSuggestions),
					)

					continue
				}

				if visited[child.Name] {
					diags.AddWarning(
						diagnostic.CodeRevisitedSheet,
						fmt.Sprintf("child sheet %q is already linked from another sheet", child.Name),
						parent.Name,
						"",
					)

					continue
				}

				visited[child.Name] = true
				queue = append(queue, QueueItem{Sheet: child, DistanceToRoot: distance})
				next = append(next, child)
			}
		}

		level = next
	}

	return queue, nil
}

// ResolveAutoPostfix returns a deep copy of rules in which every "auto"
// postfix is replaced with a sequence number starting at 0.
//
// Numbers follow a walk of the document in its own key order: a rule's
// fields and add list are visited in the order the document lists them,
// and within a field every auto candidate is numbered before the add lists
// of any of those candidates are entered. A rule reachable more than once is
// copied and numbered once. The second result is the number of postfixes
// resolved.
func ResolveAutoPostfix(rules []*MapRule) ([]*MapRule, int) {
	r := &postfixResolver{copies: make(map[*MapRule]*MapRule)}
	return r.rules(rules), r.next
}

type postfixResolver struct {
	next   int
	copies map[*MapRule]*MapRule
}

func (r *postfixResolver) rules(in []*MapRule) []*MapRule {
	if in == nil {
		return nil
	}

	out := make([]*MapRule, len(in))
	for i, rule := range in {
		out[i] = r.rule(rule)
	}

	return out
}

func (r *postfixResolver) rule(in *MapRule) *MapRule {
	if in == nil {
		return nil
	}

	if c, ok := r.copies[in]; ok {
		return c
	}

	out := &MapRule{
		Sheet:     in.Sheet,
		Condition: in.Condition.clone(),
		addFirst:  in.addFirst,
	}
	// Register before descending so a rule adding itself maps to this copy
	r.copies[in] = out

	if in.addFirst {
		out.Add = r.rules(in.Add)
		out.Fields = r.fields(in.Fields)
	} else {
		out.Fields = r.fields(in.Fields)
		out.Add = r.rules(in.Add)
	}

	return out
}

func (r *postfixResolver) fields(in []FieldSpec) []FieldSpec {
	if in == nil {
		return nil
	}

	out := make([]FieldSpec, len(in))
	for i, f := range in {
		out[i] = FieldSpec{Column: f.Column, Candidates: r.candidates(f.Candidates)}
	}

	return out
}

func (r *postfixResolver) candidates(in []ValueCandidate) []ValueCandidate {
	if in == nil {
		return nil
	}

	out := make([]ValueCandidate, len(in))

	for i, c := range in {
		out[i] = ValueCandidate{
			Paths:        clonePaths(c.Paths),
			Value:        c.Value,
			Join:         c.Join,
			Postfix:      c.Postfix,
			PostfixPaths: clonePaths(c.PostfixPaths),
			Condition:    c.Condition.clone(),
		}

		if out[i].Postfix == AutoPostfix {
			out[i].Postfix = strconv.Itoa(r.next)
			r.next++
		}
	}

	for i, c := range in {
		out[i].Add = r.rules(c.Add)
	}

	return out
}

func (c *Condition) clone() *Condition {
	if c == nil {
		return nil
	}

	out := &Condition{Mode: c.Mode}
	if c.Checks != nil {
		out.Checks = make([]Check, len(c.Checks))
		for i, check := range c.Checks {
			out.Checks[i] = Check{Path: clonePath(check.Path)}
		}
	}

	return out
}

func clonePaths(in []Path) []Path {
	if in == nil {
		return nil
	}

	out := make([]Path, len(in))
	for i, p := range in {
		out[i] = clonePath(p)
	}

	return out
}

func clonePath(p Path) Path {
	return Path{Sheet: p.Sheet, Columns: append([]string(nil), p.Columns...)}
}
