package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"template-transformer/internal/diagnostic"
	"template-transformer/internal/flatten"
	"template-transformer/internal/output"
	"template-transformer/internal/row"
	"template-transformer/internal/schema"
)

func parseRules(t *testing.T, yaml string) []*schema.MapRule {
	t.Helper()

	doc, err := schema.Parse([]byte(yaml))
	require.NoError(t, err)

	rules, _ := schema.ResolveAutoPostfix(doc.Rules)

	return rules
}

func observationContext() *flatten.Context {
	return &flatten.Context{Members: []*row.Row{
		{Sheet: "Visit", Key: "S1", Values: map[string]string{"SiteID": "S1", "Date": "2024-05-01"}},
		{Sheet: "Observation", Key: "S1:1", ParentKey: "S1", Values: map[string]string{
			"Species": "Moose", "Count": "3", "Sex": "", "Age": "adult",
		}},
	}}
}

func records(t *testing.T, set *output.SheetSet, sheet string) []output.Record {
	t.Helper()

	sh, ok := set.Lookup(sheet)
	require.True(t, ok, "sheet %s", sheet)

	return sh.Records
}

func TestMapFirstNonEmptyCandidateWins(t *testing.T) {
	rules := parseRules(t, `
map:
  - name: occurrence
    fields:
      - columnName: occurrenceID
        columnValue:
          - paths: ["Observation[Sex]"]
            postfix: "9"
          - paths: ["Observation[Species]"]
            postfix: "9"
          - value: never
      - columnName: sex
        columnValue:
          - paths: ["Observation[Sex]"]
      - columnName: basisOfRecord
        columnValue:
          - value: HumanObservation
`)

	set := New(rules, "").Map(observationContext(), nil)

	recs := records(t, set, "occurrence")
	require.Len(t, recs, 1)
	assert.Equal(t, output.Record{
		"occurrenceID":  "Moose:9",
		"sex":           "",
		"basisOfRecord": "HumanObservation",
	}, recs[0])
}

func TestMapPostfixAppendedOnlyToPathValues(t *testing.T) {
	c := &flatten.Context{Members: []*row.Row{
		{Sheet: "A", Values: map[string]string{"a": ""}},
		{Sheet: "B", Values: map[string]string{"b": "X"}},
	}}

	rules := []*schema.MapRule{{
		Sheet: "out",
		Fields: []schema.FieldSpec{
			{Column: "id", Candidates: []schema.ValueCandidate{
				{Paths: []schema.Path{schema.MustParsePath("A[a]")}, Postfix: "9"},
				{Paths: []schema.Path{schema.MustParsePath("B[b]")}, Postfix: "9"},
			}},
			{Column: "static", Candidates: []schema.ValueCandidate{
				{Value: "lit", Postfix: "9"},
			}},
		},
	}}

	set := New(rules, "").Map(c, nil)
	assert.Equal(t, output.Record{"id": "X:9", "static": "lit"}, records(t, set, "out")[0])
}

func TestMapPostfixForms(t *testing.T) {
	rules := parseRules(t, `
map:
  - sheetName: occurrence
    fields:
      - columnName: occurrenceID
        columnValue:
          - paths: ["Observation[_key]"]
            postfix:
              static: "0"
      - columnName: organismID
        columnValue:
          - paths: ["Observation[Species]"]
            postfix:
              paths: ["Observation[Sex]", "Observation[Age]"]
      - columnName: countID
        columnValue:
          - paths: ["Observation[Count]"]
            postfix:
              paths: ["Observation[Sex]"]
      - columnName: remarks
        columnValue:
          - paths: ["Observation[Species]"]
            join: "-"
            postfix:
              value: seen
      - columnName: basisOfRecord
        columnValue:
          - static: HumanObservation
            postfix:
              paths: ["Observation[Age]"]
`)

	set := New(rules, "").Map(observationContext(), nil)

	recs := records(t, set, "occurrence")
	require.Len(t, recs, 1)
	assert.Equal(t, output.Record{
		"occurrenceID":  "S1:1:0",
		"organismID":    "Moose:adult",
		"countID":       "3",
		"remarks":       "Moose-seen",
		"basisOfRecord": "HumanObservation",
	}, recs[0])
}

func TestMapJoin(t *testing.T) {
	rules := parseRules(t, `
map:
  - name: event
    fields:
      - columnName: eventID
        columnValue:
          - paths: ["Lookup[Code]", "Visit[SiteID|Date]"]
      - columnName: eventRemarks
        columnValue:
          - paths: ["Observation[Species|Age]"]
            join: " / "
            postfix: end
`)

	set := New(rules, "-").Map(observationContext(), nil)
	assert.Equal(t, output.Record{
		"eventID":      "S1-2024-05-01",
		"eventRemarks": "Moose / adult / end",
	}, records(t, set, "event")[0])
}

func TestMapConditions(t *testing.T) {
	rules := parseRules(t, `
map:
  - name: all
    condition:
      - if: Observation[Species]
      - if: Visit[SiteID]
    fields: []
  - name: allFails
    condition:
      - if: Observation[Species]
      - if: Observation[Sex]
    fields: []
  - name: any
    condition:
      type: or
      checks:
        - ifNotEmpty: Observation[Sex]
        - ifNotEmpty: Visit[Date]
    fields: []
  - name: anyFails
    condition:
      type: or
      checks:
        - ifNotEmpty: Observation[Sex]
    fields: []
    add:
      - name: neverAdded
        fields: []
`)

	diags := &diagnostic.Diagnostics{}
	set := New(rules, "").Map(observationContext(), diags)

	assert.Equal(t, []string{"all", "any"}, set.Names())
	assert.Equal(t, 2, diags.Stats.RulesFired)
	assert.Equal(t, 2, diags.Stats.RulesSkipped)
	assert.Zero(t, diags.Stats.AddsSpliced)
}

func TestMapCandidateCondition(t *testing.T) {
	rules := parseRules(t, `
map:
  - name: occurrence
    fields:
      - columnName: sex
        columnValue:
          - value: male
            condition:
              - if: Observation[Sex]
          - value: undetermined
`)

	diags := &diagnostic.Diagnostics{}
	set := New(rules, "").Map(observationContext(), diags)

	assert.Equal(t, "undetermined", records(t, set, "occurrence")[0]["sex"])
	assert.Equal(t, 1, diags.Stats.CandidatesSkipped)
}

func TestMapAddOrder(t *testing.T) {
	rules := parseRules(t, `
map:
  - name: occurrence
    fields:
      - columnName: occurrenceID
        columnValue:
          - paths: ["Observation[_key]"]
            postfix: auto
            add:
              - name: fromCandidate
                fields:
                  - columnName: id
                    columnValue:
                      - paths: ["Visit[_key]"]
          - value: unused
            add:
              - name: losingCandidate
                fields: []
    add:
      - name: fromRule
        fields:
          - columnName: id
            columnValue:
              - paths: ["Observation[_key]"]
                postfix: auto
  - name: event
    fields: []
`)

	diags := &diagnostic.Diagnostics{}
	set := New(rules, "").Map(observationContext(), diags)

	assert.Equal(t, []string{"occurrence", "event", "fromCandidate", "fromRule"}, set.Names())
	assert.Equal(t, "S1:1:0", records(t, set, "occurrence")[0]["occurrenceID"])
	assert.Equal(t, "S1", records(t, set, "fromCandidate")[0]["id"])
	assert.Equal(t, "S1:1:1", records(t, set, "fromRule")[0]["id"])
	assert.Equal(t, 2, diags.Stats.AddsSpliced)
	assert.Equal(t, 4, diags.Stats.RulesFired)
}

func TestMapSelfAddIsGuarded(t *testing.T) {
	rule := &schema.MapRule{
		Sheet: "measurement",
		Fields: []schema.FieldSpec{{Column: "type", Candidates: []schema.ValueCandidate{{Value: "count"}}}},
	}
	child := &schema.MapRule{Sheet: "child", Add: []*schema.MapRule{rule}}
	rule.Add = []*schema.MapRule{rule, child}

	diags := &diagnostic.Diagnostics{}
	set := New([]*schema.MapRule{rule}, "").Map(observationContext(), diags)

	assert.Len(t, records(t, set, "measurement"), 1)
	assert.Len(t, records(t, set, "child"), 1)
	assert.Equal(t, 2, diags.Stats.AddCycles)
	assert.Len(t, diags.ByCode(diagnostic.CodeAddCycle), 2)
}

func TestMapFieldWithoutCandidates(t *testing.T) {
	rules := []*schema.MapRule{{Sheet: "event", Fields: []schema.FieldSpec{{Column: "eventID"}}}}

	set := New(rules, "").Map(observationContext(), nil)
	assert.Equal(t, output.Record{"eventID": ""}, records(t, set, "event")[0])
}

func TestMapIsPerContext(t *testing.T) {
	rule := &schema.MapRule{Sheet: "event"}
	rule.Add = []*schema.MapRule{{Sheet: "extra"}}

	m := New([]*schema.MapRule{rule}, "")

	first := m.Map(observationContext(), nil)
	second := m.Map(observationContext(), nil)

	assert.Equal(t, 2, first.Len())
	assert.Equal(t, 2, second.Len())
	assert.Equal(t, ":", m.Separator())
	assert.Zero(t, m.Map(nil, nil).Len())
}
