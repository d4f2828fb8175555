package engine

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"template-transformer/internal/diagnostic"
	"template-transformer/internal/flatten"
	"template-transformer/internal/logging"
	"template-transformer/internal/output"
	"template-transformer/internal/row"
	"template-transformer/internal/schema"
	"template-transformer/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const surveyRules = `
templateMeta:
  - name: Visit
    primaryKey: [SiteID]
    type: root
    foreignKeys:
      - name: Observation
        primaryKey: [SiteID]
      - name: Obsrvations
        primaryKey: [SiteID]
  - name: Observation
    primaryKey: [SiteID, ObsNum]
    parentKey: [SiteID]
map:
  - name: event
    fields:
      - columnName: eventID
        columnValue:
          - paths: ["Visit[_key]"]
      - columnName: locality
        columnValue:
          - paths: ["Visit[Locality]"]
          - value: unknown
  - name: occurrence
    condition:
      - if: Observation[ObsNum]
    fields:
      - columnName: occurrenceID
        columnValue:
          - paths: ["Observation[SiteID|ObsNum]"]
      - columnName: eventID
        columnValue:
          - paths: ["Visit[_key]"]
      - columnName: scientificName
        columnValue:
          - paths: ["Observation[Species]"]
    add:
      - name: measurement
        condition:
          - if: Observation[Count]
        fields:
          - columnName: measurementID
            columnValue:
              - paths: ["Observation[_key]"]
                postfix: auto
          - columnName: measurementValue
            columnValue:
              - paths: ["Observation[Count]"]
dwcMeta:
  - name: event
    primaryKey: [eventID]
  - name: occurrence
    primaryKey: [occurrenceID]
  - name: measurement
    primaryKey: [measurementID]
`

func surveyData() row.SheetData {
	return row.SheetData{
		"Visit": {
			{"SiteID": 1, "Locality": "North Ridge"},
			{"SiteID": 2},
		},
		"Observation": {
			{"SiteID": 1, "ObsNum": 1, "Species": "Alces alces", "Count": 2},
			{"SiteID": 1, "ObsNum": 2, "Species": "Rangifer tarandus"},
			{"SiteID": 2, "ObsNum": 1, "Species": "Alces alces", "Count": 1},
		},
	}
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()

	doc, err := schema.Parse([]byte(surveyRules))
	require.NoError(t, err)

	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}

	e, err := New(doc, opts)
	require.NoError(t, err)

	return e
}

func column(sh *output.Sheet, name string) []string {
	out := make([]string, len(sh.Records))
	for i, rec := range sh.Records {
		out[i] = rec[name]
	}

	return out
}

func TestRun(t *testing.T) {
	res, err := newEngine(t, Options{}).Run(context.Background(), surveyData())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)

	names := make([]string, len(res.Sheets))
	for i, sh := range res.Sheets {
		names[i] = sh.Name
	}

	assert.Equal(t, []string{"event", "occurrence", "measurement"}, names)

	events, ok := res.Sheet("event")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, column(events, "eventID"))
	assert.Equal(t, []string{"North Ridge", "unknown"}, column(events, "locality"))

	occurrences, ok := res.Sheet("occurrence")
	require.True(t, ok)
	assert.Equal(t, []string{"occurrenceID", "eventID", "scientificName"}, occurrences.Columns)
	assert.Equal(t, []string{"1:1", "1:2", "2:1"}, column(occurrences, "occurrenceID"))
	assert.Equal(t, []string{"1", "1", "2"}, column(occurrences, "eventID"))

	measurements, ok := res.Sheet("measurement")
	require.True(t, ok)
	assert.Equal(t, []string{"1:1:0", "2:1:0"}, column(measurements, "measurementID"))
	assert.Equal(t, []string{"2", "1"}, column(measurements, "measurementValue"))

	_, ok = res.Sheet("location")
	assert.False(t, ok)

	stats := res.Diagnostics.Stats
	assert.Equal(t, 5, stats.RowsAnnotated)
	assert.Equal(t, 2, stats.TopLevelRecords)
	assert.Equal(t, 3, stats.Contexts)
	assert.Equal(t, 8, stats.RulesFired)
	assert.Equal(t, 1, stats.RulesSkipped)
	assert.Equal(t, 8, stats.RecordsEmitted)
	assert.Equal(t, 7, stats.RecordsKept)
	assert.Equal(t, 1, stats.RecordsCollapsed)
}

func TestRunCarriesPreparationDiagnostics(t *testing.T) {
	e := newEngine(t, Options{})

	for range 2 {
		res, err := e.Run(context.Background(), surveyData())
		require.NoError(t, err)

		dangling := res.Diagnostics.ByCode(diagnostic.CodeDanglingChildSheet)
		require.Len(t, dangling, 1)
		assert.Equal(t, []string{"Observation"}, dangling[0].Suggestions)
	}
}

func largeData(sites, perSite int) row.SheetData {
	data := row.SheetData{}

	for s := range sites {
		data["Visit"] = append(data["Visit"], map[string]any{"SiteID": s})

		for o := range perSite {
			data["Observation"] = append(data["Observation"], map[string]any{
				"SiteID":  s,
				"ObsNum":  o,
				"Species": fmt.Sprintf("species-%d", o%3),
				"Count":   o,
			})
		}
	}

	return data
}

func TestRunParallelMatchesSequential(t *testing.T) {
	data := largeData(20, 15)

	seq, err := newEngine(t, Options{Workers: 1}).Run(context.Background(), data)
	require.NoError(t, err)

	par, err := newEngine(t, Options{Workers: 8}).Run(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, seq.Sheets, par.Sheets)
	assert.Equal(t, seq.Diagnostics.Stats, par.Diagnostics.Stats)
	assert.Equal(t, seq.Diagnostics.Warnings, par.Diagnostics.Warnings)
	assert.Equal(t, 300, par.Diagnostics.Stats.Contexts)
}

func TestRunContextLimit(t *testing.T) {
	res, err := newEngine(t, Options{MaxContexts: 2}).Run(context.Background(), surveyData())
	require.ErrorIs(t, err, flatten.ErrContextLimit)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.Sheets)
	assert.True(t, res.Diagnostics.HasErrors())
	assert.Len(t, res.Diagnostics.ByCode(diagnostic.CodeContextLimit), 1)
	assert.Positive(t, res.Diagnostics.Stats.RowsAnnotated)
	require.Error(t, res.Diagnostics.Error())
	assert.Contains(t, res.Diagnostics.Error().Error(), "context limit")

	res, err = newEngine(t, Options{MaxContexts: -1}).Run(context.Background(), largeData(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 100, res.Diagnostics.Stats.Contexts)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		res, err := newEngine(t, Options{Workers: workers}).Run(ctx, surveyData())
		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, res)
		assert.Len(t, res.Diagnostics.ByCode(diagnostic.CodeRunAborted), 1)
	}
}

func TestRunDumpStages(t *testing.T) {
	var buf bytes.Buffer

	e := newEngine(t, Options{DumpStages: true, Logger: logging.New("debug", "text", &buf)})

	_, err := e.Run(context.Background(), surveyData())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "stage dump")
	assert.Contains(t, out, "stage=contexts")
	assert.Contains(t, out, "run_id=")
}

func TestRunEmptySource(t *testing.T) {
	res, err := newEngine(t, Options{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Diagnostics.Stats.Contexts)

	// Top-level targets are still produced, without records
	require.Len(t, res.Sheets, 2)
	assert.Equal(t, "event", res.Sheets[0].Name)
	assert.Equal(t, "occurrence", res.Sheets[1].Name)

	for _, sh := range res.Sheets {
		assert.Empty(t, sh.Records, sh.Name)
	}
}

const siblingRules = `
templateMeta:
  - name: Visit
    primaryKey: [SiteID]
    type: root
    foreignKeys:
      - name: Obs
        primaryKey: [SiteID]
  - name: Obs
    primaryKey: [SiteID, ObsNum]
    parentKey: [SiteID]
map:
  - name: event
    fields:
      - columnName: eventID
        columnValue:
          - paths: ["Visit[_key]"]
      - columnName: eventRemarks
        columnValue:
          - paths: ["Obs[Species]"]
  - name: occurrence
    fields:
      - columnName: occurrenceID
        columnValue:
          - paths: ["Obs[_key]"]
dwcMeta:
  - name: event
    primaryKey: [eventID]
  - name: occurrence
    primaryKey: [occurrenceID]
`

func TestRunSiblingForkOrder(t *testing.T) {
	doc, err := schema.Parse([]byte(siblingRules))
	require.NoError(t, err)

	e, err := New(doc, Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	res, err := e.Run(context.Background(), row.SheetData{
		"Visit": {{"SiteID": 1}},
		"Obs": {
			{"SiteID": 1, "ObsNum": 1, "Species": "A"},
			{"SiteID": 1, "ObsNum": 2, "Species": "B"},
			{"SiteID": 1, "ObsNum": 3, "Species": "C"},
		},
	})
	require.NoError(t, err)

	// Later siblings are forked last first, so the last event written for
	// the visit comes from the second observation
	events, ok := res.Sheet("event")
	require.True(t, ok)
	require.Len(t, events.Records, 1)
	assert.Equal(t, "B", events.Records[0]["eventRemarks"])

	occurrences, ok := res.Sheet("occurrence")
	require.True(t, ok)
	assert.Equal(t, []string{"1:1", "1:3", "1:2"}, column(occurrences, "occurrenceID"))
}

func TestNewMissingRoot(t *testing.T) {
	doc := &schema.Document{Sheets: []schema.SheetSchema{{Name: "Visit"}}}

	_, err := New(doc, Options{})
	require.ErrorIs(t, err, schema.ErrMissingRootSchema)
}

func TestContextLimit(t *testing.T) {
	assert.Equal(t, DefaultMaxContexts, Options{}.contextLimit())
	assert.Equal(t, 0, Options{MaxContexts: -5}.contextLimit())
	assert.Equal(t, 7, Options{MaxContexts: 7}.contextLimit())
}
