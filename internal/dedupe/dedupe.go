package dedupe

import (
	"fmt"

	"template-transformer/internal/common"
	"template-transformer/internal/diagnostic"
	"template-transformer/internal/output"
)

// KeySeparator joins the values of composite key columns.
const KeySeparator = "|"

// Dedupe concatenates the sets sheet by sheet and keeps the last record for
// every composite key, at the position where the key was first seen.
//
// Sheets are returned in the given order first, followed by any other sheet
// in the order it was first produced. Sheets named in order are returned even
// when they produced no records. Sheets without a key in keys are passed
// through unchanged.
func Dedupe(
	sets []*output.SheetSet,
	keys map[string][]string,
	order []string,
	diags *diagnostic.Diagnostics,
) []*output.Sheet {
	if diags == nil {
		diags = &diagnostic.Diagnostics{}
	}

	merged := merge(sets, order)

	out := make([]*output.Sheet, 0, len(merged))
	emitted, kept := 0, 0

	for _, sh := range merged {
		emitted += len(sh.Records)

		columns, ok := keys[sh.Name]
		if !ok {
			diags.AddWarning(diagnostic.CodeMissingTargetKey,
				fmt.Sprintf("no composite key declared, %d records kept as-is", len(sh.Records)), sh.Name, "")
		} else {
			sh.Records = collapse(sh.Records, columns)
		}

		kept += len(sh.Records)
		out = append(out, sh)
	}

	diags.Stats.RecordsEmitted += emitted
	diags.Stats.RecordsKept += kept
	diags.Stats.RecordsCollapsed += emitted - kept

	return out
}

// merge concatenates same-named sheets of all sets, keeping the first-seen
// column order. Every sheet in order is seeded first.
func merge(sets []*output.SheetSet, order []string) []*output.Sheet {
	all := output.NewSheetSet()

	for _, name := range order {
		all.Sheet(name)
	}

	for _, set := range sets {
		if set == nil {
			continue
		}

		for _, src := range set.Sheets() {
			all.Sheet(src.Name).Append(src.Columns, src.Records...)
		}
	}

	return all.Sheets()
}

func collapse(records []output.Record, columns []string) []output.Record {
	pos := make(map[string]int, len(records))
	out := make([]output.Record, 0, len(records))

	for _, rec := range records {
		key := Key(rec, columns)
		if i, ok := pos[key]; ok {
			out[i] = rec
			continue
		}

		pos[key] = len(out)
		out = append(out, rec)
	}

	return out
}

// Key returns the composite key of a record.
func Key(rec output.Record, columns []string) string {
	return common.JoinValues(rec, columns, KeySeparator)
}
