package hierarchy

import (
	"fmt"

	"template-transformer/internal/common"
	"template-transformer/internal/diagnostic"
	"template-transformer/internal/row"
	"template-transformer/internal/schema"
)

// Forest is the result of linking rows.
type Forest struct {
	// Roots are the rows of the root sheet in source order.
	Roots []*row.Row

	// Levels holds the attached rows of each depth. Levels[0] equals Roots.
	Levels [][]*row.Row
}

// Build attaches the rows of every queued sheet under their parents.
// Rows that find no parent are dropped and reported as orphans.
func Build(queue []schema.QueueItem, rows row.Set, diags *diagnostic.Diagnostics) *Forest {
	if diags == nil {
		diags = &diagnostic.Diagnostics{}
	}

	f := &Forest{}

	for _, item := range queue {
		depth := item.DistanceToRoot
		for len(f.Levels) <= depth {
			f.Levels = append(f.Levels, nil)
		}

		sheetRows := rows[item.Sheet.Name]

		if depth == 0 {
			f.Levels[0] = append(f.Levels[0], sheetRows...)
			diags.Stats.RowsAttached += len(sheetRows)

			continue
		}

		parents := indexByChildKey(f.Levels[depth-1])

		for _, r := range sheetRows {
			matched := parents[r.ParentKey]
			if r.ParentKey == "" || len(matched) == 0 {
				diags.Stats.RowsOrphaned++
				diags.AddWarning(diagnostic.CodeOrphanRow,
					fmt.Sprintf("no parent row offers key %q", r.ParentKey), r.Sheet, r.Key)

				continue
			}

			for _, p := range matched {
				p.Children = append(p.Children, r)
			}

			if len(matched) > 1 {
				diags.Stats.MultiParentAttachments++
				diags.AddInfo(diagnostic.CodeMultiParentAttachment,
					fmt.Sprintf("attached under %d parent rows", len(matched)), r.Sheet, r.Key)
			}

			diags.Stats.RowsAttached++
			f.Levels[depth] = append(f.Levels[depth], r)
		}
	}

	f.Roots, _ = common.First(f.Levels)

	return f
}

// indexByChildKey maps each non-empty child key to the rows offering it,
// in level order and without repeats.
func indexByChildKey(level []*row.Row) map[string][]*row.Row {
	idx := make(map[string][]*row.Row)

	for _, p := range level {
		for _, key := range p.ChildKeys {
			if key == "" {
				continue
			}

			list := idx[key]
			if n := len(list); n > 0 && list[n-1] == p {
				continue
			}

			idx[key] = append(list, p)
		}
	}

	return idx
}
