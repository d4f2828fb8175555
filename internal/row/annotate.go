package row

import (
	"fmt"
	"slices"
	"strconv"

	"template-transformer/internal/common"
	"template-transformer/internal/diagnostic"
	"template-transformer/internal/schema"
)

// Set holds annotated rows per sheet name, in source order.
type Set map[string][]*Row

// Len returns the number of rows in the set.
func (s Set) Len() int {
	n := 0
	for _, rows := range s {
		n += len(rows)
	}

	return n
}

// Annotate converts the raw rows of every reachable template sheet into Rows.
// Rows without a key are dropped and reported. Sheets that have no template
// are ignored.
func Annotate(p *schema.Prepared, data SheetData, diags *diagnostic.Diagnostics) Set {
	if diags == nil {
		diags = &diagnostic.Diagnostics{}
	}

	out := make(Set, len(p.Queue))

	for _, item := range p.Queue {
		sheet := item.Sheet

		raw, ok := data[sheet.Name]
		if !ok {
			continue
		}

		rows := make([]*Row, 0, len(raw))

		for i, values := range raw {
			r, reason := annotateRow(sheet, values)
			if r == nil {
				diags.Stats.RowsDropped++
				diags.AddWarning(diagnostic.CodeRowDropped,
					fmt.Sprintf("row %d dropped: %s", i+1, reason), sheet.Name, "")

				continue
			}

			rows = append(rows, r)
		}

		diags.Stats.RowsAnnotated += len(rows)
		out[sheet.Name] = rows
	}

	unknown := make([]string, 0)

	for name := range data {
		if _, ok := p.Sheet(name); !ok {
			unknown = append(unknown, name)
		}
	}

	slices.Sort(unknown)

	for _, name := range unknown {
		diags.AddInfo(diagnostic.CodeUnknownSourceSheet,
			fmt.Sprintf("source sheet has no template, %d rows ignored", len(data[name])), name, "")
	}

	return out
}

func annotateRow(sheet *schema.SheetSchema, raw map[string]any) (*Row, string) {
	if len(sheet.PrimaryKey) == 0 {
		return nil, "sheet has no primary key columns"
	}

	if len(raw) == 0 {
		return nil, "row is empty"
	}

	values := make(map[string]string, len(raw))
	for col, v := range raw {
		values[col] = Stringify(v)
	}

	key := common.JoinValues(values, sheet.PrimaryKey, common.KeySeparator)
	if key == "" {
		return nil, "primary key is empty"
	}

	r := &Row{
		Sheet:  sheet.Name,
		Role:   sheet.Role,
		Values: values,
		Key:    key,
	}

	if len(sheet.ParentKey) > 0 {
		r.ParentKey = common.JoinValues(values, sheet.ParentKey, common.KeySeparator)
	}

	if len(sheet.Children) > 0 {
		r.ChildKeys = make([]string, len(sheet.Children))
		for i, link := range sheet.Children {
			r.ChildKeys[i] = common.JoinValues(values, link.Columns, common.KeySeparator)
		}
	}

	return r, ""
}

// Stringify converts a raw cell value to its string form.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
