package flatten

import (
	"context"
	"errors"
	"fmt"
	"math"

	"template-transformer/internal/row"
	"template-transformer/internal/schema"
)

// ErrContextLimit is returned when a run would produce more contexts than
// its limit allows.
var ErrContextLimit = errors.New("flattened context limit exceeded")

// Context is a flat set of rows, children stripped, in the order they were
// added: the top-level row first, then each nesting level in bucket order.
type Context struct {
	Members []*row.Row
}

// Flattener expands trees while enforcing a limit on the total number of
// contexts. It is not safe for concurrent use.
type Flattener struct {
	limit int
	count int
}

// New returns a Flattener. A limit <= 0 disables the check.
func New(limit int) *Flattener {
	return &Flattener{limit: limit}
}

// Count returns the number of contexts produced so far.
func (f *Flattener) Count() int { return f.count }

// Flatten expands every root. Cancellation is checked between roots.
func (f *Flattener) Flatten(ctx context.Context, roots []*row.Row) ([]*Context, error) {
	var out []*Context

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		contexts, err := f.Row(root)
		if err != nil {
			return nil, err
		}

		out = append(out, contexts...)
	}

	return out, nil
}

// Flatten expands every root with a fresh Flattener.
func Flatten(ctx context.Context, roots []*row.Row, limit int) ([]*Context, error) {
	return New(limit).Flatten(ctx, roots)
}

// work is a context under construction. frontier holds the unstripped rows
// added in the previous step.
type work struct {
	members  []*row.Row
	frontier []*row.Row
}

// Row expands the tree below a single top-level row.
func (f *Flattener) Row(root *row.Row) ([]*Context, error) {
	if err := f.reserve(1); err != nil {
		return nil, err
	}

	queue := []*work{{
		members:  []*row.Row{root.Stripped()},
		frontier: []*row.Row{root},
	}}

	var out []*Context

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		for {
			buckets := bucketChildren(w.frontier)

			n, ok := combinations(buckets)
			if !ok {
				return nil, fmt.Errorf("%w: combination count overflows", ErrContextLimit)
			}

			if n == 0 {
				break
			}

			if n > 1 {
				if err := f.reserve(n - 1); err != nil {
					return nil, err
				}
			}

			combos := product(buckets, n)

			// Forks are queued last combination first
			for i := len(combos) - 1; i > 0; i-- {
				fork := &work{
					members:  extend(append([]*row.Row(nil), w.members...), combos[i]),
					frontier: combos[i],
				}
				queue = append(queue, fork)
			}

			w.members = extend(w.members, combos[0])
			w.frontier = combos[0]
		}

		out = append(out, &Context{Members: w.members})
	}

	return out, nil
}

func (f *Flattener) reserve(n int) error {
	if f.limit > 0 && (n > f.limit || f.count > f.limit-n) {
		return fmt.Errorf("%w: more than %d contexts", ErrContextLimit, f.limit)
	}

	f.count += n

	return nil
}

// bucketChildren groups the children of non-leaf rows by sheet, with
// buckets in first-seen order.
func bucketChildren(frontier []*row.Row) [][]*row.Row {
	var buckets [][]*row.Row

	index := make(map[string]int)

	for _, r := range frontier {
		if r.Role == schema.RoleLeaf {
			continue
		}

		for _, c := range r.Children {
			i, ok := index[c.Sheet]
			if !ok {
				i = len(buckets)
				index[c.Sheet] = i
				buckets = append(buckets, nil)
			}

			buckets[i] = append(buckets[i], c)
		}
	}

	return buckets
}

// combinations returns the size of the cross product of the buckets.
// It reports false when the size does not fit in an int.
func combinations(buckets [][]*row.Row) (int, bool) {
	if len(buckets) == 0 {
		return 0, true
	}

	n := 1
	for _, b := range buckets {
		if len(b) == 0 {
			return 0, true
		}

		if n > math.MaxInt/len(b) {
			return 0, false
		}

		n *= len(b)
	}

	return n, true
}

// product returns the cross product of the buckets. The first bucket varies
// fastest; each combination lists one row per bucket in bucket order.
func product(buckets [][]*row.Row, n int) [][]*row.Row {
	out := make([][]*row.Row, 0, n)
	idx := make([]int, len(buckets))

	for range n {
		combo := make([]*row.Row, len(buckets))
		for b, i := range idx {
			combo[b] = buckets[b][i]
		}

		out = append(out, combo)

		for b := range idx {
			idx[b]++
			if idx[b] < len(buckets[b]) {
				break
			}

			idx[b] = 0
		}
	}

	return out
}

func extend(members, combo []*row.Row) []*row.Row {
	for _, r := range combo {
		members = append(members, r.Stripped())
	}

	return members
}
