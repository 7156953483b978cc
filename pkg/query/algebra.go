package query

import (
	"sort"

	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/values"
)

// applyAlgebra runs the fixed algebra pipeline — OFFSET, LIMIT, DEDUP,
// ORDER BY, GROUP BY, COUNT — in that canonical order regardless of the
// order the statement's suffixes were written in.
func applyAlgebra(rows []store.Row, algebras []ql.Algebra) ([]store.Row, map[string][]store.Row, *int) {
	var offset, limit *int64
	var dedupKey, orderKey, groupKey string
	var hasDedup, hasOrder, hasGroup, hasCount bool
	orderDir := ql.Asc

	for _, a := range algebras {
		switch a.Kind {
		case ql.AlgebraOffset:
			n := a.N
			offset = &n
		case ql.AlgebraLimit:
			n := a.N
			limit = &n
		case ql.AlgebraDedup:
			dedupKey, hasDedup = a.Key, true
		case ql.AlgebraOrderBy:
			orderKey, orderDir, hasOrder = a.Key, a.Order, true
		case ql.AlgebraGroupBy:
			groupKey, hasGroup = a.Key, true
		case ql.AlgebraCount:
			hasCount = true
		}
	}

	if offset != nil {
		rows = applyOffset(rows, *offset)
	}
	if limit != nil {
		rows = applyLimit(rows, *limit)
	}
	if hasDedup {
		rows = applyDedup(rows, dedupKey)
	}
	if hasOrder {
		applyOrder(rows, orderKey, orderDir)
	}

	var groups map[string][]store.Row
	if hasGroup {
		groups = applyGroup(rows, groupKey)
	}

	var count *int
	if hasCount {
		n := len(rows)
		count = &n
	}

	return rows, groups, count
}

func applyOffset(rows []store.Row, n int64) []store.Row {
	if n < 0 || int(n) >= len(rows) {
		return nil
	}
	return rows[n:]
}

func applyLimit(rows []store.Row, n int64) []store.Row {
	if n < 0 {
		return rows
	}
	if int(n) >= len(rows) {
		return rows
	}
	return rows[:n]
}

func applyDedup(rows []store.Row, key string) []store.Row {
	seen := map[string]bool{}
	out := rows[:0:0]
	for _, r := range rows {
		v, ok := r.State[key]
		if !ok {
			v = values.Nil
		}
		sig := values.Print(v)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, r)
	}
	return out
}

// applyOrder sorts rows in place by key, treating a missing key as Nil
// (sorts first ascending, matching rows with incomparable variants as
// ties rather than errors).
func applyOrder(rows []store.Row, key string, dir ql.Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := orderCompare(valueOrNil(rows[i], key), valueOrNil(rows[j], key))
		if dir == ql.Desc {
			return c > 0
		}
		return c < 0
	})
}

func valueOrNil(r store.Row, key string) values.Value {
	if v, ok := r.State[key]; ok {
		return v
	}
	return values.Nil
}

func orderCompare(a, b values.Value) int {
	if a.Kind == values.KindNil && b.Kind == values.KindNil {
		return 0
	}
	if a.Kind == values.KindNil {
		return -1
	}
	if b.Kind == values.KindNil {
		return 1
	}
	if !values.Comparable2(a, b) {
		return 0
	}
	return a.Compare(b)
}

func applyGroup(rows []store.Row, key string) map[string][]store.Row {
	groups := map[string][]store.Row{}
	for _, r := range rows {
		sig := values.Print(valueOrNil(r, key))
		groups[sig] = append(groups[sig], r)
	}
	return groups
}
