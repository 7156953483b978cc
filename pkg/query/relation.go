package query

import (
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/values"
)

// runRelation executes both operand queries and combines their row
// sets per stmt.RelationType/RelationKey. KEY identity is the row's id;
// KEY-VALUE identity is the row's whole state, canonically rendered, so
// two rows from different entities only coincide if every field
// matches.
func (e *Engine) runRelation(stmt ql.Stmt) (Result, error) {
	left, err := e.Run(stmt.Operands[0])
	if err != nil {
		return Result{}, err
	}
	right, err := e.Run(stmt.Operands[1])
	if err != nil {
		return Result{}, err
	}

	identity := func(r store.Row) string {
		if stmt.RelationKey == ql.ByKey {
			return r.ID.String()
		}
		return values.Print(values.Map(r.State))
	}

	rightSet := make(map[string]bool, len(right.Rows))
	for _, r := range right.Rows {
		rightSet[identity(r)] = true
	}

	var out []store.Row
	switch stmt.RelationType {
	case ql.RelIntersect:
		for _, r := range left.Rows {
			if rightSet[identity(r)] {
				out = append(out, r)
			}
		}
	case ql.RelDifference:
		for _, r := range left.Rows {
			if !rightSet[identity(r)] {
				out = append(out, r)
			}
		}
	case ql.RelUnion:
		seen := map[string]bool{}
		for _, r := range left.Rows {
			if k := identity(r); !seen[k] {
				seen[k] = true
				out = append(out, r)
			}
		}
		for _, r := range right.Rows {
			if k := identity(r); !seen[k] {
				seen[k] = true
				out = append(out, r)
			}
		}
	}
	return Result{Rows: out}, nil
}

// runJoin runs every operand query, buckets their rows by entity name,
// and pairs JoinLeftEntity's rows against JoinRightEntity's on key
// equality, merging matched pairs' state (right-hand keys prefixed with
// their entity name when they collide with a left-hand key).
func (e *Engine) runJoin(stmt ql.Stmt) (Result, error) {
	byEntity := map[string][]store.Row{}
	for _, op := range stmt.Operands {
		res, err := e.Run(op)
		if err != nil {
			return Result{}, err
		}
		byEntity[op.Entity] = append(byEntity[op.Entity], res.Rows...)
	}

	left := byEntity[stmt.JoinLeftEntity]
	right := byEntity[stmt.JoinRightEntity]

	var out []store.Row
	for _, lr := range left {
		lv, ok := lr.State[stmt.JoinLeftKey]
		if !ok {
			continue
		}
		for _, rr := range right {
			rv, ok := rr.State[stmt.JoinRightKey]
			if !ok || !values.Equal(lv, rv) {
				continue
			}
			merged := make(map[string]values.Value, len(lr.State)+len(rr.State))
			for k, v := range lr.State {
				merged[k] = v
			}
			for k, v := range rr.State {
				if _, collide := merged[k]; collide {
					merged[stmt.JoinRightEntity+"."+k] = v
				} else {
					merged[k] = v
				}
			}
			out = append(out, store.Row{ID: lr.ID, State: merged})
		}
	}
	return Result{Rows: out}, nil
}
