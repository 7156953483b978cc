package query

import (
	"strings"

	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/values"
)

// matchesWhere is the implicit AND across a WHERE clause list: a row
// must satisfy every clause. A key absent from the row never matches,
// regardless of operator.
func matchesWhere(state map[string]values.Value, clauses []ql.Clause) bool {
	for _, c := range clauses {
		if !matchesClause(state, c) {
			return false
		}
	}
	return true
}

func matchesClause(state map[string]values.Value, c ql.Clause) bool {
	v, ok := state[c.Key]
	if !ok {
		return false
	}
	switch c.Op {
	case ql.ClauseEq:
		return values.Equal(v, c.Value)
	case ql.ClauseNeq:
		return !values.Equal(v, c.Value)
	case ql.ClauseGt:
		return values.Comparable2(v, c.Value) && v.Compare(c.Value) > 0
	case ql.ClauseGeq:
		return values.Comparable2(v, c.Value) && v.Compare(c.Value) >= 0
	case ql.ClauseLt:
		return values.Comparable2(v, c.Value) && v.Compare(c.Value) < 0
	case ql.ClauseLeq:
		return values.Comparable2(v, c.Value) && v.Compare(c.Value) <= 0
	case ql.ClauseLike:
		return likeMatch(v, c.Value)
	case ql.ClauseIn:
		for _, want := range c.Set {
			if values.Equal(v, want) {
				return true
			}
		}
		return false
	case ql.ClauseBetween:
		return values.Comparable2(v, c.Lo) && values.Comparable2(v, c.Hi) &&
			v.Compare(c.Lo) >= 0 && v.Compare(c.Hi) <= 0
	default:
		return false
	}
}

// likeMatch implements `like` as a case-insensitive substring match on
// String/Precise fields; any other variant pairing is a filter miss.
func likeMatch(v, pattern values.Value) bool {
	if pattern.Kind != values.KindString && pattern.Kind != values.KindPrecise {
		return false
	}
	if v.Kind != values.KindString && v.Kind != values.KindPrecise {
		return false
	}
	return strings.Contains(strings.ToLower(v.Str), strings.ToLower(pattern.Str))
}
