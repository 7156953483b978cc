package txn

import (
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/values"
)

// evalMatch reports whether state satisfies cond. A leaf whose key is
// absent from state never matches, regardless of operator.
func evalMatch(cond ql.MatchCondition, state map[string]values.Value) bool {
	switch cond.Kind {
	case ql.MatchAll:
		for _, child := range cond.Children {
			if !evalMatch(child, state) {
				return false
			}
		}
		return true
	case ql.MatchAny:
		for _, child := range cond.Children {
			if evalMatch(child, state) {
				return true
			}
		}
		return false
	default:
		v, ok := state[cond.Key]
		if !ok {
			return false
		}
		switch cond.Kind {
		case ql.MatchEq:
			return values.Equal(v, cond.Value)
		case ql.MatchNotEq:
			return !values.Equal(v, cond.Value)
		case ql.MatchGEq:
			return values.Comparable2(v, cond.Value) && v.Compare(cond.Value) >= 0
		case ql.MatchG:
			return values.Comparable2(v, cond.Value) && v.Compare(cond.Value) > 0
		case ql.MatchLEq:
			return values.Comparable2(v, cond.Value) && v.Compare(cond.Value) <= 0
		case ql.MatchL:
			return values.Comparable2(v, cond.Value) && v.Compare(cond.Value) < 0
		default:
			return false
		}
	}
}
