package values

import dberrors "github.com/emberdb/emberdb/pkg/errors"

// MergeContent implements UPDATE CONTENT's additive merge: numeric
// variants add, strings concatenate, vectors append, maps merge key by
// key (recursively), and a key absent from the prior state just takes
// the incoming value outright. An incoming Integer, Float, String,
// Vector or Map over a prior value of a different kind is a
// TypeMismatch; incoming values of any other kind replace the prior
// value outright.
func MergeContent(old, incoming Value) (Value, error) {
	switch incoming.Kind {
	case KindInteger:
		if old.Kind == KindNil {
			return incoming, nil
		}
		if old.Kind != KindInteger {
			return Value{}, mismatch(old, incoming)
		}
		return Integer(old.Integer + incoming.Integer), nil
	case KindFloat:
		if old.Kind == KindNil {
			return incoming, nil
		}
		if old.Kind != KindFloat {
			return Value{}, mismatch(old, incoming)
		}
		return Float(old.Float + incoming.Float), nil
	case KindString:
		if old.Kind == KindNil {
			return incoming, nil
		}
		if old.Kind != KindString {
			return Value{}, mismatch(old, incoming)
		}
		return String(old.Str + incoming.Str), nil
	case KindVector:
		if old.Kind == KindNil {
			return incoming, nil
		}
		if old.Kind != KindVector {
			return Value{}, mismatch(old, incoming)
		}
		merged := make([]Value, 0, len(old.Vector)+len(incoming.Vector))
		merged = append(merged, old.Vector...)
		merged = append(merged, incoming.Vector...)
		return Vector(merged), nil
	case KindMap:
		if old.Kind == KindNil {
			return incoming, nil
		}
		if old.Kind != KindMap {
			return Value{}, mismatch(old, incoming)
		}
		out := make(map[string]Value, len(old.Map)+len(incoming.Map))
		for k, v := range old.Map {
			out[k] = v
		}
		for k, v := range incoming.Map {
			if existing, ok := out[k]; ok {
				merged, err := MergeContent(existing, v)
				if err != nil {
					return Value{}, err
				}
				out[k] = merged
			} else {
				out[k] = v
			}
		}
		return Map(out), nil
	default:
		// Char, Uuid, Boolean, Hash, Precise, DateTime, Nil replace outright:
		// there's no sensible additive merge for them.
		return incoming, nil
	}
}

func mismatch(old, incoming Value) error {
	return &dberrors.TypeMismatch{Detail: "cannot merge " + incoming.Kind.String() + " into " + old.Kind.String()}
}
