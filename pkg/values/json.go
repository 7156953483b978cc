package values

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
)

// EntityToJSON renders a field map as the JSON presentation layer,
// reusing the bson ext-JSON codec so Value keeps one canonical in-memory
// shape with two renderers (structured literal and JSON).
func EntityToJSON(fields map[string]Value) (string, error) {
	doc := bson.D{}
	for k, v := range fields {
		doc = append(doc, bson.E{Key: k, Value: toBSON(v)})
	}
	out, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", &dberrors.SerializationFailed{Cause: err}
	}
	return string(out), nil
}

// JSONToEntity parses a JSON object into a field map. It inverts
// EntityToJSON for Integer, Float, String, Boolean, Vector, Map and Nil
// fields only: Char, Uuid, Hash and Precise values were written as
// plain JSON strings and come back as String, and a DateTime field is
// rejected with SerializationFailed.
func JSONToEntity(jsonStr string) (map[string]Value, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(jsonStr), true, &doc); err != nil {
		return nil, &dberrors.SerializationFailed{Cause: err}
	}
	fields := map[string]Value{}
	for _, e := range doc {
		v, err := fromBSON(e.Value)
		if err != nil {
			return nil, err
		}
		fields[e.Key] = v
	}
	return fields, nil
}

func toBSON(v Value) interface{} {
	switch v.Kind {
	case KindChar:
		return string(v.Char)
	case KindInteger:
		return v.Integer
	case KindFloat:
		return v.Float
	case KindString, KindHash, KindPrecise:
		return v.Str
	case KindUuid:
		return v.Uuid.String()
	case KindBoolean:
		return v.Bool
	case KindVector:
		arr := bson.A{}
		for _, e := range v.Vector {
			arr = append(arr, toBSON(e))
		}
		return arr
	case KindMap:
		inner := bson.D{}
		for k, mv := range v.Map {
			inner = append(inner, bson.E{Key: k, Value: toBSON(mv)})
		}
		return inner
	case KindDateTime:
		return v.Time
	default:
		return nil
	}
}

func fromBSON(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Nil, nil
	case int:
		return Integer(int64(t)), nil
	case int32:
		return Integer(int64(t)), nil
	case int64:
		return Integer(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case bool:
		return Boolean(t), nil
	case time.Time:
		return DateTime(t), nil
	case bson.A:
		vec := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := fromBSON(e)
			if err != nil {
				return Value{}, err
			}
			vec = append(vec, ev)
		}
		return Vector(vec), nil
	case bson.D:
		m := map[string]Value{}
		for _, e := range t {
			ev, err := fromBSON(e.Value)
			if err != nil {
				return Value{}, err
			}
			m[e.Key] = ev
		}
		return Map(m), nil
	case bson.M:
		m := map[string]Value{}
		for k, e := range t {
			ev, err := fromBSON(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return Map(m), nil
	default:
		return Value{}, &dberrors.SerializationFailed{Cause: fmt.Errorf("unsupported bson type %T", raw)}
	}
}
