package values_test

import (
	"testing"

	"github.com/emberdb/emberdb/pkg/values"
)

func TestPrintParseRoundTrip(t *testing.T) {
	cases := []values.Value{
		values.Integer(42),
		values.Float(3.5),
		values.Float(-12.0),
		values.String("hello world"),
		values.Boolean(true),
		values.Char('x'),
		values.Vector([]values.Value{values.Integer(1), values.Integer(2)}),
		values.Map(map[string]values.Value{"a": values.Integer(1)}),
		values.Hash("$2a$costhash"),
		values.Precise("1.2300"),
	}

	for _, v := range cases {
		printed := values.Print(v)
		parsed, err := values.Parse(printed)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", printed, err)
		}
		if !values.Equal(v, parsed) {
			t.Errorf("round trip mismatch: %v != %v (via %q)", v, parsed, printed)
		}
	}
}

func TestFloatOrderingBugPreserved(t *testing.T) {
	a := values.Float(1.0)
	b := values.Float(1.0)
	if a.Compare(b) != -1 {
		t.Errorf("expected preserved bug: equal floats compare as Less, got %d", a.Compare(b))
	}
	// Equality must still hold true despite the ordering bug.
	if !values.Equal(a, b) {
		t.Errorf("Equal must treat identical floats as equal")
	}
}

func TestFloatHashEqualForEqualValues(t *testing.T) {
	a := values.Float(2.5)
	b := values.Float(2.5)
	if values.HashFNV(a) != values.HashFNV(b) {
		t.Errorf("equal floats must hash equal")
	}
}

func TestMixedVariantIncomparable(t *testing.T) {
	a := values.String("1")
	b := values.Boolean(true)
	if values.Comparable2(a, b) {
		t.Errorf("expected String/Boolean to be incomparable")
	}
}

func TestIntegerFloatCrossCompare(t *testing.T) {
	a := values.Integer(5)
	b := values.Float(4.9)
	if a.Compare(b) != 1 {
		t.Errorf("expected Integer(5) > Float(4.9)")
	}
}

func TestNilHashesAsEmpty(t *testing.T) {
	if values.HashFNV(values.Nil) != values.HashFNV(values.String("")) {
		t.Errorf("Nil must hash the same as empty string")
	}
}

func TestMapHashOrderIndependent(t *testing.T) {
	m1 := values.Map(map[string]values.Value{"a": values.Integer(1), "b": values.Integer(2)})
	m2 := values.Map(map[string]values.Value{"b": values.Integer(2), "a": values.Integer(1)})
	if values.HashFNV(m1) != values.HashFNV(m2) {
		t.Errorf("map hash must be order independent")
	}
}

func TestToHashRejectsHashAndNil(t *testing.T) {
	fakeBcrypt := func(s string, cost int) (string, error) { return "hashed:" + s, nil }

	if _, err := values.ToHash(values.Hash("x"), 10, fakeBcrypt); err == nil {
		t.Errorf("expected error hashing a Hash value")
	}
	if _, err := values.ToHash(values.Nil, 10, fakeBcrypt); err == nil {
		t.Errorf("expected error hashing Nil")
	}
	got, err := values.ToHash(values.String("secret"), 10, fakeBcrypt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != values.KindHash {
		t.Errorf("expected Hash kind result")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := map[string]values.Value{
		"name": values.String("fido"),
		"age":  values.Integer(3),
		"tags": values.Vector([]values.Value{values.String("a"), values.String("b")}),
	}
	js, err := values.EntityToJSON(original)
	if err != nil {
		t.Fatalf("EntityToJSON failed: %v", err)
	}
	back, err := values.JSONToEntity(js)
	if err != nil {
		t.Fatalf("JSONToEntity failed: %v", err)
	}
	for k, v := range original {
		bv, ok := back[k]
		if !ok || !values.Equal(v, bv) {
			t.Errorf("key %q mismatch: got %v want %v", k, bv, v)
		}
	}
}

func TestDefaultOf(t *testing.T) {
	if values.DefaultOf(values.Integer(99)).Integer != 0 {
		t.Errorf("expected default Integer 0")
	}
	if values.DefaultOf(values.String("x")).Str != "" {
		t.Errorf("expected default String empty")
	}
	if values.DefaultOf(values.Char('z')).Char != ' ' {
		t.Errorf("expected default Char space")
	}
}
