package values_test

import (
	"testing"

	"github.com/emberdb/emberdb/pkg/values"
)

func TestMergeContent_NumericAdds(t *testing.T) {
	out, err := values.MergeContent(values.Integer(2), values.Integer(3))
	if err != nil || out.Integer != 5 {
		t.Fatalf("got %+v, %v", out, err)
	}
}

func TestMergeContent_StringsConcatenate(t *testing.T) {
	out, err := values.MergeContent(values.String("foo"), values.String("bar"))
	if err != nil || out.Str != "foobar" {
		t.Fatalf("got %+v, %v", out, err)
	}
}

func TestMergeContent_VectorsAppend(t *testing.T) {
	out, err := values.MergeContent(values.Vector([]values.Value{values.Integer(1)}), values.Vector([]values.Value{values.Integer(2)}))
	if err != nil || len(out.Vector) != 2 {
		t.Fatalf("got %+v, %v", out, err)
	}
}

func TestMergeContent_MapsMergeRecursively(t *testing.T) {
	old := values.Map(map[string]values.Value{"a": values.Integer(1), "b": values.String("x")})
	incoming := values.Map(map[string]values.Value{"a": values.Integer(4), "c": values.Boolean(true)})
	out, err := values.MergeContent(old, incoming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Map["a"].Integer != 5 {
		t.Errorf("expected a=5, got %+v", out.Map["a"])
	}
	if out.Map["b"].Str != "x" {
		t.Errorf("expected untouched b to survive, got %+v", out.Map["b"])
	}
	if !out.Map["c"].Bool {
		t.Errorf("expected new key c to be added")
	}
}

func TestMergeContent_TypeMismatch(t *testing.T) {
	_, err := values.MergeContent(values.Integer(1), values.String("x"))
	if err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

func TestMergeContent_AbsentKeyTakesIncoming(t *testing.T) {
	out, err := values.MergeContent(values.Nil, values.Integer(7))
	if err != nil || out.Integer != 7 {
		t.Fatalf("got %+v, %v", out, err)
	}
}
