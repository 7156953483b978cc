package values_test

import (
	"testing"

	"github.com/emberdb/emberdb/pkg/values"
)

func TestParseID_TriesUuidThenNumberThenString(t *testing.T) {
	id, err := values.ParseID("11111111-1111-1111-1111-111111111111")
	if err != nil || id.Kind != values.IDUuid {
		t.Fatalf("expected Uuid kind, got %+v, %v", id, err)
	}

	id, err = values.ParseID("42")
	if err != nil || id.Kind != values.IDNumber || id.Number != 42 {
		t.Fatalf("expected Number(42), got %+v, %v", id, err)
	}

	id, err = values.ParseID("abc")
	if err != nil || id.Kind != values.IDString || id.Str != "abc" {
		t.Fatalf("expected String(abc), got %+v, %v", id, err)
	}
}

func TestFromJSONValue_KeepsNumericStringAsString(t *testing.T) {
	id, err := values.FromJSONValue("42")
	if err != nil || id.Kind != values.IDString || id.Str != "42" {
		t.Fatalf("expected String(42) from a JSON string, got %+v, %v", id, err)
	}

	id, err = values.FromJSONValue(float64(42))
	if err != nil || id.Kind != values.IDNumber || id.Number != 42 {
		t.Fatalf("expected Number(42) from a JSON number, got %+v, %v", id, err)
	}
}

func TestFromJSONValue_StringUuidStillDetected(t *testing.T) {
	id, err := values.FromJSONValue("11111111-1111-1111-1111-111111111111")
	if err != nil || id.Kind != values.IDUuid {
		t.Fatalf("expected Uuid kind from a JSON uuid string, got %+v, %v", id, err)
	}
}

func TestParseIDAndFromJSONValue_Diverge(t *testing.T) {
	fromQL, _ := values.ParseID("42")
	fromJSON, _ := values.FromJSONValue("42")
	if fromQL.Equal(fromJSON) {
		t.Errorf("expected ParseID(\"42\") and FromJSONValue(\"42\") to address different ids")
	}
}

func TestID_EqualRequiresSameKind(t *testing.T) {
	a := values.NewNumberID(42)
	b := values.NewStringID("42")
	if a.Equal(b) {
		t.Errorf("Number(42) and String(42) must not be equal")
	}
}
