package logio_test

import (
	"reflect"
	"testing"

	"github.com/emberdb/emberdb/pkg/logio"
)

func TestEntityMeta_RoundTrip(t *testing.T) {
	state := logio.EncodeEntityMeta([]string{"name"}, []string{"ssn"}, nil)
	unique, encrypted, schema := logio.DecodeEntityMeta(state)

	if !reflect.DeepEqual(unique, []string{"name"}) {
		t.Errorf("unique = %v", unique)
	}
	if !reflect.DeepEqual(encrypted, []string{"ssn"}) {
		t.Errorf("encrypted = %v", encrypted)
	}
	if schema != nil {
		t.Errorf("schema = %v, want nil", schema)
	}
}
