package logio

import "github.com/emberdb/emberdb/pkg/values"

// Entity metadata (the unique/encrypted/schema key sets a CREATE ENTITY
// declares) has nowhere else to live in the day log's per-id Record
// shape, so an OpCreateEntity record carries it packed into State under
// these three fixed keys, ID left empty since it names no single row.
const (
	metaUniqueKeys    = "__unique_keys__"
	metaEncryptedKeys = "__encrypted_keys__"
	metaSchemaKeys    = "__schema_keys__"
)

// EncodeEntityMeta packs a CREATE ENTITY's key sets into the State map
// an OpCreateEntity record carries.
func EncodeEntityMeta(uniqueKeys, encryptedKeys, schemaKeys []string) map[string]values.Value {
	return map[string]values.Value{
		metaUniqueKeys:    stringsToVector(uniqueKeys),
		metaEncryptedKeys: stringsToVector(encryptedKeys),
		metaSchemaKeys:    stringsToVector(schemaKeys),
	}
}

// DecodeEntityMeta is EncodeEntityMeta's inverse, used during startup
// replay. schemaKeys is nil when the record declared no schema.
func DecodeEntityMeta(state map[string]values.Value) (uniqueKeys, encryptedKeys, schemaKeys []string) {
	uniqueKeys = vectorToStrings(state[metaUniqueKeys])
	encryptedKeys = vectorToStrings(state[metaEncryptedKeys])
	schemaKeys = vectorToStrings(state[metaSchemaKeys])
	return
}

func stringsToVector(ss []string) values.Value {
	out := make([]values.Value, len(ss))
	for i, s := range ss {
		out[i] = values.String(s)
	}
	return values.Vector(out)
}

func vectorToStrings(v values.Value) []string {
	if v.Kind != values.KindVector || len(v.Vector) == 0 {
		return nil
	}
	out := make([]string, len(v.Vector))
	for i, e := range v.Vector {
		out[i] = e.Str
	}
	return out
}
