// Package values implements the tagged value domain V described for
// document fields: Char, Integer, Float, String, Uuid, Boolean, Vector,
// Map, Hash, Precise, DateTime and Nil. A single Value type backs both
// presentation layers (structured text and JSON) so there is exactly one
// canonical in-memory representation, matching the database's rule that
// serialization is two surfaces over one shape.
package values

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
)

// Kind tags which variant of V a Value holds.
type Kind int

const (
	KindChar Kind = iota
	KindInteger
	KindFloat
	KindString
	KindUuid
	KindBoolean
	KindVector
	KindMap
	KindHash
	KindPrecise
	KindDateTime
	KindNil
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "Char"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindUuid:
		return "Uuid"
	case KindBoolean:
		return "Boolean"
	case KindVector:
		return "Vector"
	case KindMap:
		return "Map"
	case KindHash:
		return "Hash"
	case KindPrecise:
		return "Precise"
	case KindDateTime:
		return "DateTime"
	case KindNil:
		return "Nil"
	default:
		return "Unknown"
	}
}

// Value is the single canonical representation for every field value the
// database stores. Only the fields relevant to Kind are meaningful.
type Value struct {
	Kind    Kind
	Char    rune
	Integer int64
	Float   float64
	Str     string // also backs String, Hash and Precise (Precise is a normalized decimal string)
	Uuid    uuid.UUID
	Bool    bool
	Vector  []Value
	Map     map[string]Value
	Time    time.Time
}

func Char(c rune) Value          { return Value{Kind: KindChar, Char: c} }
func Integer(i int64) Value      { return Value{Kind: KindInteger, Integer: i} }
func Float(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func UuidValue(u uuid.UUID) Value { return Value{Kind: KindUuid, Uuid: u} }
func Boolean(b bool) Value       { return Value{Kind: KindBoolean, Bool: b} }
func Vector(v []Value) Value     { return Value{Kind: KindVector, Vector: v} }
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{Kind: KindMap, Map: m}
}
func Hash(s string) Value    { return Value{Kind: KindHash, Str: s} }
func Precise(s string) Value { return Value{Kind: KindPrecise, Str: normalizePrecise(s)} }
func DateTime(t time.Time) Value {
	return Value{Kind: KindDateTime, Time: t.UTC()}
}

var Nil = Value{Kind: KindNil}

// normalizePrecise strips trailing zeroes from a decimal string's fractional
// part, keeping the value round-trippable (parse(display(x)) == x) without
// pretending to do arbitrary-precision arithmetic beyond string storage.
func normalizePrecise(s string) string {
	if s == "" {
		return "0"
	}
	if strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// DefaultOf returns the zero value for v's variant. Uuid's default is a
// freshly minted uuid rather than the nil uuid, since a default id still
// has to be usable as a real identifier.
func DefaultOf(v Value) Value {
	switch v.Kind {
	case KindChar:
		return Char(' ')
	case KindInteger:
		return Integer(0)
	case KindFloat:
		return Float(0)
	case KindString:
		return String("")
	case KindUuid:
		id, err := uuid.NewRandom()
		if err != nil {
			id = uuid.Nil
		}
		return UuidValue(id)
	case KindBoolean:
		return Boolean(false)
	case KindVector:
		return Vector(nil)
	case KindMap:
		return Map(nil)
	case KindHash:
		return Hash("")
	case KindPrecise:
		return Precise("0")
	case KindDateTime:
		return DateTime(time.Now())
	default:
		return Nil
	}
}

// ToHash hashes v with bcrypt at the given cost, returning a Hash value.
// Fails on Hash and Nil inputs, matching to_hash's documented contract.
func ToHash(v Value, cost int, hasher func(plaintext string, cost int) (string, error)) (Value, error) {
	if v.Kind == KindHash {
		return Value{}, &dberrors.TypeMismatch{Detail: "Hash cannot be hashed"}
	}
	if v.Kind == KindNil {
		return Value{}, &dberrors.TypeMismatch{Detail: "Nil cannot be hashed"}
	}
	plaintext := hashInput(v)
	h, err := hasher(plaintext, cost)
	if err != nil {
		return Value{}, err
	}
	return Hash(h), nil
}

// hashInput renders v as the plaintext handed to the hasher in ToHash:
// Float goes through its IEEE-754 bit pattern so that equal floats
// always hash to the same plaintext.
func hashInput(v Value) string {
	switch v.Kind {
	case KindChar:
		return string(v.Char)
	case KindInteger:
		return fmt.Sprintf("%d", v.Integer)
	case KindString, KindPrecise:
		return v.Str
	case KindUuid:
		return v.Uuid.String()
	case KindFloat:
		return fmt.Sprintf("%d", int64DecodeFloat(v.Float))
	case KindBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case KindVector:
		parts := make([]string, len(v.Vector))
		for i, e := range v.Vector {
			parts[i] = hashInput(e)
		}
		return fmt.Sprintf("%v", parts)
	case KindMap:
		return fmt.Sprintf("%v", v.Map)
	case KindDateTime:
		return v.Time.String()
	default:
		return ""
	}
}

func int64DecodeFloat(f float64) int64 {
	return int64(math.Float64bits(f))
}

// Equal is structural equality. Unlike Compare, Float equality always
// compares the exact bit pattern, so it is never affected by the
// preserved Compare ordering bug (see Compare's docs).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindChar:
		return a.Char == b.Char
	case KindInteger:
		return a.Integer == b.Integer
	case KindFloat:
		return math.Float64bits(a.Float) == math.Float64bits(b.Float)
	case KindString, KindHash, KindPrecise:
		return a.Str == b.Str
	case KindUuid:
		return a.Uuid == b.Uuid
	case KindBoolean:
		return a.Bool == b.Bool
	case KindVector:
		if len(a.Vector) != len(b.Vector) {
			return false
		}
		for i := range a.Vector {
			if !Equal(a.Vector[i], b.Vector[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindDateTime:
		return a.Time.Equal(b.Time)
	case KindNil:
		return true
	default:
		return false
	}
}

// Comparable is satisfied by Value itself, letting a Value be used
// directly as a B+Tree key (see pkg/btree).
type Comparable interface {
	Compare(other Comparable) int
}

// Compare returns -1/0/1 for a<b/a==b/a>b within like variants. Mixed
// variants are incomparable: Compare returns 0 for them same as a tie,
// so callers that need to tell a genuine tie from an incomparable pair
// use Comparable2(a, b).
//
// Float-to-Float comparison deliberately never reports Equal: it always
// takes the `if a > b { 1 } else { -1 }` branch, so two equal floats
// compare as Less. This affects ordering (ORDER BY, BETWEEN, B+Tree
// ordering) but never equality: use Equal for == / != predicates,
// which always does exact bit-pattern comparison.
func (v Value) Compare(other Comparable) int {
	o, ok := other.(Value)
	if !ok {
		return 0
	}
	if !Comparable2(v, o) {
		return 0
	}
	switch {
	case v.Kind == KindInteger && o.Kind == KindInteger:
		return cmpInt64(v.Integer, o.Integer)
	case v.Kind == KindFloat && o.Kind == KindFloat:
		if v.Float > o.Float {
			return 1
		}
		return -1
	case v.Kind == KindInteger && o.Kind == KindFloat:
		if float64(v.Integer) > o.Float {
			return 1
		}
		return -1
	case v.Kind == KindFloat && o.Kind == KindInteger:
		if v.Float > float64(o.Integer) {
			return 1
		}
		return -1
	case v.Kind == KindChar && o.Kind == KindChar:
		return cmpRune(v.Char, o.Char)
	case v.Kind == KindString && o.Kind == KindString:
		return cmpString(v.Str, o.Str)
	case v.Kind == KindPrecise && o.Kind == KindPrecise:
		return cmpString(v.Str, o.Str)
	case v.Kind == KindUuid && o.Kind == KindUuid:
		return cmpBytes(v.Uuid[:], o.Uuid[:])
	case v.Kind == KindBoolean && o.Kind == KindBoolean:
		return cmpBool(v.Bool, o.Bool)
	case v.Kind == KindVector && o.Kind == KindVector:
		return cmpInt64(int64(len(v.Vector)), int64(len(o.Vector)))
	default:
		return 0
	}
}

// Comparable2 reports whether a and b fall within a like-variant pair that
// Compare can order. Mixed-variant pairs outside of Integer/Float are
// incomparable and must be treated as filter misses.
func Comparable2(a, b Value) bool {
	switch {
	case a.Kind == KindInteger && b.Kind == KindInteger,
		a.Kind == KindFloat && b.Kind == KindFloat,
		a.Kind == KindInteger && b.Kind == KindFloat,
		a.Kind == KindFloat && b.Kind == KindInteger,
		a.Kind == KindChar && b.Kind == KindChar,
		a.Kind == KindString && b.Kind == KindString,
		a.Kind == KindPrecise && b.Kind == KindPrecise,
		a.Kind == KindUuid && b.Kind == KindUuid,
		a.Kind == KindBoolean && b.Kind == KindBoolean,
		a.Kind == KindVector && b.Kind == KindVector:
		return true
	default:
		return false
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpRune(a, b rune) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBytes(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// HashFNV produces an order-independent hash for v, used when the value
// backs a Go map key or needs a stable content digest. Map hashing folds
// unordered key/value pairs; Nil hashes as empty; Float decodes its bit
// pattern so structurally equal floats always hash equal (unaffected by
// Compare's preserved ordering bug).
func HashFNV(v Value) uint64 {
	h := offsetBasis
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= fnvPrime
		}
	}
	switch v.Kind {
	case KindChar:
		mix(string(v.Char))
	case KindInteger:
		mix(fmt.Sprintf("%d", v.Integer))
	case KindString, KindHash, KindPrecise:
		mix(v.Str)
	case KindUuid:
		mix(v.Uuid.String())
	case KindFloat:
		mix(fmt.Sprintf("%d", int64DecodeFloat(v.Float)))
	case KindBoolean:
		mix(fmt.Sprintf("%t", v.Bool))
	case KindVector:
		for _, e := range v.Vector {
			h ^= HashFNV(e)
		}
	case KindMap:
		var acc uint64
		for k, mv := range v.Map {
			kh := offsetBasis
			for i := 0; i < len(k); i++ {
				kh ^= uint64(k[i])
				kh *= fnvPrime
			}
			acc ^= kh ^ HashFNV(mv)
		}
		h ^= acc
	case KindDateTime:
		mix(v.Time.String())
	case KindNil:
		mix("")
	}
	return h
}

const (
	offsetBasis uint64 = 14695981039346656037
	fnvPrime    uint64 = 1099511628211
)

// SortVectorByLen stably sorts Vector values by length only. ORDER BY
// in pkg/query does not call it; it orders rows through Compare.
func SortVectorByLen(values []Value, ascending bool) {
	sort.SliceStable(values, func(i, j int) bool {
		if ascending {
			return len(values[i].Vector) < len(values[j].Vector)
		}
		return len(values[i].Vector) > len(values[j].Vector)
	})
}
