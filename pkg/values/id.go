package values

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// IDKind tags which alternative of the ID sum type a value holds.
type IDKind int

const (
	IDUuid IDKind = iota
	IDNumber
	IDString
)

// ID is an entity identifier: a Uuid, an unsigned integer, or a bare
// string. Two distinct constructors exist because the two surfaces that
// produce an ID disagree on what a numeric-looking string means — see
// ParseID and FromJSONValue.
type ID struct {
	Kind   IDKind
	Uuid   uuid.UUID
	Number uint64
	Str    string
}

func NewUuidID(u uuid.UUID) ID { return ID{Kind: IDUuid, Uuid: u} }
func NewNumberID(n uint64) ID  { return ID{Kind: IDNumber, Number: n} }
func NewStringID(s string) ID  { return ID{Kind: IDString, Str: s} }

// NewGeneratedID mints a fresh id for an INSERT that didn't supply
// WITH, time-ordered so ids sort roughly by creation order.
func NewGeneratedID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return ID{Kind: IDUuid, Uuid: u}
}

// String renders the canonical text form used as the store's map key
// and the log's id column.
func (id ID) String() string {
	switch id.Kind {
	case IDUuid:
		return id.Uuid.String()
	case IDNumber:
		return strconv.FormatUint(id.Number, 10)
	case IDString:
		return id.Str
	default:
		return ""
	}
}

// Equal reports whether two ids denote the same identifier. Ids of
// different kinds are never equal, even when their string forms
// coincide (a Number(42) and a String("42") are distinct identities).
func (id ID) Equal(other ID) bool {
	if id.Kind != other.Kind {
		return false
	}
	switch id.Kind {
	case IDUuid:
		return id.Uuid == other.Uuid
	case IDNumber:
		return id.Number == other.Number
	case IDString:
		return id.Str == other.Str
	default:
		return false
	}
}

// ParseID reads a bare QL token (e.g. the argument of `WITH <id>` or
// `DELETE <id> FROM`) into an ID. It tries each alternative of the sum
// type in turn: Uuid, then unsigned integer, then falls back to the
// token taken literally as a String. A bare `42` therefore becomes
// Number(42).
func ParseID(token string) (ID, error) {
	if token == "" {
		return ID{}, fmt.Errorf("values: empty id token")
	}
	if u, err := uuid.Parse(token); err == nil {
		return NewUuidID(u), nil
	}
	if n, err := strconv.ParseUint(token, 10, 64); err == nil {
		return NewNumberID(n), nil
	}
	return NewStringID(token), nil
}

// FromJSONValue reads an ID from an already-typed JSON/structured
// value: a JSON number always becomes Number, and a JSON string is
// tried as a Uuid and otherwise kept as String even when it looks like
// an integer (unlike ParseID, it never promotes a numeric-looking string
// to Number, since the caller already told us the concrete JSON type).
func FromJSONValue(raw interface{}) (ID, error) {
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return ID{}, fmt.Errorf("values: negative id %v", v)
		}
		return NewNumberID(uint64(v)), nil
	case int64:
		if v < 0 {
			return ID{}, fmt.Errorf("values: negative id %d", v)
		}
		return NewNumberID(uint64(v)), nil
	case string:
		if u, err := uuid.Parse(v); err == nil {
			return NewUuidID(u), nil
		}
		return NewStringID(v), nil
	default:
		return ID{}, fmt.Errorf("values: unsupported id JSON type %T", raw)
	}
}
