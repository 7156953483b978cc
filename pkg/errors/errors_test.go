package errors_test

import (
	"errors"
	"testing"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
)

func TestErrorKinds_ImplementError(t *testing.T) {
	kinds := []error{
		&dberrors.ParseError{Pos: 3, Context: "FROM", Message: "unexpected token"},
		&dberrors.EntityAlreadyExists{Entity: "pet"},
		&dberrors.EntityNotCreated{Entity: "pet"},
		&dberrors.IdAlreadyExists{Entity: "pet", ID: "1"},
		&dberrors.IdNotFound{Entity: "pet", ID: "1"},
		&dberrors.UniqueViolation{Entity: "pet", Key: "name"},
		&dberrors.TypeMismatch{Detail: "cannot add string to integer"},
		&dberrors.MatchFailed{Entity: "pet", ID: "1"},
		&dberrors.CheckNonEncryptedKeys{Keys: []string{"age"}},
		&dberrors.LockData{},
		&dberrors.IoAppend{Cause: errors.New("disk full")},
		&dberrors.IoReplay{Cause: errors.New("truncated")},
		&dberrors.DateTimeParse{Value: "nope", Cause: errors.New("bad format")},
		&dberrors.AuthBadRequest{},
		&dberrors.AuthBadBody{Cause: errors.New("malformed")},
		&dberrors.AuthUnknown{},
		&dberrors.FailedToCreateUser{},
		&dberrors.FailedToDeleteUser{},
		&dberrors.NonSelectQuery{},
		&dberrors.SerializationFailed{Cause: errors.New("bad utf8")},
	}

	for _, k := range kinds {
		if k.Error() == "" {
			t.Errorf("%T: Error() returned empty string", k)
		}
	}
}

func TestErrorKinds_KindMatchesTypeName(t *testing.T) {
	cases := []struct {
		err  interface{ Kind() string }
		want string
	}{
		{&dberrors.IdNotFound{}, "IdNotFound"},
		{&dberrors.UniqueViolation{}, "UniqueViolation"},
		{&dberrors.AuthUnknown{}, "AuthUnknown"},
		{&dberrors.NonSelectQuery{}, "NonSelectQuery"},
	}
	for _, c := range cases {
		if got := c.err.Kind(); got != c.want {
			t.Errorf("Kind() = %q, want %q", got, c.want)
		}
	}
}

func TestIoAppend_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &dberrors.IoAppend{Cause: cause}
	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find wrapped cause")
	}
}
