// Package errors defines the exhaustive set of named error kinds the
// database can return. Each kind is its own struct so callers can
// type-switch on the concrete error instead of matching strings. Kind
// also gives every error a stable string tag, for callers (httpapi's
// error responses) that need to report which kind fired without
// type-switching themselves.
package errors

import "fmt"

type ParseError struct {
	Pos     int
	Context string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d (near %q): %s", e.Pos, e.Context, e.Message)
}
func (e *ParseError) Kind() string { return "ParseError" }

type EntityAlreadyExists struct {
	Entity string
}

func (e *EntityAlreadyExists) Error() string {
	return fmt.Sprintf("entity %q already exists", e.Entity)
}
func (e *EntityAlreadyExists) Kind() string { return "EntityAlreadyExists" }

type EntityNotCreated struct {
	Entity string
}

func (e *EntityNotCreated) Error() string {
	return fmt.Sprintf("entity %q was not created", e.Entity)
}
func (e *EntityNotCreated) Kind() string { return "EntityNotCreated" }

type IdAlreadyExists struct {
	Entity string
	ID     string
}

func (e *IdAlreadyExists) Error() string {
	return fmt.Sprintf("id %s already exists for entity %q", e.ID, e.Entity)
}
func (e *IdAlreadyExists) Kind() string { return "IdAlreadyExists" }

type IdNotFound struct {
	Entity string
	ID     string
}

func (e *IdNotFound) Error() string {
	return fmt.Sprintf("id %s not found for entity %q", e.ID, e.Entity)
}
func (e *IdNotFound) Kind() string { return "IdNotFound" }

type UniqueViolation struct {
	Entity string
	Key    string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique violation: key %q already taken on entity %q", e.Key, e.Entity)
}
func (e *UniqueViolation) Kind() string { return "UniqueViolation" }

type TypeMismatch struct {
	Detail string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: %s", e.Detail)
}
func (e *TypeMismatch) Kind() string { return "TypeMismatch" }

type MatchFailed struct {
	Entity string
	ID     string
}

func (e *MatchFailed) Error() string {
	return fmt.Sprintf("match condition failed for %s.%s", e.Entity, e.ID)
}
func (e *MatchFailed) Kind() string { return "MatchFailed" }

type CheckNonEncryptedKeys struct {
	Keys []string
}

func (e *CheckNonEncryptedKeys) Error() string {
	return fmt.Sprintf("keys are not declared as encrypted: %v", e.Keys)
}
func (e *CheckNonEncryptedKeys) Kind() string { return "CheckNonEncryptedKeys" }

type LockData struct{}

func (e *LockData) Error() string { return "failed to acquire lock on state store" }
func (e *LockData) Kind() string  { return "LockData" }

type IoAppend struct {
	Cause error
}

func (e *IoAppend) Error() string { return fmt.Sprintf("log append failed: %v", e.Cause) }
func (e *IoAppend) Unwrap() error { return e.Cause }
func (e *IoAppend) Kind() string  { return "IoAppend" }

type IoReplay struct {
	Cause error
}

func (e *IoReplay) Error() string { return fmt.Sprintf("log replay failed: %v", e.Cause) }
func (e *IoReplay) Unwrap() error { return e.Cause }
func (e *IoReplay) Kind() string  { return "IoReplay" }

type DateTimeParse struct {
	Value string
	Cause error
}

func (e *DateTimeParse) Error() string {
	return fmt.Sprintf("could not parse datetime %q: %v", e.Value, e.Cause)
}
func (e *DateTimeParse) Unwrap() error { return e.Cause }
func (e *DateTimeParse) Kind() string  { return "DateTimeParse" }

type AuthBadRequest struct{}

func (e *AuthBadRequest) Error() string { return "bad request at authenticating endpoint" }
func (e *AuthBadRequest) Kind() string  { return "AuthBadRequest" }

type AuthBadBody struct {
	Cause error
}

func (e *AuthBadBody) Error() string {
	return fmt.Sprintf("bad request body for authentication: %v", e.Cause)
}
func (e *AuthBadBody) Unwrap() error { return e.Cause }
func (e *AuthBadBody) Kind() string  { return "AuthBadBody" }

type AuthUnknown struct{}

func (e *AuthUnknown) Error() string { return "request credentials failed" }
func (e *AuthUnknown) Kind() string  { return "AuthUnknown" }

type FailedToCreateUser struct{}

func (e *FailedToCreateUser) Error() string { return "failed to create user" }
func (e *FailedToCreateUser) Kind() string  { return "FailedToCreateUser" }

type FailedToDeleteUser struct{}

func (e *FailedToDeleteUser) Error() string { return "failed to delete users" }
func (e *FailedToDeleteUser) Kind() string  { return "FailedToDeleteUser" }

type NonSelectQuery struct{}

func (e *NonSelectQuery) Error() string { return "query endpoint only accepts select statements" }
func (e *NonSelectQuery) Kind() string  { return "NonSelectQuery" }

type SerializationFailed struct {
	Cause error
}

func (e *SerializationFailed) Error() string {
	return fmt.Sprintf("serialization failed: %v", e.Cause)
}
func (e *SerializationFailed) Unwrap() error { return e.Cause }
func (e *SerializationFailed) Kind() string  { return "SerializationFailed" }
