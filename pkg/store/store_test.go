package store_test

import (
	"testing"
	"time"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/register"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/values"
)

func mustReg(t *testing.T, prev, entity, id string, state map[string]values.Value) register.Register {
	t.Helper()
	return register.New(prev, entity, id, time.Now(), state)
}

// TestUniqueViolation mirrors the S1 end-to-end scenario: a second
// insert reusing a unique-declared key's value is rejected.
func TestUniqueViolation(t *testing.T) {
	s := store.New()
	s.Lock()
	if err := s.CreateEntity("pet", []string{"name"}, nil, nil); err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}
	s.Unlock()

	id1, _ := values.ParseID("11111111-1111-1111-1111-111111111111")
	state1 := map[string]values.Value{"name": values.String("a"), "age": values.Integer(3)}

	s.Lock()
	err := s.InsertRow("pet", id1, mustReg(t, "", "pet", id1.String(), state1), state1)
	s.Unlock()
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	id2 := values.NewGeneratedID()
	state2 := map[string]values.Value{"name": values.String("a"), "age": values.Integer(4)}

	s.Lock()
	err = s.InsertRow("pet", id2, mustReg(t, "", "pet", id2.String(), state2), state2)
	s.Unlock()
	if err == nil {
		t.Fatalf("expected UniqueViolation on duplicate name")
	}
	if _, ok := err.(*dberrors.UniqueViolation); !ok {
		t.Fatalf("expected *dberrors.UniqueViolation, got %T: %v", err, err)
	}
}

// TestReplaceRow_SwapsInNewState checks that ReplaceRow installs the
// given state for an existing id in place of the prior one.
func TestReplaceRow_SwapsInNewState(t *testing.T) {
	s := store.New()
	s.Lock()
	_ = s.CreateEntity("t", nil, nil, nil)
	s.Unlock()

	id := values.NewGeneratedID()
	state := map[string]values.Value{"a": values.Integer(1)}
	s.Lock()
	_ = s.InsertRow("t", id, mustReg(t, "", "t", id.String(), state), state)
	s.Unlock()

	newState := map[string]values.Value{"a": values.Integer(3)}
	s.Lock()
	err := s.ReplaceRow("t", id, mustReg(t, "h1", "t", id.String(), newState), newState)
	s.Unlock()
	if err != nil {
		t.Fatalf("ReplaceRow failed: %v", err)
	}

	row, err := s.GetRow("t", id)
	if err != nil {
		t.Fatalf("GetRow failed: %v", err)
	}
	if row.State["a"].Integer != 3 {
		t.Errorf("expected a=3, got %v", row.State["a"])
	}
}

func TestDeleteRow_ThenReinsertSameUniqueKeySucceeds(t *testing.T) {
	s := store.New()
	s.Lock()
	_ = s.CreateEntity("pet", []string{"name"}, nil, nil)
	s.Unlock()

	id1 := values.NewGeneratedID()
	state := map[string]values.Value{"name": values.String("fido")}
	s.Lock()
	_ = s.InsertRow("pet", id1, mustReg(t, "", "pet", id1.String(), state), state)
	s.Unlock()

	s.Lock()
	if err := s.DeleteRow("pet", id1); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}
	s.Unlock()

	id2 := values.NewGeneratedID()
	s.Lock()
	err := s.InsertRow("pet", id2, mustReg(t, "", "pet", id2.String(), state), state)
	s.Unlock()
	if err != nil {
		t.Fatalf("expected reinsert of deleted unique key to succeed, got %v", err)
	}
}

func TestEvictEntity_SubsequentReadsFail(t *testing.T) {
	s := store.New()
	s.Lock()
	_ = s.CreateEntity("t", nil, nil, nil)
	s.Unlock()

	s.Lock()
	err := s.EvictEntity("t")
	s.Unlock()
	if err != nil {
		t.Fatalf("EvictEntity failed: %v", err)
	}

	_, err = s.AllRows("t")
	if _, ok := err.(*dberrors.EntityNotCreated); !ok {
		t.Fatalf("expected EntityNotCreated after evict, got %T: %v", err, err)
	}
}

func TestInsertRow_DuplicateID(t *testing.T) {
	s := store.New()
	s.Lock()
	_ = s.CreateEntity("t", nil, nil, nil)
	s.Unlock()

	id := values.NewGeneratedID()
	state := map[string]values.Value{"a": values.Integer(1)}

	s.Lock()
	_ = s.InsertRow("t", id, mustReg(t, "", "t", id.String(), state), state)
	err := s.InsertRow("t", id, mustReg(t, "", "t", id.String(), state), state)
	s.Unlock()

	if _, ok := err.(*dberrors.IdAlreadyExists); !ok {
		t.Fatalf("expected IdAlreadyExists, got %T: %v", err, err)
	}
}
