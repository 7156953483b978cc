// Package store is the process-wide state map: entity name -> id ->
// (latest register, latest state). A single exclusive lock guards all
// writes; readers clone the subtree they need and release the lock
// before doing any further work on it.
package store

import (
	"sync"

	"github.com/emberdb/emberdb/pkg/btree"
	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/register"
	"github.com/emberdb/emberdb/pkg/values"
)

// Row is one entity's (register, state) pair as held live in the store.
type Row struct {
	ID       values.ID
	Register register.Register
	State    map[string]values.Value
}

func cloneState(s map[string]values.Value) map[string]values.Value {
	out := make(map[string]values.Value, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Meta is the per-entity metadata a CREATE ENTITY registers: which
// fields must be unique, which are stored encrypted, and (optionally)
// which fields a schema declares.
type Meta struct {
	Name          string
	UniqueKeys    map[string]bool
	EncryptedKeys map[string]bool
	SchemaKeys    map[string]bool // nil means no declared schema
}

type entity struct {
	meta    Meta
	indexes map[string]*btree.UniqueIndex // unique key name -> index
	ids     []values.ID                   // append-only slot index -> id
	rows    map[string]*Row               // id.String() -> row
}

// Store is the state store. The zero value is not usable; use New.
type Store struct {
	mu       sync.RWMutex
	entities map[string]*entity
}

func New() *Store {
	return &Store{entities: map[string]*entity{}}
}

// Lock and Unlock bound the single write section an Executor mutation
// runs inside: revalidate preconditions, then swap state, all before
// Unlock. CREATE ENTITY, DELETE and EVICT append their log record
// inside that section, before the swap; INSERT and the UPDATE family
// append theirs before taking the lock.
func (s *Store) Lock()    { s.mu.Lock() }
func (s *Store) Unlock()  { s.mu.Unlock() }
func (s *Store) RLock()   { s.mu.RLock() }
func (s *Store) RUnlock() { s.mu.RUnlock() }

// CreateEntity registers a new entity's key metadata. Caller must hold
// the write lock.
func (s *Store) CreateEntity(name string, uniqueKeys, encryptedKeys, schemaKeys []string) error {
	if _, ok := s.entities[name]; ok {
		return &dberrors.EntityAlreadyExists{Entity: name}
	}

	meta := Meta{
		Name:          name,
		UniqueKeys:    toSet(uniqueKeys),
		EncryptedKeys: toSet(encryptedKeys),
	}
	if schemaKeys != nil {
		meta.SchemaKeys = toSet(schemaKeys)
	}

	indexes := map[string]*btree.UniqueIndex{}
	for k := range meta.UniqueKeys {
		indexes[k] = btree.NewUniqueIndex(3)
	}

	s.entities[name] = &entity{
		meta:    meta,
		indexes: indexes,
		rows:    map[string]*Row{},
	}
	return nil
}

func toSet(keys []string) map[string]bool {
	m := map[string]bool{}
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// Meta returns a copy of entity's key metadata.
func (s *Store) Meta(name string) (Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[name]
	if !ok {
		return Meta{}, &dberrors.EntityNotCreated{Entity: name}
	}
	return e.meta, nil
}

// EntityExists reports whether name has been CREATE ENTITY'd (and not
// since EVICTed).
func (s *Store) EntityExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entities[name]
	return ok
}

// MetaLocked is Meta without taking the read lock itself: for callers
// that already hold Lock (the Executor, mid-mutation).
func (s *Store) MetaLocked(name string) (Meta, error) {
	e, ok := s.entities[name]
	if !ok {
		return Meta{}, &dberrors.EntityNotCreated{Entity: name}
	}
	return e.meta, nil
}

// GetRowLocked is GetRow without taking the read lock itself: for
// callers that already hold Lock (the Executor, mid-mutation).
func (s *Store) GetRowLocked(entityName string, id values.ID) (Row, error) {
	e, ok := s.entities[entityName]
	if !ok {
		return Row{}, &dberrors.EntityNotCreated{Entity: entityName}
	}
	row, ok := e.rows[id.String()]
	if !ok {
		return Row{}, &dberrors.IdNotFound{Entity: entityName, ID: id.String()}
	}
	return Row{ID: row.ID, Register: row.Register, State: cloneState(row.State)}, nil
}

// GetRow returns a clone of the live (register, state) for entity/id.
func (s *Store) GetRow(entityName string, id values.ID) (Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[entityName]
	if !ok {
		return Row{}, &dberrors.EntityNotCreated{Entity: entityName}
	}
	row, ok := e.rows[id.String()]
	if !ok {
		return Row{}, &dberrors.IdNotFound{Entity: entityName, ID: id.String()}
	}
	return Row{ID: row.ID, Register: row.Register, State: cloneState(row.State)}, nil
}

// AllRows returns a clone of every live row for entityName, in no
// particular order (callers sort/paginate downstream).
func (s *Store) AllRows(entityName string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[entityName]
	if !ok {
		return nil, &dberrors.EntityNotCreated{Entity: entityName}
	}
	out := make([]Row, 0, len(e.rows))
	for _, row := range e.rows {
		out = append(out, Row{ID: row.ID, Register: row.Register, State: cloneState(row.State)})
	}
	return out, nil
}

// checkUnique validates that newState's unique-declared keys don't
// collide with a different live id's. Caller holds the write lock.
func (e *entity) checkUnique(id values.ID, newState map[string]values.Value) error {
	for key := range e.meta.UniqueKeys {
		v, ok := newState[key]
		if !ok {
			continue
		}
		idx := e.indexes[key]
		slot, exists := idx.Lookup(v)
		if exists && e.ids[slot].String() != id.String() {
			return &dberrors.UniqueViolation{Entity: e.meta.Name, Key: key}
		}
	}
	return nil
}

func (e *entity) indexRow(id values.ID, state map[string]values.Value) error {
	e.ids = append(e.ids, id)
	slot := int64(len(e.ids) - 1)
	for key := range e.meta.UniqueKeys {
		v, ok := state[key]
		if !ok {
			continue
		}
		if err := e.indexes[key].Insert(e.meta.Name, key, v, slot); err != nil {
			return err
		}
	}
	return nil
}

func (e *entity) reindexRow(id values.ID, oldState, newState map[string]values.Value) {
	var slot int64 = -1
	for i, existing := range e.ids {
		if existing.String() == id.String() {
			slot = int64(i)
			break
		}
	}
	if slot < 0 {
		return
	}
	for key := range e.meta.UniqueKeys {
		newVal, hasNew := newState[key]
		oldVal, hasOld := oldState[key]
		if hasOld && (!hasNew || !values.Equal(oldVal, newVal)) {
			e.indexes[key].Delete(oldVal)
		}
		if hasNew {
			e.indexes[key].Replace(newVal, slot)
		}
	}
}

func (e *entity) unindexRow(id values.ID, state map[string]values.Value) {
	for key := range e.meta.UniqueKeys {
		if v, ok := state[key]; ok {
			e.indexes[key].Delete(v)
		}
	}
}

// InsertRow validates uniqueness and inserts a brand-new row. Caller
// holds the write lock and has already computed reg via register.New
// outside the lock where possible.
func (s *Store) InsertRow(entityName string, id values.ID, reg register.Register, state map[string]values.Value) error {
	e, ok := s.entities[entityName]
	if !ok {
		return &dberrors.EntityNotCreated{Entity: entityName}
	}
	if _, exists := e.rows[id.String()]; exists {
		return &dberrors.IdAlreadyExists{Entity: entityName, ID: id.String()}
	}
	if err := e.checkUnique(id, state); err != nil {
		return err
	}
	if err := e.indexRow(id, state); err != nil {
		return err
	}
	e.rows[id.String()] = &Row{ID: id, Register: reg, State: state}
	return nil
}

// ReplaceRow validates uniqueness against the new state and swaps the
// row's (register, state) in place, used by UPDATE SET / UPDATE CONTENT
// / MATCH UPDATE.
func (s *Store) ReplaceRow(entityName string, id values.ID, reg register.Register, newState map[string]values.Value) error {
	e, ok := s.entities[entityName]
	if !ok {
		return &dberrors.EntityNotCreated{Entity: entityName}
	}
	old, exists := e.rows[id.String()]
	if !exists {
		return &dberrors.IdNotFound{Entity: entityName, ID: id.String()}
	}
	if err := e.checkUnique(id, newState); err != nil {
		return err
	}
	e.reindexRow(id, old.State, newState)
	e.rows[id.String()] = &Row{ID: id, Register: reg, State: newState}
	return nil
}

// DeleteRow removes the live row but keeps the entity's unique-key
// index in sync (I2: state is gone, the log is not).
func (s *Store) DeleteRow(entityName string, id values.ID) error {
	e, ok := s.entities[entityName]
	if !ok {
		return &dberrors.EntityNotCreated{Entity: entityName}
	}
	row, exists := e.rows[id.String()]
	if !exists {
		return &dberrors.IdNotFound{Entity: entityName, ID: id.String()}
	}
	e.unindexRow(id, row.State)
	delete(e.rows, id.String())
	return nil
}

// EvictRow is DeleteRow's counterpart for EVICT id: at the store's
// level the two are identical (the store only ever holds the latest
// register, never the full chain), the log-level distinction between
// DELETE and EVICT lives entirely in the record's Op column.
func (s *Store) EvictRow(entityName string, id values.ID) error {
	return s.DeleteRow(entityName, id)
}

// EvictEntity removes the whole entity definition; subsequent reads
// fail with EntityNotCreated.
func (s *Store) EvictEntity(entityName string) error {
	if _, ok := s.entities[entityName]; !ok {
		return &dberrors.EntityNotCreated{Entity: entityName}
	}
	delete(s.entities, entityName)
	return nil
}

// RangeUnique walks a uniquely-indexed key's B+Tree in [lo, hi] order,
// resolving each slot back to its live Row. The query engine does not
// call it: WHERE predicates, range ones included, are evaluated against
// every candidate row.
func (s *Store) RangeUnique(entityName, key string, lo, hi values.Comparable, fn func(Row) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[entityName]
	if !ok {
		return &dberrors.EntityNotCreated{Entity: entityName}
	}
	idx, ok := e.indexes[key]
	if !ok {
		return nil
	}

	stop := false
	idx.Range(lo, hi, func(_ values.Comparable, slot int64) bool {
		id := e.ids[slot]
		row, exists := e.rows[id.String()]
		if !exists {
			return true // slot was deleted, skip
		}
		if !fn(Row{ID: row.ID, Register: row.Register, State: cloneState(row.State)}) {
			stop = true
			return false
		}
		return true
	})
	_ = stop
	return nil
}
