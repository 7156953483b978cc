// Package txn is the Transaction Executor: it takes a parsed mutation
// Stmt, chains the next Register onto the entity id's history, and
// appends a durable record to the day log before the lock is released
// — by the time a reader can next take the lock, both the in-memory
// state and its log record already agree. bcrypt hashing and the log's
// fsync are both slow enough that they run outside the store's write
// lock wherever the mutation allows it: encryptMap and the register
// fold happen against an unlocked read, and the lock is only retaken
// to revalidate and swap.
package txn

import (
	"github.com/emberdb/emberdb/pkg/logio"
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/register"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/values"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
)

// Hasher matches bcrypt.GenerateFromPassword's shape closely enough
// that an adapter in cmd/emberdb can wire it in directly.
type Hasher func(plaintext string, cost int) (string, error)

// Executor applies mutation statements against a Store, appending each
// one's Register to a Writer.
type Executor struct {
	store    *store.Store
	log      *logio.Writer
	clock    *clock
	hasher   Hasher
	hashCost int
}

// New builds an Executor. hashCost is the bcrypt cost used for
// ENCRYPT-declared fields (to_hash), independent of any auth-password
// cost.
func New(s *store.Store, w *logio.Writer, hasher Hasher, hashCost int) *Executor {
	return &Executor{store: s, log: w, clock: newClock(), hasher: hasher, hashCost: hashCost}
}

// Apply dispatches stmt to the matching mutation and returns the
// resulting row where one exists (CreateEntity/EvictEntity/Delete/Evict
// return a zero Row on success).
func (ex *Executor) Apply(stmt ql.Stmt) (store.Row, error) {
	switch stmt.Kind {
	case ql.StmtCreateEntity:
		return store.Row{}, ex.createEntity(stmt)
	case ql.StmtInsert:
		return ex.insert(stmt)
	case ql.StmtUpdateSet:
		return ex.updateSet(stmt)
	case ql.StmtUpdateContent:
		return ex.updateContent(stmt)
	case ql.StmtMatchUpdate:
		return ex.matchUpdate(stmt)
	case ql.StmtDelete:
		return store.Row{}, ex.delete(stmt)
	case ql.StmtEvictID:
		return store.Row{}, ex.evictID(stmt)
	case ql.StmtEvictEntity:
		return store.Row{}, ex.evictEntity(stmt)
	default:
		return store.Row{}, &dberrors.NonSelectQuery{}
	}
}

func (ex *Executor) createEntity(stmt ql.Stmt) error {
	ex.store.Lock()
	defer ex.store.Unlock()

	if _, err := ex.store.MetaLocked(stmt.Entity); err == nil {
		return &dberrors.EntityAlreadyExists{Entity: stmt.Entity}
	}

	ts := ex.clock.next()
	rec := logio.Record{
		Timestamp: ts,
		Entity:    stmt.Entity,
		Op:        logio.OpCreateEntity,
		State:     logio.EncodeEntityMeta(stmt.UniqueKeys, stmt.EncryptedKeys, nil),
	}
	if err := ex.appendLog(rec); err != nil {
		return err
	}
	return ex.store.CreateEntity(stmt.Entity, stmt.UniqueKeys, stmt.EncryptedKeys, nil)
}

// insert precomputes the hashed state and the next register against an
// unlocked read of meta — the encryptMap bcrypt cost is paid here, not
// while anyone is blocked on the write lock — then appends the log
// record before ever touching the lock, since writing the log doesn't
// require visibility. The lock is taken only to revalidate (InsertRow's
// own existence/uniqueness checks) and swap the row in. A revalidation
// failure here (entity evicted, id raced by another insert) leaves a
// log record that was never applied; replay tolerates this the same
// way it tolerates any op against a since-evicted entity.
func (ex *Executor) insert(stmt ql.Stmt) (store.Row, error) {
	meta, err := ex.store.Meta(stmt.Entity)
	if err != nil {
		return store.Row{}, err
	}

	id := stmt.ID
	if !stmt.HasID {
		id = values.NewGeneratedID()
	}

	state, err := ex.encryptMap(meta, stmt.Map)
	if err != nil {
		return store.Row{}, err
	}

	ts := ex.clock.next()
	reg := register.New("", stmt.Entity, id.String(), ts, state)

	if err := ex.appendLog(recordFor(logio.OpInsert, reg, state)); err != nil {
		return store.Row{}, err
	}

	ex.store.Lock()
	defer ex.store.Unlock()

	if err := ex.store.InsertRow(stmt.Entity, id, reg, state); err != nil {
		return store.Row{}, err
	}
	return store.Row{ID: id, Register: reg, State: state}, nil
}

func (ex *Executor) updateSet(stmt ql.Stmt) (store.Row, error) {
	plan, err := ex.prepareReplace(stmt.Entity, stmt.ID, stmt.Map, overlay)
	if err != nil {
		return store.Row{}, err
	}
	return ex.commitReplace(stmt.Entity, stmt.ID, plan, nil)
}

func (ex *Executor) updateContent(stmt ql.Stmt) (store.Row, error) {
	plan, err := ex.prepareReplace(stmt.Entity, stmt.ID, stmt.Map, mergeOverlay)
	if err != nil {
		return store.Row{}, err
	}
	return ex.commitReplace(stmt.Entity, stmt.ID, plan, nil)
}

func (ex *Executor) matchUpdate(stmt ql.Stmt) (store.Row, error) {
	plan, err := ex.prepareReplace(stmt.Entity, stmt.ID, stmt.Map, overlay)
	if err != nil {
		return store.Row{}, err
	}
	if !evalMatch(stmt.MatchCondition, plan.old.State) {
		return store.Row{}, &dberrors.MatchFailed{Entity: stmt.Entity, ID: stmt.ID.String()}
	}
	return ex.commitReplace(stmt.Entity, stmt.ID, plan, func(current store.Row) error {
		if !evalMatch(stmt.MatchCondition, current.State) {
			return &dberrors.MatchFailed{Entity: stmt.Entity, ID: stmt.ID.String()}
		}
		return nil
	})
}

// combineFn folds an encrypted incoming map into the prior state:
// overlay replaces each given key outright (UPDATE SET / MATCH UPDATE),
// mergeOverlay additively merges it (UPDATE CONTENT).
type combineFn func(old map[string]values.Value, incoming map[string]values.Value) (map[string]values.Value, error)

func overlay(old, incoming map[string]values.Value) (map[string]values.Value, error) {
	out := cloneMap(old)
	for k, v := range incoming {
		out[k] = v
	}
	return out, nil
}

func mergeOverlay(old, incoming map[string]values.Value) (map[string]values.Value, error) {
	out := cloneMap(old)
	for k, v := range incoming {
		prior, ok := out[k]
		if !ok {
			prior = values.Nil
		}
		merged, err := values.MergeContent(prior, v)
		if err != nil {
			return nil, err
		}
		out[k] = merged
	}
	return out, nil
}

// replacePlan is the suspension-point work for an UPDATE, computed
// against an unlocked read of meta/old: the encrypted incoming map,
// folded state and chained register are all ready before the write
// lock is ever taken.
type replacePlan struct {
	old      store.Row
	newState map[string]values.Value
	reg      register.Register
}

// prepareReplace does the precompute step (a) of an UPDATE: fetch
// meta and the live row through the store's self-locking readers,
// encrypt the incoming map (bcrypt), and fold it into the prior state.
// None of this touches the write lock.
func (ex *Executor) prepareReplace(entityName string, id values.ID, rawMap map[string]values.Value, combine combineFn) (replacePlan, error) {
	meta, err := ex.store.Meta(entityName)
	if err != nil {
		return replacePlan{}, err
	}
	old, err := ex.store.GetRow(entityName, id)
	if err != nil {
		return replacePlan{}, err
	}

	incoming, err := ex.encryptMap(meta, rawMap)
	if err != nil {
		return replacePlan{}, err
	}
	newState, err := combine(old.State, incoming)
	if err != nil {
		return replacePlan{}, err
	}

	ts := ex.clock.next()
	reg := register.New(old.Register.ContentHash, entityName, id.String(), ts, newState)
	return replacePlan{old: old, newState: newState, reg: reg}, nil
}

// commitReplace is steps (b)-(f), reordered to keep the fsync off the
// write lock the same way insert does: the caller's precheck (e.g. a
// MATCH re-test) runs against an unlocked read first, the log record
// is appended before the lock is ever taken, and the lock itself is
// held only long enough to revalidate and swap the row. ReplaceRow's
// own existence check is the final revalidation; a concurrent writer
// that beat this one to the row simply clobbers the register chain
// with a later timestamp, the same lost-update exposure the store has
// always had for two overlapping updates on one id.
func (ex *Executor) commitReplace(entityName string, id values.ID, plan replacePlan, precheck func(store.Row) error) (store.Row, error) {
	if precheck != nil {
		current, err := ex.store.GetRow(entityName, id)
		if err != nil {
			return store.Row{}, err
		}
		if err := precheck(current); err != nil {
			return store.Row{}, err
		}
	}

	if err := ex.appendLog(recordFor(logio.OpUpdate, plan.reg, plan.newState)); err != nil {
		return store.Row{}, err
	}

	ex.store.Lock()
	defer ex.store.Unlock()

	if err := ex.store.ReplaceRow(entityName, id, plan.reg, plan.newState); err != nil {
		return store.Row{}, err
	}
	return store.Row{ID: id, Register: plan.reg, State: plan.newState}, nil
}

func (ex *Executor) delete(stmt ql.Stmt) error {
	ex.store.Lock()
	defer ex.store.Unlock()

	old, err := ex.store.GetRowLocked(stmt.Entity, stmt.ID)
	if err != nil {
		return err
	}
	ts := ex.clock.next()
	empty := map[string]values.Value{}
	reg := register.New(old.Register.ContentHash, stmt.Entity, stmt.ID.String(), ts, empty)

	if err := ex.appendLog(recordFor(logio.OpDelete, reg, empty)); err != nil {
		return err
	}
	return ex.store.DeleteRow(stmt.Entity, stmt.ID)
}

// evictID removes the id's live state and records its own "evict" op,
// folding as a tombstone the same way a delete does: a WHEN-AT before
// this point still answers from the prior registers.
func (ex *Executor) evictID(stmt ql.Stmt) error {
	ex.store.Lock()
	defer ex.store.Unlock()

	old, err := ex.store.GetRowLocked(stmt.Entity, stmt.ID)
	if err != nil {
		return err
	}
	ts := ex.clock.next()
	empty := map[string]values.Value{}
	reg := register.New(old.Register.ContentHash, stmt.Entity, stmt.ID.String(), ts, empty)

	if err := ex.appendLog(recordFor(logio.OpEvict, reg, empty)); err != nil {
		return err
	}
	return ex.store.EvictRow(stmt.Entity, stmt.ID)
}

func (ex *Executor) evictEntity(stmt ql.Stmt) error {
	ex.store.Lock()
	defer ex.store.Unlock()

	if _, err := ex.store.MetaLocked(stmt.Entity); err != nil {
		return err
	}
	ts := ex.clock.next()
	rec := logio.Record{
		Timestamp: ts,
		Entity:    stmt.Entity,
		Op:        logio.OpEvict,
		State:     map[string]values.Value{},
	}
	if err := ex.appendLog(rec); err != nil {
		return err
	}
	return ex.store.EvictEntity(stmt.Entity)
}

func recordFor(op logio.Op, reg register.Register, state map[string]values.Value) logio.Record {
	return logio.Record{
		Timestamp:    reg.Timestamp,
		Entity:       reg.EntityName,
		ID:           reg.EntityID,
		Op:           op,
		ContentHash:  reg.ContentHash,
		PreviousHash: reg.PreviousHash,
		State:        state,
	}
}

// appendLog writes rec and forces it to disk before returning. insert
// and commitReplace call this with no lock held at all; createEntity,
// delete, evictID and evictEntity still call it under the write lock,
// since none of their records depend on a bcrypt hash and the lock
// they're already holding is the simplest way to keep them atomic with
// their own swap.
func (ex *Executor) appendLog(rec logio.Record) error {
	if err := ex.log.Append(rec); err != nil {
		return &dberrors.IoAppend{Cause: err}
	}
	if err := ex.log.Sync(); err != nil {
		return &dberrors.IoAppend{Cause: err}
	}
	return nil
}

// encryptMap hashes every key m declares that meta also declares
// encrypted, leaving the rest untouched. Applied to an incoming map
// literal before it's folded into stored state, never to values already
// resident there (which are Hash already and would otherwise be
// double-hashed).
func (ex *Executor) encryptMap(meta store.Meta, m map[string]values.Value) (map[string]values.Value, error) {
	if len(meta.EncryptedKeys) == 0 {
		return m, nil
	}
	out := make(map[string]values.Value, len(m))
	for k, v := range m {
		if meta.EncryptedKeys[k] {
			h, err := values.ToHash(v, ex.hashCost, ex.hasher)
			if err != nil {
				return nil, err
			}
			out[k] = h
		} else {
			out[k] = v
		}
	}
	return out, nil
}

func cloneMap(m map[string]values.Value) map[string]values.Value {
	out := make(map[string]values.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
