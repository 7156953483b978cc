// Package query is the Query Engine: it resolves every SELECT/CHECK/
// relational/JOIN statement the parser can produce, either against the
// live Store (current-state reads) or, for WHEN / WHEN RANGE, by
// replaying the day log directly and never touching the Store at all.
package query

import (
	"sort"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/values"
)

// Comparer checks a plaintext against a stored Hash, bridging
// bcrypt.CompareHashAndPassword (nil error means match).
type Comparer func(hash, plaintext string) error

// Result is what Run returns: Rows always holds the final projected
// row list; Groups is non-nil only after a GROUP BY stage ran; Count is
// non-nil only after a COUNT stage ran.
type Result struct {
	Rows   []store.Row
	Groups map[string][]store.Row
	Count  *int
}

// Engine resolves statements against a Store (current-state) and a day
// log directory (temporal WHEN / WHEN RANGE reads).
type Engine struct {
	store    *store.Store
	logDir   string
	comparer Comparer
}

func New(s *store.Store, logDir string, comparer Comparer) *Engine {
	return &Engine{store: s, logDir: logDir, comparer: comparer}
}

// Run resolves any non-mutating Stmt. Mutation kinds belong to
// pkg/txn.Executor and are rejected here.
func (e *Engine) Run(stmt ql.Stmt) (Result, error) {
	switch stmt.Kind {
	case ql.StmtSelect, ql.StmtSelectIDs, ql.StmtSelectWhere:
		return e.runSelect(stmt)
	case ql.StmtSelectWhen, ql.StmtSelectWhenRange:
		return e.runTemporal(stmt)
	case ql.StmtRelation:
		return e.runRelation(stmt)
	case ql.StmtJoin:
		return e.runJoin(stmt)
	default:
		return Result{}, &dberrors.NonSelectQuery{}
	}
}

// runSelect covers plain SELECT (by id, by id-set, or the whole
// entity) and SELECT WHERE: gather the candidate rows, filter, then
// run the fixed algebra pipeline.
func (e *Engine) runSelect(stmt ql.Stmt) (Result, error) {
	rows, err := e.candidateRows(stmt)
	if err != nil {
		return Result{}, err
	}

	if stmt.Kind == ql.StmtSelectWhere {
		filtered := rows[:0:0]
		for _, r := range rows {
			if matchesWhere(r.State, stmt.Where) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	rows = project(rows, stmt.Select)
	finalRows, groups, count := applyAlgebra(rows, stmt.Algebras)
	return Result{Rows: finalRows, Groups: groups, Count: count}, nil
}

func (e *Engine) candidateRows(stmt ql.Stmt) ([]store.Row, error) {
	switch {
	case len(stmt.IDs) > 0:
		rows := make([]store.Row, 0, len(stmt.IDs))
		for _, id := range stmt.IDs {
			row, err := e.store.GetRow(stmt.Entity, id)
			if err != nil {
				if _, ok := err.(*dberrors.IdNotFound); ok {
					continue
				}
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	case stmt.HasID:
		row, err := e.store.GetRow(stmt.Entity, stmt.ID)
		if err != nil {
			return nil, err
		}
		return []store.Row{row}, nil
	default:
		return e.store.AllRows(stmt.Entity)
	}
}

// project strips every key not in sel from each row's State, leaving
// rows untouched when sel.All.
func project(rows []store.Row, sel ql.ToSelect) []store.Row {
	if sel.All {
		return rows
	}
	out := make([]store.Row, len(rows))
	for i, r := range rows {
		state := make(map[string]values.Value, len(sel.Keys))
		for _, k := range sel.Keys {
			if v, ok := r.State[k]; ok {
				state[k] = v
			}
		}
		out[i] = store.Row{ID: r.ID, Register: r.Register, State: state}
	}
	return out
}

// RunCheck verifies each supplied (key, plaintext) pair against the
// stored Hash for entity/id. Keys not declared encrypted are rejected
// together, as a single CheckNonEncryptedKeys error.
func (e *Engine) RunCheck(stmt ql.Stmt) (map[string]bool, error) {
	meta, err := e.store.Meta(stmt.Entity)
	if err != nil {
		return nil, err
	}

	var bad []string
	for k := range stmt.CheckFields {
		if !meta.EncryptedKeys[k] {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, &dberrors.CheckNonEncryptedKeys{Keys: bad}
	}

	row, err := e.store.GetRow(stmt.Entity, stmt.ID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(stmt.CheckFields))
	for k, plaintext := range stmt.CheckFields {
		stored, ok := row.State[k]
		if !ok || stored.Kind != values.KindHash {
			out[k] = false
			continue
		}
		out[k] = e.comparer(stored.Str, plaintext) == nil
	}
	return out, nil
}
