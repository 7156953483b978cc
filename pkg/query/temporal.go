package query

import (
	"io"
	"time"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/logio"
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/register"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/values"
)

// runTemporal resolves WHEN AT / WHEN START..END entirely from the day
// log: the live Store is never consulted, since the point being asked
// about may long predate the Store's current state.
func (e *Engine) runTemporal(stmt ql.Stmt) (Result, error) {
	if stmt.Kind == ql.StmtSelectWhen {
		at, err := time.Parse(time.RFC3339Nano, stmt.WhenAt)
		if err != nil {
			return Result{}, &dberrors.DateTimeParse{Value: stmt.WhenAt, Cause: err}
		}
		row, err := e.foldAsOf(stmt.Entity, stmt.ID, at)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: project([]store.Row{row}, stmt.Select)}, nil
	}

	start, err := time.Parse(time.RFC3339Nano, stmt.WhenStart)
	if err != nil {
		return Result{}, &dberrors.DateTimeParse{Value: stmt.WhenStart, Cause: err}
	}
	end, err := time.Parse(time.RFC3339Nano, stmt.WhenEnd)
	if err != nil {
		return Result{}, &dberrors.DateTimeParse{Value: stmt.WhenEnd, Cause: err}
	}
	row, err := e.foldRange(stmt.Entity, stmt.ID, start, end)
	if err != nil {
		return Result{}, err
	}
	return Result{Rows: project([]store.Row{row}, stmt.Select)}, nil
}

// foldAsOf reconstructs the state of entity/id as it stood at or
// before t by folding every record of its history in timestamp order.
// DELETE and EVICT both fold as tombstones: once one is applied the id
// reads as not-found from that point forward, exactly mirroring what
// happened to the live store at the time, but a WHEN AT earlier than
// the tombstone's own timestamp is unaffected by it.
func (e *Engine) foldAsOf(entity string, id values.ID, t time.Time) (store.Row, error) {
	return e.fold(entity, id, func(rec logio.Record) bool {
		return !rec.Timestamp.After(t)
	})
}

// foldRange folds only the records timestamped within [start, end],
// applying the same tombstone-folding rule as foldAsOf.
func (e *Engine) foldRange(entity string, id values.ID, start, end time.Time) (store.Row, error) {
	return e.fold(entity, id, func(rec logio.Record) bool {
		return !rec.Timestamp.Before(start) && !rec.Timestamp.After(end)
	})
}

func (e *Engine) fold(entity string, id values.ID, include func(logio.Record) bool) (store.Row, error) {
	idStr := id.String()

	files, err := logio.AllDayFiles(e.logDir)
	if err != nil {
		return store.Row{}, &dberrors.IoReplay{Cause: err}
	}

	var (
		state map[string]values.Value
		reg   register.Register
		alive bool
	)

	for _, path := range files {
		r, err := logio.NewReader(path)
		if err != nil {
			return store.Row{}, &dberrors.IoReplay{Cause: err}
		}
		for {
			rec, err := r.ReadRecord()
			if err == io.EOF {
				break
			}
			if err != nil {
				r.Close()
				return store.Row{}, &dberrors.IoReplay{Cause: err}
			}
			if rec.Entity != entity || rec.ID != idStr || !include(rec) {
				continue
			}
			switch rec.Op {
			case logio.OpDelete, logio.OpEvict:
				alive = false
				state = nil
			default:
				alive = true
				state = rec.State
				reg = register.Register{ContentHash: rec.ContentHash, PreviousHash: rec.PreviousHash}
			}
		}
		r.Close()
	}

	if !alive {
		return store.Row{}, &dberrors.IdNotFound{Entity: entity, ID: idStr}
	}

	return store.Row{ID: id, Register: reg, State: state}, nil
}
