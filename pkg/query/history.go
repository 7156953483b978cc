package query

import (
	"io"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/logio"
	"github.com/emberdb/emberdb/pkg/register"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/values"
)

// History returns every register ever recorded for entity/id, oldest
// first, straight from the day log — the full content-hash chain, not
// just its current folded state. A DELETE or EVICT record surfaces as
// a row with empty state, since that is genuinely what happened at
// that point in the chain.
func (e *Engine) History(entity string, id values.ID) ([]store.Row, error) {
	idStr := id.String()

	files, err := logio.AllDayFiles(e.logDir)
	if err != nil {
		return nil, &dberrors.IoReplay{Cause: err}
	}

	var rows []store.Row
	for _, path := range files {
		r, err := logio.NewReader(path)
		if err != nil {
			return nil, &dberrors.IoReplay{Cause: err}
		}
		for {
			rec, err := r.ReadRecord()
			if err == io.EOF {
				break
			}
			if err != nil {
				r.Close()
				return nil, &dberrors.IoReplay{Cause: err}
			}
			if rec.Entity != entity || rec.ID != idStr {
				continue
			}
			state := rec.State
			if rec.Op == logio.OpDelete || rec.Op == logio.OpEvict {
				state = map[string]values.Value{}
			}
			rows = append(rows, store.Row{
				ID:       id,
				Register: register.Register{ContentHash: rec.ContentHash, PreviousHash: rec.PreviousHash},
				State:    state,
			})
		}
		r.Close()
	}

	if len(rows) == 0 {
		return nil, &dberrors.IdNotFound{Entity: entity, ID: idStr}
	}
	return rows, nil
}
