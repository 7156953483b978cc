package query_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/logio"
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/query"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/txn"
)

var errCheckMismatch = errors.New("check: mismatch")

func plaintextHasher(plaintext string, cost int) (string, error) {
	return "hashed:" + plaintext, nil
}

func plaintextComparer(hash, plaintext string) error {
	if hash == "hashed:"+plaintext {
		return nil
	}
	return errCheckMismatch
}

// harness wires a Store, a real on-disk day log, an Executor (to build
// up state through ordinary mutations) and a query Engine over the
// same Store/log directory.
type harness struct {
	t   *testing.T
	s   *store.Store
	ex  *txn.Executor
	eng *query.Engine
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	w, err := logio.NewWriter(logio.Options{DirPath: dir, BufferSize: 4096, SyncPolicy: logio.SyncEveryWrite})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	s := store.New()
	return &harness{
		t:   t,
		s:   s,
		ex:  txn.New(s, w, plaintextHasher, 4),
		eng: query.New(s, dir, plaintextComparer),
		dir: dir,
	}
}

func (h *harness) apply(src string) store.Row {
	h.t.Helper()
	stmt, err := ql.Parse(src)
	if err != nil {
		h.t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	row, err := h.ex.Apply(stmt)
	if err != nil {
		h.t.Fatalf("Apply(%q) failed: %v", src, err)
	}
	return row
}

func (h *harness) run(src string) query.Result {
	h.t.Helper()
	stmt, err := ql.Parse(src)
	if err != nil {
		h.t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	res, err := h.eng.Run(stmt)
	if err != nil {
		h.t.Fatalf("Run(%q) failed: %v", src, err)
	}
	return res
}

func TestEngine_SelectByID(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	row := h.apply(`INSERT {a: 1, b: "x"} INTO t`)

	res := h.run(`SELECT * FROM t ID ` + row.ID.String())
	if len(res.Rows) != 1 || res.Rows[0].State["a"].Integer != 1 {
		t.Fatalf("unexpected result: %+v", res.Rows)
	}
}

func TestEngine_SelectWhereFiltersRows(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	h.apply(`INSERT {a: 1} INTO t`)
	h.apply(`INSERT {a: 2} INTO t`)
	h.apply(`INSERT {a: 3} INTO t`)

	res := h.run(`SELECT * FROM t WHERE {(a > 1)}`)
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows with a>1, got %d", len(res.Rows))
	}
}

func TestEngine_AlgebraPipelineOrder(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	var ids []string
	for i := int64(1); i <= 5; i++ {
		row := h.apply(`INSERT {a: ` + itoa(i) + `} INTO t`)
		ids = append(ids, row.ID.String())
	}

	// LIMIT runs before ORDER BY whatever order the suffixes are written
	// in: the first three requested ids are kept, then sorted descending.
	res := h.run(`SELECT * FROM t IDS #{` + strings.Join(ids, ", ") + `} | ORDER BY a DESC | LIMIT 3`)
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows after limit, got %d", len(res.Rows))
	}
	if res.Rows[0].State["a"].Integer != 3 || res.Rows[2].State["a"].Integer != 1 {
		t.Fatalf("expected the first three ids sorted descending [3,2,1], got %+v", res.Rows)
	}
}

func TestEngine_Count(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	h.apply(`INSERT {a: 1} INTO t`)
	h.apply(`INSERT {a: 2} INTO t`)

	res := h.run(`SELECT * FROM t | COUNT`)
	if res.Count == nil || *res.Count != 2 {
		t.Fatalf("expected count 2, got %+v", res.Count)
	}
}

func TestEngine_Check(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY pet ENCRYPT #{ssn}`)
	row := h.apply(`INSERT {ssn: "123-45"} INTO pet`)

	stmt, err := ql.Parse(`CHECK {ssn: "123-45"} FROM pet ID ` + row.ID.String())
	if err != nil {
		t.Fatalf("parse check: %v", err)
	}
	out, err := h.eng.RunCheck(stmt)
	if err != nil {
		t.Fatalf("RunCheck failed: %v", err)
	}
	if !out["ssn"] {
		t.Errorf("expected ssn check to pass")
	}
}

func TestEngine_CheckRejectsNonEncryptedKey(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY pet`)
	row := h.apply(`INSERT {name: "fido"} INTO pet`)

	stmt, err := ql.Parse(`CHECK {name: "fido"} FROM pet ID ` + row.ID.String())
	if err != nil {
		t.Fatalf("parse check: %v", err)
	}
	if _, err := h.eng.RunCheck(stmt); err == nil {
		t.Fatalf("expected CheckNonEncryptedKeys error")
	} else if _, ok := err.(*dberrors.CheckNonEncryptedKeys); !ok {
		t.Fatalf("expected CheckNonEncryptedKeys, got %T: %v", err, err)
	}
}

func TestEngine_RelationIntersectByKey(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	a := h.apply(`INSERT {v: 1} INTO t`)
	h.apply(`INSERT {v: 2} INTO t`)

	src := `SELECT * FROM t ID ` + a.ID.String() + ` INTERSECT (KEY) SELECT * FROM t ID ` + a.ID.String()
	res := h.run(src)
	if len(res.Rows) != 1 {
		t.Fatalf("expected intersection of 1 row, got %d", len(res.Rows))
	}
}

func TestEngine_WhenAtReturnsHistoricalState(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	row := h.apply(`INSERT {a: 1} INTO t`)
	mid := time.Now().UTC()
	time.Sleep(2 * time.Millisecond)
	h.apply(`UPDATE t SET {a: 99} INTO ` + row.ID.String())

	src := `SELECT * FROM t ID ` + row.ID.String() + ` WHEN AT ` + mid.Format(time.RFC3339Nano)
	res := h.run(src)
	if len(res.Rows) != 1 || res.Rows[0].State["a"].Integer != 1 {
		t.Fatalf("expected pre-update state a=1, got %+v", res.Rows)
	}
}

// A WHEN AT taken before an EVICT still answers from the row's prior
// registers: eviction tombstones the id going forward, it does not
// retroactively erase earlier points in its history.
func TestEngine_WhenAtBeforeEvictStillAnswers(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	row := h.apply(`INSERT {a: 1} INTO t`)
	before := time.Now().UTC()
	time.Sleep(2 * time.Millisecond)
	h.apply(`EVICT ` + row.ID.String() + ` FROM t`)

	src := `SELECT * FROM t ID ` + row.ID.String() + ` WHEN AT ` + before.Format(time.RFC3339Nano)
	res := h.run(src)
	if len(res.Rows) != 1 || res.Rows[0].State["a"].Integer != 1 {
		t.Fatalf("expected pre-evict state a=1, got %+v", res.Rows)
	}
}

func TestEngine_WhenAtAfterEvictFails(t *testing.T) {
	h := newHarness(t)
	h.apply(`CREATE ENTITY t`)
	row := h.apply(`INSERT {a: 1} INTO t`)
	h.apply(`EVICT ` + row.ID.String() + ` FROM t`)
	after := time.Now().UTC()

	src := `SELECT * FROM t ID ` + row.ID.String() + ` WHEN AT ` + after.Format(time.RFC3339Nano)
	stmt, err := ql.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := h.eng.Run(stmt); err == nil {
		t.Fatalf("expected post-evict WHEN AT to fail")
	} else if _, ok := err.(*dberrors.IdNotFound); !ok {
		t.Fatalf("expected IdNotFound, got %T: %v", err, err)
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
