package txn_test

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/logio"
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/txn"
	"github.com/emberdb/emberdb/pkg/values"
)

func plaintextHasher(plaintext string, cost int) (string, error) {
	return "hashed:" + plaintext, nil
}

func newExecutor(t *testing.T) (*txn.Executor, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := logio.NewWriter(logio.Options{DirPath: dir, BufferSize: 4096, SyncPolicy: logio.SyncEveryWrite})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	s := store.New()
	return txn.New(s, w, plaintextHasher, 4), s, dir
}

func countLines(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	n := 0
	for _, e := range entries {
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("open %s: %v", e.Name(), err)
		}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			n++
		}
		f.Close()
	}
	return n
}

func mustParse(t *testing.T, src string) ql.Stmt {
	t.Helper()
	stmt, err := ql.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return stmt
}

func TestExecutor_CreateEntityThenInsert(t *testing.T) {
	ex, _, dir := newExecutor(t)

	if _, err := ex.Apply(mustParse(t, `CREATE ENTITY pet UNIQUES #{name} ENCRYPT #{ssn}`)); err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}
	row, err := ex.Apply(mustParse(t, `INSERT {name: "fido", ssn: "123-45"} INTO pet`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if row.State["ssn"].Kind != values.KindHash || row.State["ssn"].Str != "hashed:123-45" {
		t.Errorf("expected ssn to be hashed, got %+v", row.State["ssn"])
	}
	if row.Register.PreviousHash != "" {
		t.Errorf("expected first register to have empty PreviousHash")
	}
	if countLines(t, dir) != 2 {
		t.Errorf("expected 2 log lines (create_entity + insert), got %d", countLines(t, dir))
	}
}

func TestExecutor_InsertDuplicateID(t *testing.T) {
	ex, _, _ := newExecutor(t)
	ex.Apply(mustParse(t, `CREATE ENTITY t`))

	id := values.NewGeneratedID()
	insertStmt := mustParse(t, `INSERT {a: 1} INTO t WITH `+id.String())
	if _, err := ex.Apply(insertStmt); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := ex.Apply(insertStmt); err == nil {
		t.Fatalf("expected duplicate id to fail")
	} else if _, ok := err.(*dberrors.IdAlreadyExists); !ok {
		t.Fatalf("expected IdAlreadyExists, got %T: %v", err, err)
	}
}

func TestExecutor_UpdateSetPreservesOtherKeys(t *testing.T) {
	ex, _, _ := newExecutor(t)
	ex.Apply(mustParse(t, `CREATE ENTITY t`))
	row, err := ex.Apply(mustParse(t, `INSERT {a: 1, b: "x"} INTO t`))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	updated, err := ex.Apply(mustParse(t, `UPDATE t SET {a: 9} INTO `+row.ID.String()))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.State["a"].Integer != 9 {
		t.Errorf("expected a=9, got %+v", updated.State["a"])
	}
	if updated.State["b"].Str != "x" {
		t.Errorf("expected untouched b to survive, got %+v", updated.State["b"])
	}
	if updated.Register.PreviousHash != row.Register.ContentHash {
		t.Errorf("expected chained register")
	}
}

func TestExecutor_UpdateContentAddsAndConcatenates(t *testing.T) {
	ex, _, _ := newExecutor(t)
	ex.Apply(mustParse(t, `CREATE ENTITY t`))
	row, _ := ex.Apply(mustParse(t, `INSERT {count: 2, note: "a"} INTO t`))

	updated, err := ex.Apply(mustParse(t, `UPDATE t CONTENT {count: 3, note: "b"} INTO `+row.ID.String()))
	if err != nil {
		t.Fatalf("update content failed: %v", err)
	}
	if updated.State["count"].Integer != 5 {
		t.Errorf("expected count=5, got %+v", updated.State["count"])
	}
	if updated.State["note"].Str != "ab" {
		t.Errorf("expected note=ab, got %+v", updated.State["note"])
	}
}

func TestExecutor_MatchUpdate(t *testing.T) {
	ex, _, _ := newExecutor(t)
	ex.Apply(mustParse(t, `CREATE ENTITY t`))
	row, _ := ex.Apply(mustParse(t, `INSERT {a: 1} INTO t`))

	if _, err := ex.Apply(mustParse(t, `MATCH ALL(a > 5) UPDATE t SET {a: 99} INTO `+row.ID.String())); err == nil {
		t.Fatalf("expected match failure")
	} else if _, ok := err.(*dberrors.MatchFailed); !ok {
		t.Fatalf("expected MatchFailed, got %T: %v", err, err)
	}

	updated, err := ex.Apply(mustParse(t, `MATCH ALL(a EQ 1) UPDATE t SET {a: 99} INTO `+row.ID.String()))
	if err != nil {
		t.Fatalf("expected match to succeed: %v", err)
	}
	if updated.State["a"].Integer != 99 {
		t.Errorf("expected a=99, got %+v", updated.State["a"])
	}
}

func TestExecutor_DeleteThenReinsertUniqueKey(t *testing.T) {
	ex, s, _ := newExecutor(t)
	ex.Apply(mustParse(t, `CREATE ENTITY pet UNIQUES #{name}`))
	row, _ := ex.Apply(mustParse(t, `INSERT {name: "fido"} INTO pet`))

	if _, err := ex.Apply(mustParse(t, `DELETE `+row.ID.String()+` FROM pet`)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.GetRow("pet", row.ID); err == nil {
		t.Errorf("expected deleted row to be gone from store")
	}
	if _, err := ex.Apply(mustParse(t, `INSERT {name: "fido"} INTO pet`)); err != nil {
		t.Fatalf("expected reinsert of freed unique key to succeed: %v", err)
	}
}

func TestExecutor_EvictEntity(t *testing.T) {
	ex, s, _ := newExecutor(t)
	ex.Apply(mustParse(t, `CREATE ENTITY t`))
	if _, err := ex.Apply(mustParse(t, `EVICT t`)); err != nil {
		t.Fatalf("evict entity failed: %v", err)
	}
	if s.EntityExists("t") {
		t.Errorf("expected entity to be gone after EVICT")
	}
}
