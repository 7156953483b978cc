package ql_test

import (
	"testing"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/values"
)

func TestParse_CreateEntity(t *testing.T) {
	stmt, err := ql.Parse(`CREATE ENTITY pet UNIQUES #{name} ENCRYPT #{ssn}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtCreateEntity || stmt.Entity != "pet" {
		t.Fatalf("unexpected stmt: %+v", stmt)
	}
	if len(stmt.UniqueKeys) != 1 || stmt.UniqueKeys[0] != "name" {
		t.Errorf("expected UniqueKeys=[name], got %v", stmt.UniqueKeys)
	}
	if len(stmt.EncryptedKeys) != 1 || stmt.EncryptedKeys[0] != "ssn" {
		t.Errorf("expected EncryptedKeys=[ssn], got %v", stmt.EncryptedKeys)
	}
}

func TestParse_InsertWithUuid(t *testing.T) {
	stmt, err := ql.Parse(`INSERT {name: "a", age: 3} INTO pet WITH 11111111-1111-1111-1111-111111111111`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtInsert || !stmt.HasID || stmt.ID.Kind != values.IDUuid {
		t.Fatalf("unexpected stmt: %+v", stmt)
	}
	if stmt.Map["name"].Str != "a" || stmt.Map["age"].Integer != 3 {
		t.Errorf("unexpected map: %+v", stmt.Map)
	}
}

func TestParse_UpdateContent(t *testing.T) {
	stmt, err := ql.Parse(`UPDATE t CONTENT {a: 2} INTO 42`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtUpdateContent || stmt.ID.Number != 42 {
		t.Fatalf("unexpected stmt: %+v", stmt)
	}
}

func TestParse_MatchUpdate(t *testing.T) {
	stmt, err := ql.Parse(`MATCH ALL(a > 0) UPDATE t SET {a: 10} INTO 1`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtMatchUpdate {
		t.Fatalf("unexpected kind: %v", stmt.Kind)
	}
	if stmt.MatchCondition.Kind != ql.MatchAll || len(stmt.MatchCondition.Children) != 1 {
		t.Fatalf("unexpected match condition: %+v", stmt.MatchCondition)
	}
	leaf := stmt.MatchCondition.Children[0]
	if leaf.Kind != ql.MatchG || leaf.Key != "a" || leaf.Value.Integer != 0 {
		t.Fatalf("unexpected leaf: %+v", leaf)
	}
}

func TestParse_SelectWhereWithAlgebra(t *testing.T) {
	stmt, err := ql.Parse(`SELECT * FROM pet WHERE { (age >= 2) } | ORDER BY age DESC | LIMIT 10`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtSelectWhere {
		t.Fatalf("unexpected kind: %v", stmt.Kind)
	}
	if len(stmt.Where) != 1 || stmt.Where[0].Op != ql.ClauseGeq {
		t.Fatalf("unexpected where: %+v", stmt.Where)
	}
	if len(stmt.Algebras) != 2 || stmt.Algebras[0].Kind != ql.AlgebraOrderBy || stmt.Algebras[1].Kind != ql.AlgebraLimit {
		t.Fatalf("unexpected algebras: %+v", stmt.Algebras)
	}
}

func TestParse_SelectIDWhenAt(t *testing.T) {
	stmt, err := ql.Parse(`SELECT * FROM pet ID 1 WHEN AT 2026-01-15T10:00:00Z`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtSelectWhen || stmt.WhenAt == "" {
		t.Fatalf("unexpected stmt: %+v", stmt)
	}
}

func TestParse_RelationalIntersect(t *testing.T) {
	stmt, err := ql.Parse(`SELECT * FROM pet INTERSECT (KEY) SELECT * FROM dog`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtRelation || stmt.RelationType != ql.RelIntersect || len(stmt.Operands) != 2 {
		t.Fatalf("unexpected stmt: %+v", stmt)
	}
}

func TestParse_Check(t *testing.T) {
	stmt, err := ql.Parse(`CHECK {ssn: "123"} FROM pet ID 1`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.Kind != ql.StmtCheck || stmt.CheckFields["ssn"] != "123" {
		t.Fatalf("unexpected stmt: %+v", stmt)
	}
}

func TestParse_EvictEntityVsEvictID(t *testing.T) {
	stmt, err := ql.Parse(`EVICT 1 FROM pet`)
	if err != nil || stmt.Kind != ql.StmtEvictID {
		t.Fatalf("expected EvictID, got %+v, %v", stmt, err)
	}

	stmt, err = ql.Parse(`EVICT pet`)
	if err != nil || stmt.Kind != ql.StmtEvictEntity {
		t.Fatalf("expected EvictEntity, got %+v, %v", stmt, err)
	}
}

func TestParse_ErrorHasPositionAndContext(t *testing.T) {
	_, err := ql.Parse(`INSERT {name: } INTO pet`)
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	pe, ok := err.(*dberrors.ParseError)
	if !ok {
		t.Fatalf("expected *dberrors.ParseError, got %T", err)
	}
	if pe.Context == "" {
		t.Errorf("expected non-empty context snippet")
	}
}
