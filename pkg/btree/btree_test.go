package btree_test

import (
	"testing"

	"github.com/emberdb/emberdb/pkg/btree"
	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/values"
)

func TestBPlusTree_InsertGetDelete(t *testing.T) {
	tree := btree.New(3)

	for i := int64(0); i < 50; i++ {
		key := values.Integer(i)
		err := tree.Upsert(key, func(old int64, exists bool) (int64, error) {
			return i * 10, nil
		})
		if err != nil {
			t.Fatalf("Upsert(%d) failed: %v", i, err)
		}
	}

	for i := int64(0); i < 50; i++ {
		slot, ok := tree.Get(values.Integer(i))
		if !ok || slot != i*10 {
			t.Fatalf("Get(%d) = %d, %v; want %d, true", i, slot, ok, i*10)
		}
	}

	if !tree.Delete(values.Integer(25)) {
		t.Fatalf("expected Delete(25) to succeed")
	}
	if _, ok := tree.Get(values.Integer(25)); ok {
		t.Fatalf("expected key 25 gone after delete")
	}
}

func TestBPlusTree_RangeAscending(t *testing.T) {
	tree := btree.New(3)
	for i := int64(0); i < 20; i++ {
		_ = tree.Upsert(values.Integer(i), func(int64, bool) (int64, error) { return i, nil })
	}

	var seen []int64
	tree.Range(values.Integer(5), values.Integer(10), func(key values.Comparable, slot int64) bool {
		seen = append(seen, slot)
		return true
	})

	want := []int64{5, 6, 7, 8, 9, 10}
	if len(seen) != len(want) {
		t.Fatalf("range length = %d, want %d (%v)", len(seen), len(want), seen)
	}
	for i, v := range want {
		if seen[i] != v {
			t.Errorf("seen[%d] = %d, want %d", i, seen[i], v)
		}
	}
}

func TestUniqueIndex_RejectsDuplicate(t *testing.T) {
	idx := btree.NewUniqueIndex(3)

	if err := idx.Insert("pet", "name", values.String("fido"), 1); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := idx.Insert("pet", "name", values.String("fido"), 2)
	if err == nil {
		t.Fatalf("expected UniqueViolation inserting a second slot under the same key")
	}
	if _, ok := err.(*dberrors.UniqueViolation); !ok {
		t.Fatalf("expected *dberrors.UniqueViolation, got %T", err)
	}

	// Re-inserting the same slot under the same key is idempotent, not a
	// violation (covers retried writes).
	if err := idx.Insert("pet", "name", values.String("fido"), 1); err != nil {
		t.Fatalf("idempotent re-insert should not fail: %v", err)
	}
}

func TestUniqueIndex_Replace(t *testing.T) {
	idx := btree.NewUniqueIndex(3)
	_ = idx.Insert("pet", "name", values.String("fido"), 1)
	idx.Replace(values.String("fido"), 2)

	slot, ok := idx.Lookup(values.String("fido"))
	if !ok || slot != 2 {
		t.Fatalf("Lookup after Replace = %d, %v; want 2, true", slot, ok)
	}
}
