package btree

import (
	"sync"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/values"
)

// BPlusTree is a concurrent B+Tree mapping a values.Comparable key to an
// int64 slot index. Readers and writers coordinate through one
// tree-wide RWMutex: Upsert and Delete hold it exclusively for their
// whole run, Get and Range hold it shared, so concurrent lookups don't
// block each other.
type BPlusTree struct {
	root *Node
	t    int
	rootMu sync.RWMutex
}

// New builds an empty tree with branching factor t (t >= 2). A B+Tree
// node holds between t-1 and 2t-1 keys, except the root.
func New(t int) *BPlusTree {
	if t < 2 {
		t = 2
	}
	return &BPlusTree{root: NewNode(t, true), t: t}
}

// Upsert inserts key -> slot if absent, or replaces the existing slot if
// key is already present. onKey receives the prior slot (if any) so a
// caller enforcing a unique-key constraint can reject the write by
// returning an error instead of a replacement slot.
func (bt *BPlusTree) Upsert(key values.Comparable, onKey func(oldSlot int64, exists bool) (newSlot int64, err error)) error {
	bt.rootMu.Lock()
	defer bt.rootMu.Unlock()

	if bt.root.IsFull() {
		newRoot := NewNode(bt.t, false)
		newRoot.Children = append(newRoot.Children, bt.root)
		newRoot.SplitChild(0)
		bt.root = newRoot
	}
	return bt.root.UpsertNonFull(key, onKey)
}

// Get returns the slot stored for key, if present.
func (bt *BPlusTree) Get(key values.Comparable) (int64, bool) {
	bt.rootMu.RLock()
	defer bt.rootMu.RUnlock()
	root := bt.root

	leaf, idx := root.findLeafLowerBound(key)
	leaf.RLock()
	defer leaf.RUnlock()
	if idx < leaf.N && leaf.Keys[idx].Compare(key) == 0 {
		return leaf.Slots[idx], true
	}
	return 0, false
}

// Delete removes key, returning false if it was not present.
func (bt *BPlusTree) Delete(key values.Comparable) bool {
	bt.rootMu.Lock()
	defer bt.rootMu.Unlock()

	ok := bt.root.remove(key)
	if !bt.root.Leaf && bt.root.N == 0 {
		bt.root = bt.root.Children[0]
	}
	return ok
}

// Range walks keys in [lo, hi] (either bound nil means unbounded) in
// ascending order, calling fn for each. Stops early if fn returns false.
func (bt *BPlusTree) Range(lo, hi values.Comparable, fn func(key values.Comparable, slot int64) bool) {
	bt.rootMu.RLock()
	defer bt.rootMu.RUnlock()
	root := bt.root

	var leaf *Node
	var idx int
	if lo == nil {
		leaf = root
		for !leaf.Leaf {
			leaf = leaf.Children[0]
		}
		idx = 0
	} else {
		leaf, idx = root.findLeafLowerBound(lo)
	}

	for leaf != nil {
		leaf.RLock()
		for ; idx < leaf.N; idx++ {
			if hi != nil && leaf.Keys[idx].Compare(hi) > 0 {
				leaf.RUnlock()
				return
			}
			if !fn(leaf.Keys[idx], leaf.Slots[idx]) {
				leaf.RUnlock()
				return
			}
		}
		next := leaf.Next
		leaf.RUnlock()
		leaf = next
		idx = 0
	}
}

// UniqueIndex wraps a BPlusTree with the semantics pkg/store needs for a
// declared unique key: inserting a key that already maps to a different
// live id fails with dberrors.UniqueViolation instead of silently
// overwriting.
type UniqueIndex struct {
	tree *BPlusTree
}

func NewUniqueIndex(t int) *UniqueIndex {
	return &UniqueIndex{tree: New(t)}
}

// Insert records key -> slot, failing if key already maps elsewhere.
func (ui *UniqueIndex) Insert(entity, key string, k values.Comparable, slot int64) error {
	return ui.tree.Upsert(k, func(oldSlot int64, exists bool) (int64, error) {
		if exists && oldSlot != slot {
			return 0, &dberrors.UniqueViolation{Entity: entity, Key: key}
		}
		return slot, nil
	})
}

// Replace moves key to point at a new slot unconditionally, used when an
// UPDATE changes the unique-key field's owning slot in place.
func (ui *UniqueIndex) Replace(k values.Comparable, slot int64) {
	_ = ui.tree.Upsert(k, func(int64, bool) (int64, error) { return slot, nil })
}

func (ui *UniqueIndex) Lookup(k values.Comparable) (int64, bool) {
	return ui.tree.Get(k)
}

func (ui *UniqueIndex) Delete(k values.Comparable) bool {
	return ui.tree.Delete(k)
}

func (ui *UniqueIndex) Range(lo, hi values.Comparable, fn func(key values.Comparable, slot int64) bool) {
	ui.tree.Range(lo, hi, fn)
}
