// Package btree is a concurrent B+Tree adapted from an embedded storage
// engine's heap-offset index for a different payload: here each leaf
// maps a declared unique-key field value to a slot index into the state
// store's live-id slice (see pkg/store), not a byte offset into a data
// file. The tree structure and ordered-traversal behavior are
// unchanged; only what a leaf's integer payload means has changed.
package btree

import (
	"sort"
	"sync"

	"github.com/emberdb/emberdb/pkg/values"
)

// Node is one page of the tree: either an internal node (Children only)
// or a leaf (Keys/Slots, chained via Next for ordered range scans).
type Node struct {
	T        int
	Keys     []values.Comparable
	Slots    []int64
	Children []*Node
	Leaf     bool
	N        int
	Next     *Node
	mu       sync.RWMutex
}

func NewNode(t int, leaf bool) *Node {
	return &Node{
		T:        t,
		Leaf:     leaf,
		Keys:     make([]values.Comparable, 0, 2*t-1),
		Slots:    make([]int64, 0, 2*t-1),
		Children: make([]*Node, 0, 2*t),
	}
}

func (n *Node) Lock() {
	if n != nil {
		n.mu.Lock()
	}
}

func (n *Node) Unlock() {
	if n != nil {
		n.mu.Unlock()
	}
}

func (n *Node) RLock() {
	if n != nil {
		n.mu.RLock()
	}
}

func (n *Node) RUnlock() {
	if n != nil {
		n.mu.RUnlock()
	}
}

func (n *Node) IsFull() bool {
	return n.N == 2*n.T-1
}

func (n *Node) findLeafLowerBound(key values.Comparable) (*Node, int) {
	if n.Leaf {
		i := sort.Search(n.N, func(i int) bool {
			return n.Keys[i].Compare(key) >= 0
		})
		return n, i
	}
	// A separator equal to key is the first key of its right child.
	i := sort.Search(n.N, func(i int) bool {
		return n.Keys[i].Compare(key) > 0
	})
	return n.Children[i].findLeafLowerBound(key)
}

// UpsertNonFull performs the leaf-level insert/update, calling fn with the
// existing slot (if any) so the caller can enforce uniqueness atomically
// under the tree-wide write lock Upsert holds.
func (n *Node) UpsertNonFull(key values.Comparable, fn func(oldSlot int64, exists bool) (newSlot int64, err error)) error {
	i := n.N - 1

	if n.Leaf {
		idx := sort.Search(n.N, func(j int) bool {
			return n.Keys[j].Compare(key) >= 0
		})

		if idx < n.N && n.Keys[idx].Compare(key) == 0 {
			newSlot, err := fn(n.Slots[idx], true)
			if err != nil {
				return err
			}
			n.Slots[idx] = newSlot
			return nil
		}

		newSlot, err := fn(0, false)
		if err != nil {
			return err
		}

		n.Keys = append(n.Keys, nil)
		n.Slots = append(n.Slots, 0)
		copy(n.Keys[idx+1:], n.Keys[idx:])
		copy(n.Slots[idx+1:], n.Slots[idx:])

		n.Keys[idx] = key
		n.Slots[idx] = newSlot
		n.N++
		return nil
	}

	for i >= 0 && key.Compare(n.Keys[i]) < 0 {
		i--
	}
	i++

	if n.Children[i].N == 2*n.T-1 {
		n.SplitChild(i)
		if key.Compare(n.Keys[i]) >= 0 {
			i++
		}
	}
	return n.Children[i].UpsertNonFull(key, fn)
}

func (n *Node) SplitChild(i int) {
	t := n.T
	y := n.Children[i]
	z := NewNode(t, y.Leaf)

	if y.Leaf {
		mid := t - 1
		z.N = y.N - mid
		z.Keys = append(z.Keys, y.Keys[mid:]...)
		z.Slots = append(z.Slots, y.Slots[mid:]...)

		y.Keys = y.Keys[:mid]
		y.Slots = y.Slots[:mid]
		y.N = mid

		z.Next = y.Next
		y.Next = z
	} else {
		mid := t - 1
		z.N = t - 1
		z.Keys = append(z.Keys, y.Keys[mid+1:]...)
		z.Children = append(z.Children, y.Children[mid+1:]...)

		upKey := y.Keys[mid]

		y.Keys = y.Keys[:mid]
		y.Children = y.Children[:mid+1]
		y.N = mid

		n.Keys = append(n.Keys, nil)
		copy(n.Keys[i+1:], n.Keys[i:])
		n.Keys[i] = upKey

		n.Children = append(n.Children, nil)
		copy(n.Children[i+2:], n.Children[i+1:])
		n.Children[i+1] = z
		n.N++
		return
	}

	n.Keys = append(n.Keys, nil)
	copy(n.Keys[i+1:], n.Keys[i:])
	n.Keys[i] = z.Keys[0]

	n.Children = append(n.Children, nil)
	copy(n.Children[i+2:], n.Children[i+1:])
	n.Children[i+1] = z
	n.N++
}

func (n *Node) remove(key values.Comparable) bool {
	idx := sort.Search(n.N, func(i int) bool {
		return n.Keys[i].Compare(key) >= 0
	})

	if n.Leaf {
		if idx < n.N && n.Keys[idx].Compare(key) == 0 {
			n.Keys = append(n.Keys[:idx], n.Keys[idx+1:]...)
			n.Slots = append(n.Slots[:idx], n.Slots[idx+1:]...)
			n.N--
			return true
		}
		return false
	}

	childIdx := idx
	if idx < n.N && n.Keys[idx].Compare(key) == 0 {
		childIdx = idx + 1
	}

	child := n.Children[childIdx]
	if child.N < n.T {
		n.fill(childIdx)
	}

	return n.removeRecursive(key)
}

func (n *Node) removeRecursive(key values.Comparable) bool {
	idx := sort.Search(n.N, func(i int) bool {
		return n.Keys[i].Compare(key) >= 0
	})

	childIdx := idx
	if idx < n.N && n.Keys[idx].Compare(key) == 0 {
		childIdx = idx + 1
	}
	if childIdx > n.N {
		childIdx = n.N
	}

	ok := n.Children[childIdx].remove(key)
	if ok {
		n.fixSeparators()
	}
	return ok
}

func (n *Node) fixSeparators() {
	if n.Leaf {
		return
	}
	for i := 0; i < n.N; i++ {
		curr := n.Children[i+1]
		for !curr.Leaf {
			curr = curr.Children[0]
		}
		if curr.N > 0 {
			n.Keys[i] = curr.Keys[0]
		}
	}
}

func (n *Node) fill(i int) {
	switch {
	case i != 0 && n.Children[i-1].N >= n.T:
		n.borrowFromPrev(i)
	case i != n.N && n.Children[i+1].N >= n.T:
		n.borrowFromNext(i)
	case i != n.N:
		n.merge(i)
	default:
		n.merge(i - 1)
	}
}

func (n *Node) borrowFromPrev(i int) {
	child := n.Children[i]
	sibling := n.Children[i-1]

	if child.Leaf {
		child.Keys = append([]values.Comparable{nil}, child.Keys...)
		child.Slots = append([]int64{0}, child.Slots...)
		child.Keys[0] = sibling.Keys[sibling.N-1]
		child.Slots[0] = sibling.Slots[sibling.N-1]
		child.N++

		sibling.Keys = sibling.Keys[:sibling.N-1]
		sibling.Slots = sibling.Slots[:sibling.N-1]
		sibling.N--

		n.Keys[i-1] = child.Keys[0]
	} else {
		child.Keys = append([]values.Comparable{nil}, child.Keys...)
		child.Children = append([]*Node{nil}, child.Children...)
		child.Keys[0] = n.Keys[i-1]
		child.Children[0] = sibling.Children[sibling.N]
		child.N++

		n.Keys[i-1] = sibling.Keys[sibling.N-1]
		sibling.Keys = sibling.Keys[:sibling.N-1]
		sibling.Children = sibling.Children[:sibling.N]
		sibling.N--
	}
}

func (n *Node) borrowFromNext(i int) {
	child := n.Children[i]
	sibling := n.Children[i+1]

	if child.Leaf {
		child.Keys = append(child.Keys, sibling.Keys[0])
		child.Slots = append(child.Slots, sibling.Slots[0])
		child.N++

		sibling.Keys = append([]values.Comparable{}, sibling.Keys[1:]...)
		sibling.Slots = append([]int64{}, sibling.Slots[1:]...)
		sibling.N--

		n.Keys[i] = sibling.Keys[0]
	} else {
		child.Keys = append(child.Keys, n.Keys[i])
		child.Children = append(child.Children, sibling.Children[0])
		child.N++

		n.Keys[i] = sibling.Keys[0]
		sibling.Keys = append([]values.Comparable{}, sibling.Keys[1:]...)
		sibling.Children = append([]*Node{}, sibling.Children[1:]...)
		sibling.N--
	}
}

func (n *Node) merge(i int) {
	child := n.Children[i]
	sibling := n.Children[i+1]

	if child.Leaf {
		child.Keys = append(child.Keys, sibling.Keys...)
		child.Slots = append(child.Slots, sibling.Slots...)
		child.Next = sibling.Next
		child.N = len(child.Keys)
	} else {
		child.Keys = append(child.Keys, n.Keys[i])
		child.Keys = append(child.Keys, sibling.Keys...)
		child.Children = append(child.Children, sibling.Children...)
		child.N = len(child.Keys)
	}

	n.Keys = append(n.Keys[:i], n.Keys[i+1:]...)
	n.Children = append(n.Children[:i+1], n.Children[i+2:]...)
	n.N--
}

func (n *Node) Remove(key values.Comparable) bool {
	return n.remove(key)
}

func (n *Node) FindLeafLowerBound(key values.Comparable) (*Node, int) {
	return n.findLeafLowerBound(key)
}
