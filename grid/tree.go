// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/tree.go
// Summary: Binary pane layout tree: leaves host content, splits hold an
// orientation and a ratio.
// Usage: Structural core of the engine; mutated only through Workspace
// operations so invariants hold around every public call.

package grid

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Orientation of a split. A horizontal split places its children side by
// side (partitions the X axis); a vertical split stacks them (partitions Y).
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Direction of spatial navigation between leaves.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// RatioEpsilon bounds every split ratio away from 0 and 1 so no pane can
// be squeezed into nothing.
const RatioEpsilon = 0.03

func clampRatio(r float64) float64 {
	if r < RatioEpsilon {
		return RatioEpsilon
	}
	if r > 1-RatioEpsilon {
		return 1 - RatioEpsilon
	}
	return r
}

// Node is one node of the layout tree. A leaf carries a content Handle;
// a split carries an orientation, a ratio, and exactly two children.
type Node struct {
	ID     uuid.UUID
	Parent *Node

	// Leaf fields.
	Handle *Handle

	// Split fields.
	Orient Orientation
	Ratio  float64
	First  *Node
	Second *Node
}

// IsLeaf reports whether the node hosts content rather than children.
func (n *Node) IsLeaf() bool { return n.First == nil && n.Second == nil }

// Sibling returns the other child of this node's parent, or nil for root.
func (n *Node) Sibling() *Node {
	if n.Parent == nil {
		return nil
	}
	if n.Parent.First == n {
		return n.Parent.Second
	}
	return n.Parent.First
}

// Tree manages the node hierarchy plus the id index and active-leaf pointer.
type Tree struct {
	root   *Node
	index  map[uuid.UUID]*Node
	active *Node
}

// NewTree creates an empty tree. The first leaf is installed via setRoot.
func NewTree() *Tree {
	return &Tree{index: make(map[uuid.UUID]*Node)}
}

// Root returns the root node, or nil for the transient empty tree.
func (t *Tree) Root() *Node { return t.root }

// ActiveLeaf returns the currently active leaf, or nil in the transient
// empty-tree case.
func (t *Tree) ActiveLeaf() *Node { return t.active }

// Node looks up any node by id.
func (t *Tree) Node(id uuid.UUID) (*Node, bool) {
	n, ok := t.index[id]
	return n, ok
}

// Leaf looks up a leaf by id.
func (t *Tree) Leaf(id uuid.UUID) (*Node, bool) {
	n, ok := t.index[id]
	if !ok || !n.IsLeaf() {
		return nil, false
	}
	return n, true
}

// Split looks up a split by id.
func (t *Tree) Split(id uuid.UUID) (*Node, bool) {
	n, ok := t.index[id]
	if !ok || n.IsLeaf() {
		return nil, false
	}
	return n, true
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	count := 0
	t.ForEachLeaf(func(*Node) { count++ })
	return count
}

// ForEachLeaf visits every leaf in deterministic pre-order (first before
// second). Pane-select ordinals come from this order.
func (t *Tree) ForEachLeaf(fn func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.IsLeaf() {
			fn(n)
			return
		}
		walk(n.First)
		walk(n.Second)
	}
	walk(t.root)
}

// Leaves returns all leaves in pre-order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	t.ForEachLeaf(func(n *Node) { out = append(out, n) })
	return out
}

// firstLeaf descends to the first leaf of a subtree.
func firstLeaf(n *Node) *Node {
	for n != nil && !n.IsLeaf() {
		n = n.First
	}
	return n
}

// setRoot installs a single leaf as the whole tree.
func (t *Tree) setRoot(handle *Handle) *Node {
	leaf := &Node{ID: handle.LeafID(), Handle: handle}
	t.root = leaf
	t.active = leaf
	t.index[leaf.ID] = leaf
	log.Printf("Tree.setRoot: root leaf %s (%s)", leaf.ID, handle.Content().Title())
	return leaf
}

// splitLeaf replaces target with a new split whose first child is the
// original leaf (content untouched) and whose second child is a fresh
// leaf around newHandle. Runs in O(depth): only the target's slot in its
// parent is rewired.
func (t *Tree) splitLeaf(target *Node, orient Orientation, ratio float64, newHandle *Handle) (*Node, *Node) {
	newLeaf := &Node{ID: newHandle.LeafID(), Handle: newHandle}
	split := &Node{
		ID:     uuid.New(),
		Orient: orient,
		Ratio:  clampRatio(ratio),
		First:  target,
		Second: newLeaf,
	}

	parent := target.Parent
	split.Parent = parent
	target.Parent = split
	newLeaf.Parent = split

	if parent == nil {
		t.root = split
	} else if parent.First == target {
		parent.First = split
	} else {
		parent.Second = split
	}

	t.index[split.ID] = split
	t.index[newLeaf.ID] = newLeaf
	log.Printf("Tree.splitLeaf: leaf %s -> split %s (%s, %.2f), new leaf %s",
		target.ID, split.ID, orient, split.Ratio, newLeaf.ID)
	return newLeaf, split
}

// removeLeaf detaches target and promotes its sibling into the parent's
// slot (or to root). Returns the first leaf of the promoted subtree. The
// caller is responsible for the handle teardown and active-leaf policy.
func (t *Tree) removeLeaf(target *Node) *Node {
	parent := target.Parent
	if parent == nil {
		// Sole root leaf: the tree goes transiently empty.
		delete(t.index, target.ID)
		t.root = nil
		if t.active == target {
			t.active = nil
		}
		return nil
	}

	sibling := target.Sibling()
	grand := parent.Parent
	sibling.Parent = grand
	if grand == nil {
		t.root = sibling
	} else if grand.First == parent {
		grand.First = sibling
	} else {
		grand.Second = sibling
	}

	delete(t.index, target.ID)
	delete(t.index, parent.ID)
	target.Parent = nil
	parent.First, parent.Second = nil, nil

	promoted := firstLeaf(sibling)
	log.Printf("Tree.removeLeaf: removed leaf %s, collapsed split %s, promoted %s",
		target.ID, parent.ID, promoted.ID)
	return promoted
}

// Validate checks every structural invariant. It is a defensive check:
// a non-nil result is a defect in the engine, not a runtime condition.
func (t *Tree) Validate() error {
	if t.root == nil {
		if len(t.index) != 0 {
			return fmt.Errorf("empty tree with %d indexed nodes: %w", len(t.index), ErrStructuralInvariant)
		}
		return nil
	}
	if t.root.Parent != nil {
		return fmt.Errorf("root has a parent: %w", ErrStructuralInvariant)
	}

	seen := make(map[uuid.UUID]bool)
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %s: %w", n.ID, ErrStructuralInvariant)
		}
		seen[n.ID] = true
		if indexed, ok := t.index[n.ID]; !ok || indexed != n {
			return fmt.Errorf("node %s missing from index: %w", n.ID, ErrStructuralInvariant)
		}
		if n.IsLeaf() {
			if n.Handle == nil {
				return fmt.Errorf("leaf %s has no content handle: %w", n.ID, ErrStructuralInvariant)
			}
			return nil
		}
		if n.First == nil || n.Second == nil {
			return fmt.Errorf("split %s has fewer than two children: %w", n.ID, ErrStructuralInvariant)
		}
		if n.Ratio < RatioEpsilon || n.Ratio > 1-RatioEpsilon {
			return fmt.Errorf("split %s ratio %.4f out of range: %w", n.ID, n.Ratio, ErrStructuralInvariant)
		}
		if n.First.Parent != n || n.Second.Parent != n {
			return fmt.Errorf("split %s has inconsistent parent pointers: %w", n.ID, ErrStructuralInvariant)
		}
		if err := walk(n.First); err != nil {
			return err
		}
		return walk(n.Second)
	}
	if err := walk(t.root); err != nil {
		return err
	}
	if len(seen) != len(t.index) {
		return fmt.Errorf("index holds %d nodes, tree holds %d: %w", len(t.index), len(seen), ErrStructuralInvariant)
	}
	if t.active != nil {
		if !seen[t.active.ID] || !t.active.IsLeaf() {
			return fmt.Errorf("active leaf %s not a leaf in the tree: %w", t.active.ID, ErrStructuralInvariant)
		}
	}
	return nil
}
