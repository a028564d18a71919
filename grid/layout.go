// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/layout.go
// Summary: JSON serialization of the layout tree and restoration of a
// workspace from a serialized layout, recreating contents via the factory.

package grid

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
)

type layoutContent struct {
	ContentType string         `json:"content_type"`
	State       map[string]any `json:"state,omitempty"`
}

type layoutNode struct {
	Type        string         `json:"type"`
	ID          uuid.UUID      `json:"id"`
	Orientation string         `json:"orientation,omitempty"`
	Ratio       float64        `json:"ratio,omitempty"`
	First       *layoutNode    `json:"first,omitempty"`
	Second      *layoutNode    `json:"second,omitempty"`
	Content     *layoutContent `json:"content,omitempty"`
}

type layoutTree struct {
	Root         *layoutNode `json:"root"`
	ActiveLeafID uuid.UUID   `json:"active_leaf_id"`
}

// SerializeLayout captures the tree structure, split ratios, node ids,
// the active leaf, and each leaf's content snapshot as JSON.
func (w *Workspace) SerializeLayout() ([]byte, error) {
	if w.tree.root == nil {
		return nil, fmt.Errorf("serialize empty tree: %w", ErrInvalidOperation)
	}
	out := layoutTree{Root: marshalNode(w.tree.root)}
	if w.tree.active != nil {
		out.ActiveLeafID = w.tree.active.ID
	}
	return json.MarshalIndent(out, "", "  ")
}

func marshalNode(n *Node) *layoutNode {
	if n.IsLeaf() {
		ctype, state := n.Handle.Content().Snapshot()
		return &layoutNode{
			Type:    "leaf",
			ID:      n.ID,
			Content: &layoutContent{ContentType: ctype, State: state},
		}
	}
	return &layoutNode{
		Type:        "split",
		ID:          n.ID,
		Orientation: n.Orient.String(),
		Ratio:       n.Ratio,
		First:       marshalNode(n.First),
		Second:      marshalNode(n.Second),
	}
}

// LoadLayout replaces the workspace's tree with one restored from data.
// All current contents are destroyed first; restored contents are created
// through the factory and initialized. A malformed or structurally
// invalid document fails before any teardown, leaving the workspace
// untouched.
func (w *Workspace) LoadLayout(data []byte) error {
	var doc layoutTree
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse layout: %w: %v", ErrStructuralInvariant, err)
	}
	if doc.Root == nil {
		return fmt.Errorf("layout has no root: %w", ErrStructuralInvariant)
	}
	if err := checkLayoutNode(doc.Root, make(map[uuid.UUID]bool)); err != nil {
		return err
	}

	tree := NewTree()
	root, handles, err := w.buildNode(doc.Root, nil, tree)
	if err != nil {
		for _, h := range handles {
			if derr := h.Destroy(); derr != nil {
				log.Printf("Workspace.LoadLayout: cleanup destroy error: %v", derr)
			}
		}
		return err
	}
	tree.root = root
	if active, ok := tree.Leaf(doc.ActiveLeafID); ok {
		tree.active = active
	} else {
		tree.active = firstLeaf(tree.root)
	}

	w.exitSelectIfActive()
	old := w.tree.Leaves()
	w.pending = make(map[uuid.UUID]*FocusRequest)
	w.tree = tree
	for _, leaf := range old {
		if err := leaf.Handle.Destroy(); err != nil {
			log.Printf("Workspace.LoadLayout: destroy error for %s: %v", leaf.ID, err)
		}
	}
	for _, h := range handles {
		if err := h.Initialize(); err != nil {
			log.Printf("Workspace.LoadLayout: initialize error for %s: %v", h.leafID, err)
		}
	}

	w.dispatcher.Broadcast(Event{Type: EventTreeChanged, Payload: TreeDelta{}})
	w.dispatcher.Broadcast(Event{Type: EventActiveLeafChanged, Payload: tree.active.ID})
	return nil
}

// checkLayoutNode validates shape before any state is touched: known node
// types, two children per split, ratios inside the legal band, content on
// every leaf, and no duplicate ids.
func checkLayoutNode(n *layoutNode, seen map[uuid.UUID]bool) error {
	if n.ID == uuid.Nil {
		return fmt.Errorf("layout node missing id: %w", ErrStructuralInvariant)
	}
	if seen[n.ID] {
		return fmt.Errorf("duplicate layout node id %s: %w", n.ID, ErrStructuralInvariant)
	}
	seen[n.ID] = true

	switch n.Type {
	case "leaf":
		if n.First != nil || n.Second != nil {
			return fmt.Errorf("leaf %s has children: %w", n.ID, ErrStructuralInvariant)
		}
		if n.Content == nil || n.Content.ContentType == "" {
			return fmt.Errorf("leaf %s has no content: %w", n.ID, ErrStructuralInvariant)
		}
		return nil
	case "split":
		if n.First == nil || n.Second == nil {
			return fmt.Errorf("split %s lacks two children: %w", n.ID, ErrStructuralInvariant)
		}
		if n.Orientation != "horizontal" && n.Orientation != "vertical" {
			return fmt.Errorf("split %s has orientation %q: %w", n.ID, n.Orientation, ErrStructuralInvariant)
		}
		if n.Ratio < RatioEpsilon || n.Ratio > 1-RatioEpsilon {
			return fmt.Errorf("split %s has ratio %.3f: %w", n.ID, n.Ratio, ErrStructuralInvariant)
		}
		if err := checkLayoutNode(n.First, seen); err != nil {
			return err
		}
		return checkLayoutNode(n.Second, seen)
	default:
		return fmt.Errorf("layout node %s has type %q: %w", n.ID, n.Type, ErrStructuralInvariant)
	}
}

func (w *Workspace) buildNode(ln *layoutNode, parent *Node, tree *Tree) (*Node, []*Handle, error) {
	if ln.Type == "leaf" {
		desc := ContentDescriptor{Type: ln.Content.ContentType, State: ln.Content.State}
		handle, err := w.newHandle(desc, ln.ID)
		if err != nil {
			return nil, nil, err
		}
		node := &Node{ID: ln.ID, Parent: parent, Handle: handle}
		tree.index[node.ID] = node
		return node, []*Handle{handle}, nil
	}

	orient := Horizontal
	if ln.Orientation == "vertical" {
		orient = Vertical
	}
	node := &Node{ID: ln.ID, Parent: parent, Orient: orient, Ratio: ln.Ratio}
	tree.index[node.ID] = node

	first, h1, err := w.buildNode(ln.First, node, tree)
	if err != nil {
		return nil, h1, err
	}
	second, h2, err := w.buildNode(ln.Second, node, tree)
	if err != nil {
		return nil, append(h1, h2...), err
	}
	node.First, node.Second = first, second
	return node, append(h1, h2...), nil
}
