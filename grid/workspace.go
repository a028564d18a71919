// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/workspace.go
// Summary: Workspace operation surface: split, close, resize, content
// changes, navigation, and focus coordination over one layout tree.
// Usage: The external command dispatcher calls these operations; the
// render layer subscribes to the workspace dispatcher.

package grid

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// CloseRootPolicy decides what closing the sole remaining root leaf does.
type CloseRootPolicy int

const (
	// CloseRootReplace swaps in default content, keeping the leaf.
	CloseRootReplace CloseRootPolicy = iota
	// CloseRootReject fails the close with InvalidOperation.
	CloseRootReject
)

// ResizeStep is the ratio transferred by one step resize.
const ResizeStep = 0.05

// Options configure a workspace.
type Options struct {
	CloseRoot       CloseRootPolicy
	MinPaneFraction float64
	DefaultContent  ContentDescriptor
	Retry           RetryPolicy
	SelectIdle      time.Duration // 0 disables the pane-select idle timer
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		CloseRoot:       CloseRootReplace,
		MinPaneFraction: 0.05,
		DefaultContent:  ContentDescriptor{Type: "blank"},
		Retry:           DefaultRetryPolicy(),
	}
}

// FocusRequest records a focus request against a not-yet-ready leaf.
// At most one is outstanding per leaf; the last write wins.
type FocusRequest struct {
	TargetLeafID uuid.UUID
	RequestedAt  time.Time
}

// Workspace owns one layout tree plus the focus coordinator state.
// All methods must be called on the event loop.
type Workspace struct {
	opts       Options
	tree       *Tree
	factory    Factory
	loop       Poster
	dispatcher *Dispatcher
	input      InputCapturer

	pending map[uuid.UUID]*FocusRequest
	sel     *paneSelect
}

// NewWorkspace creates a workspace seeded with a single leaf holding the
// configured default content, and starts that content initializing.
func NewWorkspace(factory Factory, input InputCapturer, loop Poster, opts Options) (*Workspace, error) {
	if factory == nil || loop == nil {
		return nil, fmt.Errorf("factory and loop are required: %w", ErrInvalidOperation)
	}
	w := &Workspace{
		opts:       opts,
		tree:       NewTree(),
		factory:    factory,
		loop:       loop,
		dispatcher: NewDispatcher(),
		input:      input,
		pending:    make(map[uuid.UUID]*FocusRequest),
	}

	handle, err := w.newHandle(opts.DefaultContent, uuid.New())
	if err != nil {
		return nil, err
	}
	w.tree.setRoot(handle)
	if err := handle.Initialize(); err != nil {
		return nil, err
	}
	return w, nil
}

// Tree exposes the layout tree for read access (bounds, traversal).
func (w *Workspace) Tree() *Tree { return w.tree }

// Dispatcher exposes the notification fan-out for the render layer.
func (w *Workspace) Dispatcher() *Dispatcher { return w.dispatcher }

// ActiveLeafID returns the id of the active leaf.
func (w *Workspace) ActiveLeafID() (uuid.UUID, bool) {
	if w.tree.active == nil {
		return uuid.Nil, false
	}
	return w.tree.active.ID, true
}

// newHandle builds content through the factory, wraps it, and wires the
// workspace's lifecycle subscription.
func (w *Workspace) newHandle(desc ContentDescriptor, leafID uuid.UUID) (*Handle, error) {
	content, err := w.factory.Create(desc, leafID)
	if err != nil {
		return nil, fmt.Errorf("create content %q: %w: %v", desc.Type, ErrContentInit, err)
	}
	h := NewHandle(leafID, content, w.opts.Retry, w.loop)
	h.Subscribe(func(s State) { w.onContentState(h, s) })
	return h, nil
}

// onContentState reacts to handle transitions: it relays the notification,
// applies pending focus on READY, and discards pending focus when the
// handle fails or is destroyed. The liveness check against the tree index
// means a state event for an already-removed leaf cannot mutate anything.
func (w *Workspace) onContentState(h *Handle, s State) {
	w.dispatcher.Broadcast(Event{
		Type:    EventContentStateChanged,
		Payload: ContentStateChange{LeafID: h.leafID, State: s},
	})

	switch s {
	case StateReady:
		if _, queued := w.pending[h.leafID]; !queued {
			return
		}
		delete(w.pending, h.leafID)
		leaf, ok := w.tree.Leaf(h.leafID)
		if !ok || leaf.Handle != h {
			log.Printf("Workspace: dropping pending focus for removed leaf %s", h.leafID)
			return
		}
		w.applyFocus(leaf)
	case StateError:
		delete(w.pending, h.leafID)
		if h.retries >= h.policy.MaxRetries && h.lastErr != nil {
			log.Printf("Workspace: content error surfaced for leaf %s: %v", h.leafID, h.lastErr)
		}
	case StateDestroyed:
		delete(w.pending, h.leafID)
	}
}

// applyFocus moves the active-leaf pointer and notifies. Called only with
// a leaf that is present in the tree.
func (w *Workspace) applyFocus(leaf *Node) {
	if w.tree.active == leaf {
		return
	}
	w.tree.active = leaf
	w.dispatcher.Broadcast(Event{Type: EventActiveLeafChanged, Payload: leaf.ID})
}

// Split replaces the target leaf with a new split whose first child is the
// original leaf and whose second child hosts freshly created default
// content. Returns the new leaf's id. Fails with Capacity when either
// resulting child would fall below the configured minimum fraction; the
// tree is left untouched on any failure.
func (w *Workspace) Split(leafID uuid.UUID, orient Orientation, ratio float64) (uuid.UUID, error) {
	leaf, ok := w.tree.Leaf(leafID)
	if !ok {
		return uuid.Nil, fmt.Errorf("split %s: %w", leafID, ErrNotFound)
	}
	if ratio == 0 {
		ratio = 0.5
	}

	bounds := w.tree.Bounds()
	r := bounds[leafID]
	extent := r.Width()
	if orient == Vertical {
		extent = r.Height()
	}
	if extent*ratio < w.opts.MinPaneFraction || extent*(1-ratio) < w.opts.MinPaneFraction {
		return uuid.Nil, fmt.Errorf("split %s at %.3f of extent %.3f: %w", leafID, ratio, extent, ErrCapacity)
	}

	handle, err := w.newHandle(w.opts.DefaultContent, uuid.New())
	if err != nil {
		return uuid.Nil, err
	}

	w.exitSelectIfActive()
	newLeaf, split := w.tree.splitLeaf(leaf, orient, ratio, handle)
	if err := handle.Initialize(); err != nil {
		log.Printf("Workspace.Split: initialize failed for new leaf %s: %v", newLeaf.ID, err)
	}
	// Focus follows the new pane once its content is ready.
	w.pending[newLeaf.ID] = &FocusRequest{TargetLeafID: newLeaf.ID, RequestedAt: time.Now()}

	w.dispatcher.Broadcast(Event{Type: EventTreeChanged, Payload: TreeDelta{
		AddedLeaves: []uuid.UUID{newLeaf.ID},
		AddedSplits: []uuid.UUID{split.ID},
	}})
	return newLeaf.ID, nil
}

// Close removes the leaf, destroys its content, and promotes the sibling
// into the parent's slot. Closing the sole root leaf follows the
// configured policy: replace its content with the default, or reject.
// Returns the id of the leaf that now occupies the freed space.
func (w *Workspace) Close(leafID uuid.UUID) (uuid.UUID, error) {
	leaf, ok := w.tree.Leaf(leafID)
	if !ok {
		return uuid.Nil, fmt.Errorf("close %s: %w", leafID, ErrNotFound)
	}
	if s := leaf.Handle.State(); s == StateDestroying || s == StateDestroyed {
		return uuid.Nil, fmt.Errorf("close %s in state %s: %w", leafID, s, ErrInvalidOperation)
	}

	if leaf.Parent == nil {
		if w.opts.CloseRoot == CloseRootReject {
			return uuid.Nil, fmt.Errorf("close sole root leaf: %w", ErrInvalidOperation)
		}
		if err := w.ChangeContent(leafID, w.opts.DefaultContent); err != nil {
			return uuid.Nil, err
		}
		return leafID, nil
	}

	w.exitSelectIfActive()

	wasActive := w.tree.active == leaf
	parentID := leaf.Parent.ID
	old := leaf.Handle
	delete(w.pending, leafID)

	promoted := w.tree.removeLeaf(leaf)
	promotedID := promoted.ID
	focusMoved := wasActive || w.tree.active == nil
	if focusMoved {
		// Repair the active pointer before any listener can observe the
		// tree; the change is announced after the structural broadcast.
		w.tree.active = promoted
	}

	// Structural bookkeeping is complete; teardown and notifications may
	// now trigger nested calls safely.
	if err := old.Destroy(); err != nil {
		log.Printf("Workspace.Close: destroy error for %s: %v", leafID, err)
	}

	w.dispatcher.Broadcast(Event{Type: EventTreeChanged, Payload: TreeDelta{
		RemovedLeaves: []uuid.UUID{leafID},
		RemovedSplits: []uuid.UUID{parentID},
	}})
	// A listener may have mutated the tree from inside Destroy or the
	// broadcast, so the promoted leaf is re-resolved by id before the
	// focus change is announced.
	if focusMoved {
		target, ok := w.tree.Leaf(promotedID)
		if !ok && w.tree.root != nil {
			target = firstLeaf(w.tree.root)
		}
		if target != nil && w.tree.active == target {
			w.dispatcher.Broadcast(Event{Type: EventActiveLeafChanged, Payload: target.ID})
		} else if target != nil {
			w.applyFocus(target)
		}
	}
	return promotedID, nil
}

// Resize sets the addressed split's ratio, clamped into (ε, 1−ε). No
// other node is touched.
func (w *Workspace) Resize(splitID uuid.UUID, ratio float64) error {
	split, ok := w.tree.Split(splitID)
	if !ok {
		return fmt.Errorf("resize %s: %w", splitID, ErrNotFound)
	}
	split.Ratio = clampRatio(ratio)
	w.dispatcher.Broadcast(Event{Type: EventTreeChanged, Payload: TreeDelta{
		ResizedSplits: []uuid.UUID{splitID},
	}})
	return nil
}

// ResizeStepToward moves the governing divider one step in the given
// direction, addressed from a leaf: the nearest ancestor split whose
// orientation serves the axis is the one resized. A leaf with no such
// ancestor is at the layout edge and the call is a no-op.
func (w *Workspace) ResizeStepToward(leafID uuid.UUID, d Direction) error {
	leaf, ok := w.tree.Leaf(leafID)
	if !ok {
		return fmt.Errorf("resize step %s: %w", leafID, ErrNotFound)
	}
	axis := axisOf(d)
	for cur := leaf; cur.Parent != nil; cur = cur.Parent {
		p := cur.Parent
		if p.Orient != axis {
			continue
		}
		step := ResizeStep
		if d == DirLeft || d == DirUp {
			step = -step
		}
		return w.Resize(p.ID, p.Ratio+step)
	}
	return nil
}

// Equalize resets every split ratio in the addressed subtree to 0.5.
func (w *Workspace) Equalize(nodeID uuid.UUID) error {
	node, ok := w.tree.Node(nodeID)
	if !ok {
		return fmt.Errorf("equalize %s: %w", nodeID, ErrNotFound)
	}
	var resized []uuid.UUID
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil || n.IsLeaf() {
			return
		}
		n.Ratio = 0.5
		resized = append(resized, n.ID)
		walk(n.First)
		walk(n.Second)
	}
	walk(node)
	if len(resized) > 0 {
		w.dispatcher.Broadcast(Event{Type: EventTreeChanged, Payload: TreeDelta{ResizedSplits: resized}})
	}
	return nil
}

// ChangeContent destroys the leaf's current content handle and installs a
// fresh one built from the descriptor. Structure and ratios are unchanged.
func (w *Workspace) ChangeContent(leafID uuid.UUID, desc ContentDescriptor) error {
	leaf, ok := w.tree.Leaf(leafID)
	if !ok {
		return fmt.Errorf("change content %s: %w", leafID, ErrNotFound)
	}

	// Build the replacement first so a factory failure mutates nothing.
	replacement, err := w.newHandle(desc, leafID)
	if err != nil {
		return err
	}

	old := leaf.Handle
	delete(w.pending, leafID)
	leaf.Handle = replacement
	if err := old.Destroy(); err != nil {
		log.Printf("Workspace.ChangeContent: destroy error for %s: %v", leafID, err)
	}
	if err := replacement.Initialize(); err != nil {
		return err
	}
	return nil
}

// Navigate resolves the spatial neighbor of a leaf. The boolean is false
// when no neighbor exists in that direction; this is a no-op, not an
// error.
func (w *Workspace) Navigate(fromLeafID uuid.UUID, d Direction) (uuid.UUID, bool, error) {
	leaf, ok := w.tree.Leaf(fromLeafID)
	if !ok {
		return uuid.Nil, false, fmt.Errorf("navigate from %s: %w", fromLeafID, ErrNotFound)
	}
	target := w.tree.navigate(leaf, d)
	if target == nil {
		return uuid.Nil, false, nil
	}
	return target.ID, true, nil
}

// MoveFocus navigates from the active leaf and focuses the neighbor.
func (w *Workspace) MoveFocus(d Direction) error {
	active := w.tree.active
	if active == nil {
		return nil
	}
	target := w.tree.navigate(active, d)
	if target == nil {
		return nil
	}
	return w.RequestFocus(target.ID)
}

// Swap exchanges a leaf with its directional neighbor: the two panes
// trade positions, and focus stays with whichever pane was active.
func (w *Workspace) Swap(leafID uuid.UUID, d Direction) error {
	leaf, ok := w.tree.Leaf(leafID)
	if !ok {
		return fmt.Errorf("swap %s: %w", leafID, ErrNotFound)
	}
	neighbor := w.tree.navigate(leaf, d)
	if neighbor == nil {
		return nil
	}

	// Panes keep their ids; positions exchange. Focus stays with the pane
	// that was active, so the active pointer follows it to its new node
	// before any listener can observe the tree.
	activePane := uuid.Nil
	if w.tree.active == leaf {
		activePane = leaf.ID
	} else if w.tree.active == neighbor {
		activePane = neighbor.ID
	}
	leaf.ID, neighbor.ID = neighbor.ID, leaf.ID
	leaf.Handle, neighbor.Handle = neighbor.Handle, leaf.Handle
	w.tree.index[leaf.ID] = leaf
	w.tree.index[neighbor.ID] = neighbor
	if activePane != uuid.Nil {
		if target, ok := w.tree.Leaf(activePane); ok {
			w.tree.active = target
		}
	}

	w.dispatcher.Broadcast(Event{Type: EventTreeChanged, Payload: TreeDelta{}})
	return nil
}

// RequestFocus applies or queues focus for the leaf depending on its
// content state: READY (or SUSPENDED, which is resumed) focuses now;
// CREATED/INITIALIZING queues, replacing any prior pending request;
// DESTROYING/DESTROYED is an InvalidOperation.
func (w *Workspace) RequestFocus(leafID uuid.UUID) error {
	leaf, ok := w.tree.Leaf(leafID)
	if !ok {
		return fmt.Errorf("focus %s: %w", leafID, ErrNotFound)
	}
	switch s := leaf.Handle.State(); s {
	case StateDestroying, StateDestroyed:
		return fmt.Errorf("focus %s in state %s: %w", leafID, s, ErrInvalidOperation)
	case StateSuspended:
		if err := leaf.Handle.SetVisible(true); err != nil {
			return err
		}
		w.applyFocus(leaf)
	case StateReady, StateError:
		// An errored pane may still be focused so the failure is visible.
		w.applyFocus(leaf)
	default:
		w.pending[leafID] = &FocusRequest{TargetLeafID: leafID, RequestedAt: time.Now()}
		log.Printf("Workspace: queued focus for leaf %s (state %s)", leafID, s)
	}
	return nil
}

// PendingFocus reports whether a focus request is queued for the leaf.
func (w *Workspace) PendingFocus(leafID uuid.UUID) bool {
	_, ok := w.pending[leafID]
	return ok
}

// RetryContent manually re-arms an ERROR handle after the automatic
// retry budget is exhausted.
func (w *Workspace) RetryContent(leafID uuid.UUID) error {
	leaf, ok := w.tree.Leaf(leafID)
	if !ok {
		return fmt.Errorf("retry %s: %w", leafID, ErrNotFound)
	}
	return leaf.Handle.Retry()
}

// Shutdown destroys every content handle. The workspace must not be used
// afterwards.
func (w *Workspace) Shutdown() {
	w.exitSelectIfActive()
	for _, leaf := range w.tree.Leaves() {
		if err := leaf.Handle.Destroy(); err != nil {
			log.Printf("Workspace.Shutdown: destroy error for %s: %v", leaf.ID, err)
		}
	}
}
