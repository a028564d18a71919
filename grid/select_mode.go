// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/select_mode.go
// Summary: Pane-select command mode: leaves are labeled 1..9 in pre-order
// and a single digit keypress focuses the matching pane.
// Usage: The host enters the mode on its keybinding and forwards key
// events to HandleSelectKey while InPaneSelect reports true.

package grid

import (
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
)

// MaxSelectOrdinals bounds how many leaves are addressable in one pass.
const MaxSelectOrdinals = 9

type paneSelect struct {
	ordinals map[rune]uuid.UUID
	previous uuid.UUID
	idle     *time.Timer
}

// EnterPaneSelect assigns ordinals 1..9 to leaves in pre-order, captures
// input from the active content, and broadcasts the entered event with
// the ordinal assignment so the render layer can draw badges.
func (w *Workspace) EnterPaneSelect() error {
	if w.sel != nil {
		return fmt.Errorf("pane-select already active: %w", ErrInvalidOperation)
	}
	if w.tree.active == nil {
		return fmt.Errorf("no active leaf: %w", ErrInvalidOperation)
	}

	sel := &paneSelect{
		ordinals: make(map[rune]uuid.UUID),
		previous: w.tree.active.ID,
	}
	n := 0
	w.tree.ForEachLeaf(func(leaf *Node) {
		if n >= MaxSelectOrdinals {
			return
		}
		n++
		sel.ordinals[rune('0'+n)] = leaf.ID
	})
	if over := w.tree.LeafCount() - n; over > 0 {
		log.Printf("Workspace: pane-select leaves %d panes unaddressable", over)
	}

	if w.input != nil {
		if err := w.input.CaptureInput(); err != nil {
			return fmt.Errorf("capture input: %w: %v", ErrInvalidOperation, err)
		}
	}
	if w.opts.SelectIdle > 0 {
		sel.idle = time.AfterFunc(w.opts.SelectIdle, func() {
			w.loop.Post(func() {
				// The session may have been exited and re-entered before
				// this closure ran; only tear down our own session.
				if w.sel == sel {
					w.ExitPaneSelect()
				}
			})
		})
	}
	w.sel = sel

	labels := make(map[uuid.UUID]rune, len(sel.ordinals))
	for r, id := range sel.ordinals {
		labels[id] = r
	}
	w.dispatcher.Broadcast(Event{Type: EventPaneSelectEntered, Payload: labels})
	return nil
}

// InPaneSelect reports whether pane-select mode is active.
func (w *Workspace) InPaneSelect() bool { return w.sel != nil }

// ExitPaneSelect leaves the mode without changing focus. Safe to call
// when the mode is not active.
func (w *Workspace) ExitPaneSelect() {
	if w.sel == nil {
		return
	}
	if w.sel.idle != nil {
		w.sel.idle.Stop()
	}
	w.sel = nil
	if w.input != nil {
		w.input.ReleaseInput()
	}
	w.dispatcher.Broadcast(Event{Type: EventPaneSelectExited})
}

// HandleSelectKey consumes one key event while the mode is active. A
// digit with an assigned ordinal focuses that pane; Escape restores the
// pane that was active on entry; any other key exits without changing
// focus. The event is always consumed (returns true) while the mode is
// active.
func (w *Workspace) HandleSelectKey(ev *tcell.EventKey) bool {
	if w.sel == nil {
		return false
	}
	sel := w.sel

	if ev.Key() == tcell.KeyEscape {
		prev := sel.previous
		w.ExitPaneSelect()
		if leaf, ok := w.tree.Leaf(prev); ok {
			w.applyFocus(leaf)
		}
		return true
	}
	if ev.Key() == tcell.KeyRune {
		if id, ok := sel.ordinals[ev.Rune()]; ok {
			w.ExitPaneSelect()
			if err := w.RequestFocus(id); err != nil {
				log.Printf("Workspace: pane-select focus %s failed: %v", id, err)
			}
			return true
		}
	}
	w.ExitPaneSelect()
	return true
}

// exitSelectIfActive drops the mode before a structural mutation, since
// the ordinal assignment would go stale.
func (w *Workspace) exitSelectIfActive() {
	if w.sel != nil {
		w.ExitPaneSelect()
	}
}
