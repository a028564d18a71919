// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/select_mode_test.go
// Summary: Pane-select mode tests: ordinal assignment, input capture,
// digit/escape/other key handling.

package grid

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
)

// newSelectWorkspace builds three panes and wires a stub input capturer.
func newSelectWorkspace(t *testing.T) (*Workspace, *testLoop, *stubInput, []uuid.UUID) {
	t.Helper()
	loop := newTestLoop()
	factory := &stubFactory{}
	input := &stubInput{}
	ws, err := NewWorkspace(factory, input, loop, testOptions())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	loop.pump(t)

	rootID, _ := ws.ActiveLeafID()
	bID, err := ws.Split(rootID, Horizontal, 0.5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	loop.pump(t)
	cID, err := ws.Split(bID, Vertical, 0.5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	loop.pump(t)

	var order []uuid.UUID
	ws.Tree().ForEachLeaf(func(n *Node) { order = append(order, n.ID) })
	if len(order) != 3 || order[0] != rootID || order[1] != bID || order[2] != cID {
		t.Fatalf("pre-order = %v", order)
	}
	return ws, loop, input, order
}

func TestPaneSelectOrdinalAssignment(t *testing.T) {
	ws, _, input, order := newSelectWorkspace(t)

	var labels map[uuid.UUID]rune
	ws.Dispatcher().Subscribe(ListenerFunc(func(ev Event) {
		if ev.Type == EventPaneSelectEntered {
			labels = ev.Payload.(map[uuid.UUID]rune)
		}
	}))

	if err := ws.EnterPaneSelect(); err != nil {
		t.Fatalf("EnterPaneSelect: %v", err)
	}
	if !ws.InPaneSelect() {
		t.Fatal("mode not active")
	}
	if input.captures != 1 {
		t.Fatalf("captures = %d, want 1", input.captures)
	}
	for i, id := range order {
		if labels[id] != rune('1'+i) {
			t.Fatalf("leaf %d labeled %q, want %q", i, labels[id], rune('1'+i))
		}
	}
	if err := ws.EnterPaneSelect(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("re-enter: %v, want InvalidOperation", err)
	}
}

func TestPaneSelectDigitFocuses(t *testing.T) {
	ws, _, input, order := newSelectWorkspace(t)
	if err := ws.EnterPaneSelect(); err != nil {
		t.Fatalf("EnterPaneSelect: %v", err)
	}

	if !ws.HandleSelectKey(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone)) {
		t.Fatal("digit key not consumed")
	}
	if ws.InPaneSelect() {
		t.Fatal("mode still active after selection")
	}
	if input.releases != 1 {
		t.Fatalf("releases = %d, want 1", input.releases)
	}
	if active, _ := ws.ActiveLeafID(); active != order[0] {
		t.Fatalf("active = %v, want leaf 1", active)
	}
}

func TestPaneSelectEscapeRestores(t *testing.T) {
	ws, _, _, order := newSelectWorkspace(t)
	// Last split left focus on the third pane.
	if active, _ := ws.ActiveLeafID(); active != order[2] {
		t.Fatalf("precondition: active = %v", active)
	}
	if err := ws.EnterPaneSelect(); err != nil {
		t.Fatalf("EnterPaneSelect: %v", err)
	}

	if !ws.HandleSelectKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Fatal("escape not consumed")
	}
	if ws.InPaneSelect() {
		t.Fatal("mode still active")
	}
	if active, _ := ws.ActiveLeafID(); active != order[2] {
		t.Fatalf("active = %v, want restored pane", active)
	}
}

func TestPaneSelectOtherKeyExits(t *testing.T) {
	ws, _, _, order := newSelectWorkspace(t)
	if err := ws.EnterPaneSelect(); err != nil {
		t.Fatalf("EnterPaneSelect: %v", err)
	}

	if !ws.HandleSelectKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Fatal("key not consumed while mode active")
	}
	if ws.InPaneSelect() {
		t.Fatal("mode still active")
	}
	if active, _ := ws.ActiveLeafID(); active != order[2] {
		t.Fatal("unassigned key changed focus")
	}
	// Outside the mode, keys are not consumed.
	if ws.HandleSelectKey(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone)) {
		t.Fatal("key consumed outside the mode")
	}
}

func TestPaneSelectExitsOnStructuralChange(t *testing.T) {
	ws, _, input, order := newSelectWorkspace(t)
	if err := ws.EnterPaneSelect(); err != nil {
		t.Fatalf("EnterPaneSelect: %v", err)
	}
	if _, err := ws.Close(order[1]); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ws.InPaneSelect() {
		t.Fatal("mode survived a structural change")
	}
	if input.releases != 1 {
		t.Fatalf("releases = %d, want 1", input.releases)
	}
}

func TestPaneSelectCaptureFailure(t *testing.T) {
	ws, _, input, _ := newSelectWorkspace(t)
	input.fail = errors.New("capture refused")

	if err := ws.EnterPaneSelect(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("EnterPaneSelect with failing capture: %v", err)
	}
	if ws.InPaneSelect() {
		t.Fatal("mode active despite capture failure")
	}
}

func TestPaneSelectIdleTimerScopedToSession(t *testing.T) {
	loop := newTestLoop()
	input := &stubInput{}
	opts := testOptions()
	opts.SelectIdle = 20 * time.Millisecond
	ws, err := NewWorkspace(&stubFactory{}, input, loop, opts)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	loop.pump(t) // root READY

	if err := ws.EnterPaneSelect(); err != nil {
		t.Fatalf("EnterPaneSelect: %v", err)
	}
	// Wait for the first session's idle timer to post its exit closure,
	// without running it yet.
	deadline := time.Now().Add(2 * time.Second)
	for len(loop.fns) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("idle exit never posted")
		}
		time.Sleep(time.Millisecond)
	}

	ws.ExitPaneSelect()
	if err := ws.EnterPaneSelect(); err != nil {
		t.Fatalf("re-enter: %v", err)
	}
	loop.drain() // runs the first session's stale exit closure
	if !ws.InPaneSelect() {
		t.Fatal("a stale idle timer tore down the new session")
	}
	ws.ExitPaneSelect()
}
