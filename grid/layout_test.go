// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/layout_test.go
// Summary: Layout serialization round-trip and validation tests.

package grid

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLayoutRoundTrip(t *testing.T) {
	ws, loop, _ := newTestWorkspace(t, testOptions())
	rootID, _ := ws.ActiveLeafID()
	bID, err := ws.Split(rootID, Horizontal, 0.7)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	loop.pump(t)
	if _, err := ws.Split(bID, Vertical, 0.4); err != nil {
		t.Fatalf("Split: %v", err)
	}
	loop.pump(t)
	if err := ws.ChangeContent(bID, ContentDescriptor{Type: "viewer", State: map[string]any{"path": "/etc/hosts"}}); err != nil {
		t.Fatalf("ChangeContent: %v", err)
	}
	loop.pump(t)

	data, err := ws.SerializeLayout()
	if err != nil {
		t.Fatalf("SerializeLayout: %v", err)
	}
	wantBounds := ws.Tree().Bounds()
	wantActive, _ := ws.ActiveLeafID()

	// Restore into a fresh workspace.
	loop2 := newTestLoop()
	factory2 := &stubFactory{}
	ws2, err := NewWorkspace(factory2, nil, loop2, testOptions())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	loop2.pump(t)
	if err := ws2.LoadLayout(data); err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	for range ws2.Tree().Leaves() {
		loop2.pump(t) // one init result per restored leaf
	}
	mustValidate(t, ws2.Tree())

	gotBounds := ws2.Tree().Bounds()
	if len(gotBounds) != len(wantBounds) {
		t.Fatalf("leaf count = %d, want %d", len(gotBounds), len(wantBounds))
	}
	for id, want := range wantBounds {
		if gotBounds[id] != want {
			t.Errorf("leaf %s bounds = %+v, want %+v", id, gotBounds[id], want)
		}
	}
	if gotActive, _ := ws2.ActiveLeafID(); gotActive != wantActive {
		t.Errorf("active = %v, want %v", gotActive, wantActive)
	}
	leaf, _ := ws2.Tree().Leaf(bID)
	ctype, state := leaf.Handle.Content().Snapshot()
	if ctype != "viewer" || state["path"] != "/etc/hosts" {
		t.Errorf("restored content = %q %v", ctype, state)
	}
	// The old root content was torn down during the restore.
	if factory2.content(0).closes() != 1 {
		t.Error("previous content not destroyed on restore")
	}
}

func TestLoadLayoutRejectsMalformed(t *testing.T) {
	ws, loop, _ := newTestWorkspace(t, testOptions())
	rootID, _ := ws.ActiveLeafID()
	if _, err := ws.Split(rootID, Horizontal, 0.5); err != nil {
		t.Fatalf("Split: %v", err)
	}
	loop.pump(t)
	data, err := ws.SerializeLayout()
	if err != nil {
		t.Fatalf("SerializeLayout: %v", err)
	}

	mutate := func(fn func(doc map[string]any)) []byte {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		fn(doc)
		out, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return out
	}
	root := func(doc map[string]any) map[string]any { return doc["root"].(map[string]any) }

	cases := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{")},
		{"no root", []byte(`{"active_leaf_id":"00000000-0000-0000-0000-000000000000"}`)},
		{"bad node type", mutate(func(d map[string]any) { root(d)["type"] = "pane" })},
		{"ratio out of range", mutate(func(d map[string]any) { root(d)["ratio"] = 0.001 })},
		{"missing child", mutate(func(d map[string]any) { delete(root(d), "second") })},
		{"leaf without content", mutate(func(d map[string]any) {
			delete(root(d)["first"].(map[string]any), "content")
		})},
		{"duplicate id", mutate(func(d map[string]any) {
			first := root(d)["first"].(map[string]any)
			second := root(d)["second"].(map[string]any)
			second["id"] = first["id"]
		})},
	}

	before := ws.Tree().LeafCount()
	for _, tc := range cases {
		if err := ws.LoadLayout(tc.data); !errors.Is(err, ErrStructuralInvariant) {
			t.Errorf("%s: err = %v, want StructuralInvariantViolation", tc.name, err)
		}
	}
	if ws.Tree().LeafCount() != before {
		t.Fatal("rejected layout mutated the workspace")
	}
	mustValidate(t, ws.Tree())
}
