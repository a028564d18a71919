// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: content/content_test.go
// Summary: Registry and built-in content tests.

package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/gridmux/gridmux/grid"
)

func TestRegistryCreate(t *testing.T) {
	r := Default("/bin/sh")

	c, err := r.Create(grid.ContentDescriptor{Type: "blank"}, uuid.New())
	if err != nil {
		t.Fatalf("create blank: %v", err)
	}
	if _, ok := c.(*Blank); !ok {
		t.Fatalf("blank builder returned %T", c)
	}

	c, err = r.Create(grid.ContentDescriptor{Type: "shell"}, uuid.New())
	if err != nil {
		t.Fatalf("create shell: %v", err)
	}
	sh, ok := c.(*Shell)
	if !ok {
		t.Fatalf("shell builder returned %T", c)
	}
	if sh.Title() != "sh" {
		t.Fatalf("shell title = %q, want configured default command", sh.Title())
	}
	if sh.CanSuspend() {
		t.Fatal("a live process must not be suspendable")
	}

	if _, err := r.Create(grid.ContentDescriptor{Type: "bogus"}, uuid.New()); err == nil {
		t.Fatal("unknown type accepted")
	}
	if _, err := r.Create(grid.ContentDescriptor{Type: "viewer"}, uuid.New()); err == nil {
		t.Fatal("viewer without a path accepted")
	}
}

func TestBlankSnapshot(t *testing.T) {
	b := NewBlank("scratch")
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctype, state := b.Snapshot()
	if ctype != "blank" || state["message"] != "scratch" {
		t.Fatalf("snapshot = %q %v", ctype, state)
	}
	if b.Title() != "scratch" {
		t.Fatalf("title = %q", b.Title())
	}
	if NewBlank("").Title() != "empty" {
		t.Fatal("empty blank needs a fallback title")
	}
}

func TestViewerHighlightsGoSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	src := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	v := NewViewer(path, "")
	if err := v.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if v.Language() != "Go" {
		t.Fatalf("language = %q, want Go", v.Language())
	}
	lines := v.Lines()
	if len(lines) < 7 {
		t.Fatalf("line count = %d, want the whole file", len(lines))
	}
	if lines[0].Width != len("package main") {
		t.Fatalf("line 0 width = %d", lines[0].Width)
	}
	colored := false
	for _, l := range lines {
		for _, seg := range l.Segments {
			if seg.HasColor || seg.Bold {
				colored = true
			}
		}
	}
	if !colored {
		t.Fatal("no styling applied to Go source")
	}
}

func TestViewerSuspendResume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	v := NewViewer(path, "")
	if err := v.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !v.CanSuspend() {
		t.Fatal("viewer must be suspendable")
	}
	if err := v.Suspend(); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if len(v.Lines()) != 0 {
		t.Fatal("suspended viewer still holds token data")
	}
	if err := v.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(v.Lines()) == 0 {
		t.Fatal("resume did not rebuild the lines")
	}
}

func TestViewerMissingFile(t *testing.T) {
	v := NewViewer("/no/such/file", "")
	if err := v.Init(); err == nil {
		t.Fatal("missing file accepted")
	}
}
