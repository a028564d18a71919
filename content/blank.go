// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: content/blank.go
// Summary: Placeholder content for freshly split panes.

package content

// Blank is the default pane content: nothing but an optional message.
type Blank struct {
	message string
}

// NewBlank creates placeholder content.
func NewBlank(message string) *Blank {
	return &Blank{message: message}
}

func (b *Blank) Init() error { return nil }

func (b *Blank) Close() error { return nil }

func (b *Blank) CanSuspend() bool { return true }

func (b *Blank) Suspend() error { return nil }

func (b *Blank) Resume() error { return nil }

func (b *Blank) Title() string {
	if b.message != "" {
		return b.message
	}
	return "empty"
}

// Message returns the text the renderer centers in the pane.
func (b *Blank) Message() string { return b.message }

func (b *Blank) Snapshot() (string, map[string]any) {
	state := map[string]any{}
	if b.message != "" {
		state["message"] = b.message
	}
	return "blank", state
}
