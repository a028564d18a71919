// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/content.go
// Summary: Content abstraction hosted inside leaf panes.
// Usage: Implementations live in the content package; the engine only sees
// these interfaces plus the Handle lifecycle wrapper.

package grid

import "github.com/google/uuid"

// Content is one hosted unit of functionality: a shell session, a file
// viewer, a placeholder. Implementations do the type-specific work; the
// lifecycle state machine lives in Handle.
type Content interface {
	// Init performs the (possibly slow) initialization work. It is run
	// off the event loop; its result is delivered back as a loop event.
	Init() error

	// Close releases the content's resources. Called at most once.
	Close() error

	// CanSuspend reports whether the content may be paused while hidden.
	// Content with live background work (a running process) returns
	// false, and hide/show events leave its state untouched.
	CanSuspend() bool

	// Suspend and Resume are only invoked when CanSuspend is true.
	Suspend() error
	Resume() error

	// Title is a human-readable label for the hosting view layer.
	Title() string

	// Snapshot returns the content type plus an opaque state record used
	// to recreate the content through the factory on deserialize.
	Snapshot() (contentType string, state map[string]any)
}

// ContentDescriptor names a content type plus the opaque state needed to
// construct it.
type ContentDescriptor struct {
	Type  string
	State map[string]any
}

// Factory constructs Content for a leaf. The engine never builds content
// directly; hosts register their implementations behind this interface.
type Factory interface {
	Create(desc ContentDescriptor, leafID uuid.UUID) (Content, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(desc ContentDescriptor, leafID uuid.UUID) (Content, error)

func (f FactoryFunc) Create(desc ContentDescriptor, leafID uuid.UUID) (Content, error) {
	return f(desc, leafID)
}

// InputCapturer is the capability the engine requests from its hosting
// view layer during pane-select mode: exclusive routing of keyboard
// events to the coordinator, regardless of which content would normally
// receive them.
type InputCapturer interface {
	CaptureInput() error
	ReleaseInput()
}
