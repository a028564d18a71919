// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/dispatcher.go
// Summary: Listener fan-out for the notifications the engine produces for
// its render layer.

package grid

import (
	"sync"

	"github.com/google/uuid"
)

// EventType identifies a notification.
type EventType int

const (
	// EventTreeChanged carries a TreeDelta after any structural mutation.
	EventTreeChanged EventType = iota
	// EventActiveLeafChanged carries the uuid of the newly active leaf.
	EventActiveLeafChanged
	// EventContentStateChanged carries a ContentStateChange.
	EventContentStateChanged
	// EventPaneSelectEntered carries the label map (leaf id -> ordinal rune).
	EventPaneSelectEntered
	// EventPaneSelectExited carries no payload.
	EventPaneSelectExited
)

// Event is a notification passed to subscribed listeners.
type Event struct {
	Type    EventType
	Payload interface{}
}

// TreeDelta summarizes a structural mutation for the render layer.
type TreeDelta struct {
	AddedLeaves   []uuid.UUID
	RemovedLeaves []uuid.UUID
	AddedSplits   []uuid.UUID
	RemovedSplits []uuid.UUID
	ResizedSplits []uuid.UUID
}

// ContentStateChange pairs a leaf with its handle's new lifecycle state.
type ContentStateChange struct {
	LeafID uuid.UUID
	State  State
}

// Listener receives engine notifications.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(event Event) { f(event) }

// Dispatcher manages listeners and broadcasts events to them. Broadcasts
// happen on the event loop, strictly after the mutation that caused them
// has fully completed, so listeners always observe a consistent tree.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe adds a listener.
func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Unsubscribe removes a listener.
func (d *Dispatcher) Unsubscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, cur := range d.listeners {
		if cur == l {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			break
		}
	}
}

// Broadcast sends an event to all subscribed listeners.
func (d *Dispatcher) Broadcast(event Event) {
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(event)
	}
}
