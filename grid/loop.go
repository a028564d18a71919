// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/loop.go
// Summary: Cooperative event loop that serializes all engine mutations.
// Usage: Out-of-band work (content init, retry timers, host input) posts
// closures here so the tree is only ever touched from one logical thread.

package grid

import (
	"log"
	"sync"
)

// Poster accepts work to be executed on the engine's event loop.
type Poster interface {
	Post(fn func())
}

// Loop is the default Poster. Everything that mutates a Workspace runs
// through it: host input handlers, async init completions, retry timers.
type Loop struct {
	fns       chan func()
	quit      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop with the given queue depth.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 128
	}
	return &Loop{
		fns:  make(chan func(), buffer),
		quit: make(chan struct{}),
	}
}

// Post enqueues fn for execution on the loop. Safe to call from any
// goroutine. Posts after Close are dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case <-l.quit:
		log.Printf("Loop.Post: dropping work posted after shutdown")
	case l.fns <- fn:
	}
}

// Run processes posted work until Close is called. It is the single
// logical thread of control for the engine.
func (l *Loop) Run() {
	for {
		select {
		case <-l.quit:
			// Drain whatever is already queued so close-time cleanup runs.
			for {
				select {
				case fn := <-l.fns:
					fn()
				default:
					return
				}
			}
		case fn := <-l.fns:
			fn()
		}
	}
}

// Close stops the loop after draining queued work. Safe to call more
// than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.quit) })
}
