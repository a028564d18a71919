// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/lifecycle.go
// Summary: Content lifecycle state machine with bounded retry/backoff.
// Usage: Every leaf owns exactly one Handle; the focus coordinator
// subscribes to its state changes.

package grid

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a content handle.
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateReady
	StateSuspended
	StateError
	StateDestroying
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateInitializing:
		return "INITIALIZING"
	case StateReady:
		return "READY"
	case StateSuspended:
		return "SUSPENDED"
	case StateError:
		return "ERROR"
	case StateDestroying:
		return "DESTROYING"
	case StateDestroyed:
		return "DESTROYED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// legalTransitions is the table-driven validator. CREATED/INITIALIZING may
// enter DESTROYING so that closing a leaf mid-initialization cancels it
// instead of waiting for the init result.
var legalTransitions = map[State]map[State]bool{
	StateCreated:      {StateInitializing: true, StateDestroying: true},
	StateInitializing: {StateReady: true, StateError: true, StateDestroying: true},
	StateReady:        {StateSuspended: true, StateDestroying: true},
	StateSuspended:    {StateReady: true, StateDestroying: true},
	StateError:        {StateInitializing: true, StateDestroying: true},
	StateDestroying:   {StateDestroyed: true},
	StateDestroyed:    {},
}

// RetryPolicy bounds automatic re-initialization after failures. Delay
// before retry n is BaseDelay * BackoffFactor^(n-1).
type RetryPolicy struct {
	MaxRetries    int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy matches the engine defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 250 * time.Millisecond, BackoffFactor: 2.0}
}

func (p RetryPolicy) delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(retry-1)))
}

// Handle pairs one Content with its lifecycle state machine. All state
// transitions happen on the event loop; the only cross-goroutine pieces
// are the init worker and the retry timer, both of which post back.
type Handle struct {
	leafID  uuid.UUID
	content Content
	poster  Poster
	policy  RetryPolicy

	state      State
	subs       []func(State)
	retries    int
	initSeq    uint64
	retryTimer *time.Timer
	lastErr    error

	mu sync.Mutex // guards subs registered off-loop by hosts
}

// NewHandle wraps content in a fresh CREATED handle.
func NewHandle(leafID uuid.UUID, content Content, policy RetryPolicy, poster Poster) *Handle {
	return &Handle{
		leafID:  leafID,
		content: content,
		poster:  poster,
		policy:  policy,
		state:   StateCreated,
	}
}

// State returns the current lifecycle state.
func (h *Handle) State() State { return h.state }

// LeafID returns the id of the leaf this handle serves.
func (h *Handle) LeafID() uuid.UUID { return h.leafID }

// Content exposes the wrapped content for hosts (title, type-specific IO).
func (h *Handle) Content() Content { return h.content }

// Err returns the most recent initialization error, if any.
func (h *Handle) Err() error { return h.lastErr }

// Subscribe registers a state-change callback. Callbacks run on the event
// loop, strictly after the transition (and any structural bookkeeping of
// the operation that caused it) has completed.
func (h *Handle) Subscribe(fn func(State)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.subs = append(h.subs, fn)
	h.mu.Unlock()
}

// transition validates against the table and applies. Illegal transitions
// are rejected and logged as programming errors, never silently applied.
func (h *Handle) transition(to State) error {
	if !legalTransitions[h.state][to] {
		log.Printf("Handle %s: ILLEGAL transition %s -> %s (programming error)", h.leafID, h.state, to)
		return fmt.Errorf("transition %s -> %s: %w", h.state, to, ErrInvalidOperation)
	}
	from := h.state
	h.state = to
	log.Printf("Handle %s: %s -> %s", h.leafID, from, to)
	h.notify(to)
	return nil
}

func (h *Handle) notify(s State) {
	h.mu.Lock()
	subs := make([]func(State), len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// Initialize moves the handle to INITIALIZING and runs Content.Init off
// the loop. The result is posted back and ignored if the handle has moved
// on (closed mid-init, superseded attempt).
func (h *Handle) Initialize() error {
	if err := h.transition(StateInitializing); err != nil {
		return err
	}
	h.initSeq++
	seq := h.initSeq
	content := h.content
	go func() {
		err := content.Init()
		h.poster.Post(func() { h.finishInit(seq, err) })
	}()
	return nil
}

// finishInit applies an async init result. The sequence number plus the
// state check guard against a READY/ERROR event arriving for a handle
// that was closed or re-initialized in the meantime.
func (h *Handle) finishInit(seq uint64, err error) {
	if seq != h.initSeq || h.state != StateInitializing {
		log.Printf("Handle %s: discarding stale init result (state=%s)", h.leafID, h.state)
		return
	}
	if err == nil {
		h.retries = 0
		h.lastErr = nil
		_ = h.transition(StateReady)
		return
	}

	h.lastErr = fmt.Errorf("%w: %v", ErrContentInit, err)
	_ = h.transition(StateError)

	if h.retries >= h.policy.MaxRetries {
		log.Printf("Handle %s: retries exhausted after %d attempts: %v", h.leafID, h.retries, err)
		return
	}
	h.retries++
	delay := h.policy.delay(h.retries)
	log.Printf("Handle %s: retry %d/%d in %v", h.leafID, h.retries, h.policy.MaxRetries, delay)
	h.retryTimer = time.AfterFunc(delay, func() {
		h.poster.Post(func() {
			if h.state != StateError {
				return
			}
			_ = h.Initialize()
		})
	})
}

// Retry re-arms an ERROR handle after the automatic budget is spent.
func (h *Handle) Retry() error {
	if h.state != StateError {
		return fmt.Errorf("retry in state %s: %w", h.state, ErrInvalidOperation)
	}
	h.retries = 0
	return h.Initialize()
}

// SetVisible applies hide/show. For content that cannot suspend this is a
// no-op with respect to state.
func (h *Handle) SetVisible(visible bool) error {
	if !h.content.CanSuspend() {
		return nil
	}
	if visible && h.state == StateSuspended {
		if err := h.content.Resume(); err != nil {
			return err
		}
		return h.transition(StateReady)
	}
	if !visible && h.state == StateReady {
		if err := h.content.Suspend(); err != nil {
			return err
		}
		return h.transition(StateSuspended)
	}
	return nil
}

// Destroy tears the handle down: DESTROYING, content close, DESTROYED.
// A pending retry timer is cancelled so an ERROR handle cannot claw its
// way back after removal.
func (h *Handle) Destroy() error {
	if h.state == StateDestroying || h.state == StateDestroyed {
		return nil
	}
	if h.retryTimer != nil {
		h.retryTimer.Stop()
		h.retryTimer = nil
	}
	if err := h.transition(StateDestroying); err != nil {
		return err
	}
	if err := h.content.Close(); err != nil {
		log.Printf("Handle %s: content close error: %v", h.leafID, err)
	}
	return h.transition(StateDestroyed)
}
