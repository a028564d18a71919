// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/lifecycle_test.go
// Summary: Lifecycle state machine tests: transitions, retry/backoff,
// suspend gating, and stale-result discarding.

package grid

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: 2 * time.Millisecond, BackoffFactor: 2.0}
}

func TestBackoffDelay(t *testing.T) {
	p := testRetryPolicy()
	if got := p.delay(1); got != 2*time.Millisecond {
		t.Errorf("delay(1) = %v, want base", got)
	}
	if got := p.delay(2); got != 4*time.Millisecond {
		t.Errorf("delay(2) = %v, want base*factor", got)
	}
	if got := p.delay(3); got != 8*time.Millisecond {
		t.Errorf("delay(3) = %v, want base*factor^2", got)
	}
}

func TestInitializeToReady(t *testing.T) {
	loop := newTestLoop()
	content := &stubContent{ctype: "blank"}
	h := NewHandle(uuid.New(), content, testRetryPolicy(), loop)

	var states []State
	h.Subscribe(func(s State) { states = append(states, s) })

	if h.State() != StateCreated {
		t.Fatalf("fresh handle state = %s", h.State())
	}
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if h.State() != StateInitializing {
		t.Fatalf("state = %s, want INITIALIZING", h.State())
	}
	loop.pump(t)
	if h.State() != StateReady {
		t.Fatalf("state = %s, want READY", h.State())
	}
	if len(states) != 2 || states[0] != StateInitializing || states[1] != StateReady {
		t.Fatalf("observed states %v", states)
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	loop := newTestLoop()
	h := NewHandle(uuid.New(), &stubContent{}, testRetryPolicy(), loop)

	if err := h.SetVisible(false); err != nil {
		t.Fatalf("hide before init must be a no-op, got %v", err)
	}
	if err := h.Retry(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("Retry from CREATED: %v, want InvalidOperation", err)
	}
	if h.State() != StateCreated {
		t.Fatalf("state mutated by rejected operation: %s", h.State())
	}
}

func TestAutoRetryExhaustion(t *testing.T) {
	loop := newTestLoop()
	boom := errors.New("boom")
	content := &stubContent{initErrs: []error{boom, boom, boom}}
	h := NewHandle(uuid.New(), content, testRetryPolicy(), loop)

	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	// Attempt 1 fails, retry 1 fires after base delay, attempt 2 fails,
	// retry 2 fires after base*factor, attempt 3 fails, budget spent.
	loop.pump(t) // init result 1 -> ERROR, timer armed
	loop.pump(t) // retry 1 -> INITIALIZING
	loop.pump(t) // init result 2 -> ERROR, timer armed
	loop.pump(t) // retry 2 -> INITIALIZING
	loop.pump(t) // init result 3 -> ERROR, exhausted

	if h.State() != StateError {
		t.Fatalf("state = %s, want ERROR", h.State())
	}
	if got := content.inits(); got != 3 {
		t.Fatalf("init attempts = %d, want 3", got)
	}
	if !errors.Is(h.Err(), ErrContentInit) {
		t.Fatalf("surfaced error = %v", h.Err())
	}
	// No further automatic attempt.
	time.Sleep(20 * time.Millisecond)
	if n := loop.drain(); n != 0 {
		t.Fatalf("%d unexpected events after exhaustion", n)
	}

	// Manual retry re-arms the machine; the error script is spent, so
	// this attempt succeeds.
	if err := h.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	loop.pump(t)
	if h.State() != StateReady {
		t.Fatalf("state after manual retry = %s, want READY", h.State())
	}
	if got := content.inits(); got != 4 {
		t.Fatalf("init attempts = %d, want 4", got)
	}
}

func TestSuspendResumeGating(t *testing.T) {
	loop := newTestLoop()
	suspendable := &stubContent{suspendable: true}
	h := NewHandle(uuid.New(), suspendable, testRetryPolicy(), loop)
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	loop.pump(t)

	if err := h.SetVisible(false); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if h.State() != StateSuspended || suspendable.suspendCalls != 1 {
		t.Fatalf("state = %s, suspends = %d", h.State(), suspendable.suspendCalls)
	}
	if err := h.SetVisible(true); err != nil {
		t.Fatalf("show: %v", err)
	}
	if h.State() != StateReady || suspendable.resumeCalls != 1 {
		t.Fatalf("state = %s, resumes = %d", h.State(), suspendable.resumeCalls)
	}

	pinned := &stubContent{suspendable: false}
	h2 := NewHandle(uuid.New(), pinned, testRetryPolicy(), loop)
	if err := h2.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	loop.pump(t)
	if err := h2.SetVisible(false); err != nil {
		t.Fatalf("hide non-suspendable: %v", err)
	}
	if h2.State() != StateReady || pinned.suspendCalls != 0 {
		t.Fatalf("non-suspendable content touched: state %s, suspends %d", h2.State(), pinned.suspendCalls)
	}
}

func TestDestroyDiscardsStaleInitResult(t *testing.T) {
	loop := newTestLoop()
	block := make(chan struct{})
	content := &stubContent{blockInit: block}
	h := NewHandle(uuid.New(), content, testRetryPolicy(), loop)

	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	// Close mid-initialization, then let the init worker finish.
	if err := h.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if h.State() != StateDestroyed || content.closes() != 1 {
		t.Fatalf("state = %s, closes = %d", h.State(), content.closes())
	}
	close(block)
	loop.pump(t) // stale READY lands and must be discarded
	if h.State() != StateDestroyed {
		t.Fatalf("stale init result resurrected the handle: %s", h.State())
	}
}

func TestDestroyIdempotentAndCancelsRetry(t *testing.T) {
	loop := newTestLoop()
	content := &stubContent{initErrs: []error{errors.New("boom")}}
	h := NewHandle(uuid.New(), content, testRetryPolicy(), loop)
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	loop.pump(t) // ERROR, retry timer armed
	if h.State() != StateError {
		t.Fatalf("state = %s, want ERROR", h.State())
	}

	if err := h.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := h.Destroy(); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
	if content.closes() != 1 {
		t.Fatalf("closes = %d, want 1", content.closes())
	}
	// The cancelled timer must not re-initialize the destroyed handle.
	time.Sleep(20 * time.Millisecond)
	loop.drain()
	if h.State() != StateDestroyed || content.inits() != 1 {
		t.Fatalf("retry fired after destroy: state %s, inits %d", h.State(), content.inits())
	}
}
