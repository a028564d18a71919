// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/helpers_test.go
// Summary: Shared stubs for the grid tests: a channel-backed loop, a
// scriptable content stub, and a recording factory.

package grid

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// testLoop is a hand-pumped Poster. Async work (init results, retry
// timers) lands in the channel and the test decides when it runs.
type testLoop struct {
	fns chan func()
}

func newTestLoop() *testLoop {
	return &testLoop{fns: make(chan func(), 128)}
}

func (l *testLoop) Post(fn func()) { l.fns <- fn }

// pump runs the next posted function, waiting up to two seconds for one
// to arrive.
func (l *testLoop) pump(t *testing.T) {
	t.Helper()
	select {
	case fn := <-l.fns:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a posted event")
	}
}

// drain runs everything already queued without blocking.
func (l *testLoop) drain() int {
	n := 0
	for {
		select {
		case fn := <-l.fns:
			fn()
			n++
		default:
			return n
		}
	}
}

// stubContent is a scriptable Content. Init pops one error per call from
// initErrs; when the slice is exhausted Init succeeds. A non-nil
// blockInit makes Init wait until the channel closes.
type stubContent struct {
	mu          sync.Mutex
	ctype       string
	title       string
	state       map[string]any
	suspendable bool
	initErrs    []error
	blockInit   chan struct{}

	initCalls    int
	closeCalls   int
	suspendCalls int
	resumeCalls  int
}

func (c *stubContent) Init() error {
	c.mu.Lock()
	c.initCalls++
	var err error
	if len(c.initErrs) > 0 {
		err = c.initErrs[0]
		c.initErrs = c.initErrs[1:]
	}
	block := c.blockInit
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (c *stubContent) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	return nil
}

func (c *stubContent) CanSuspend() bool { return c.suspendable }

func (c *stubContent) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspendCalls++
	return nil
}

func (c *stubContent) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeCalls++
	return nil
}

func (c *stubContent) Title() string { return c.title }

func (c *stubContent) Snapshot() (string, map[string]any) { return c.ctype, c.state }

func (c *stubContent) inits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initCalls
}

func (c *stubContent) closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

// stubFactory records every content it creates, in creation order.
// scriptNext queues init errors or an init block for the next creations.
type stubFactory struct {
	mu          sync.Mutex
	created     []*stubContent
	nextErrs    [][]error
	nextBlocks  []chan struct{}
	suspendable bool
	createErr   error
}

func (f *stubFactory) Create(desc ContentDescriptor, leafID uuid.UUID) (Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := &stubContent{
		ctype:       desc.Type,
		title:       desc.Type,
		state:       desc.State,
		suspendable: f.suspendable,
	}
	if len(f.nextErrs) > 0 {
		c.initErrs = f.nextErrs[0]
		f.nextErrs = f.nextErrs[1:]
	}
	if len(f.nextBlocks) > 0 {
		c.blockInit = f.nextBlocks[0]
		f.nextBlocks = f.nextBlocks[1:]
	}
	f.created = append(f.created, c)
	return c, nil
}

func (f *stubFactory) content(i int) *stubContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[i]
}

func (f *stubFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// stubInput counts capture/release calls for pane-select tests.
type stubInput struct {
	captures int
	releases int
	fail     error
}

func (s *stubInput) CaptureInput() error {
	if s.fail != nil {
		return s.fail
	}
	s.captures++
	return nil
}

func (s *stubInput) ReleaseInput() { s.releases++ }

// newTestWorkspace builds a workspace on a test loop and pumps the root
// content to READY.
func newTestWorkspace(t *testing.T, opts Options) (*Workspace, *testLoop, *stubFactory) {
	t.Helper()
	loop := newTestLoop()
	factory := &stubFactory{}
	ws, err := NewWorkspace(factory, nil, loop, opts)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	loop.pump(t)
	root := ws.Tree().Root()
	if root == nil || root.Handle.State() != StateReady {
		t.Fatalf("root content not READY after pump")
	}
	return ws, loop, factory
}

// mustValidate fails the test on any broken structural invariant.
func mustValidate(t *testing.T, tree *Tree) {
	t.Helper()
	if err := tree.Validate(); err != nil {
		t.Fatalf("tree invariant broken: %v", err)
	}
}

// dummyLeafHandle builds a CREATED handle around a plain stub, for tests
// that exercise tree structure without the lifecycle.
func dummyLeafHandle(loop *testLoop) *Handle {
	return NewHandle(uuid.New(), &stubContent{ctype: "blank", title: "blank"}, DefaultRetryPolicy(), loop)
}
