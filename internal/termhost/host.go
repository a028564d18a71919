// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/termhost/host.go
// Summary: Terminal host: owns the tcell screen, routes keys to the
// engine or the active shell, and renders on workspace notifications.
// Usage: cmd/gridmux builds a Host around a configured workspace and
// calls Run, which blocks until quit (prefix+d).

package termhost

import (
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/gridmux/gridmux/content"
	"github.com/gridmux/gridmux/grid"
	"github.com/gridmux/gridmux/store"
)

// prefixKey arms the command keys, tmux style.
const prefixKey = tcell.KeyCtrlB

const defaultLayoutName = "default"

// Host runs one workspace on a terminal screen.
type Host struct {
	screen ScreenDriver
	loop   *grid.Loop
	ws     *grid.Workspace
	rend   *renderer
	st     *store.Store // nil disables layout persistence

	mu           sync.Mutex
	tails        map[uuid.UUID]*shellTail
	selectLabels map[uuid.UUID]rune
	captured     bool
	prefixArmed  bool
	quit         chan struct{}
	quitOnce     sync.Once
}

// New creates a host. The workspace is created by the caller with this
// host as its InputCapturer (see NewInputCapturer), then attached here.
func New(screen ScreenDriver, loop *grid.Loop, st *store.Store) *Host {
	return &Host{
		screen: screen,
		loop:   loop,
		st:     st,
		rend:   newRenderer(screen),
		tails:  make(map[uuid.UUID]*shellTail),
		quit:   make(chan struct{}),
	}
}

// Attach binds the workspace and subscribes to its notifications. Must
// be called once before Run.
func (h *Host) Attach(ws *grid.Workspace) {
	h.ws = ws
	ws.Dispatcher().Subscribe(grid.ListenerFunc(h.onEvent))
}

// CaptureInput implements grid.InputCapturer: while captured, every key
// goes to the pane-select coordinator instead of the active content.
func (h *Host) CaptureInput() error {
	h.mu.Lock()
	h.captured = true
	h.mu.Unlock()
	return nil
}

// ReleaseInput implements grid.InputCapturer.
func (h *Host) ReleaseInput() {
	h.mu.Lock()
	h.captured = false
	h.mu.Unlock()
}

// onEvent runs on the engine loop for every workspace notification.
func (h *Host) onEvent(ev grid.Event) {
	switch ev.Type {
	case grid.EventPaneSelectEntered:
		h.mu.Lock()
		h.selectLabels = ev.Payload.(map[uuid.UUID]rune)
		h.mu.Unlock()
	case grid.EventPaneSelectExited:
		h.mu.Lock()
		h.selectLabels = nil
		h.mu.Unlock()
	case grid.EventTreeChanged:
		h.syncShells()
	case grid.EventContentStateChanged:
		sc := ev.Payload.(grid.ContentStateChange)
		if sc.State == grid.StateReady {
			h.syncShells()
		}
	}
	h.render()
}

// syncShells wires tails and pane sizes for every live shell, and drops
// tails of removed leaves.
func (h *Host) syncShells() {
	width, height := h.screen.Size()
	bounds := h.ws.Tree().Bounds()

	live := make(map[uuid.UUID]bool)
	h.ws.Tree().ForEachLeaf(func(leaf *grid.Node) {
		live[leaf.ID] = true
		sh, ok := leaf.Handle.Content().(*content.Shell)
		if !ok {
			return
		}
		id := leaf.ID
		h.mu.Lock()
		tail, wired := h.tails[id]
		if !wired {
			tail = newShellTail()
			h.tails[id] = tail
		}
		h.mu.Unlock()
		if !wired {
			sh.OnData(func(p []byte) {
				tail.Append(p)
				h.loop.Post(h.render)
			})
			sh.OnExit(func() {
				h.loop.Post(func() {
					if _, err := h.ws.Close(id); err != nil {
						log.Printf("Host: close exited shell %s: %v", id, err)
					}
				})
			})
		}
		r := bounds[id]
		cols := int(r.Width()*float64(width)) - 2
		rows := int(r.Height()*float64(height)) - 2
		sh.Resize(cols, rows)
	})

	h.mu.Lock()
	for id := range h.tails {
		if !live[id] {
			delete(h.tails, id)
		}
	}
	h.mu.Unlock()
}

func (h *Host) render() {
	h.mu.Lock()
	tails := make(map[uuid.UUID]*shellTail, len(h.tails))
	for id, t := range h.tails {
		tails[id] = t
	}
	labels := h.selectLabels
	h.mu.Unlock()
	h.rend.render(h.ws, tails, labels)
}

// Run initializes the screen, starts the poll goroutine, and drives the
// engine loop until quit.
func (h *Host) Run() error {
	if err := h.screen.Init(); err != nil {
		return err
	}
	defer h.screen.Fini()
	h.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset))
	h.screen.HideCursor()

	h.loop.Post(func() {
		h.syncShells()
		h.render()
	})

	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case <-h.quit:
				return
			default:
			}
			h.loop.Post(func() { h.handleEvent(ev) })
		}
	}()

	h.loop.Run()
	h.ws.Shutdown()
	return nil
}

// Quit stops the host. Safe to call from the loop.
func (h *Host) Quit() {
	h.quitOnce.Do(func() {
		close(h.quit)
		h.loop.Close()
	})
}

func (h *Host) handleEvent(ev tcell.Event) {
	switch tev := ev.(type) {
	case *tcell.EventResize:
		h.syncShells()
		h.render()
	case *tcell.EventKey:
		h.handleKey(tev)
	}
}

func (h *Host) handleKey(ev *tcell.EventKey) {
	h.mu.Lock()
	captured := h.captured
	armed := h.prefixArmed
	h.prefixArmed = false
	h.mu.Unlock()

	if captured && h.ws.InPaneSelect() {
		h.ws.HandleSelectKey(ev)
		h.render()
		return
	}
	if armed {
		h.handleCommand(ev)
		h.render()
		return
	}
	if ev.Key() == prefixKey {
		h.mu.Lock()
		h.prefixArmed = true
		h.mu.Unlock()
		return
	}
	h.routeToActive(ev)
}

// handleCommand dispatches one prefix command.
func (h *Host) handleCommand(ev *tcell.EventKey) {
	activeID, ok := h.ws.ActiveLeafID()
	if !ok {
		return
	}

	switch ev.Key() {
	case tcell.KeyLeft:
		h.moveFocus(grid.DirLeft)
		return
	case tcell.KeyRight:
		h.moveFocus(grid.DirRight)
		return
	case tcell.KeyUp:
		h.moveFocus(grid.DirUp)
		return
	case tcell.KeyDown:
		h.moveFocus(grid.DirDown)
		return
	}
	if ev.Key() != tcell.KeyRune {
		return
	}

	var err error
	switch ev.Rune() {
	case '%':
		_, err = h.ws.Split(activeID, grid.Horizontal, 0.5)
	case '"':
		_, err = h.ws.Split(activeID, grid.Vertical, 0.5)
	case 'h':
		h.moveFocus(grid.DirLeft)
	case 'j':
		h.moveFocus(grid.DirDown)
	case 'k':
		h.moveFocus(grid.DirUp)
	case 'l':
		h.moveFocus(grid.DirRight)
	case 'H':
		err = h.ws.ResizeStepToward(activeID, grid.DirLeft)
	case 'J':
		err = h.ws.ResizeStepToward(activeID, grid.DirDown)
	case 'K':
		err = h.ws.ResizeStepToward(activeID, grid.DirUp)
	case 'L':
		err = h.ws.ResizeStepToward(activeID, grid.DirRight)
	case '<':
		err = h.ws.Swap(activeID, grid.DirLeft)
	case '>':
		err = h.ws.Swap(activeID, grid.DirRight)
	case 'x':
		_, err = h.ws.Close(activeID)
	case 'r':
		err = h.ws.RetryContent(activeID)
	case 'z':
		err = h.ws.Equalize(h.ws.Tree().Root().ID)
	case 'c':
		err = h.ws.ChangeContent(activeID, grid.ContentDescriptor{Type: "blank"})
	case 'p':
		err = h.ws.EnterPaneSelect()
	case 's':
		h.saveLayout()
	case 'o':
		h.loadLayout()
	case 'd':
		h.Quit()
	}
	if err != nil {
		log.Printf("Host: command %q: %v", ev.Rune(), err)
	}
}

func (h *Host) moveFocus(d grid.Direction) {
	if err := h.ws.MoveFocus(d); err != nil {
		log.Printf("Host: move focus %s: %v", d, err)
	}
}

func (h *Host) saveLayout() {
	if h.st == nil {
		return
	}
	data, err := h.ws.SerializeLayout()
	if err != nil {
		log.Printf("Host: serialize layout: %v", err)
		return
	}
	if err := h.st.Save(defaultLayoutName, data); err != nil {
		log.Printf("Host: save layout: %v", err)
		return
	}
	log.Printf("Host: layout %q saved", defaultLayoutName)
}

func (h *Host) loadLayout() {
	if h.st == nil {
		return
	}
	data, err := h.st.Load(defaultLayoutName)
	if err != nil {
		log.Printf("Host: load layout: %v", err)
		return
	}
	if err := h.ws.LoadLayout(data); err != nil {
		log.Printf("Host: restore layout: %v", err)
	}
}

// routeToActive writes the key to the active shell, if the active pane
// hosts one that is READY.
func (h *Host) routeToActive(ev *tcell.EventKey) {
	activeID, ok := h.ws.ActiveLeafID()
	if !ok {
		return
	}
	leaf, ok := h.ws.Tree().Leaf(activeID)
	if !ok || leaf.Handle.State() != grid.StateReady {
		return
	}
	sh, ok := leaf.Handle.Content().(*content.Shell)
	if !ok {
		return
	}
	if b := keyBytes(ev); len(b) > 0 {
		if _, err := sh.Write(b); err != nil {
			log.Printf("Host: write to shell: %v", err)
		}
	}
}

// keyBytes encodes a tcell key event as pty input bytes.
func keyBytes(ev *tcell.EventKey) []byte {
	switch ev.Key() {
	case tcell.KeyRune:
		return []byte(string(ev.Rune()))
	case tcell.KeyEnter:
		return []byte{'\r'}
	case tcell.KeyTab:
		return []byte{'\t'}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return []byte{0x7f}
	case tcell.KeyEscape:
		return []byte{0x1b}
	case tcell.KeyUp:
		return []byte("\x1b[A")
	case tcell.KeyDown:
		return []byte("\x1b[B")
	case tcell.KeyRight:
		return []byte("\x1b[C")
	case tcell.KeyLeft:
		return []byte("\x1b[D")
	case tcell.KeyHome:
		return []byte("\x1b[H")
	case tcell.KeyEnd:
		return []byte("\x1b[F")
	case tcell.KeyDelete:
		return []byte("\x1b[3~")
	}
	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		return []byte{byte(ev.Key())}
	}
	return nil
}
