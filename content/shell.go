// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: content/shell.go
// Summary: Shell content: a command on a pty. Output bytes stream to the
// hosting renderer via a callback; key input is written straight back.

package content

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/creack/pty"
)

// Shell hosts one command on a pseudo-terminal. It runs a live process,
// so it reports CanSuspend false and hide/show leaves it running.
type Shell struct {
	command string

	mu     sync.Mutex
	cmd    *exec.Cmd
	ptmx   *os.File
	stop   chan struct{}
	cols   int
	rows   int
	onData func([]byte)
	onExit func()
}

// NewShell creates shell content for the command. The process starts in
// Init, not here.
func NewShell(command string) *Shell {
	return &Shell{command: command, cols: 80, rows: 24}
}

// OnData registers the renderer's sink for raw pty output. Must be set
// before Init; the callback runs on the reader goroutine.
func (s *Shell) OnData(fn func([]byte)) {
	s.mu.Lock()
	s.onData = fn
	s.mu.Unlock()
}

// OnExit registers a callback for process termination.
func (s *Shell) OnExit(fn func()) {
	s.mu.Lock()
	s.onExit = fn
	s.mu.Unlock()
}

func (s *Shell) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := exec.Command(s.command)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLUMNS="+strconv.Itoa(s.cols),
		"LINES="+strconv.Itoa(s.rows),
	)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(s.cols),
		Rows: uint16(s.rows),
	})
	if err != nil {
		return fmt.Errorf("start %q: %v", s.command, err)
	}
	s.cmd = cmd
	s.ptmx = ptmx
	s.stop = make(chan struct{})

	go s.readLoop(ptmx, s.stop)
	return nil
}

func (s *Shell) readLoop(ptmx *os.File, stop chan struct{}) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			sink := s.onData
			s.mu.Unlock()
			if sink != nil {
				sink(buf[:n])
			}
		}
		if err != nil {
			s.mu.Lock()
			exit := s.onExit
			s.mu.Unlock()
			if exit != nil {
				exit()
			}
			return
		}
	}
}

func (s *Shell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.ptmx != nil {
		s.ptmx.Close()
		s.ptmx = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			log.Printf("Shell: kill %q: %v", s.command, err)
		}
		go s.cmd.Wait() // reap off the caller's goroutine
	}
	s.cmd = nil
	return nil
}

// CanSuspend is false: the process keeps running while hidden.
func (s *Shell) CanSuspend() bool { return false }

func (s *Shell) Suspend() error { return nil }

func (s *Shell) Resume() error { return nil }

func (s *Shell) Title() string { return filepath.Base(s.command) }

// Write feeds key input to the process.
func (s *Shell) Write(p []byte) (int, error) {
	s.mu.Lock()
	ptmx := s.ptmx
	s.mu.Unlock()
	if ptmx == nil {
		return 0, fmt.Errorf("shell %q not running", s.command)
	}
	return ptmx.Write(p)
}

// Resize records the pane size and informs the pty.
func (s *Shell) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols, s.rows = cols, rows
	if s.ptmx != nil {
		if err := pty.Setsize(s.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
			log.Printf("Shell: setsize %q: %v", s.command, err)
		}
	}
}

func (s *Shell) Snapshot() (string, map[string]any) {
	return "shell", map[string]any{"command": s.command}
}
