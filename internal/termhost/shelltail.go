// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/termhost/shelltail.go
// Summary: Plain-text tail of a shell's pty output. Escape sequences are
// stripped, not interpreted; the host renders the last screenful of text.

package termhost

import (
	"regexp"
	"strings"
	"sync"
)

const tailCapacity = 500

// ansiPattern matches CSI/OSC escape sequences and stray control bytes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\x07]*(\x07|\x1b\\)|\x1b.|[\x00-\x08\x0b\x0c\x0e-\x1f]`)

// shellTail accumulates pty output as plain lines with a bounded history.
type shellTail struct {
	mu      sync.Mutex
	lines   []string
	partial string
}

func newShellTail() *shellTail {
	return &shellTail{}
}

// Append consumes one pty read. Called from the shell's reader goroutine.
func (t *shellTail) Append(p []byte) {
	clean := ansiPattern.ReplaceAllString(string(p), "")
	clean = strings.ReplaceAll(clean, "\r\n", "\n")
	clean = strings.ReplaceAll(clean, "\r", "\n")

	t.mu.Lock()
	defer t.mu.Unlock()
	parts := strings.Split(t.partial+clean, "\n")
	t.partial = parts[len(parts)-1]
	t.lines = append(t.lines, parts[:len(parts)-1]...)
	if over := len(t.lines) - tailCapacity; over > 0 {
		t.lines = t.lines[over:]
	}
}

// Lines returns the last n lines plus any unterminated partial line.
func (t *shellTail) Lines(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := t.lines
	if t.partial != "" {
		all = append(append([]string{}, t.lines...), t.partial)
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]string, len(all))
	copy(out, all)
	return out
}
