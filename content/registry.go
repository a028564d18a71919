// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: content/registry.go
// Summary: Content type registry backing the engine's factory: descriptors
// name a registered builder plus opaque state.

package content

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gridmux/gridmux/grid"
)

// Builder constructs one content instance from its serialized state.
type Builder func(state map[string]any, leafID uuid.UUID) (grid.Content, error)

// Registry maps content type names to builders. It implements
// grid.Factory.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds or replaces the builder for a type name.
func (r *Registry) Register(name string, b Builder) {
	r.mu.Lock()
	r.builders[name] = b
	r.mu.Unlock()
}

// Types lists registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for name := range r.builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Create builds content for a descriptor. Unknown types fail so a stored
// layout referencing a type this build does not carry is rejected up
// front instead of producing a dead pane.
func (r *Registry) Create(desc grid.ContentDescriptor, leafID uuid.UUID) (grid.Content, error) {
	r.mu.RLock()
	b, ok := r.builders[desc.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown content type %q", desc.Type)
	}
	return b(desc.State, leafID)
}

// Default returns a registry with the built-in content types.
func Default(shell string) *Registry {
	r := NewRegistry()
	r.Register("blank", func(state map[string]any, _ uuid.UUID) (grid.Content, error) {
		return NewBlank(stringState(state, "message")), nil
	})
	r.Register("shell", func(state map[string]any, _ uuid.UUID) (grid.Content, error) {
		cmd := stringState(state, "command")
		if cmd == "" {
			cmd = shell
		}
		return NewShell(cmd), nil
	})
	r.Register("viewer", func(state map[string]any, _ uuid.UUID) (grid.Content, error) {
		path := stringState(state, "path")
		if path == "" {
			return nil, fmt.Errorf("viewer content needs a path")
		}
		return NewViewer(path, stringState(state, "style")), nil
	})
	return r
}

func stringState(state map[string]any, key string) string {
	if state == nil {
		return ""
	}
	s, _ := state[key].(string)
	return s
}
