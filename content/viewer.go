// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: content/viewer.go
// Summary: Read-only file viewer with syntax highlighting. Language comes
// from go-enry, tokens from Chroma; highlighted lines are rebuilt on
// resume so a suspended viewer holds no token data.

package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"
	"github.com/mattn/go-runewidth"
)

const defaultViewerStyle = "catppuccin-mocha"

// Segment is one styled run of text within a line.
type Segment struct {
	Text      string
	R, G, B   uint8
	HasColor  bool
	Bold      bool
	Italic    bool
	Underline bool
}

// Line is a highlighted source line plus its display width in cells.
type Line struct {
	Segments []Segment
	Width    int
}

// Viewer renders a file read-only. Highlighting happens in Init, off the
// event loop, so large files never stall the UI.
type Viewer struct {
	path  string
	style string

	mu       sync.Mutex
	language string
	lines    []Line
	raw      []byte
}

// NewViewer creates viewer content for a file path.
func NewViewer(path, style string) *Viewer {
	if style == "" {
		style = defaultViewerStyle
	}
	return &Viewer{path: path, style: style}
}

func (v *Viewer) Init() error {
	data, err := os.ReadFile(v.path)
	if err != nil {
		return fmt.Errorf("read %s: %v", v.path, err)
	}
	lang := enry.GetLanguage(filepath.Base(v.path), data)
	lines, err := highlight(string(data), lang, v.style)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.raw = data
	v.language = lang
	v.lines = lines
	v.mu.Unlock()
	return nil
}

func (v *Viewer) Close() error {
	v.mu.Lock()
	v.lines = nil
	v.raw = nil
	v.mu.Unlock()
	return nil
}

// CanSuspend is true: a hidden viewer drops its token data and rebuilds
// it from the kept raw bytes on resume.
func (v *Viewer) CanSuspend() bool { return true }

func (v *Viewer) Suspend() error {
	v.mu.Lock()
	v.lines = nil
	v.mu.Unlock()
	return nil
}

func (v *Viewer) Resume() error {
	v.mu.Lock()
	raw, lang := v.raw, v.language
	v.mu.Unlock()
	lines, err := highlight(string(raw), lang, v.style)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.lines = lines
	v.mu.Unlock()
	return nil
}

func (v *Viewer) Title() string {
	base := filepath.Base(v.path)
	v.mu.Lock()
	lang := v.language
	v.mu.Unlock()
	if lang == "" {
		return base
	}
	return base + " (" + lang + ")"
}

// Language returns the detected language name, if any.
func (v *Viewer) Language() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.language
}

// Lines returns the highlighted lines. Empty while suspended.
func (v *Viewer) Lines() []Line {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lines
}

func (v *Viewer) Snapshot() (string, map[string]any) {
	state := map[string]any{"path": v.path}
	if v.style != defaultViewerStyle {
		state["style"] = v.style
	}
	return "viewer", state
}

// highlight tokenizes the whole file in one pass so the lexer sees full
// context, then splits tokens back into lines.
func highlight(text, language, styleName string) ([]Line, error) {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	lexer := viewerLexer(language, text)
	lexer = chroma.Coalesce(lexer)

	tokens, err := chroma.Tokenise(lexer, nil, text)
	if err != nil {
		return nil, fmt.Errorf("tokenize %s: %v", language, err)
	}
	base := style.Get(chroma.Text).Colour

	var lines []Line
	cur := Line{}
	flush := func() {
		lines = append(lines, cur)
		cur = Line{}
	}
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		entry := style.Get(tok.Type)
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				flush()
			}
			if part == "" {
				continue
			}
			seg := Segment{
				Text:      part,
				Bold:      entry.Bold == chroma.Yes,
				Italic:    entry.Italic == chroma.Yes,
				Underline: entry.Underline == chroma.Yes,
			}
			// Base-colored tokens keep the pane's default foreground.
			if entry.Colour.IsSet() && entry.Colour != base {
				seg.HasColor = true
				seg.R = entry.Colour.Red()
				seg.G = entry.Colour.Green()
				seg.B = entry.Colour.Blue()
			}
			cur.Segments = append(cur.Segments, seg)
			cur.Width += runewidth.StringWidth(part)
		}
	}
	if len(cur.Segments) > 0 {
		flush()
	}
	return lines, nil
}

// viewerLexer resolves a lexer from the enry language name, falling back
// to Chroma's own content analysis.
func viewerLexer(language, text string) chroma.Lexer {
	if language != "" {
		if l := lexers.Get(strings.ToLower(language)); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(text); l != nil {
		return l
	}
	return lexers.Fallback
}
