// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/termhost/renderer.go
// Summary: Draws the pane grid: borders, title bars, per-type content,
// lifecycle overlays, and pane-select ordinal badges.

package termhost

import (
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/gridmux/gridmux/content"
	"github.com/gridmux/gridmux/grid"
)

// cellRect is a pane's bounds in screen cells.
type cellRect struct {
	x, y, w, h int
}

type renderer struct {
	screen ScreenDriver

	borderStyle tcell.Style
	activeStyle tcell.Style
	titleStyle  tcell.Style
	errorStyle  tcell.Style
	badgeStyle  tcell.Style
}

func newRenderer(screen ScreenDriver) *renderer {
	return &renderer{
		screen:      screen,
		borderStyle: tcell.StyleDefault.Foreground(tcell.ColorGray),
		activeStyle: tcell.StyleDefault.Foreground(tcell.ColorGreen),
		titleStyle:  tcell.StyleDefault.Bold(true),
		errorStyle:  tcell.StyleDefault.Foreground(tcell.ColorRed),
		badgeStyle:  tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow).Bold(true),
	}
}

// render draws the whole workspace. tails hold live shell output per
// leaf; labels are the pane-select ordinals, nil outside the mode.
func (r *renderer) render(ws *grid.Workspace, tails map[uuid.UUID]*shellTail, labels map[uuid.UUID]rune) {
	r.screen.Clear()
	width, height := r.screen.Size()
	if width < 2 || height < 2 {
		r.screen.Show()
		return
	}

	bounds := ws.Tree().Bounds()
	activeID, _ := ws.ActiveLeafID()

	ws.Tree().ForEachLeaf(func(leaf *grid.Node) {
		nb := bounds[leaf.ID]
		cr := cellRect{
			x: int(nb.X1 * float64(width)),
			y: int(nb.Y1 * float64(height)),
			w: int(nb.X2*float64(width)) - int(nb.X1*float64(width)),
			h: int(nb.Y2*float64(height)) - int(nb.Y1*float64(height)),
		}
		if cr.w < 2 || cr.h < 2 {
			return
		}
		style := r.borderStyle
		if leaf.ID == activeID {
			style = r.activeStyle
		}
		r.drawBorder(cr, style)
		r.drawTitle(cr, leaf.Handle)
		r.drawBody(cr, leaf, tails[leaf.ID])
		if labels != nil {
			if label, ok := labels[leaf.ID]; ok {
				r.drawBadge(cr, label)
			}
		}
	})
	r.screen.Show()
}

func (r *renderer) drawBorder(cr cellRect, style tcell.Style) {
	x2, y2 := cr.x+cr.w-1, cr.y+cr.h-1
	for x := cr.x + 1; x < x2; x++ {
		r.screen.SetContent(x, cr.y, tcell.RuneHLine, nil, style)
		r.screen.SetContent(x, y2, tcell.RuneHLine, nil, style)
	}
	for y := cr.y + 1; y < y2; y++ {
		r.screen.SetContent(cr.x, y, tcell.RuneVLine, nil, style)
		r.screen.SetContent(x2, y, tcell.RuneVLine, nil, style)
	}
	r.screen.SetContent(cr.x, cr.y, tcell.RuneULCorner, nil, style)
	r.screen.SetContent(x2, cr.y, tcell.RuneURCorner, nil, style)
	r.screen.SetContent(cr.x, y2, tcell.RuneLLCorner, nil, style)
	r.screen.SetContent(x2, y2, tcell.RuneLRCorner, nil, style)
}

func (r *renderer) drawTitle(cr cellRect, h *grid.Handle) {
	title := " " + h.Content().Title() + " "
	if h.State() != grid.StateReady {
		title = " " + h.Content().Title() + " [" + h.State().String() + "] "
	}
	maxw := cr.w - 4
	if maxw < 1 {
		return
	}
	title = runewidth.Truncate(title, maxw, "… ")
	x := cr.x + 2
	for _, ch := range title {
		r.screen.SetContent(x, cr.y, ch, nil, r.titleStyle)
		x += runewidth.RuneWidth(ch)
	}
}

func (r *renderer) drawBody(cr cellRect, leaf *grid.Node, tail *shellTail) {
	inner := cellRect{x: cr.x + 1, y: cr.y + 1, w: cr.w - 2, h: cr.h - 2}
	if inner.w < 1 || inner.h < 1 {
		return
	}

	switch leaf.Handle.State() {
	case grid.StateCreated, grid.StateInitializing:
		r.drawCentered(inner, "loading…", tcell.StyleDefault.Dim(true))
		return
	case grid.StateError:
		msg := "content failed"
		if err := leaf.Handle.Err(); err != nil {
			msg = err.Error()
		}
		r.drawCentered(inner, runewidth.Truncate(msg, inner.w, "…"), r.errorStyle)
		r.drawCentered(cellRect{inner.x, inner.y + 1, inner.w, inner.h}, "press prefix+r to retry", tcell.StyleDefault.Dim(true))
		return
	case grid.StateDestroying, grid.StateDestroyed:
		return
	}

	switch c := leaf.Handle.Content().(type) {
	case *content.Blank:
		msg := c.Message()
		if msg == "" {
			msg = "empty pane"
		}
		r.drawCentered(inner, msg, tcell.StyleDefault.Dim(true))
	case *content.Viewer:
		r.drawViewer(inner, c)
	case *content.Shell:
		if tail != nil {
			r.drawLines(inner, tail.Lines(inner.h), tcell.StyleDefault)
		}
	default:
		r.drawCentered(inner, leaf.Handle.Content().Title(), tcell.StyleDefault)
	}
}

func (r *renderer) drawViewer(inner cellRect, v *content.Viewer) {
	lines := v.Lines()
	for row := 0; row < inner.h && row < len(lines); row++ {
		x := inner.x
		for _, seg := range lines[row].Segments {
			style := tcell.StyleDefault
			if seg.HasColor {
				style = style.Foreground(tcell.NewRGBColor(int32(seg.R), int32(seg.G), int32(seg.B)))
			}
			style = style.Bold(seg.Bold).Italic(seg.Italic).Underline(seg.Underline)
			for _, ch := range seg.Text {
				w := runewidth.RuneWidth(ch)
				if x+w > inner.x+inner.w {
					break
				}
				if ch == '\t' {
					ch, w = ' ', 1
				}
				r.screen.SetContent(x, inner.y+row, ch, nil, style)
				x += w
			}
		}
	}
}

func (r *renderer) drawLines(inner cellRect, lines []string, style tcell.Style) {
	for row := 0; row < inner.h && row < len(lines); row++ {
		x := inner.x
		for _, ch := range lines[row] {
			w := runewidth.RuneWidth(ch)
			if w == 0 || x+w > inner.x+inner.w {
				continue
			}
			r.screen.SetContent(x, inner.y+row, ch, nil, style)
			x += w
		}
	}
}

func (r *renderer) drawCentered(inner cellRect, text string, style tcell.Style) {
	tw := runewidth.StringWidth(text)
	x := inner.x + (inner.w-tw)/2
	if x < inner.x {
		x = inner.x
	}
	y := inner.y + inner.h/2
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if x+w > inner.x+inner.w {
			break
		}
		r.screen.SetContent(x, y, ch, nil, style)
		x += w
	}
}

func (r *renderer) drawBadge(cr cellRect, label rune) {
	if cr.w < 5 || cr.h < 3 {
		return
	}
	y := cr.y + 1
	x := cr.x + 2
	for i, ch := range []rune{' ', label, ' '} {
		r.screen.SetContent(x+i, y, ch, nil, r.badgeStyle)
	}
}
