// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/navigate.go
// Summary: Normalized leaf bounds and directional navigation between panes.

package grid

import (
	"math"

	"github.com/google/uuid"
)

// Rect holds normalized bounds in [0,1]².
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Width of the rect.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height of the rect.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Contains reports whether the normalized point lies inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X1 && x < r.X2 && y >= r.Y1 && y < r.Y2
}

func (r Rect) centerX() float64 { return (r.X1 + r.X2) / 2 }
func (r Rect) centerY() float64 { return (r.Y1 + r.Y2) / 2 }

// Bounds computes normalized bounds for every leaf by walking from the
// root and partitioning the relevant axis at each split's ratio.
// Horizontal splits partition X, vertical splits partition Y.
func (t *Tree) Bounds() map[uuid.UUID]Rect {
	out := make(map[uuid.UUID]Rect)
	if t.root == nil {
		return out
	}
	var walk func(n *Node, r Rect)
	walk = func(n *Node, r Rect) {
		if n.IsLeaf() {
			out[n.ID] = r
			return
		}
		if n.Orient == Horizontal {
			mid := r.X1 + r.Width()*n.Ratio
			walk(n.First, Rect{r.X1, r.Y1, mid, r.Y2})
			walk(n.Second, Rect{mid, r.Y1, r.X2, r.Y2})
		} else {
			mid := r.Y1 + r.Height()*n.Ratio
			walk(n.First, Rect{r.X1, r.Y1, r.X2, mid})
			walk(n.Second, Rect{r.X1, mid, r.X2, r.Y2})
		}
	}
	walk(t.root, Rect{0, 0, 1, 1})
	return out
}

// LeafAt returns the leaf whose normalized bounds contain the point.
func (t *Tree) LeafAt(x, y float64) (*Node, bool) {
	for id, r := range t.Bounds() {
		if r.Contains(x, y) {
			if n, ok := t.Leaf(id); ok {
				return n, true
			}
		}
	}
	return nil, false
}

func axisOf(d Direction) Orientation {
	if d == DirLeft || d == DirRight {
		return Horizontal
	}
	return Vertical
}

// navigate resolves the neighbor of from in the given direction. It walks
// upward to the nearest ancestor split whose orientation serves the axis
// and on whose opposite side the source sits, then picks the sibling leaf
// with the greatest perpendicular overlap against the source bounds.
// Returns nil when no such ancestor exists (edge of the layout).
func (t *Tree) navigate(from *Node, d Direction) *Node {
	bounds := t.Bounds()
	src, ok := bounds[from.ID]
	if !ok {
		return nil
	}

	axis := axisOf(d)
	forward := d == DirRight || d == DirDown

	var sibling *Node
	for cur := from; cur.Parent != nil; cur = cur.Parent {
		p := cur.Parent
		if p.Orient != axis {
			continue
		}
		if forward && cur == p.First {
			sibling = p.Second
			break
		}
		if !forward && cur == p.Second {
			sibling = p.First
			break
		}
	}
	if sibling == nil {
		return nil
	}

	var candidates []*Node
	var collect func(*Node)
	collect = func(n *Node) {
		if n.IsLeaf() {
			candidates = append(candidates, n)
			return
		}
		collect(n.First)
		collect(n.Second)
	}
	collect(sibling)

	best := pickCandidate(candidates, bounds, src, d)
	return best
}

// pickCandidate scores candidates by perpendicular-axis overlap with src,
// breaking ties by nearest center distance and finally by the
// direction-consistent edge (left prefers the rightmost of the tied
// candidates, and so on).
func pickCandidate(candidates []*Node, bounds map[uuid.UUID]Rect, src Rect, d Direction) *Node {
	var best *Node
	var bestRect Rect
	bestOverlap := math.Inf(-1)
	bestDist := math.Inf(1)

	for _, c := range candidates {
		r, ok := bounds[c.ID]
		if !ok {
			continue
		}
		var overlap float64
		if axisOf(d) == Horizontal {
			overlap = spanOverlap(src.Y1, src.Y2, r.Y1, r.Y2)
		} else {
			overlap = spanOverlap(src.X1, src.X2, r.X1, r.X2)
		}
		dist := math.Hypot(r.centerX()-src.centerX(), r.centerY()-src.centerY())

		switch {
		case overlap > bestOverlap+1e-9:
			// Strictly better overlap.
		case overlap > bestOverlap-1e-9 && dist < bestDist-1e-9:
			// Equal overlap, nearer center.
		case overlap > bestOverlap-1e-9 && dist > bestDist-1e-9 && dist < bestDist+1e-9 && best != nil:
			if !edgeBeats(r, bestRect, d) {
				continue
			}
		default:
			continue
		}
		best, bestRect, bestOverlap, bestDist = c, r, overlap, dist
	}
	return best
}

// edgeBeats resolves exact ties: the candidate nearest the source along
// the travel direction wins.
func edgeBeats(r, cur Rect, d Direction) bool {
	switch d {
	case DirLeft:
		return r.X2 > cur.X2
	case DirRight:
		return r.X1 < cur.X1
	case DirUp:
		return r.Y2 > cur.Y2
	default:
		return r.Y1 < cur.Y1
	}
}

func spanOverlap(a1, a2, b1, b2 float64) float64 {
	lo := math.Max(a1, b1)
	hi := math.Min(a2, b2)
	if hi < lo {
		return 0
	}
	return hi - lo
}
