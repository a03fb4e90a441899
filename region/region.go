// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package region implements sets of pixels as YX-banded lists of
// rectangles, the representation window shapes are kept and answered in.
//
// A region is split into horizontal bands. Inside a band every rectangle
// has the same top and bottom, rectangles are sorted by x and never touch,
// and two vertically adjacent bands never have identical x spans (they
// would have been merged). Rectangles are half-open: the box
// image.Rect(0, 0, 2, 2) covers four pixels.
package region

import (
	"image"
	"sort"
)

type span struct {
	x1, x2 int
}

type band struct {
	y1, y2 int
	spans  []span
}

// Region is a set of pixels. The zero value is the empty region.
type Region struct {
	bands []band
}

// sweepMax is the most boxes New sweeps at once. Larger sets are split
// in halves and the halves joined with Union, which keeps the cost near
// n log n whatever the boxes look like.
const sweepMax = 32

// New returns the union of boxes. Empty boxes are ignored.
func New(boxes ...image.Rectangle) *Region {
	if len(boxes) <= sweepMax {
		return sweep(boxes)
	}
	mid := len(boxes) / 2
	r := New(boxes[:mid]...)
	r.Union(New(boxes[mid:]...))
	return r
}

// sweep builds the union of boxes top to bottom: each band between two
// consecutive box edges is made of the boxes open across it, kept sorted
// by left edge.
func sweep(boxes []image.Rectangle) *Region {
	live := make([]image.Rectangle, 0, len(boxes))
	ys := make([]int, 0, 2*len(boxes))
	for _, b := range boxes {
		if b.Empty() {
			continue
		}
		live = append(live, b)
		ys = append(ys, b.Min.Y, b.Max.Y)
	}
	ys = uniqueSorted(ys)
	sort.Slice(live, func(i, j int) bool { return live[i].Min.Y < live[j].Min.Y })

	r := &Region{}
	var open []edge
	next := 0
	for i := 0; i+1 < len(ys); i++ {
		y1, y2 := ys[i], ys[i+1]
		kept := open[:0]
		for _, e := range open {
			if e.y2 > y1 {
				kept = append(kept, e)
			}
		}
		open = kept
		for ; next < len(live) && live[next].Min.Y <= y1; next++ {
			b := live[next]
			e := edge{span{b.Min.X, b.Max.X}, b.Max.Y}
			j := sort.Search(len(open), func(k int) bool { return open[k].x1 > e.x1 })
			open = append(open, edge{})
			copy(open[j+1:], open[j:])
			open[j] = e
		}
		r.appendBand(y1, y2, joinSpans(open))
	}
	return r
}

// edge is a box open across the band being built.
type edge struct {
	span
	y2 int
}

// Empty returns a region with no pixels.
func Empty() *Region {
	return &Region{}
}

// Copy returns an independent copy of r.
func (r *Region) Copy() *Region {
	c := &Region{bands: make([]band, len(r.bands))}
	for i, b := range r.bands {
		c.bands[i] = band{b.y1, b.y2, append([]span(nil), b.spans...)}
	}
	return c
}

// IsEmpty reports whether r has no pixels.
func (r *Region) IsEmpty() bool {
	return len(r.bands) == 0
}

// NumRects is the number of rectangles in the banded representation.
func (r *Region) NumRects() int {
	n := 0
	for _, b := range r.bands {
		n += len(b.spans)
	}
	return n
}

// Rects returns the rectangles of r in YX-banded order.
func (r *Region) Rects() []image.Rectangle {
	rects := make([]image.Rectangle, 0, r.NumRects())
	for _, b := range r.bands {
		for _, s := range b.spans {
			rects = append(rects, image.Rectangle{
				Min: image.Point{X: s.x1, Y: b.y1},
				Max: image.Point{X: s.x2, Y: b.y2},
			})
		}
	}
	return rects
}

// Extents is the smallest rectangle containing r, the zero rectangle
// when r is empty.
func (r *Region) Extents() image.Rectangle {
	if r.IsEmpty() {
		return image.Rectangle{}
	}
	ext := image.Rectangle{
		Min: image.Point{X: r.bands[0].spans[0].x1, Y: r.bands[0].y1},
		Max: image.Point{X: r.bands[0].spans[0].x2, Y: r.bands[len(r.bands)-1].y2},
	}
	for _, b := range r.bands {
		if x := b.spans[0].x1; x < ext.Min.X {
			ext.Min.X = x
		}
		if x := b.spans[len(b.spans)-1].x2; x > ext.Max.X {
			ext.Max.X = x
		}
	}
	return ext
}

// Contains reports whether the pixel at p is in r.
func (r *Region) Contains(p image.Point) bool {
	spans := spansAt(r.bands, p.Y)
	i := sort.Search(len(spans), func(i int) bool { return spans[i].x2 > p.X })
	return i < len(spans) && spans[i].x1 <= p.X
}

// Equal reports whether r and s cover the same pixels.
func (r *Region) Equal(s *Region) bool {
	if len(r.bands) != len(s.bands) {
		return false
	}
	for i := range r.bands {
		a, b := r.bands[i], s.bands[i]
		if a.y1 != b.y1 || a.y2 != b.y2 || !equalSpans(a.spans, b.spans) {
			return false
		}
	}
	return true
}

// Translate moves r by (dx, dy).
func (r *Region) Translate(dx, dy int) {
	for i := range r.bands {
		b := &r.bands[i]
		b.y1 += dy
		b.y2 += dy
		for j := range b.spans {
			b.spans[j].x1 += dx
			b.spans[j].x2 += dx
		}
	}
}

// Union sets r to r ∪ s.
func (r *Region) Union(s *Region) {
	r.bands = combine(r, s, func(a, b bool) bool { return a || b })
}

// Intersect sets r to r ∩ s.
func (r *Region) Intersect(s *Region) {
	r.bands = combine(r, s, func(a, b bool) bool { return a && b })
}

// Subtract sets r to r − s.
func (r *Region) Subtract(s *Region) {
	r.bands = combine(r, s, func(a, b bool) bool { return a && !b })
}

// appendBand adds a band below the last one, merging it into the last
// band when they touch and have the same spans.
func (r *Region) appendBand(y1, y2 int, spans []span) {
	if len(spans) == 0 || y1 >= y2 {
		return
	}
	if n := len(r.bands); n > 0 {
		last := &r.bands[n-1]
		if last.y2 == y1 && equalSpans(last.spans, spans) {
			last.y2 = y2
			return
		}
	}
	r.bands = append(r.bands, band{y1, y2, spans})
}

// combine sweeps both regions top to bottom and keeps every piece for
// which op holds.
func combine(r, s *Region, op func(inR, inS bool) bool) []band {
	var ys []int
	for _, b := range r.bands {
		ys = append(ys, b.y1, b.y2)
	}
	for _, b := range s.bands {
		ys = append(ys, b.y1, b.y2)
	}
	ys = uniqueSorted(ys)

	out := &Region{}
	for i := 0; i+1 < len(ys); i++ {
		y1, y2 := ys[i], ys[i+1]
		spans := combineSpans(spansAt(r.bands, y1), spansAt(s.bands, y1), op)
		out.appendBand(y1, y2, spans)
	}
	return out.bands
}

func combineSpans(a, b []span, op func(inA, inB bool) bool) []span {
	var xs []int
	for _, s := range a {
		xs = append(xs, s.x1, s.x2)
	}
	for _, s := range b {
		xs = append(xs, s.x1, s.x2)
	}
	xs = uniqueSorted(xs)

	var out []span
	ia, ib := 0, 0
	for i := 0; i+1 < len(xs); i++ {
		x1, x2 := xs[i], xs[i+1]
		for ia < len(a) && a[ia].x2 <= x1 {
			ia++
		}
		for ib < len(b) && b[ib].x2 <= x1 {
			ib++
		}
		inA := ia < len(a) && a[ia].x1 <= x1
		inB := ib < len(b) && b[ib].x1 <= x1
		if !op(inA, inB) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].x2 == x1 {
			out[n-1].x2 = x2
		} else {
			out = append(out, span{x1, x2})
		}
	}
	return out
}

// spansAt returns the spans of the band covering row y.
func spansAt(bands []band, y int) []span {
	i := sort.Search(len(bands), func(i int) bool { return bands[i].y2 > y })
	if i < len(bands) && bands[i].y1 <= y {
		return bands[i].spans
	}
	return nil
}

// joinSpans joins the overlapping or touching spans of edges sorted by
// left edge.
func joinSpans(edges []edge) []span {
	var out []span
	for _, e := range edges {
		if n := len(out); n > 0 && e.x1 <= out[n-1].x2 {
			if e.x2 > out[n-1].x2 {
				out[n-1].x2 = e.x2
			}
			continue
		}
		out = append(out, e.span)
	}
	return out
}

func equalSpans(a, b []span) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uniqueSorted(vs []int) []int {
	if len(vs) == 0 {
		return nil
	}
	sort.Ints(vs)
	out := vs[:1]
	for _, v := range vs[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
