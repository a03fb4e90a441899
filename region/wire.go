// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

import (
	"image"
	"math"

	"github.com/BurntSushi/xgb/xproto"
)

// VerifyRectOrder checks that rects really are in the claimed clip
// ordering. An ordering outside the four protocol values never verifies.
func VerifyRectOrder(rects []xproto.Rectangle, ordering byte) bool {
	switch ordering {
	case xproto.ClipOrderingUnsorted:
		return true
	case xproto.ClipOrderingYSorted:
		for i := 1; i < len(rects); i++ {
			if rects[i].Y < rects[i-1].Y {
				return false
			}
		}
		return true
	case xproto.ClipOrderingYXSorted:
		for i := 1; i < len(rects); i++ {
			p, n := rects[i-1], rects[i]
			if n.Y < p.Y || (n.Y == p.Y && n.X < p.X) {
				return false
			}
		}
		return true
	case xproto.ClipOrderingYXBanded:
		for i := 1; i < len(rects); i++ {
			p, n := rects[i-1], rects[i]
			if n.Y != p.Y && int(n.Y) < int(p.Y)+int(p.Height) {
				return false
			}
			if n.Y == p.Y && (n.Height != p.Height || int(n.X) < int(p.X)+int(p.Width)) {
				return false
			}
		}
		return true
	}
	return false
}

// FromRects returns the union of protocol rectangles.
func FromRects(rects []xproto.Rectangle) *Region {
	boxes := make([]image.Rectangle, len(rects))
	for i, r := range rects {
		boxes[i] = image.Rectangle{
			Min: image.Point{X: int(r.X), Y: int(r.Y)},
			Max: image.Point{X: int(r.X) + int(r.Width), Y: int(r.Y) + int(r.Height)},
		}
	}
	return New(boxes...)
}

// Rectangles encodes r as protocol rectangles in YX-banded order.
// Coordinates beyond the protocol's 16-bit range are clamped.
func (r *Region) Rectangles() []xproto.Rectangle {
	rects := r.Rects()
	out := make([]xproto.Rectangle, len(rects))
	for i, b := range rects {
		out[i] = Rectangle(b)
	}
	return out
}

// Rectangle encodes a box as a protocol rectangle.
func Rectangle(b image.Rectangle) xproto.Rectangle {
	return xproto.Rectangle{
		X:      clamp16(b.Min.X),
		Y:      clamp16(b.Min.Y),
		Width:  clampU16(b.Dx()),
		Height: clampU16(b.Dy()),
	}
}

// FromBitmap converts a depth 1 image to the region of its set bits.
// Rows are stride bytes long; the first pixel of a byte is its least
// significant bit.
func FromBitmap(width, height, stride int, bits []byte) *Region {
	r := &Region{}
	if width > stride*8 {
		width = stride * 8
	}
	for y := 0; y < height; y++ {
		if (y+1)*stride > len(bits) {
			break
		}
		row := bits[y*stride : (y+1)*stride]
		var spans []span
		start := -1
		for x := 0; x < width; x++ {
			set := row[x/8]&(1<<uint(x%8)) != 0
			switch {
			case set && start < 0:
				start = x
			case !set && start >= 0:
				spans = append(spans, span{start, x})
				start = -1
			}
		}
		if start >= 0 {
			spans = append(spans, span{start, width})
		}
		r.appendBand(y, y+1, spans)
	}
	return r
}

func clamp16(v int) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

func clampU16(v int) uint16 {
	switch {
	case v > math.MaxUint16:
		return math.MaxUint16
	case v < 0:
		return 0
	}
	return uint16(v)
}
