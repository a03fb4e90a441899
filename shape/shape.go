// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shape implements the SHAPE extension, version 1.1: non
// rectangular bounding, clip and input areas for windows, and the
// ShapeNotify events reporting changes to them.
package shape

import (
	"image"

	xshape "github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/panoramix"
	"github.com/stefan11111/xserver/region"
	"github.com/stefan11111/xserver/resource"
)

const (
	ExtName = "SHAPE"

	MajorVersion = 1
	MinorVersion = 1
)

// Request opcodes.
const (
	QueryVersion  = 0
	Rectangles    = 1
	Mask          = 2
	Combine       = 3
	Offset        = 4
	QueryExtents  = 5
	SelectInput   = 6
	InputSelected = 7
	GetRectangles = 8
)

var logger = xserver.NewLogger("shape")

// state is what the extension keeps per window: a region for each kind,
// nil when the window is not shaped that way, and the clients that asked
// for ShapeNotify, most recent first.
type state struct {
	bounding *region.Region
	clip     *region.Region
	input    *region.Region

	subscribers []*xserver.Client
}

func (st *state) slot(kind byte) **region.Region {
	switch kind {
	case xshape.SkBounding:
		return &st.bounding
	case xshape.SkClip:
		return &st.clip
	case xshape.SkInput:
		return &st.input
	}
	return nil
}

// Shape is the extension instance of one server.
type Shape struct {
	// MaxSubscribers caps the ShapeNotify selections per window. Zero
	// means no cap.
	MaxSubscribers int

	srv *xserver.Server
	ext *xserver.Extension
	res *resource.Table
	pan *panoramix.Panoramix

	states map[xproto.Window]*state
}

// Register adds the extension to srv. Window ids are resolved in res;
// pan may be nil when the server runs without Xinerama.
func Register(srv *xserver.Server, res *resource.Table, pan *panoramix.Panoramix) (*Shape, error) {
	ext, err := srv.AddExtension(ExtName, 1, 0)
	if err != nil {
		return nil, errors.Wrap(err, "shape")
	}
	s := &Shape{
		srv:    srv,
		ext:    ext,
		res:    res,
		pan:    pan,
		states: make(map[xproto.Window]*state),
	}

	procs := []struct {
		op      byte
		direct  xserver.Proc
		swapped xserver.Proc
	}{
		{QueryVersion, s.procQueryVersion, s.procQueryVersion},
		{Rectangles, s.procRectangles, s.sProcRectangles},
		{Mask, s.procMask, s.sProcMask},
		{Combine, s.procCombine, s.sProcCombine},
		{Offset, s.procOffset, s.sProcOffset},
		{QueryExtents, s.procQueryExtents, s.sProcQueryExtents},
		{SelectInput, s.procSelectInput, s.sProcSelectInput},
		{InputSelected, s.procInputSelected, s.sProcInputSelected},
		{GetRectangles, s.procGetRectangles, s.sProcGetRectangles},
	}
	for _, p := range procs {
		ext.Procs.Set(p.op, p.direct)
		ext.SwappedProcs.Set(p.op, p.swapped)
	}

	srv.SetEventSwap(ext.Event(xshape.Notify), swapNotify)
	srv.AddClientHook(s)
	res.AddWindowHook(s)
	return s, nil
}

// Extension returns the registered extension.
func (s *Shape) Extension() *xserver.Extension { return s.ext }

// Region returns the window's region of the given kind, nil when the
// window is not shaped that way. The region belongs to the extension.
func (s *Shape) Region(w xproto.Window, kind byte) *region.Region {
	st := s.states[w]
	if st == nil {
		return nil
	}
	if p := st.slot(kind); p != nil {
		return *p
	}
	return nil
}

func (s *Shape) state(w *resource.Window) *state {
	st := s.states[w.ID]
	if st == nil {
		st = &state{}
		s.states[w.ID] = st
	}
	return st
}

func validKind(kind byte) bool {
	return kind == xshape.SkBounding || kind == xshape.SkClip || kind == xshape.SkInput
}

// defaultBox is the area of an unshaped window: the border box for
// bounding and input, the inside for clip.
func defaultBox(w *resource.Window, kind byte) image.Rectangle {
	if kind == xshape.SkClip {
		return image.Rectangle{Max: image.Point{X: w.Width, Y: w.Height}}
	}
	bw := w.BorderWidth
	return image.Rectangle{
		Min: image.Point{X: -bw, Y: -bw},
		Max: image.Point{X: w.Width + bw, Y: w.Height + bw},
	}
}

// extents returns the bounding box of the window's shape of the given
// kind and whether there is one.
func (s *Shape) extents(w *resource.Window, kind byte) (image.Rectangle, bool) {
	if r := s.Region(w.ID, kind); r != nil {
		return r.Extents(), true
	}
	return defaultBox(w, kind), false
}
