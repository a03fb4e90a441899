// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shape

import (
	xshape "github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/panoramix"
	"github.com/stefan11111/xserver/region"
	"github.com/stefan11111/xserver/resource"
)

// Fixed request sizes.
const (
	queryVersionSize  = 4
	rectanglesSize    = 16
	maskSize          = 20
	combineSize       = 20
	offsetSize        = 16
	queryExtentsSize  = 8
	selectInputSize   = 12
	inputSelectedSize = 8
	getRectanglesSize = 12

	rectangleSize = 8
)

// QueryVersion
//
//	reply: 1 type, 1 unused, 2 sequence, 4 length,
//	2 major version, 2 minor version, 20 unused
func (s *Shape) procQueryVersion(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, queryVersionSize); st != xserver.Success {
		return st
	}
	reply := make([]byte, xserver.GenericReplySize)
	xserver.Put16(reply[8:], MajorVersion)
	xserver.Put16(reply[10:], MinorVersion)
	if c.Swapped {
		xserver.Swap16(reply[8:])
		xserver.Swap16(reply[10:])
	}
	return xserver.SendReplySimple(c, reply)
}

// rectanglesRequest is a decoded Rectangles request. The rectangles are
// decoded only after the other fields checked out.
//
//	1 major, 1 minor, 2 length, 1 op, 1 destination kind, 1 ordering,
//	1 unused, 4 destination window, 2 x offset, 2 y offset, 8n rectangles
type rectanglesRequest struct {
	op, destKind, ordering byte
	dest                   xproto.Window
	xOff, yOff             int16
	rects                  []byte
	// nrects and lengthStatus come from the request length; a bad
	// length is reported after the fields before it.
	nrects                 int
	lengthStatus           xserver.Status
}

func (s *Shape) procRectangles(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, rectanglesSize); st != xserver.Success {
		return st
	}
	b := req.Buf
	r := rectanglesRequest{
		op:       b[4],
		destKind: b[5],
		ordering: b[6],
		dest:     xproto.Window(xserver.Get32(b[8:])),
		xOff:     int16(xserver.Get16(b[12:])),
		yOff:     int16(xserver.Get16(b[14:])),
		rects:    b[rectanglesSize:],
	}
	r.nrects, r.lengthStatus = xserver.ListLength(req, rectanglesSize, rectangleSize)
	if !s.pan.Active() {
		return s.rectangles(c, &r)
	}

	win, st := s.pan.LookupWindow(r.dest, c, resource.WriteAccess)
	if st != xserver.Success {
		return st
	}
	return s.pan.ForEachScreenBackward(func(i int) xserver.Status {
		r.dest = xproto.Window(win.Info[i])
		return s.rectangles(c, &r)
	})
}

func (s *Shape) rectangles(c *xserver.Client, r *rectanglesRequest) xserver.Status {
	w, st := s.res.LookupWindow(r.dest, c, resource.SetAttrAccess)
	if st != xserver.Success {
		return st
	}
	if !validKind(r.destKind) {
		c.ErrorValue = uint32(r.destKind)
		return xserver.BadValue
	}
	switch r.ordering {
	case xproto.ClipOrderingUnsorted, xproto.ClipOrderingYSorted,
		xproto.ClipOrderingYXSorted, xproto.ClipOrderingYXBanded:
	default:
		c.ErrorValue = uint32(r.ordering)
		return xserver.BadValue
	}
	if r.lengthStatus != xserver.Success {
		return r.lengthStatus
	}

	rects := make([]xproto.Rectangle, r.nrects)
	for i := range rects {
		b := r.rects[i*rectangleSize:]
		rects[i] = xproto.Rectangle{
			X:      int16(xserver.Get16(b[0:])),
			Y:      int16(xserver.Get16(b[2:])),
			Width:  xserver.Get16(b[4:]),
			Height: xserver.Get16(b[6:]),
		}
	}
	if !region.VerifyRectOrder(rects, r.ordering) {
		return xserver.BadMatch
	}
	return s.operate(c, w, r.destKind, region.FromRects(rects), r.op,
		int(r.xOff), int(r.yOff))
}

// maskRequest is a decoded Mask request.
//
//	1 major, 1 minor, 2 length, 1 op, 1 destination kind, 2 unused,
//	4 destination window, 2 x offset, 2 y offset, 4 source pixmap
type maskRequest struct {
	op, destKind byte
	dest         xproto.Window
	xOff, yOff   int16
	src          xproto.Pixmap
}

func (s *Shape) procMask(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, maskSize); st != xserver.Success {
		return st
	}
	b := req.Buf
	r := maskRequest{
		op:       b[4],
		destKind: b[5],
		dest:     xproto.Window(xserver.Get32(b[8:])),
		xOff:     int16(xserver.Get16(b[12:])),
		yOff:     int16(xserver.Get16(b[14:])),
		src:      xproto.Pixmap(xserver.Get32(b[16:])),
	}
	if !s.pan.Active() {
		return s.mask(c, &r)
	}

	win, st := s.pan.LookupWindow(r.dest, c, resource.WriteAccess)
	if st != xserver.Success {
		return st
	}
	var pmap *panoramix.Res
	if r.src != xproto.PixmapNone {
		if pmap, st = s.pan.LookupPixmap(r.src, c, resource.ReadAccess); st != xserver.Success {
			return st
		}
	}
	return s.pan.ForEachScreenBackward(func(i int) xserver.Status {
		r.dest = xproto.Window(win.Info[i])
		if pmap != nil {
			r.src = xproto.Pixmap(pmap.Info[i])
		}
		return s.mask(c, &r)
	})
}

func (s *Shape) mask(c *xserver.Client, r *maskRequest) xserver.Status {
	w, st := s.res.LookupWindow(r.dest, c, resource.SetAttrAccess)
	if st != xserver.Success {
		return st
	}
	if !validKind(r.destKind) {
		c.ErrorValue = uint32(r.destKind)
		return xserver.BadValue
	}

	var src *region.Region
	if r.src != xproto.PixmapNone {
		p, st := s.res.LookupPixmap(r.src, c, resource.ReadAccess)
		if st != xserver.Success {
			return st
		}
		if p.Screen != w.Screen || p.Depth != 1 {
			return xserver.BadMatch
		}
		src = region.FromBitmap(p.Width, p.Height, p.Stride, p.Data)
	}
	return s.operate(c, w, r.destKind, src, r.op, int(r.xOff), int(r.yOff))
}

// combineRequest is a decoded Combine request.
//
//	1 major, 1 minor, 2 length, 1 op, 1 destination kind, 1 source kind,
//	1 unused, 4 destination window, 2 x offset, 2 y offset, 4 source window
type combineRequest struct {
	op, destKind, srcKind byte
	dest                  xproto.Window
	xOff, yOff            int16
	src                   xproto.Window
}

func (s *Shape) procCombine(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, combineSize); st != xserver.Success {
		return st
	}
	b := req.Buf
	r := combineRequest{
		op:       b[4],
		destKind: b[5],
		srcKind:  b[6],
		dest:     xproto.Window(xserver.Get32(b[8:])),
		xOff:     int16(xserver.Get16(b[12:])),
		yOff:     int16(xserver.Get16(b[14:])),
		src:      xproto.Window(xserver.Get32(b[16:])),
	}
	if !s.pan.Active() {
		return s.combine(c, &r)
	}

	win, st := s.pan.LookupWindow(r.dest, c, resource.WriteAccess)
	if st != xserver.Success {
		return st
	}
	win2, st := s.pan.LookupWindow(r.src, c, resource.ReadAccess)
	if st != xserver.Success {
		return st
	}
	return s.pan.ForEachScreenBackward(func(i int) xserver.Status {
		r.dest = xproto.Window(win.Info[i])
		r.src = xproto.Window(win2.Info[i])
		return s.combine(c, &r)
	})
}

func (s *Shape) combine(c *xserver.Client, r *combineRequest) xserver.Status {
	dest, st := s.res.LookupWindow(r.dest, c, resource.SetAttrAccess)
	if st != xserver.Success {
		return st
	}
	if !validKind(r.destKind) {
		c.ErrorValue = uint32(r.destKind)
		return xserver.BadValue
	}
	srcWin, st := s.res.LookupWindow(r.src, c, resource.GetAttrAccess)
	if st != xserver.Success {
		return st
	}
	if !validKind(r.srcKind) {
		c.ErrorValue = uint32(r.srcKind)
		return xserver.BadValue
	}
	if srcWin.Screen != dest.Screen {
		return xserver.BadMatch
	}

	var src *region.Region
	if rgn := s.Region(srcWin.ID, r.srcKind); rgn != nil {
		src = rgn.Copy()
	} else {
		src = region.New(defaultBox(srcWin, r.srcKind))
	}
	return s.operate(c, dest, r.destKind, src, r.op, int(r.xOff), int(r.yOff))
}

// offsetRequest is a decoded Offset request.
//
//	1 major, 1 minor, 2 length, 1 destination kind, 3 unused,
//	4 destination window, 2 x offset, 2 y offset
type offsetRequest struct {
	destKind   byte
	dest       xproto.Window
	xOff, yOff int16
}

func (s *Shape) procOffset(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, offsetSize); st != xserver.Success {
		return st
	}
	b := req.Buf
	r := offsetRequest{
		destKind: b[4],
		dest:     xproto.Window(xserver.Get32(b[8:])),
		xOff:     int16(xserver.Get16(b[12:])),
		yOff:     int16(xserver.Get16(b[14:])),
	}
	if !s.pan.Active() {
		return s.offset(c, &r)
	}

	win, st := s.pan.LookupWindow(r.dest, c, resource.WriteAccess)
	if st != xserver.Success {
		return st
	}
	return s.pan.ForEachScreenBackward(func(i int) xserver.Status {
		r.dest = xproto.Window(win.Info[i])
		return s.offset(c, &r)
	})
}

func (s *Shape) offset(c *xserver.Client, r *offsetRequest) xserver.Status {
	w, st := s.res.LookupWindow(r.dest, c, resource.SetAttrAccess)
	if st != xserver.Success {
		return st
	}
	if !validKind(r.destKind) {
		c.ErrorValue = uint32(r.destKind)
		return xserver.BadValue
	}
	if rgn := s.Region(w.ID, r.destKind); rgn != nil {
		rgn.Translate(int(r.xOff), int(r.yOff))
		if w.Screen.SetShape == nil {
			logger.Panicf("screen %d has no SetShape hook", w.Screen.Index)
		}
		w.Screen.SetShape(w, r.destKind)
	}
	s.notify(w, r.destKind)
	return xserver.Success
}

// QueryExtents
//
//	request: 1 major, 1 minor, 2 length, 4 window
//	reply: 1 type, 1 unused, 2 sequence, 4 length, 1 bounding shaped,
//	1 clip shaped, 2 unused, 2 x, 2 y, 2 width, 2 height of the bounding
//	extents, the same four for the clip extents, 4 unused
func (s *Shape) procQueryExtents(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, queryExtentsSize); st != xserver.Success {
		return st
	}
	w, st := s.res.LookupWindow(xproto.Window(xserver.Get32(req.Buf[4:])), c, resource.GetAttrAccess)
	if st != xserver.Success {
		return st
	}

	reply := make([]byte, xserver.GenericReplySize)
	bounding, boundingShaped := s.extents(w, xshape.SkBounding)
	clip, clipShaped := s.extents(w, xshape.SkClip)
	if boundingShaped {
		reply[8] = 1
	}
	if clipShaped {
		reply[9] = 1
	}
	b := 12
	for _, box := range [...]xproto.Rectangle{region.Rectangle(bounding), region.Rectangle(clip)} {
		for _, v := range [...]uint16{uint16(box.X), uint16(box.Y), box.Width, box.Height} {
			xserver.Put16(reply[b:], v)
			if c.Swapped {
				xserver.Swap16(reply[b:])
			}
			b += 2
		}
	}
	return xserver.SendReplySimple(c, reply)
}

// SelectInput
//
//	1 major, 1 minor, 2 length, 4 window, 1 enable, 3 unused
func (s *Shape) procSelectInput(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, selectInputSize); st != xserver.Success {
		return st
	}
	w, st := s.res.LookupWindow(xproto.Window(xserver.Get32(req.Buf[4:])), c, resource.ReceiveAccess)
	if st != xserver.Success {
		return st
	}
	switch enable := req.Buf[8]; enable {
	case 1:
		return s.subscribe(w, c)
	case 0:
		s.unsubscribe(w, c)
		return xserver.Success
	default:
		c.ErrorValue = uint32(enable)
		return xserver.BadValue
	}
}

// InputSelected
//
//	request: 1 major, 1 minor, 2 length, 4 window
//	reply: 1 type, 1 enabled, 2 sequence, 4 length, 24 unused
func (s *Shape) procInputSelected(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, inputSelectedSize); st != xserver.Success {
		return st
	}
	w, st := s.res.LookupWindow(xproto.Window(xserver.Get32(req.Buf[4:])), c, resource.GetAttrAccess)
	if st != xserver.Success {
		return st
	}
	reply := make([]byte, xserver.GenericReplySize)
	if s.subscribed(w, c) {
		reply[1] = 1
	}
	return xserver.SendReplySimple(c, reply)
}

// GetRectangles
//
//	request: 1 major, 1 minor, 2 length, 4 window, 1 kind, 3 unused
//	reply: 1 type, 1 ordering, 2 sequence, 4 length, 4 rectangle count,
//	20 unused, 8n rectangles
func (s *Shape) procGetRectangles(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getRectanglesSize); st != xserver.Success {
		return st
	}
	w, st := s.res.LookupWindow(xproto.Window(xserver.Get32(req.Buf[4:])), c, resource.GetAttrAccess)
	if st != xserver.Success {
		return st
	}
	kind := req.Buf[8]
	if !validKind(kind) {
		c.ErrorValue = uint32(kind)
		return xserver.BadValue
	}

	var rects []xproto.Rectangle
	if rgn := s.Region(w.ID, kind); rgn != nil {
		rects = rgn.Rectangles()
	} else {
		rects = []xproto.Rectangle{region.Rectangle(defaultBox(w, kind))}
	}

	rb := xserver.NewReplyBuffer(c)
	for _, r := range rects {
		rb.WriteCard16s(uint16(r.X), uint16(r.Y), r.Width, r.Height)
	}

	reply := make([]byte, xserver.GenericReplySize)
	reply[1] = xproto.ClipOrderingYXBanded
	xserver.Put32(reply[8:], uint32(len(rects)))
	if c.Swapped {
		xserver.Swap32(reply[8:])
	}
	return xserver.SendReply(c, reply, rb)
}
