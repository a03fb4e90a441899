// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xinput

import (
	"math"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/input"
	"github.com/stefan11111/xserver/resource"
)

const (
	queryPointerSize      = 12
	queryPointerReplySize = 56

	// The button mask covers logical buttons up to 255.
	buttonMaskSize = 256 / 8
)

// FP1616 converts to the protocol's 16.16 fixed point: the integral part
// is the floor of d, the fraction is what is left over.
func FP1616(d float64) uint32 {
	integral := math.Floor(d)
	frac := uint32((d - integral) * (1 << 16))
	return uint32(int32(integral))<<16 | frac&0xffff
}

// queryPointerReply is laid out as
//
//	1 type, 1 opcode, 2 sequence, 4 length, 4 root, 4 child,
//	4 root x, 4 root y, 4 window x, 4 window y (all 16.16),
//	1 same screen, 1 unused, 2 buttons length,
//	4 base, 4 latched, 4 locked, 4 effective modifiers,
//	1 base, 1 latched, 1 locked, 1 effective group
type queryPointerReply struct {
	root, child         xproto.Window
	rootX, rootY        uint32
	winX, winY          uint32
	sameScreen          bool
	buttonsLen          uint16
	baseMods, latchMods uint32
	lockMods, effMods   uint32
	baseGroup, latchGrp byte
	lockGroup, effGroup byte
}

func (r *queryPointerReply) bytes(swapped bool) []byte {
	b := make([]byte, queryPointerReplySize)
	b[1] = QueryPointer
	for _, f := range []struct {
		off int
		v   uint32
	}{
		{8, uint32(r.root)}, {12, uint32(r.child)},
		{16, r.rootX}, {20, r.rootY}, {24, r.winX}, {28, r.winY},
		{36, r.baseMods}, {40, r.latchMods}, {44, r.lockMods}, {48, r.effMods},
	} {
		xserver.Put32(b[f.off:], f.v)
		if swapped {
			xserver.Swap32(b[f.off:])
		}
	}
	if r.sameScreen {
		b[32] = 1
	}
	xserver.Put16(b[34:], r.buttonsLen)
	if swapped {
		xserver.Swap16(b[34:])
	}
	b[52], b[53], b[54], b[55] = r.baseGroup, r.latchGrp, r.lockGroup, r.effGroup
	return b
}

// QueryPointer
//
//	1 major, 1 minor, 2 length, 4 window, 2 device, 2 unused
func (x *XInput) procQueryPointer(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, queryPointerSize); st != xserver.Success {
		return st
	}
	winID := xproto.Window(xserver.Get32(req.Buf[4:]))
	devID := xserver.Get16(req.Buf[8:])

	// Clients from before 2.2 know nothing of touches and see the
	// emulated button press instead.
	xi22 := ClientVersion(c).AtLeast(2, 2)

	dev, ok := x.devs.Lookup(devID, c, resource.ReadAccess)
	if !ok {
		c.ErrorValue = uint32(devID)
		return x.ext.Error(BadDevice)
	}
	if dev.Valuators == 0 || dev.IsKeyboard() || (!dev.IsMaster() && !dev.IsFloating()) {
		c.ErrorValue = uint32(devID)
		return x.ext.Error(BadDevice)
	}
	win, st := x.res.LookupWindow(winID, c, resource.GetAttrAccess)
	if st != xserver.Success {
		return st
	}
	sprite := dev.Sprite
	if sprite == nil {
		logger.WithField("device", dev.ID).Errorf("%s without a sprite", dev.Use)
		c.ErrorValue = uint32(devID)
		return x.ext.Error(BadDevice)
	}

	rep := queryPointerReply{
		root:  sprite.RootID(),
		rootX: FP1616(sprite.X),
		rootY: FP1616(sprite.Y),
	}
	if kbd := dev.Keyboard(); kbd != nil && kbd.Key != nil {
		s := kbd.Key.State
		rep.baseMods = uint32(s.BaseMods)
		rep.latchMods = uint32(s.LatchedMods)
		rep.lockMods = uint32(s.LockedMods)
		rep.effMods = uint32(s.Mods)
		rep.baseGroup = byte(s.BaseGroup)
		rep.latchGrp = byte(s.LatchedGroup)
		rep.lockGroup = s.LockedGroup
		rep.effGroup = s.Group
	}

	rb := xserver.NewReplyBuffer(c)
	if b := dev.Button; b != nil {
		mask := rb.Reserve(buttonMaskSize)
		if mask == nil {
			rb.Clear()
			return xserver.BadAlloc
		}
		rep.buttonsLen = uint16(xserver.Units(buttonMaskSize))
		for i := 1; i < b.NumButtons; i++ {
			if b.IsDown(i) {
				setBit(mask, b.Map[i])
			}
		}
		if !xi22 && dev.Touch != nil && dev.Touch.ButtonsDown > 0 {
			setBit(mask, b.Map[1])
		}
	}

	if sprite.Screen == win.Screen {
		rep.sameScreen = true
		o := win.Origin()
		rep.winX = FP1616(sprite.X - float64(o.X))
		rep.winY = FP1616(sprite.Y - float64(o.Y))
		rep.child = childOf(sprite, win)
	}

	if x.pan.Active() {
		o := x.pan.Origin(0)
		rep.rootX += FP1616(float64(o.X))
		rep.rootY += FP1616(float64(o.Y))
		if winID == rep.root {
			rep.winX += FP1616(float64(o.X))
			rep.winY += FP1616(float64(o.Y))
		}
	}

	return xserver.SendReply(c, rep.bytes(c.Swapped), rb)
}

// childOf returns the child of w on the way down to the sprite's window,
// None when the sprite is not below w.
func childOf(s *input.Sprite, w *resource.Window) xproto.Window {
	for t := s.Win; t != nil; t = t.Parent {
		if t.Parent == w {
			return t.ID
		}
	}
	return xproto.WindowNone
}

func setBit(mask []byte, bit byte) {
	mask[bit>>3] |= 1 << (bit & 7)
}

func (x *XInput) sProcQueryPointer(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, queryPointerSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[4:])
	xserver.Swap16(req.Buf[8:])
	return x.procQueryPointer(c, req)
}
