// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xkb

import (
	"bytes"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/resource"
)

// Request and reply sizes.
const (
	useExtensionSize       = 8
	selectEventsSize       = 16
	bellSize               = 28
	getStateSize           = 8
	latchLockStateSize     = 16
	getControlsSize        = 8
	setControlsSize        = 100
	setMapSize             = 36
	setCompatMapSize       = 16
	getIndicatorStateSize  = 8
	setIndicatorMapSize    = 12
	getGeometrySize        = 12
	perClientFlagsSize     = 28
	getKbdByNameSize       = 12
	setDeviceInfoSize      = 12
	setDebuggingFlagsSize  = 24
	getControlsReplySize   = 92
	perClientFlagsReplyLen = 32
)

// Bell classes and ids naming the default feedback.
const (
	KbdFeedbackClass  = 0
	BellFeedbackClass = 5
	DfltXIClass       = 0x300
	DfltXIID          = 0x400
)

// UseExtension
//
//	request: 1 major, 1 minor, 2 length, 2 wanted major, 2 wanted minor
//	reply: 1 type, 1 supported, 2 sequence, 4 length, 2 server major,
//	2 server minor, 20 unused
func (x *Xkb) procUseExtension(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, useExtensionSize); st != xserver.Success {
		return st
	}
	major := xserver.Get16(req.Buf[4:])
	minor := xserver.Get16(req.Buf[6:])

	supported := major == MajorVersion
	if supported {
		cs := x.client(c)
		if !cs.initialized {
			cs.initialized = true
			cs.major, cs.minor = major, minor
		}
	} else {
		logger.WithField("client", c.Index).
			Debugf("rejected version %d.%d", major, minor)
	}

	reply := make([]byte, xserver.GenericReplySize)
	if supported {
		reply[1] = 1
	}
	xserver.Put16(reply[8:], MajorVersion)
	xserver.Put16(reply[10:], MinorVersion)
	if c.Swapped {
		xserver.Swap16(reply[8:])
		xserver.Swap16(reply[10:])
	}
	return xserver.SendReplySimple(c, reply)
}

// bell is a decoded Bell request
//
//	1 major, 1 minor, 2 length, 2 device, 2 class, 2 id, 1 percent,
//	1 force sound, 1 event only, 1 unused, 2 pitch, 2 duration,
//	2 unused, 4 name, 4 window
type bell struct {
	device, class, id uint16
	percent           int8
	forceSound        bool
	eventOnly         bool
	pitch, duration   int16
	name, window      uint32
}

func decodeBell(b []byte) *bell {
	return &bell{
		device:     xserver.Get16(b[4:]),
		class:      xserver.Get16(b[6:]),
		id:         xserver.Get16(b[8:]),
		percent:    int8(b[10]),
		forceSound: b[11] != 0,
		eventOnly:  b[12] != 0,
		pitch:      int16(xserver.Get16(b[14:])),
		duration:   int16(xserver.Get16(b[16:])),
		name:       xserver.Get32(b[20:]),
		window:     xserver.Get32(b[24:]),
	}
}

// volume scales the keyboard's base volume by percent, as the core Bell
// request does.
func volume(base, percent int) int {
	if percent >= 0 {
		return base - base*percent/100 + percent
	}
	return base + base*percent/100
}

func (x *Xkb) procBell(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, bellSize); st != xserver.Success {
		return st
	}
	b := decodeBell(req.Buf)

	if b.forceSound && b.eventOnly {
		c.ErrorValue = errCode3(0x01, 1, 1)
		return xserver.BadMatch
	}
	if b.percent < -100 || b.percent > 100 {
		c.ErrorValue = errCode2(0x02, uint32(uint8(b.percent)))
		return xserver.BadValue
	}
	if b.duration < -1 {
		c.ErrorValue = errCode2(0x03, uint32(uint16(b.duration)))
		return xserver.BadValue
	}
	if b.pitch < -1 {
		c.ErrorValue = errCode2(0x04, uint32(uint16(b.pitch)))
		return xserver.BadValue
	}
	switch b.class {
	case DfltXIClass:
		b.class = KbdFeedbackClass
	case KbdFeedbackClass, BellFeedbackClass:
	default:
		c.ErrorValue = errCode2(0x05, uint32(b.class))
		return xserver.BadValue
	}
	if b.id != 0 && b.id != DfltXIID {
		c.ErrorValue = errCode2(0x06, uint32(b.id))
		return xserver.BadValue
	}
	b.id = 0

	dev, kb, st := x.lookupKeyboard(b.device, c, resource.WriteAccess)
	if st != xserver.Success {
		return st
	}
	if b.window != uint32(xproto.WindowNone) {
		if _, st := x.res.LookupWindow(xproto.Window(b.window), c, resource.GetAttrAccess); st != xserver.Success {
			return st
		}
	}

	if b.pitch == -1 {
		b.pitch = int16(kb.bellPitch)
	}
	if b.duration == -1 {
		b.duration = int16(kb.bellLength)
	}
	vol := volume(kb.bellPercent, int(b.percent))
	audible := b.forceSound || kb.ctrls.EnabledCtrls&AudibleBellMask != 0
	if !b.eventOnly && audible && x.Ring != nil {
		x.Ring(dev, vol, int(b.pitch), int(b.duration))
	}
	x.bellNotify(dev, b, vol)
	return xserver.Success
}

// GetState
//
//	request: 1 major, 1 minor, 2 length, 2 device, 2 unused
//	reply: 1 type, 1 device, 2 sequence, 4 length, 1 mods, 1 base mods,
//	1 latched mods, 1 locked mods, 1 group, 1 locked group,
//	2 base group, 2 latched group, 1 compat state, 1 grab mods,
//	1 compat grab mods, 1 lookup mods, 1 compat lookup mods, 1 unused,
//	2 pointer buttons, 6 unused
func (x *Xkb) procGetState(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getStateSize); st != xserver.Success {
		return st
	}
	dev, _, st := x.lookupKeyboard(xserver.Get16(req.Buf[4:]), c, resource.ReadAccess)
	if st != xserver.Success {
		return st
	}
	s := dev.Key.State

	reply := make([]byte, xserver.GenericReplySize)
	reply[1] = byte(dev.ID)
	reply[8] = s.Mods
	reply[9] = s.BaseMods
	reply[10] = s.LatchedMods
	reply[11] = s.LockedMods
	reply[12] = s.Group
	reply[13] = s.LockedGroup
	xserver.Put16(reply[14:], uint16(s.BaseGroup))
	xserver.Put16(reply[16:], uint16(s.LatchedGroup))
	reply[18] = s.CompatState
	reply[19] = s.GrabMods
	reply[20] = s.CompatGrabMods
	reply[21] = s.LookupMods
	reply[22] = s.CompatLookupMods
	xserver.Put16(reply[24:], s.PtrButtons)
	if c.Swapped {
		xserver.Swap16(reply[14:])
		xserver.Swap16(reply[16:])
		xserver.Swap16(reply[24:])
	}
	return xserver.SendReplySimple(c, reply)
}

// LatchLockState
//
//	1 major, 1 minor, 2 length, 2 device, 1 affect mod locks,
//	1 mod locks, 1 lock group, 1 group lock, 1 affect mod latches,
//	1 mod latches, 1 unused, 1 latch group, 2 group latch
func (x *Xkb) procLatchLockState(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, latchLockStateSize); st != xserver.Success {
		return st
	}
	b := req.Buf
	affectLocks, locks := b[6], b[7]
	lockGroup, groupLock := b[8] != 0, b[9]
	affectLatches, latches := b[10], b[11]
	latchGroup, groupLatch := b[13] != 0, int16(xserver.Get16(b[14:]))

	dev, kb, st := x.lookupKeyboard(xserver.Get16(b[4:]), c, resource.SetAttrAccess)
	if st != xserver.Success {
		return st
	}
	if bad := locks &^ affectLocks; bad != 0 {
		c.ErrorValue = errCode2(0x01, uint32(bad))
		return xserver.BadMatch
	}
	if bad := latches &^ affectLatches; bad != 0 {
		c.ErrorValue = errCode2(0x01, uint32(bad))
		return xserver.BadMatch
	}

	prev := dev.Key.State
	s := &dev.Key.State
	s.LockedMods = s.LockedMods&^affectLocks | locks
	if lockGroup {
		s.LockedGroup = groupLock
	}
	s.LatchedMods = s.LatchedMods&^affectLatches | latches
	if latchGroup {
		s.LatchedGroup = groupLatch
	}
	deriveState(s, &kb.ctrls, dev.Pointer())
	x.stateNotify(dev, &prev, LatchLockState)
	return xserver.Success
}

// GetIndicatorState
//
//	request: 1 major, 1 minor, 2 length, 2 device, 2 unused
//	reply: 1 type, 1 device, 2 sequence, 4 length, 4 state, 20 unused
func (x *Xkb) procGetIndicatorState(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getIndicatorStateSize); st != xserver.Success {
		return st
	}
	dev, _, st := x.lookupKeyboard(xserver.Get16(req.Buf[4:]), c, resource.ReadAccess)
	if st != xserver.Success {
		return st
	}
	reply := make([]byte, xserver.GenericReplySize)
	reply[1] = byte(dev.ID)
	xserver.Put32(reply[8:], indicators(&dev.Key.State))
	if c.Swapped {
		xserver.Swap32(reply[8:])
	}
	return xserver.SendReplySimple(c, reply)
}

// PerClientFlags
//
//	request: 1 major, 1 minor, 2 length, 2 device, 2 unused, 4 change,
//	4 value, 4 controls to change, 4 auto controls,
//	4 auto control values
//	reply: 1 type, 1 device, 2 sequence, 4 length, 4 supported,
//	4 value, 4 auto controls, 4 auto control values, 8 unused
func (x *Xkb) procPerClientFlags(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, perClientFlagsSize); st != xserver.Success {
		return st
	}
	b := req.Buf
	change := xserver.Get32(b[8:])
	value := xserver.Get32(b[12:])
	ctrlsToChange := xserver.Get32(b[16:])
	autoCtrls := xserver.Get32(b[20:])
	autoCtrlValues := xserver.Get32(b[24:])

	dev, _, st := x.lookupKeyboard(xserver.Get16(b[4:]), c, resource.ReadAccess)
	if st != xserver.Success {
		return st
	}
	for _, chk := range []struct {
		tag        byte
		mask, bits uint32
	}{
		{0x02, change, value},
		{0x03, ctrlsToChange, autoCtrls},
		{0x04, autoCtrls, autoCtrlValues},
	} {
		if bad := chk.bits &^ chk.mask; bad != 0 {
			c.ErrorValue = errCode2(chk.tag, bad)
			return xserver.BadMatch
		}
	}
	if bad := change &^ pcfAllFlags; bad != 0 {
		c.ErrorValue = errCode2(0x01, bad)
		return xserver.BadValue
	}
	if bad := ctrlsToChange &^ allBooleanCtrls; bad != 0 {
		c.ErrorValue = errCode2(0x05, bad)
		return xserver.BadValue
	}

	cs := x.client(c)
	cs.flags = cs.flags&^change | value
	if change&PCFAutoResetControls != 0 {
		if value&PCFAutoResetControls == 0 {
			cs.autoCtrls, cs.autoCtrlValues = 0, 0
		} else {
			cs.autoCtrls = cs.autoCtrls&^ctrlsToChange | autoCtrls
			cs.autoCtrlValues = cs.autoCtrlValues&^ctrlsToChange | autoCtrlValues
		}
	}

	reply := make([]byte, perClientFlagsReplyLen)
	reply[1] = byte(dev.ID)
	for i, v := range []uint32{pcfAllFlags, cs.flags, cs.autoCtrls, cs.autoCtrlValues} {
		off := 8 + 4*i
		xserver.Put32(reply[off:], v)
		if c.Swapped {
			xserver.Swap32(reply[off:])
		}
	}
	return xserver.SendReplySimple(c, reply)
}

// SetDebuggingFlags
//
//	request: 1 major, 1 minor, 2 length, 2 message length, 2 unused,
//	4 affect flags, 4 flags, 4 affect controls, 4 controls, message
//	reply: 1 type, 1 unused, 2 sequence, 4 length, 4 current flags,
//	4 current controls, 4 supported flags, 4 supported controls,
//	8 unused
func (x *Xkb) procSetDebuggingFlags(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, setDebuggingFlagsSize); st != xserver.Success {
		return st
	}
	b := req.Buf
	msgLen := int(xserver.Get16(b[4:]))
	affectFlags, flags := xserver.Get32(b[8:]), xserver.Get32(b[12:])
	affectCtrls, ctrls := xserver.Get32(b[16:]), xserver.Get32(b[20:])
	if setDebuggingFlagsSize+msgLen > req.Length<<2 {
		return xserver.BadLength
	}

	if msg := b[setDebuggingFlagsSize : setDebuggingFlagsSize+msgLen]; len(msg) > 0 {
		if i := bytes.IndexByte(msg, 0); i >= 0 {
			msg = msg[:i]
		}
		logger.WithField("client", c.Index).Printf("%s", msg)
	}
	x.debugFlags = x.debugFlags&^affectFlags | flags&affectFlags
	x.debugCtrls = x.debugCtrls&^affectCtrls | ctrls&affectCtrls

	reply := make([]byte, xserver.GenericReplySize)
	for i, v := range []uint32{x.debugFlags, x.debugCtrls, ^uint32(0), ^uint32(0)} {
		off := 8 + 4*i
		xserver.Put32(reply[off:], v)
		if c.Swapped {
			xserver.Swap32(reply[off:])
		}
	}
	return xserver.SendReplySimple(c, reply)
}
