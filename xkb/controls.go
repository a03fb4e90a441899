// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xkb

import (
	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/resource"
)

// Controls, as named in the changeCtrls and enabledCtrls masks.
const (
	RepeatKeysMask = 1 << iota
	SlowKeysMask
	BounceKeysMask
	StickyKeysMask
	MouseKeysMask
	MouseKeysAccelMask
	AccessXKeysMask
	AccessXTimeoutMask
	AccessXFeedbackMask
	AudibleBellMask
	Overlay1Mask
	Overlay2Mask
	IgnoreGroupLockMask

	GroupsWrapMask      = 1 << 27
	InternalModsMask    = 1 << 28
	IgnoreLockModsMask  = 1 << 29
	PerKeyRepeatMask    = 1 << 30
	ControlsEnabledMask = 1 << 31

	allBooleanCtrls = 1<<13 - 1
	allControls     = 0xf8001fff
)

// AccessX option groups inside AXOptions.
const (
	axStickyKeysOptions = 0x00c0
	axFeedbackOptions   = 0x0f3f

	maxMouseKeysButton = 4
)

// Controls are the XKB controls of one keyboard. Modifier masks only
// hold real modifiers; virtual modifiers are kept but not resolved.
type Controls struct {
	MouseKeysDfltBtn byte
	NumGroups        byte
	GroupsWrap       byte

	InternalRealMods   byte
	IgnoreLockRealMods byte
	InternalVMods      uint16
	IgnoreLockVMods    uint16

	RepeatDelay    uint16
	RepeatInterval uint16
	SlowKeysDelay  uint16
	DebounceDelay  uint16

	MouseKeysDelay     uint16
	MouseKeysInterval  uint16
	MouseKeysTimeToMax uint16
	MouseKeysMaxSpeed  uint16
	MouseKeysCurve     int16

	AXOptions      uint16
	AXTimeout      uint16
	AXTOptsMask    uint16
	AXTOptsValues  uint16
	AXTCtrlsMask   uint32
	AXTCtrlsValues uint32

	EnabledCtrls uint32
	PerKeyRepeat [32]byte
}

// DefaultControls returns the controls of a freshly configured keyboard.
func DefaultControls() Controls {
	c := Controls{
		MouseKeysDfltBtn:   1,
		NumGroups:          1,
		RepeatDelay:        660,
		RepeatInterval:     40,
		SlowKeysDelay:      300,
		DebounceDelay:      300,
		MouseKeysDelay:     160,
		MouseKeysInterval:  40,
		MouseKeysTimeToMax: 30,
		MouseKeysMaxSpeed:  30,
		MouseKeysCurve:     500,
		AXTimeout:          120,
		EnabledCtrls:       RepeatKeysMask | AudibleBellMask,
	}
	for i := range c.PerKeyRepeat {
		c.PerKeyRepeat[i] = 0xff
	}
	return c
}

// changes returns the changed controls between prev and next, in the
// changeCtrls encoding.
func (prev *Controls) changes(next *Controls) uint32 {
	var changed uint32
	for _, f := range []struct {
		differ bool
		mask   uint32
	}{
		{prev.RepeatDelay != next.RepeatDelay || prev.RepeatInterval != next.RepeatInterval, RepeatKeysMask},
		{prev.SlowKeysDelay != next.SlowKeysDelay, SlowKeysMask},
		{prev.DebounceDelay != next.DebounceDelay, BounceKeysMask},
		{(prev.AXOptions^next.AXOptions)&axStickyKeysOptions != 0, StickyKeysMask},
		{prev.MouseKeysDfltBtn != next.MouseKeysDfltBtn, MouseKeysMask},
		{prev.MouseKeysDelay != next.MouseKeysDelay ||
			prev.MouseKeysInterval != next.MouseKeysInterval ||
			prev.MouseKeysTimeToMax != next.MouseKeysTimeToMax ||
			prev.MouseKeysMaxSpeed != next.MouseKeysMaxSpeed ||
			prev.MouseKeysCurve != next.MouseKeysCurve, MouseKeysAccelMask},
		{prev.AXOptions != next.AXOptions, AccessXKeysMask},
		{prev.AXTimeout != next.AXTimeout ||
			prev.AXTOptsMask != next.AXTOptsMask || prev.AXTOptsValues != next.AXTOptsValues ||
			prev.AXTCtrlsMask != next.AXTCtrlsMask || prev.AXTCtrlsValues != next.AXTCtrlsValues, AccessXTimeoutMask},
		{(prev.AXOptions^next.AXOptions)&axFeedbackOptions != 0, AccessXFeedbackMask},
		{prev.GroupsWrap != next.GroupsWrap, GroupsWrapMask},
		{prev.InternalRealMods != next.InternalRealMods || prev.InternalVMods != next.InternalVMods, InternalModsMask},
		{prev.IgnoreLockRealMods != next.IgnoreLockRealMods || prev.IgnoreLockVMods != next.IgnoreLockVMods, IgnoreLockModsMask},
		{prev.PerKeyRepeat != next.PerKeyRepeat, PerKeyRepeatMask},
		{prev.EnabledCtrls != next.EnabledCtrls, ControlsEnabledMask},
	} {
		if f.differ {
			changed |= f.mask
		}
	}
	return changed
}

// GetControls
//
//	request: 1 major, 1 minor, 2 length, 2 device, 2 unused
//	reply: 1 type, 1 device, 2 sequence, 4 length, 1 mouse keys button,
//	1 groups, 1 groups wrap, 1 internal mods, 1 ignore lock mods,
//	1 internal real mods, 1 ignore lock real mods, 1 unused,
//	2 internal vmods, 2 ignore lock vmods, 2 repeat delay,
//	2 repeat interval, 2 slow keys delay, 2 debounce delay,
//	2 mouse keys delay, 2 interval, 2 time to max, 2 max speed, 2 curve,
//	2 AccessX options, 2 AccessX timeout, 2 unused,
//	4 timeout controls mask, 4 values, 2 timeout options mask, 2 values,
//	4 enabled controls, 32 per key repeat
func (x *Xkb) procGetControls(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getControlsSize); st != xserver.Success {
		return st
	}
	dev, kb, st := x.lookupKeyboard(xserver.Get16(req.Buf[4:]), c, resource.ReadAccess)
	if st != xserver.Success {
		return st
	}
	ctrls := &kb.ctrls

	reply := make([]byte, getControlsReplySize)
	reply[1] = byte(dev.ID)
	reply[8] = ctrls.MouseKeysDfltBtn
	reply[9] = ctrls.NumGroups
	reply[10] = ctrls.GroupsWrap
	reply[11] = ctrls.InternalRealMods
	reply[12] = ctrls.IgnoreLockRealMods
	reply[13] = ctrls.InternalRealMods
	reply[14] = ctrls.IgnoreLockRealMods
	put16 := func(off int, v uint16) {
		xserver.Put16(reply[off:], v)
		if c.Swapped {
			xserver.Swap16(reply[off:])
		}
	}
	put32 := func(off int, v uint32) {
		xserver.Put32(reply[off:], v)
		if c.Swapped {
			xserver.Swap32(reply[off:])
		}
	}
	put16(16, ctrls.InternalVMods)
	put16(18, ctrls.IgnoreLockVMods)
	put16(20, ctrls.RepeatDelay)
	put16(22, ctrls.RepeatInterval)
	put16(24, ctrls.SlowKeysDelay)
	put16(26, ctrls.DebounceDelay)
	put16(28, ctrls.MouseKeysDelay)
	put16(30, ctrls.MouseKeysInterval)
	put16(32, ctrls.MouseKeysTimeToMax)
	put16(34, ctrls.MouseKeysMaxSpeed)
	put16(36, uint16(ctrls.MouseKeysCurve))
	put16(38, ctrls.AXOptions)
	put16(40, ctrls.AXTimeout)
	put32(44, ctrls.AXTCtrlsMask)
	put32(48, ctrls.AXTCtrlsValues)
	put16(52, ctrls.AXTOptsMask)
	put16(54, ctrls.AXTOptsValues)
	put32(56, ctrls.EnabledCtrls)
	copy(reply[60:], ctrls.PerKeyRepeat[:])
	return xserver.SendReplySimple(c, reply)
}

// setControlsRequest is a decoded SetControls request.
//
//	1 major, 1 minor, 2 length, 2 device, 1 affect internal mods,
//	1 internal mods, 1 affect ignore lock mods, 1 ignore lock mods,
//	2 affect internal vmods, 2 internal vmods, 2 affect ignore lock vmods,
//	2 ignore lock vmods, 1 mouse keys button, 1 groups wrap,
//	2 AccessX options, 2 unused, 4 affect enabled controls,
//	4 enabled controls, 4 change controls, 2 repeat delay,
//	2 repeat interval, 2 slow keys delay, 2 debounce delay,
//	2 mouse keys delay, 2 interval, 2 time to max, 2 max speed, 2 curve,
//	2 AccessX timeout, 4 timeout controls mask, 4 values,
//	2 timeout options mask, 2 values, 32 per key repeat
type setControlsRequest struct {
	device                                   uint16
	affectInternalMods, internalMods         byte
	affectIgnoreLockMods, ignoreLockMods     byte
	affectInternalVMods, internalVMods       uint16
	affectIgnoreLockVMods, ignoreLockVMods   uint16
	mouseKeysDfltBtn, groupsWrap             byte
	axOptions                                uint16
	affectEnabledCtrls, enabledCtrls, change uint32
	repeatDelay, repeatInterval              uint16
	slowKeysDelay, debounceDelay             uint16
	mkDelay, mkInterval, mkTimeToMax         uint16
	mkMaxSpeed                               uint16
	mkCurve                                  int16
	axTimeout                                uint16
	axtCtrlsMask, axtCtrlsValues             uint32
	axtOptsMask, axtOptsValues               uint16
	perKeyRepeat                             []byte
}

func decodeSetControls(b []byte) *setControlsRequest {
	return &setControlsRequest{
		device:                xserver.Get16(b[4:]),
		affectInternalMods:    b[6],
		internalMods:          b[7],
		affectIgnoreLockMods:  b[8],
		ignoreLockMods:        b[9],
		affectInternalVMods:   xserver.Get16(b[10:]),
		internalVMods:         xserver.Get16(b[12:]),
		affectIgnoreLockVMods: xserver.Get16(b[14:]),
		ignoreLockVMods:       xserver.Get16(b[16:]),
		mouseKeysDfltBtn:      b[18],
		groupsWrap:            b[19],
		axOptions:             xserver.Get16(b[20:]),
		affectEnabledCtrls:    xserver.Get32(b[24:]),
		enabledCtrls:          xserver.Get32(b[28:]),
		change:                xserver.Get32(b[32:]),
		repeatDelay:           xserver.Get16(b[36:]),
		repeatInterval:        xserver.Get16(b[38:]),
		slowKeysDelay:         xserver.Get16(b[40:]),
		debounceDelay:         xserver.Get16(b[42:]),
		mkDelay:               xserver.Get16(b[44:]),
		mkInterval:            xserver.Get16(b[46:]),
		mkTimeToMax:           xserver.Get16(b[48:]),
		mkMaxSpeed:            xserver.Get16(b[50:]),
		mkCurve:               int16(xserver.Get16(b[52:])),
		axTimeout:             xserver.Get16(b[54:]),
		axtCtrlsMask:          xserver.Get32(b[56:]),
		axtCtrlsValues:        xserver.Get32(b[60:]),
		axtOptsMask:           xserver.Get16(b[64:]),
		axtOptsValues:         xserver.Get16(b[66:]),
		perKeyRepeat:          b[68:100],
	}
}

// apply validates r and returns the controls it asks for. Nothing is
// changed on error.
func (r *setControlsRequest) apply(c *xserver.Client, old *Controls) (Controls, xserver.Status) {
	next := *old
	badValue := func(v uint32) (Controls, xserver.Status) {
		c.ErrorValue = v
		return next, xserver.BadValue
	}
	badMatch := func(v uint32) (Controls, xserver.Status) {
		c.ErrorValue = v
		return next, xserver.BadMatch
	}

	if bad := r.change &^ allControls; bad != 0 {
		return badValue(errCode2(0x01, bad))
	}
	if bad := r.affectEnabledCtrls &^ allBooleanCtrls; bad != 0 {
		return badValue(errCode2(0x02, bad))
	}
	if bad := r.enabledCtrls &^ r.affectEnabledCtrls; bad != 0 {
		return badMatch(errCode2(0x02, bad))
	}

	if r.change&InternalModsMask != 0 {
		if bad := r.internalMods &^ r.affectInternalMods; bad != 0 {
			return badMatch(errCode2(0x03, uint32(bad)))
		}
		if bad := r.internalVMods &^ r.affectInternalVMods; bad != 0 {
			return badMatch(errCode2(0x03, uint32(bad)))
		}
		next.InternalRealMods = next.InternalRealMods&^r.affectInternalMods | r.internalMods
		next.InternalVMods = next.InternalVMods&^r.affectInternalVMods | r.internalVMods
	}
	if r.change&IgnoreLockModsMask != 0 {
		if bad := r.ignoreLockMods &^ r.affectIgnoreLockMods; bad != 0 {
			return badMatch(errCode2(0x04, uint32(bad)))
		}
		if bad := r.ignoreLockVMods &^ r.affectIgnoreLockVMods; bad != 0 {
			return badMatch(errCode2(0x04, uint32(bad)))
		}
		next.IgnoreLockRealMods = next.IgnoreLockRealMods&^r.affectIgnoreLockMods | r.ignoreLockMods
		next.IgnoreLockVMods = next.IgnoreLockVMods&^r.affectIgnoreLockVMods | r.ignoreLockVMods
	}
	if r.change&ControlsEnabledMask != 0 {
		next.EnabledCtrls = next.EnabledCtrls&^r.affectEnabledCtrls | r.enabledCtrls
	}
	if r.change&RepeatKeysMask != 0 {
		if r.repeatDelay < 1 || r.repeatInterval < 1 {
			return badValue(errCode3(0x06, uint32(r.repeatDelay), uint32(r.repeatInterval)))
		}
		next.RepeatDelay, next.RepeatInterval = r.repeatDelay, r.repeatInterval
	}
	if r.change&SlowKeysMask != 0 {
		if r.slowKeysDelay < 1 {
			return badValue(errCode2(0x09, uint32(r.slowKeysDelay)))
		}
		next.SlowKeysDelay = r.slowKeysDelay
	}
	if r.change&BounceKeysMask != 0 {
		if r.debounceDelay < 1 {
			return badValue(errCode2(0x0a, uint32(r.debounceDelay)))
		}
		next.DebounceDelay = r.debounceDelay
	}
	if r.change&MouseKeysMask != 0 {
		if r.mouseKeysDfltBtn > maxMouseKeysButton {
			return badValue(errCode2(0x0b, uint32(r.mouseKeysDfltBtn)))
		}
		next.MouseKeysDfltBtn = r.mouseKeysDfltBtn
	}
	if r.change&MouseKeysAccelMask != 0 {
		if r.mkDelay < 1 || r.mkInterval < 1 || r.mkTimeToMax < 1 ||
			r.mkMaxSpeed < 1 || r.mkCurve < -1000 {
			return badValue(errCode2(0x0c, 0))
		}
		next.MouseKeysDelay = r.mkDelay
		next.MouseKeysInterval = r.mkInterval
		next.MouseKeysTimeToMax = r.mkTimeToMax
		next.MouseKeysMaxSpeed = r.mkMaxSpeed
		next.MouseKeysCurve = r.mkCurve
	}
	if r.change&AccessXKeysMask != 0 {
		next.AXOptions = r.axOptions
	} else {
		if r.change&StickyKeysMask != 0 {
			next.AXOptions = next.AXOptions&^axStickyKeysOptions | r.axOptions&axStickyKeysOptions
		}
		if r.change&AccessXFeedbackMask != 0 {
			next.AXOptions = next.AXOptions&^axFeedbackOptions | r.axOptions&axFeedbackOptions
		}
	}
	if r.change&AccessXTimeoutMask != 0 {
		if r.axTimeout < 1 {
			return badValue(errCode2(0x06, uint32(r.axTimeout)))
		}
		if bad := r.axtCtrlsValues &^ r.axtCtrlsMask; bad != 0 {
			return badMatch(errCode2(0x07, bad))
		}
		if bad := r.axtOptsValues &^ r.axtOptsMask; bad != 0 {
			return badMatch(errCode2(0x08, uint32(bad)))
		}
		next.AXTimeout = r.axTimeout
		next.AXTCtrlsMask, next.AXTCtrlsValues = r.axtCtrlsMask, r.axtCtrlsValues
		next.AXTOptsMask, next.AXTOptsValues = r.axtOptsMask, r.axtOptsValues
	}
	if r.change&GroupsWrapMask != 0 {
		switch r.groupsWrap & groupActionMask {
		case WrapIntoRange, ClampIntoRange:
		case RedirectIntoRange:
			if r.groupsWrap&groupNumberMask >= next.NumGroups {
				return badValue(errCode3(0x0d, uint32(next.NumGroups), uint32(r.groupsWrap)))
			}
		default:
			return badValue(errCode2(0x0d, uint32(r.groupsWrap)))
		}
		next.GroupsWrap = r.groupsWrap
	}
	if r.change&PerKeyRepeatMask != 0 {
		copy(next.PerKeyRepeat[:], r.perKeyRepeat)
	}
	return next, xserver.Success
}

func (x *Xkb) procSetControls(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, setControlsSize); st != xserver.Success {
		return st
	}
	r := decodeSetControls(req.Buf)
	dev, kb, st := x.lookupKeyboard(r.device, c, resource.SetAttrAccess)
	if st != xserver.Success {
		return st
	}
	next, st := r.apply(c, &kb.ctrls)
	if st != xserver.Success {
		return st
	}

	old := kb.ctrls
	kb.ctrls = next
	changed := old.changes(&next)
	if changed&GroupsWrapMask != 0 {
		s := dev.Key.State
		deriveState(&dev.Key.State, &kb.ctrls, dev.Pointer())
		x.stateNotify(dev, &s, SetControls)
	}
	if changed != 0 {
		x.controlsNotify(dev, &old, &next, changed, SetControls)
	}
	return xserver.Success
}
