// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xkb

import (
	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/input"
	"github.com/stefan11111/xserver/resource"
)

// XKB event types. All of them share the extension's single event code
// and carry the type in their second byte.
const (
	NewKeyboardNotify = iota
	MapNotify
	StateNotify
	ControlsNotify
	IndicatorStateNotify
	IndicatorMapNotify
	NamesNotify
	CompatMapNotify
	BellNotify
	ActionMessage
	AccessXNotify
	ExtensionDeviceNotify

	numEventTypes = iota

	allEventTypes = 1<<numEventTypes - 1
)

// eventDetails gives, per event type, the width of its detail mask in a
// SelectEvents request and every detail bit it knows.
var eventDetails = [numEventTypes]struct {
	size int
	all  uint32
}{
	NewKeyboardNotify:     {2, 0x0007},
	MapNotify:             {2, 0x00ff},
	StateNotify:           {2, allStateComponents},
	ControlsNotify:        {4, allControls},
	IndicatorStateNotify:  {4, 0xffffffff},
	IndicatorMapNotify:    {4, 0xffffffff},
	NamesNotify:           {2, 0x3fff},
	CompatMapNotify:       {1, 0x03},
	BellNotify:            {1, 0x01},
	ActionMessage:         {1, 0x01},
	AccessXNotify:         {2, 0x007f},
	ExtensionDeviceNotify: {2, 0x801f},
}

// selectEventsRequest is the fixed part of SelectEvents
//
//	1 major, 1 minor, 2 length, 2 device, 2 affect which, 2 clear,
//	2 select all, 2 affect map, 2 map
//
// followed by an affect and a details mask for every type in affect
// which that is neither cleared nor selected in full, MapNotify aside.
type selectEventsRequest struct {
	device               uint16
	affectWhich          uint16
	clear, selectAll     uint16
	affectMap, mapDetail uint16
}

func decodeSelectEvents(b []byte) selectEventsRequest {
	return selectEventsRequest{
		device:      xserver.Get16(b[4:]),
		affectWhich: xserver.Get16(b[6:]),
		clear:       xserver.Get16(b[8:]),
		selectAll:   xserver.Get16(b[10:]),
		affectMap:   xserver.Get16(b[12:]),
		mapDetail:   xserver.Get16(b[14:]),
	}
}

// selection is one affect and details pair of a SelectEvents request.
type selection struct {
	typ             int
	affect, details uint32
}

// walkDetails goes through the detail masks in b, swapping them in place
// first when swap is set. It returns the pairs and the bytes they took.
// One byte masks come in pairs of two bytes.
func walkDetails(c *xserver.Client, r *selectEventsRequest, b []byte, swap bool) ([]selection, int, xserver.Status) {
	if bad := r.affectWhich &^ allEventTypes; bad != 0 {
		c.ErrorValue = errCode2(0x01, uint32(bad))
		return nil, 0, xserver.BadValue
	}
	var sels []selection
	off := 0
	for typ := 0; typ < numEventTypes; typ++ {
		bit := uint16(1) << typ
		if r.affectWhich&bit == 0 || typ == MapNotify || (r.clear|r.selectAll)&bit != 0 {
			continue
		}
		size := eventDetails[typ].size
		if len(b)-off < 2*size {
			return nil, 0, xserver.BadLength
		}
		f := b[off:]
		s := selection{typ: typ}
		switch size {
		case 1:
			s.affect, s.details = uint32(f[0]), uint32(f[1])
		case 2:
			if swap {
				xserver.Swap16(f)
				xserver.Swap16(f[2:])
			}
			s.affect, s.details = uint32(xserver.Get16(f)), uint32(xserver.Get16(f[2:]))
		case 4:
			if swap {
				xserver.Swap32(f)
				xserver.Swap32(f[4:])
			}
			s.affect, s.details = xserver.Get32(f), xserver.Get32(f[4:])
		}
		sels = append(sels, s)
		off += 2 * size
	}
	return sels, off, xserver.Success
}

func (x *Xkb) procSelectEvents(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, selectEventsSize); st != xserver.Success {
		return st
	}
	r := decodeSelectEvents(req.Buf)
	dev, _, st := x.lookupKeyboard(r.device, c, resource.ReadAccess)
	if st != xserver.Success {
		return st
	}
	if bad := (r.clear | r.selectAll) &^ r.affectWhich; bad != 0 {
		c.ErrorValue = errCode2(0x02, uint32(bad))
		return xserver.BadMatch
	}
	if both := r.clear & r.selectAll; both != 0 {
		c.ErrorValue = errCode2(0x03, uint32(both))
		return xserver.BadMatch
	}
	if bad := r.mapDetail &^ r.affectMap; bad != 0 {
		c.ErrorValue = errCode2(0x04, uint32(bad))
		return xserver.BadMatch
	}

	sels, n, st := walkDetails(c, &r, req.Buf[selectEventsSize:], false)
	if st != xserver.Success {
		return st
	}
	if xserver.Pad(selectEventsSize+n) != req.Length<<2 {
		return xserver.BadLength
	}
	for _, s := range sels {
		all := eventDetails[s.typ].all
		if bad := s.affect &^ all; bad != 0 {
			c.ErrorValue = errCode2(0x05, bad)
			return xserver.BadValue
		}
		if bad := s.details &^ s.affect; bad != 0 {
			c.ErrorValue = errCode2(0x06, bad)
			return xserver.BadMatch
		}
	}

	cs := x.client(c)
	in := cs.interest[dev.ID]
	if in == nil {
		in = new([numEventTypes]uint32)
	}
	for typ := 0; typ < numEventTypes; typ++ {
		bit := uint16(1) << typ
		switch {
		case r.clear&bit != 0:
			in[typ] = 0
		case r.selectAll&bit != 0:
			in[typ] = eventDetails[typ].all
		case typ == MapNotify && r.affectWhich&bit != 0:
			in[typ] = in[typ]&^uint32(r.affectMap) | uint32(r.mapDetail)
		}
	}
	for _, s := range sels {
		in[s.typ] = in[s.typ]&^s.affect | s.details
	}

	if *in == ([numEventTypes]uint32{}) {
		delete(cs.interest, dev.ID)
	} else {
		cs.interest[dev.ID] = in
	}
	return xserver.Success
}

// newEvent starts an XKB event of the given type for dev.
func (x *Xkb) newEvent(typ int, dev *input.Device) []byte {
	ev := make([]byte, xserver.EventSize)
	ev[0] = x.ext.Event(0)
	ev[1] = byte(typ)
	xserver.Put32(ev[4:], x.srv.CurrentTime())
	ev[8] = byte(dev.ID)
	return ev
}

// sendEvent delivers ev to every client that selected one of the detail
// bits of its type on dev.
func (x *Xkb) sendEvent(dev *input.Device, typ int, detail uint32, ev []byte) {
	for _, cs := range x.clients {
		if !cs.initialized {
			continue
		}
		in := cs.interest[dev.ID]
		if in == nil || in[typ]&detail == 0 {
			continue
		}
		cs.c.WriteEvents(ev)
	}
}

// stateNotify reports how dev's keyboard state moved away from prev,
// along with the indicators that followed it.
//
//	StateNotify: 1 type, 1 xkb type, 2 sequence, 4 time, 1 device,
//	1 mods, 1 base mods, 1 latched mods, 1 locked mods, 1 group,
//	2 base group, 2 latched group, 1 locked group, 1 compat state,
//	1 grab mods, 1 compat grab mods, 1 lookup mods,
//	1 compat lookup mods, 2 pointer buttons, 2 changed, 1 keycode,
//	1 event type, 1 request major, 1 request minor
func (x *Xkb) stateNotify(dev *input.Device, prev *input.State, minor byte) {
	s := &dev.Key.State
	if changed := stateChanges(prev, s); changed != 0 {
		ev := x.newEvent(StateNotify, dev)
		ev[9] = s.Mods
		ev[10] = s.BaseMods
		ev[11] = s.LatchedMods
		ev[12] = s.LockedMods
		ev[13] = s.Group
		xserver.Put16(ev[14:], uint16(s.BaseGroup))
		xserver.Put16(ev[16:], uint16(s.LatchedGroup))
		ev[18] = s.LockedGroup
		ev[19] = s.CompatState
		ev[20] = s.GrabMods
		ev[21] = s.CompatGrabMods
		ev[22] = s.LookupMods
		ev[23] = s.CompatLookupMods
		xserver.Put16(ev[24:], s.PtrButtons)
		xserver.Put16(ev[26:], changed)
		ev[30] = x.ext.Major
		ev[31] = minor
		x.sendEvent(dev, StateNotify, uint32(changed), ev)
	}

	//	IndicatorStateNotify: 1 type, 1 xkb type, 2 sequence, 4 time,
	//	1 device, 3 unused, 4 state, 4 changed
	was, is := indicators(prev), indicators(s)
	if changed := was ^ is; changed != 0 {
		ev := x.newEvent(IndicatorStateNotify, dev)
		xserver.Put32(ev[12:], is)
		xserver.Put32(ev[16:], changed)
		x.sendEvent(dev, IndicatorStateNotify, changed, ev)
	}
}

// controlsNotify reports changed controls.
//
//	1 type, 1 xkb type, 2 sequence, 4 time, 1 device, 1 groups,
//	2 unused, 4 changed, 4 enabled, 4 enabled changes, 1 keycode,
//	1 event type, 1 request major, 1 request minor
func (x *Xkb) controlsNotify(dev *input.Device, old, next *Controls, changed uint32, minor byte) {
	ev := x.newEvent(ControlsNotify, dev)
	ev[9] = next.NumGroups
	xserver.Put32(ev[12:], changed)
	xserver.Put32(ev[16:], next.EnabledCtrls)
	xserver.Put32(ev[20:], old.EnabledCtrls^next.EnabledCtrls)
	ev[26] = x.ext.Major
	ev[27] = minor
	x.sendEvent(dev, ControlsNotify, changed, ev)
}

// bellNotify reports a bell.
//
//	1 type, 1 xkb type, 2 sequence, 4 time, 1 device, 1 class, 1 id,
//	1 percent, 2 pitch, 2 duration, 4 name, 4 window, 1 event only
func (x *Xkb) bellNotify(dev *input.Device, b *bell, percent int) {
	ev := x.newEvent(BellNotify, dev)
	ev[9] = byte(b.class)
	ev[10] = byte(b.id)
	ev[11] = byte(percent)
	xserver.Put16(ev[12:], uint16(b.pitch))
	xserver.Put16(ev[14:], uint16(b.duration))
	xserver.Put32(ev[16:], b.name)
	xserver.Put32(ev[20:], b.window)
	if b.eventOnly {
		ev[24] = 1
	}
	x.sendEvent(dev, BellNotify, 1, ev)
}

// swapEvent swaps the events the extension sends.
func swapEvent(from, to []byte) {
	copy(to, from)
	xserver.CopySwap16(to[2:], from[2:])
	xserver.CopySwap32(to[4:], from[4:])
	var f16, f32 []int
	switch from[1] {
	case StateNotify:
		f16 = []int{14, 16, 24, 26}
	case ControlsNotify:
		f32 = []int{12, 16, 20}
	case IndicatorStateNotify:
		f32 = []int{12, 16}
	case BellNotify:
		f16 = []int{12, 14}
		f32 = []int{16, 20}
	}
	for _, off := range f16 {
		xserver.CopySwap16(to[off:], from[off:])
	}
	for _, off := range f32 {
		xserver.CopySwap32(to[off:], from[off:])
	}
}
