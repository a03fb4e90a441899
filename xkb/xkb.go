// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xkb implements the request layer of the XKEYBOARD extension:
// byte swapping for every request, and the requests dealing with
// keyboard state, controls, bells and event selection. Requests working
// on keymaps are left to a keymap compiler installed with Handle.
package xkb

import (
	"github.com/pkg/errors"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/input"
	"github.com/stefan11111/xserver/resource"
)

const (
	ExtName = "XKEYBOARD"

	MajorVersion = 1
	MinorVersion = 0
)

// Request opcodes.
const (
	UseExtension      = 0
	SelectEvents      = 1
	Bell              = 3
	GetState          = 4
	LatchLockState    = 5
	GetControls       = 6
	SetControls       = 7
	GetMap            = 8
	SetMap            = 9
	GetCompatMap      = 10
	SetCompatMap      = 11
	GetIndicatorState = 12
	GetIndicatorMap   = 13
	SetIndicatorMap   = 14
	GetNamedIndicator = 15
	SetNamedIndicator = 16
	GetNames          = 17
	SetNames          = 18
	GetGeometry       = 19
	SetGeometry       = 20
	PerClientFlags    = 21
	ListComponents    = 22
	GetKbdByName      = 23
	GetDeviceInfo     = 24
	SetDeviceInfo     = 25
	SetDebuggingFlags = 101
)

// BadKeyboard is the extension's only error, relative to its first error.
const BadKeyboard = 0

// Device specifications naming the core devices.
const (
	UseCoreKbd = 0x100
	UseCorePtr = 0x200
)

// Per-client flags.
const (
	PCFDetectableAutoRepeat = 1 << iota
	PCFGrabsUseXKBState
	PCFAutoResetControls
	PCFLookupStateWhenGrabbed
	PCFSendEventUsesXKBState

	pcfAllFlags = 1<<iota - 1
)

var logger = xserver.NewLogger("xkb")

// errCode2 and errCode3 pack the error values of XKB requests: a tag in
// the top byte telling which check failed, and the offending values.
func errCode2(a byte, b uint32) uint32 { return uint32(a)<<24 | b&0xffffff }

func errCode3(a byte, b, c uint32) uint32 { return errCode2(a, (b&0xff)<<16|c&0xffff) }

// BellFunc rings a keyboard bell.
type BellFunc func(dev *input.Device, percent, pitch, duration int)

// clientState is what the extension keeps per client.
type clientState struct {
	c *xserver.Client

	// initialized is set by a successful UseExtension; before that every
	// other request is refused.
	initialized  bool
	major, minor uint16

	flags          uint32
	autoCtrls      uint32
	autoCtrlValues uint32

	// interest holds the selected event details per device.
	interest map[uint16]*[numEventTypes]uint32
}

// keyboard is the XKB description of one device.
type keyboard struct {
	ctrls       Controls
	bellPercent int
	bellPitch   int
	bellLength  int
}

// Xkb is the extension instance of one server.
type Xkb struct {
	// Ring, when set, is called for every bell that is not event only.
	Ring BellFunc

	// BellPercent, BellPitch and BellDuration are the bell settings new
	// keyboards start with.
	BellPercent, BellPitch, BellDuration int

	srv  *xserver.Server
	ext  *xserver.Extension
	res  *resource.Table
	devs *input.Table

	clients []*clientState
	kbds    map[uint16]*keyboard
	keymap  map[byte]xserver.Proc

	debugFlags, debugCtrls uint32
}

// Register adds the extension to srv.
func Register(srv *xserver.Server, res *resource.Table, devs *input.Table) (*Xkb, error) {
	ext, err := srv.AddExtension(ExtName, 1, 1)
	if err != nil {
		return nil, errors.Wrap(err, "xkb")
	}
	x := &Xkb{
		BellPercent:  50,
		BellPitch:    400,
		BellDuration: 100,

		srv:    srv,
		ext:    ext,
		res:    res,
		devs:   devs,
		kbds:   make(map[uint16]*keyboard),
		keymap: make(map[byte]xserver.Proc),
	}

	procs := []struct {
		op      byte
		direct  xserver.Proc
		swapped xserver.Proc
	}{
		{SelectEvents, x.procSelectEvents, x.sProcSelectEvents},
		{Bell, x.procBell, x.sProcBell},
		{GetState, x.procGetState, x.sProcGetState},
		{LatchLockState, x.procLatchLockState, x.sProcLatchLockState},
		{GetControls, x.procGetControls, x.sProcGetControls},
		{SetControls, x.procSetControls, x.sProcSetControls},
		{GetMap, x.keymapProc(GetMap), x.keymapProc(GetMap)},
		{SetMap, x.keymapProc(SetMap), x.sProcSetMap},
		{GetCompatMap, x.keymapProc(GetCompatMap), x.keymapProc(GetCompatMap)},
		{SetCompatMap, x.keymapProc(SetCompatMap), x.sProcSetCompatMap},
		{GetIndicatorState, x.procGetIndicatorState, x.sProcGetIndicatorState},
		{GetIndicatorMap, x.keymapProc(GetIndicatorMap), x.keymapProc(GetIndicatorMap)},
		{SetIndicatorMap, x.keymapProc(SetIndicatorMap), x.sProcSetIndicatorMap},
		{GetNamedIndicator, x.keymapProc(GetNamedIndicator), x.keymapProc(GetNamedIndicator)},
		{SetNamedIndicator, x.keymapProc(SetNamedIndicator), x.keymapProc(SetNamedIndicator)},
		{GetNames, x.keymapProc(GetNames), x.keymapProc(GetNames)},
		{SetNames, x.keymapProc(SetNames), x.keymapProc(SetNames)},
		{GetGeometry, x.keymapProc(GetGeometry), x.sProcGetGeometry},
		{SetGeometry, x.keymapProc(SetGeometry), x.keymapProc(SetGeometry)},
		{PerClientFlags, x.procPerClientFlags, x.sProcPerClientFlags},
		{ListComponents, x.keymapProc(ListComponents), x.keymapProc(ListComponents)},
		{GetKbdByName, x.keymapProc(GetKbdByName), x.sProcGetKbdByName},
		{GetDeviceInfo, x.keymapProc(GetDeviceInfo), x.keymapProc(GetDeviceInfo)},
		{SetDeviceInfo, x.keymapProc(SetDeviceInfo), x.sProcSetDeviceInfo},
		{SetDebuggingFlags, x.procSetDebuggingFlags, x.sProcSetDebuggingFlags},
	}
	ext.Procs.Set(UseExtension, x.procUseExtension)
	ext.SwappedProcs.Set(UseExtension, x.sProcUseExtension)
	for _, p := range procs {
		ext.Procs.Set(p.op, x.gate(p.direct))
		ext.SwappedProcs.Set(p.op, x.gate(p.swapped))
	}

	srv.SetEventSwap(ext.Event(0), swapEvent)
	srv.AddClientHook(x)
	return x, nil
}

// Extension returns the registered extension.
func (x *Xkb) Extension() *xserver.Extension { return x.ext }

// Handle installs the handler of a keymap request. Handlers of requests
// without a swap wrapper get the request as the client sent it.
func (x *Xkb) Handle(op byte, p xserver.Proc) {
	x.keymap[op] = p
}

func (x *Xkb) keymapProc(op byte) xserver.Proc {
	return func(c *xserver.Client, req *xserver.Request) xserver.Status {
		if p := x.keymap[op]; p != nil {
			return p(c, req)
		}
		return xserver.BadImplementation
	}
}

// gate refuses requests from clients that have not negotiated the
// extension yet.
func (x *Xkb) gate(p xserver.Proc) xserver.Proc {
	return func(c *xserver.Client, req *xserver.Request) xserver.Status {
		if cs := x.lookupClient(c); cs == nil || !cs.initialized {
			return xserver.BadAccess
		}
		return p(c, req)
	}
}

func (x *Xkb) lookupClient(c *xserver.Client) *clientState {
	for _, cs := range x.clients {
		if cs.c == c {
			return cs
		}
	}
	return nil
}

func (x *Xkb) client(c *xserver.Client) *clientState {
	if cs := x.lookupClient(c); cs != nil {
		return cs
	}
	cs := &clientState{c: c, interest: make(map[uint16]*[numEventTypes]uint32)}
	x.clients = append(x.clients, cs)
	return cs
}

// ClientGone forgets the client's selections.
func (x *Xkb) ClientGone(c *xserver.Client) {
	for i, cs := range x.clients {
		if cs.c == c {
			x.clients = append(x.clients[:i:i], x.clients[i+1:]...)
			return
		}
	}
}

// lookupKeyboard resolves a device specification to a device with keys.
func (x *Xkb) lookupKeyboard(spec uint16, c *xserver.Client, mode resource.Access) (*input.Device, *keyboard, xserver.Status) {
	id := spec
	switch spec {
	case UseCoreKbd:
		id = input.CoreKeyboard
	case UseCorePtr:
		id = input.CorePointer
	}
	dev, ok := x.devs.Lookup(id, c, mode)
	if ok {
		dev = dev.Keyboard()
	}
	if dev == nil || dev.Key == nil {
		c.ErrorValue = errCode2(0xff, uint32(spec))
		return nil, nil, x.ext.Error(BadKeyboard)
	}
	return dev, x.keyboard(dev), xserver.Success
}

func (x *Xkb) keyboard(dev *input.Device) *keyboard {
	kb := x.kbds[dev.ID]
	if kb == nil {
		kb = &keyboard{
			ctrls:       DefaultControls(),
			bellPercent: x.BellPercent,
			bellPitch:   x.BellPitch,
			bellLength:  x.BellDuration,
		}
		x.kbds[dev.ID] = kb
	}
	return kb
}
