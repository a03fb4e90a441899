// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xkb

import "github.com/stefan11111/xserver"

// Swap wrappers check the request size, swap every multi-byte field of
// the fixed part in place and hand over to the direct handler. Field
// offsets are listed per request.

// swapFields swaps the 16-bit fields at f16 and the 32-bit ones at f32.
func swapFields(b []byte, f16, f32 []int) {
	for _, off := range f16 {
		xserver.Swap16(b[off:])
	}
	for _, off := range f32 {
		xserver.Swap32(b[off:])
	}
}

func (x *Xkb) sProcUseExtension(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, useExtensionSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 6}, nil)
	return x.procUseExtension(c, req)
}

func (x *Xkb) sProcSelectEvents(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, selectEventsSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 6, 8, 10, 12, 14}, nil)
	r := decodeSelectEvents(req.Buf)
	if _, _, st := walkDetails(c, &r, req.Buf[selectEventsSize:], true); st != xserver.Success {
		return st
	}
	return x.procSelectEvents(c, req)
}

func (x *Xkb) sProcBell(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, bellSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 6, 8, 14, 16}, []int{20, 24})
	return x.procBell(c, req)
}

func (x *Xkb) sProcGetState(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getStateSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4}, nil)
	return x.procGetState(c, req)
}

func (x *Xkb) sProcLatchLockState(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, latchLockStateSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 14}, nil)
	return x.procLatchLockState(c, req)
}

func (x *Xkb) sProcGetControls(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getControlsSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4}, nil)
	return x.procGetControls(c, req)
}

func (x *Xkb) sProcSetControls(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, setControlsSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf,
		[]int{4, 10, 12, 14, 16, 20, 36, 38, 40, 42, 44, 46, 48, 50, 52, 54, 64, 66},
		[]int{24, 28, 32, 56, 60})
	return x.procSetControls(c, req)
}

// sProcSetMap
//
//	2 device, 2 present, 2 flags, 6 first and count bytes,
//	2 total syms, 2 first and count bytes, 2 total actions,
//	12 first, count and total bytes, 2 virtual mods
func (x *Xkb) sProcSetMap(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, setMapSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 6, 8, 16, 20, 34}, nil)
	return x.keymapProc(SetMap)(c, req)
}

// sProcSetCompatMap
//
//	2 device, 1 unused, 1 recompute actions, 1 truncate, 1 groups,
//	2 first interpretation, 2 interpretations, 2 unused
func (x *Xkb) sProcSetCompatMap(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, setCompatMapSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 10, 12}, nil)
	return x.keymapProc(SetCompatMap)(c, req)
}

// sProcSetIndicatorMap
//
//	2 device, 2 unused, 4 which
func (x *Xkb) sProcSetIndicatorMap(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, setIndicatorMapSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4}, []int{8})
	return x.keymapProc(SetIndicatorMap)(c, req)
}

// sProcGetGeometry
//
//	2 device, 2 unused, 4 name
func (x *Xkb) sProcGetGeometry(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getGeometrySize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4}, []int{8})
	return x.keymapProc(GetGeometry)(c, req)
}

func (x *Xkb) sProcPerClientFlags(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, perClientFlagsSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4}, []int{8, 12, 16, 20, 24})
	return x.procPerClientFlags(c, req)
}

// sProcGetKbdByName
//
//	2 device, 2 need, 2 want, 1 load, 1 unused
func (x *Xkb) sProcGetKbdByName(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, getKbdByNameSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 6, 8}, nil)
	return x.keymapProc(GetKbdByName)(c, req)
}

// sProcSetDeviceInfo
//
//	2 device, 1 first button, 1 buttons, 2 change, 2 feedbacks
func (x *Xkb) sProcSetDeviceInfo(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, setDeviceInfoSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4, 8, 10}, nil)
	return x.keymapProc(SetDeviceInfo)(c, req)
}

func (x *Xkb) sProcGetIndicatorState(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getIndicatorStateSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4}, nil)
	return x.procGetIndicatorState(c, req)
}

func (x *Xkb) sProcSetDebuggingFlags(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, setDebuggingFlagsSize); st != xserver.Success {
		return st
	}
	swapFields(req.Buf, []int{4}, []int{8, 12, 16, 20})
	return x.procSetDebuggingFlags(c, req)
}
