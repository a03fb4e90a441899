// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shape

import "github.com/stefan11111/xserver"

// The swap wrappers check the length they need, swap the request in place
// and hand it to the direct handler.

func (s *Shape) sProcRectangles(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, rectanglesSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[8:])
	xserver.Swap16(req.Buf[12:])
	xserver.Swap16(req.Buf[14:])
	xserver.SwapRest16(req.Buf[rectanglesSize:])
	return s.procRectangles(c, req)
}

func (s *Shape) sProcMask(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, maskSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[8:])
	xserver.Swap16(req.Buf[12:])
	xserver.Swap16(req.Buf[14:])
	xserver.Swap32(req.Buf[16:])
	return s.procMask(c, req)
}

func (s *Shape) sProcCombine(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, combineSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[8:])
	xserver.Swap16(req.Buf[12:])
	xserver.Swap16(req.Buf[14:])
	xserver.Swap32(req.Buf[16:])
	return s.procCombine(c, req)
}

func (s *Shape) sProcOffset(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestAtLeastSize(req, offsetSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[8:])
	xserver.Swap16(req.Buf[12:])
	xserver.Swap16(req.Buf[14:])
	return s.procOffset(c, req)
}

func (s *Shape) sProcQueryExtents(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, queryExtentsSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[4:])
	return s.procQueryExtents(c, req)
}

func (s *Shape) sProcSelectInput(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, selectInputSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[4:])
	return s.procSelectInput(c, req)
}

func (s *Shape) sProcInputSelected(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, inputSelectedSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[4:])
	return s.procInputSelected(c, req)
}

func (s *Shape) sProcGetRectangles(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, getRectanglesSize); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[4:])
	return s.procGetRectangles(c, req)
}
