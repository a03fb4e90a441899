// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xinput implements the version negotiation and pointer query
// requests of the X Input extension, version 2.4.
package xinput

import (
	"github.com/pkg/errors"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/input"
	"github.com/stefan11111/xserver/panoramix"
	"github.com/stefan11111/xserver/resource"
)

const (
	ExtName = "XInputExtension"

	MajorVersion = 2
	MinorVersion = 4

	// The extension keeps the event and error numbers of version 1.
	numEvents = 17
	numErrors = 5
)

// Request opcodes.
const (
	QueryPointer = 40
	QueryVersion = 47
)

// Error numbers, relative to the extension's first error.
const (
	BadDevice = iota
	BadEvent
	BadMode
	DeviceBusy
	BadClass
)

var logger = xserver.NewLogger("xinput")

// Version is a negotiated protocol version.
type Version struct {
	Major, Minor uint16
}

// AtLeast reports whether v is major.minor or later.
func (v Version) AtLeast(major, minor uint16) bool {
	return v.Major > major || v.Major == major && v.Minor >= minor
}

// XInput is the extension instance of one server.
type XInput struct {
	srv  *xserver.Server
	ext  *xserver.Extension
	res  *resource.Table
	devs *input.Table
	pan  *panoramix.Panoramix
}

// Register adds the extension to srv. pan may be nil.
func Register(srv *xserver.Server, res *resource.Table, devs *input.Table, pan *panoramix.Panoramix) (*XInput, error) {
	ext, err := srv.AddExtension(ExtName, numEvents, numErrors)
	if err != nil {
		return nil, errors.Wrap(err, "xinput")
	}
	x := &XInput{srv: srv, ext: ext, res: res, devs: devs, pan: pan}
	ext.Procs.Set(QueryPointer, x.procQueryPointer)
	ext.Procs.Set(QueryVersion, x.procQueryVersion)
	ext.SwappedProcs.Set(QueryPointer, x.sProcQueryPointer)
	ext.SwappedProcs.Set(QueryVersion, x.sProcQueryVersion)
	return x, nil
}

// Extension returns the registered extension.
func (x *XInput) Extension() *xserver.Extension { return x.ext }

// ClientVersion is the version c negotiated, zero before QueryVersion.
func ClientVersion(c *xserver.Client) Version {
	v, _ := c.Private[ExtName].(Version)
	return v
}

// QueryVersion
//
//	request: 1 major, 1 minor, 2 length, 2 major version, 2 minor version
//	reply: 1 type, 1 unused, 2 sequence, 4 length, 2 major version,
//	2 minor version, 20 unused
func (x *XInput) procQueryVersion(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, 8); st != xserver.Success {
		return st
	}
	want := Version{
		Major: xserver.Get16(req.Buf[4:]),
		Minor: xserver.Get16(req.Buf[6:]),
	}
	if want.Major < 2 {
		c.ErrorValue = uint32(want.Major)
		return xserver.BadValue
	}

	v := Version{MajorVersion, MinorVersion}
	if !want.AtLeast(v.Major, v.Minor) {
		v = want
	}
	c.Private[ExtName] = v
	logger.WithField("client", c.Index).Debugf("version %d.%d", v.Major, v.Minor)

	reply := make([]byte, xserver.GenericReplySize)
	xserver.Put16(reply[8:], v.Major)
	xserver.Put16(reply[10:], v.Minor)
	if c.Swapped {
		xserver.Swap16(reply[8:])
		xserver.Swap16(reply[10:])
	}
	return xserver.SendReplySimple(c, reply)
}

func (x *XInput) sProcQueryVersion(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, 8); st != xserver.Success {
		return st
	}
	xserver.Swap16(req.Buf[4:])
	xserver.Swap16(req.Buf[6:])
	return x.procQueryVersion(c, req)
}
