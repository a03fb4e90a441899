// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Status is the result of a request handler: Success or a protocol error
// number. Extension error numbers are offset by the extension's error
// base, see (*Extension).Error.
type Status int

const (
	Success           Status = 0
	BadRequest        Status = xproto.BadRequest
	BadValue          Status = xproto.BadValue
	BadWindow         Status = xproto.BadWindow
	BadPixmap         Status = xproto.BadPixmap
	BadAtom           Status = xproto.BadAtom
	BadMatch          Status = xproto.BadMatch
	BadDrawable       Status = xproto.BadDrawable
	BadAccess         Status = xproto.BadAccess
	BadAlloc          Status = xproto.BadAlloc
	BadIDChoice       Status = xproto.BadIDChoice
	BadName           Status = xproto.BadName
	BadLength         Status = xproto.BadLength
	BadImplementation Status = xproto.BadImplementation
)

var statusNames = map[Status]string{
	Success:           "Success",
	BadRequest:        "BadRequest",
	BadValue:          "BadValue",
	BadWindow:         "BadWindow",
	BadPixmap:         "BadPixmap",
	BadAtom:           "BadAtom",
	BadMatch:          "BadMatch",
	BadDrawable:       "BadDrawable",
	BadAccess:         "BadAccess",
	BadAlloc:          "BadAlloc",
	BadIDChoice:       "BadIDChoice",
	BadName:           "BadName",
	BadLength:         "BadLength",
	BadImplementation: "BadImplementation",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Error(%d)", int(s))
}

// errorType is the first byte of every error packet.
const errorType = 0

// Error is a protocol error as sent to a client.
type Error struct {
	Code     Status
	Sequence uint16
	Value    uint32
	Minor    uint16
	Major    byte
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s {Sequence: %d, Value: %d, Major: %d, Minor: %d}",
		err.Code, err.Sequence, err.Value, err.Major, err.Minor)
}

// Bytes encodes the 32 byte error packet in host order, swapped when
// swapped is set.
func (err *Error) Bytes(swapped bool) []byte {
	buf := make([]byte, 32)
	b := 0

	buf[b] = errorType
	b += 1

	buf[b] = byte(err.Code)
	b += 1

	Put16(buf[b:], err.Sequence)
	if swapped {
		Swap16(buf[b:])
	}
	b += 2

	Put32(buf[b:], err.Value)
	if swapped {
		Swap32(buf[b:])
	}
	b += 4

	Put16(buf[b:], err.Minor)
	if swapped {
		Swap16(buf[b:])
	}
	b += 2

	buf[b] = err.Major

	return buf
}
