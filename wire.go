// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// HostOrder is the byte order the server encodes and decodes in. Requests
// from swapped clients are brought into this order before any handler
// reads them; replies and events are built in it and swapped on the way
// out.
var HostOrder binary.ByteOrder = binary.LittleEndian

func init() {
	if cpu.IsBigEndian {
		HostOrder = binary.BigEndian
	}
}

// IsSwapped reports whether a client speaking the given byte order needs
// every multi-byte field swapped.
func IsSwapped(order binary.ByteOrder) bool {
	return order != HostOrder
}

// Pad a length to align on 4 bytes.
func Pad(n int) int { return (n + 3) & ^3 }

// Units converts a byte count to 4-byte units, rounding up.
func Units(n int) int { return (n + 3) >> 2 }

func Get16(buf []byte) uint16 { return HostOrder.Uint16(buf) }

func Get32(buf []byte) uint32 { return HostOrder.Uint32(buf) }

func Put16(buf []byte, v uint16) { HostOrder.PutUint16(buf, v) }

func Put32(buf []byte, v uint32) { HostOrder.PutUint32(buf, v) }

// Swap16 reverses the two bytes at the start of buf in place.
func Swap16(buf []byte) {
	buf[0], buf[1] = buf[1], buf[0]
}

// Swap32 reverses the four bytes at the start of buf in place.
func Swap32(buf []byte) {
	buf[0], buf[3] = buf[3], buf[0]
	buf[1], buf[2] = buf[2], buf[1]
}

// SwapRest16 swaps every complete 16-bit element of buf. A trailing odd
// byte is left alone.
func SwapRest16(buf []byte) {
	for i := 0; i+2 <= len(buf); i += 2 {
		Swap16(buf[i:])
	}
}

// CopySwap16 copies the 16-bit field at from into to, swapping it.
func CopySwap16(to, from []byte) {
	to[0], to[1] = from[1], from[0]
}

// CopySwap32 copies the 32-bit field at from into to, swapping it.
func CopySwap32(to, from []byte) {
	to[0], to[1], to[2], to[3] = from[3], from[2], from[1], from[0]
}

// RequestSizeMatch checks that a fixed-size request is exactly size bytes.
func RequestSizeMatch(req *Request, size int) Status {
	if size>>2 != req.Length {
		return BadLength
	}
	return Success
}

// RequestAtLeastSize checks that a request with a variable tail is at
// least size bytes.
func RequestAtLeastSize(req *Request, size int) Status {
	if size>>2 > req.Length {
		return BadLength
	}
	return Success
}

// RequestFixedSize checks that a request is size bytes followed by
// exactly n bytes of trailing data (padded to 4).
func RequestFixedSize(req *Request, size, n int) Status {
	if size>>2 > req.Length || (size+n+3)>>2 != req.Length {
		return BadLength
	}
	return Success
}

// ListLength returns how many elem-sized items follow a header of hdr
// bytes. The trailing byte count has to be a whole multiple of elem.
func ListLength(req *Request, hdr, elem int) (int, Status) {
	n := req.Length<<2 - hdr
	if n < 0 || n%elem != 0 {
		return 0, BadLength
	}
	return n / elem, Success
}
