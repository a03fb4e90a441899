// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

const (
	// ReplyType is the first byte of every reply.
	ReplyType = 1

	// GenericReplySize is the size of the smallest reply. Longer reply
	// headers count their extra bytes in the length field.
	GenericReplySize = 32
)

// SendReply writes a reply header followed by the payload in rb. The
// header must be at least GenericReplySize bytes; its type, sequence
// number and length are filled in here. The payload is cleared whatever
// happens. A poisoned payload yields BadAlloc and nothing is written.
func SendReply(c *Client, hdr []byte, rb *ReplyBuffer) Status {
	if rb != nil {
		defer rb.Clear()
		if rb.Err() {
			return BadAlloc
		}
	}

	units := 0
	if rb != nil {
		units = rb.Units()
	}
	writeReplyHeader(c, hdr, units)

	c.Write(hdr)
	if rb != nil && rb.Len() > 0 {
		c.Write(rb.Bytes())
	}
	return Success
}

// SendReplySimple writes a reply that has no payload.
func SendReplySimple(c *Client, hdr []byte) Status {
	writeReplyHeader(c, hdr, 0)
	c.Write(hdr)
	return Success
}

func writeReplyHeader(c *Client, hdr []byte, extra int) {
	if len(hdr) < GenericReplySize || len(hdr)%4 != 0 {
		logger.Panicf("reply header of %d bytes", len(hdr))
	}
	hdr[0] = ReplyType

	// The sequence number wraps at 64k; clients extend it themselves.
	Put16(hdr[2:], uint16(c.Sequence))
	Put32(hdr[4:], uint32(Units(len(hdr)-GenericReplySize)+extra))
	if c.Swapped {
		Swap16(hdr[2:])
		Swap32(hdr[4:])
	}
}
