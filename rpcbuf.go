// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

// DefaultReplyLimit bounds a reply payload: the length field of a reply
// counts 4-byte units in 32 bits, but nothing sane gets close to that.
const DefaultReplyLimit = 16 << 20

// ReplyBuffer accumulates the variable part of a reply. Integer writes are
// swapped as they are written when Swapped is set. Once a write fails the
// buffer stays poisoned until Clear, and SendReply refuses to send it.
type ReplyBuffer struct {
	Swapped bool
	// Limit is the payload size at which writes start failing. Zero means
	// DefaultReplyLimit.
	Limit int

	buf []byte
	err bool
}

// NewReplyBuffer returns an empty buffer in the client's byte order.
func NewReplyBuffer(c *Client) *ReplyBuffer {
	return &ReplyBuffer{Swapped: c.Swapped}
}

func (rb *ReplyBuffer) limit() int {
	if rb.Limit > 0 {
		return rb.Limit
	}
	return DefaultReplyLimit
}

// grow extends the buffer by n zero bytes and returns them, or nil after
// marking the buffer bad.
func (rb *ReplyBuffer) grow(n int) []byte {
	if rb.err {
		return nil
	}
	if len(rb.buf)+n > rb.limit() {
		rb.err = true
		return nil
	}
	start := len(rb.buf)
	rb.buf = append(rb.buf, make([]byte, n)...)
	return rb.buf[start:]
}

// Reserve appends n zero bytes and returns them for the caller to fill.
// The slice is only valid until the next write.
func (rb *ReplyBuffer) Reserve(n int) []byte {
	return rb.grow(n)
}

func (rb *ReplyBuffer) WriteCard8s(vs ...byte) bool {
	buf := rb.grow(len(vs))
	if buf == nil {
		return false
	}
	copy(buf, vs)
	return true
}

func (rb *ReplyBuffer) WriteCard16s(vs ...uint16) bool {
	buf := rb.grow(len(vs) * 2)
	if buf == nil {
		return false
	}
	for i, v := range vs {
		Put16(buf[i*2:], v)
		if rb.Swapped {
			Swap16(buf[i*2:])
		}
	}
	return true
}

func (rb *ReplyBuffer) WriteCard32s(vs ...uint32) bool {
	buf := rb.grow(len(vs) * 4)
	if buf == nil {
		return false
	}
	for i, v := range vs {
		Put32(buf[i*4:], v)
		if rb.Swapped {
			Swap32(buf[i*4:])
		}
	}
	return true
}

// WriteString writes a length-prefixed STR as used by ListExtensions.
func (rb *ReplyBuffer) WriteString(s string) bool {
	if len(s) > 255 {
		rb.err = true
		return false
	}
	buf := rb.grow(1 + len(s))
	if buf == nil {
		return false
	}
	buf[0] = byte(len(s))
	copy(buf[1:], s)
	return true
}

// Len is the number of payload bytes written so far.
func (rb *ReplyBuffer) Len() int { return len(rb.buf) }

// Units is the payload size in 4-byte units, counting padding.
func (rb *ReplyBuffer) Units() int { return Units(len(rb.buf)) }

// Err reports whether a write failed.
func (rb *ReplyBuffer) Err() bool { return rb.err }

// Bytes returns the payload written so far.
func (rb *ReplyBuffer) Bytes() []byte { return rb.buf }

// Clear empties the buffer and forgets any error.
func (rb *ReplyBuffer) Clear() {
	rb.buf = nil
	rb.err = false
}
