// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package servertest has helpers for testing request handlers without a
// network connection: a writer that keeps every transmission, a request
// builder and a reader for what comes back.
package servertest

import (
	"encoding/binary"
	"sync"

	"github.com/stefan11111/xserver"
)

// Recorder is an io.Writer keeping each Write call as its own packet.
// A recorder made by NewClient waits for the client's queued output
// before answering, so what a handler sent is visible once it returns.
type Recorder struct {
	mu     sync.Mutex
	writes [][]byte
	// Fail, when set, is returned by every Write.
	Fail error

	client *xserver.Client
}

func (r *Recorder) flush() {
	if r.client != nil {
		r.client.Flush()
	}
}

func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return 0, r.Fail
	}
	r.writes = append(r.writes, append([]byte(nil), p...))
	return len(p), nil
}

// Writes returns the packets written so far.
func (r *Recorder) Writes() [][]byte {
	r.flush()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.writes...)
}

// Bytes returns everything written, concatenated.
func (r *Recorder) Bytes() []byte {
	r.flush()
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []byte
	for _, w := range r.writes {
		all = append(all, w...)
	}
	return all
}

// Reset forgets the recorded packets.
func (r *Recorder) Reset() {
	r.flush()
	r.mu.Lock()
	r.writes = nil
	r.mu.Unlock()
}

// Swapped is the byte order opposite to the host's.
func Swapped() binary.ByteOrder {
	if xserver.HostOrder == binary.LittleEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// NewClient attaches a recording client to srv. A nil order means host
// order.
func NewClient(srv *xserver.Server, order binary.ByteOrder) (*xserver.Client, *Recorder) {
	if order == nil {
		order = xserver.HostOrder
	}
	rec := &Recorder{}
	rec.client = srv.NewClient(rec, order)
	return rec.client, rec
}

// Builder encodes a request in a client's byte order.
type Builder struct {
	Order binary.ByteOrder
	buf   []byte
}

// NewRequest starts a request with the given opcodes and room for the
// length field.
func NewRequest(order binary.ByteOrder, major, minor byte) *Builder {
	if order == nil {
		order = xserver.HostOrder
	}
	return &Builder{Order: order, buf: []byte{major, minor, 0, 0}}
}

func (b *Builder) Card8(vs ...byte) *Builder {
	b.buf = append(b.buf, vs...)
	return b
}

func (b *Builder) Card16(vs ...uint16) *Builder {
	for _, v := range vs {
		var tmp [2]byte
		b.Order.PutUint16(tmp[:], v)
		b.buf = append(b.buf, tmp[:]...)
	}
	return b
}

func (b *Builder) Card32(vs ...uint32) *Builder {
	for _, v := range vs {
		var tmp [4]byte
		b.Order.PutUint32(tmp[:], v)
		b.buf = append(b.buf, tmp[:]...)
	}
	return b
}

func (b *Builder) Int16(vs ...int16) *Builder {
	for _, v := range vs {
		b.Card16(uint16(v))
	}
	return b
}

// Rect appends an xproto RECTANGLE.
func (b *Builder) Rect(x, y int16, w, h uint16) *Builder {
	return b.Int16(x, y).Card16(w, h)
}

// Pad appends n zero bytes.
func (b *Builder) Pad(n int) *Builder {
	b.buf = append(b.buf, make([]byte, n)...)
	return b
}

// Bytes appends raw bytes.
func (b *Builder) Bytes(p []byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

// Raw returns the encoded bytes without touching the length field or
// padding. Useful for malformed requests.
func (b *Builder) Raw() []byte {
	return b.buf
}

// Request pads the request to 4 bytes, fills in the length and wraps it.
func (b *Builder) Request() *xserver.Request {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.Order.PutUint16(b.buf[2:], uint16(len(b.buf)/4))
	return xserver.NewRequest(b.buf)
}

// Reader decodes what the server sent in a client's byte order.
type Reader struct {
	Order binary.ByteOrder
	Buf   []byte
}

func NewReader(order binary.ByteOrder, buf []byte) *Reader {
	if order == nil {
		order = xserver.HostOrder
	}
	return &Reader{Order: order, Buf: buf}
}

func (r *Reader) Card8(off int) byte { return r.Buf[off] }

func (r *Reader) Card16(off int) uint16 { return r.Order.Uint16(r.Buf[off:]) }

func (r *Reader) Card32(off int) uint32 { return r.Order.Uint32(r.Buf[off:]) }

func (r *Reader) Int16(off int) int16 { return int16(r.Card16(off)) }

func (r *Reader) Int32(off int) int32 { return int32(r.Card32(off)) }

// Sequence is the sequence number of a reply, error or event.
func (r *Reader) Sequence() uint16 { return r.Card16(2) }

// Length is the reply length field.
func (r *Reader) Length() uint32 { return r.Card32(4) }
