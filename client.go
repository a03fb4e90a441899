// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
)

const (
	// clientOffset is the bit position of the client index inside a
	// resource id; the low bits belong to the client.
	clientOffset = 21
	resourceMask = 1<<clientOffset - 1
)

// Request is one complete client request. Length is the declared length
// in 4-byte units and Buf holds exactly Length*4 bytes, header included.
type Request struct {
	Major  byte
	Minor  byte
	Length int
	Buf    []byte
}

// NewRequest wraps a complete request buffer. The length field of the
// header is not consulted; the buffer length is authoritative.
func NewRequest(buf []byte) *Request {
	return &Request{
		Major:  buf[0],
		Minor:  buf[1],
		Length: len(buf) >> 2,
		Buf:    buf,
	}
}

// ReadRequest reads the next request of a client from r. The header
// length is decoded in the client's byte order.
func ReadRequest(r io.Reader, order binary.ByteOrder, maxUnits int) (*Request, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	units := int(order.Uint16(hdr[2:]))
	if units == 0 {
		return nil, errors.New("zero length request without BIG-REQUESTS")
	}
	if maxUnits > 0 && units > maxUnits {
		return nil, errors.Errorf("request of %d units exceeds maximum %d",
			units, maxUnits)
	}
	buf := make([]byte, units<<2)
	copy(buf, hdr[:])
	if _, err := io.ReadFull(r, buf[4:]); err != nil {
		return nil, errors.Wrap(err, "short request")
	}
	return &Request{
		Major:  hdr[0],
		Minor:  hdr[1],
		Length: units,
		Buf:    buf,
	}, nil
}

// A Client is the server side of one connection.
type Client struct {
	Index     int
	ByteOrder binary.ByteOrder
	// Swapped is set when the client's byte order differs from HostOrder.
	Swapped bool
	// Sequence counts requests; only the low 16 bits go on the wire.
	Sequence uint32
	// ErrorValue is reported in the error packet of a failing request.
	ErrorValue uint32

	server *Server
	gone   bool

	// Transmissions are queued on outChan and written by sendReplies, so
	// a client that stops reading never holds up the protocol lock.
	out     io.Writer
	outChan chan []byte
	outDone chan struct{}

	mu      sync.Mutex
	flushed *sync.Cond
	err     error
	closed  bool
	queued  int
	written int

	// Private holds per-extension client state, keyed by extension name.
	Private map[string]interface{}
}

// NewClient attaches a client writing to w in the given byte order. A
// goroutine owned by the client does the writing until CloseClient.
func (s *Server) NewClient(w io.Writer, order binary.ByteOrder) *Client {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()

	s.nextClient++
	c := &Client{
		Index:     s.nextClient,
		ByteOrder: order,
		Swapped:   IsSwapped(order),
		server:    s,
		out:       w,
		outChan:   make(chan []byte, s.outputQueue()),
		outDone:   make(chan struct{}),
		Private:   make(map[string]interface{}),
	}
	c.flushed = sync.NewCond(&c.mu)
	s.clients[c.Index] = c
	go c.sendReplies()
	return c
}

// Server returns the server the client is attached to.
func (c *Client) Server() *Server { return c.server }

// ResourceBase is the first resource id the client may allocate.
func (c *Client) ResourceBase() uint32 { return uint32(c.Index) << clientOffset }

// OwnsResource reports whether id lies in the client's id range.
func (c *Client) OwnsResource(id uint32) bool {
	return id&^resourceMask == c.ResourceBase()
}

// Err returns the first output failure, after which nothing more is
// sent.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Write queues buf as one transmission, zero padded to 4 bytes. It never
// blocks: when the queue is full the client has stopped reading, and it
// is failed and its connection closed.
func (c *Client) Write(buf []byte) {
	if c.gone {
		return
	}
	out := make([]byte, Pad(len(buf)))
	copy(out, buf)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil || c.closed {
		return
	}
	select {
	case c.outChan <- out:
		c.queued++
	default:
		c.fail(errors.Errorf("client %d: %d transmissions unread",
			c.Index, cap(c.outChan)))
	}
}

// fail records the first output error and closes the connection, if the
// writer is one. c.mu is held.
func (c *Client) fail(err error) {
	if c.err != nil {
		return
	}
	c.err = err
	logger.WithField("client", c.Index).Println(err)
	if cl, ok := c.out.(io.Closer); ok {
		cl.Close()
	}
}

// sendReplies writes the queued transmissions in order until the queue
// is closed. After a failure the rest are dropped.
func (c *Client) sendReplies() {
	defer close(c.outDone)
	for buf := range c.outChan {
		var err error
		if c.Err() == nil {
			_, err = c.out.Write(buf)
		}

		c.mu.Lock()
		if err != nil {
			c.fail(errors.Wrapf(err, "client %d write", c.Index))
		}
		c.written++
		c.flushed.Broadcast()
		c.mu.Unlock()
	}
}

// Flush waits until everything queued so far has been written or
// dropped. It must not be called with the protocol lock held.
func (c *Client) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.written < c.queued {
		c.flushed.Wait()
	}
}

// closeOutput lets the writer finish what is queued and stop.
func (c *Client) closeOutput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.outChan)
	}
}

// SendError writes the error packet for a failed request.
func (c *Client) SendError(code Status, req *Request) {
	err := &Error{
		Code:     code,
		Sequence: uint16(c.Sequence),
		Value:    c.ErrorValue,
		Major:    req.Major,
	}
	if req.Major >= 128 {
		err.Minor = uint16(req.Minor)
	}
	c.Write(err.Bytes(c.Swapped))
}
