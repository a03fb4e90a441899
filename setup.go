// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	ProtocolMajor = 11
	ProtocolMinor = 0

	setupFailed  = 0
	setupSuccess = 1

	setupPrefixSize = 12
	setupFixedSize  = 40
)

// setupPrefix is the first thing a client sends.
type setupPrefix struct {
	order        binary.ByteOrder
	major, minor uint16
	authName     string
	authData     []byte
}

func readSetupPrefix(r io.Reader) (*setupPrefix, error) {
	var buf [setupPrefixSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, errors.Wrap(err, "setup prefix")
	}

	p := &setupPrefix{}
	switch buf[0] {
	case 'B':
		p.order = binary.BigEndian
	case 'l':
		p.order = binary.LittleEndian
	default:
		return nil, errors.Errorf("bad byte order %#x", buf[0])
	}
	p.major = p.order.Uint16(buf[2:])
	p.minor = p.order.Uint16(buf[4:])
	nameLen := int(p.order.Uint16(buf[6:]))
	dataLen := int(p.order.Uint16(buf[8:]))

	rest := make([]byte, Pad(nameLen)+Pad(dataLen))
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, errors.Wrap(err, "setup authorization")
	}
	p.authName = string(rest[:nameLen])
	p.authData = rest[Pad(nameLen) : Pad(nameLen)+dataLen]
	return p, nil
}

// setup runs the connection handshake and registers the new client. On
// refusal the failure block is written before the error is returned.
func (s *Server) setup(r io.Reader, w io.Writer) (*Client, error) {
	p, err := readSetupPrefix(r)
	if err != nil {
		return nil, err
	}

	var reason string
	switch {
	case p.major != ProtocolMajor:
		reason = "Protocol version mismatch"
	case s.Auth != nil && !s.Auth.Check(p.authName, p.authData):
		reason = "Authorization required, but no authorization protocol specified"
	}
	if reason != "" {
		if _, err := w.Write(setupFailure(p.order, reason)); err != nil {
			return nil, errors.Wrap(err, "setup failure")
		}
		return nil, errors.New(reason)
	}

	c := s.NewClient(w, p.order)
	c.Write(s.setupSuccess(c))
	c.Flush()
	if err := c.Err(); err != nil {
		s.CloseClient(c)
		return nil, err
	}
	return c, nil
}

func setupFailure(order binary.ByteOrder, reason string) []byte {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	buf := make([]byte, 8+Pad(len(reason)))
	buf[0] = setupFailed
	buf[1] = byte(len(reason))
	order.PutUint16(buf[2:], ProtocolMajor)
	order.PutUint16(buf[4:], ProtocolMinor)
	order.PutUint16(buf[6:], uint16(Units(len(reason))))
	copy(buf[8:], reason)
	return buf
}

// setupSuccess encodes the accepted-connection block. It lists no screens
// and no pixmap formats; clients of this server only talk to extensions.
func (s *Server) setupSuccess(c *Client) []byte {
	order := c.ByteOrder
	vendor := s.Vendor
	if len(vendor) > 0xffff {
		vendor = vendor[:0xffff]
	}
	buf := make([]byte, setupFixedSize+Pad(len(vendor)))
	b := 0

	buf[b] = setupSuccess
	b += 2

	order.PutUint16(buf[b:], ProtocolMajor)
	b += 2

	order.PutUint16(buf[b:], ProtocolMinor)
	b += 2

	order.PutUint16(buf[b:], uint16(Units(len(buf)-8)))
	b += 2

	order.PutUint32(buf[b:], s.Release)
	b += 4

	order.PutUint32(buf[b:], c.ResourceBase())
	b += 4

	order.PutUint32(buf[b:], resourceMask)
	b += 4

	// motion buffer size
	b += 4

	order.PutUint16(buf[b:], uint16(len(vendor)))
	b += 2

	order.PutUint16(buf[b:], uint16(s.maxRequestLength()))
	b += 2

	// screens, formats
	b += 2

	// image byte order: 0 is LSBFirst
	if HostOrder == binary.BigEndian {
		buf[b] = 1
	}
	b += 1

	// bitmap bit order, scanline unit, scanline pad
	buf[b] = 0
	buf[b+1] = 32
	buf[b+2] = 32
	b += 3

	// min and max keycode
	buf[b] = 8
	buf[b+1] = 255
	b += 2

	b += 4

	copy(buf[b:], vendor)
	return buf
}
