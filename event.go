// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import "time"

const (
	// EventSize is the size of every core and extension event.
	EventSize = 32

	// keymapNotify carries key bits where the sequence number would be.
	keymapNotify = 11

	// sendEventBit marks events delivered through SendEvent.
	sendEventBit = 0x80
)

// EventSwapFunc copies the event in from into to, swapping every
// multi-byte field. Both are EventSize bytes.
type EventSwapFunc func(from, to []byte)

// SetEventSwap registers the swap function for an event code. Events
// without one cannot be delivered to swapped clients.
func (s *Server) SetEventSwap(code byte, fn EventSwapFunc) {
	s.eventSwaps[code&^sendEventBit] = fn
}

// WriteEvents delivers events to the client, filling in the sequence
// number and swapping for swapped clients. Events are built in host order
// and are not modified.
func (c *Client) WriteEvents(evs ...[]byte) {
	for _, ev := range evs {
		if len(ev) != EventSize {
			logger.Panicf("event of %d bytes", len(ev))
		}
		out := make([]byte, EventSize)
		copy(out, ev)
		code := out[0] &^ sendEventBit
		if code != keymapNotify {
			Put16(out[2:], uint16(c.Sequence))
		}
		if c.Swapped {
			fn := c.server.eventSwaps[code]
			if fn == nil {
				logger.WithField("client", c.Index).
					Warnf("no swap function for event %d, dropped", code)
				continue
			}
			swapped := make([]byte, EventSize)
			fn(out, swapped)
			out = swapped
		}
		c.Write(out)
	}
}

// CurrentTime is the server timestamp: milliseconds, wrapping at 32 bits.
func (s *Server) CurrentTime() uint32 {
	if s.Clock != nil {
		return s.Clock()
	}
	return uint32(time.Now().UnixMilli())
}
