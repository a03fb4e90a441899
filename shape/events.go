// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shape

import (
	xshape "github.com/BurntSushi/xgb/shape"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/region"
	"github.com/stefan11111/xserver/resource"
)

// subscribe selects ShapeNotify on w for c. Selecting twice is a no-op.
func (s *Shape) subscribe(w *resource.Window, c *xserver.Client) xserver.Status {
	st := s.state(w)
	for _, sub := range st.subscribers {
		if sub == c {
			return xserver.Success
		}
	}
	if s.MaxSubscribers > 0 && len(st.subscribers) >= s.MaxSubscribers {
		return xserver.BadAlloc
	}
	st.subscribers = append([]*xserver.Client{c}, st.subscribers...)
	return xserver.Success
}

// unsubscribe drops c's selection on w, if any.
func (s *Shape) unsubscribe(w *resource.Window, c *xserver.Client) {
	if st := s.states[w.ID]; st != nil {
		st.subscribers = removeClient(st.subscribers, c)
	}
}

func (s *Shape) subscribed(w *resource.Window, c *xserver.Client) bool {
	if st := s.states[w.ID]; st != nil {
		for _, sub := range st.subscribers {
			if sub == c {
				return true
			}
		}
	}
	return false
}

func removeClient(subs []*xserver.Client, c *xserver.Client) []*xserver.Client {
	for i, sub := range subs {
		if sub == c {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}

// ClientGone drops every selection the client made.
func (s *Shape) ClientGone(c *xserver.Client) {
	ids := maps.Keys(s.states)
	slices.Sort(ids)
	for _, id := range ids {
		st := s.states[id]
		st.subscribers = removeClient(st.subscribers, c)
	}
}

// WindowDestroyed forgets the window's shapes and selections.
func (s *Shape) WindowDestroyed(w *resource.Window) {
	delete(s.states, w.ID)
}

// notify sends ShapeNotify for the given kind to every client that
// selected it on w.
func (s *Shape) notify(w *resource.Window, kind byte) {
	st := s.states[w.ID]
	if st == nil || len(st.subscribers) == 0 {
		return
	}
	ext, shaped := s.extents(w, kind)
	r := region.Rectangle(ext)

	ev := make([]byte, xserver.EventSize)
	ev[0] = s.ext.Event(xshape.Notify)
	ev[1] = kind
	xserver.Put32(ev[4:], uint32(w.ID))
	xserver.Put16(ev[8:], uint16(r.X))
	xserver.Put16(ev[10:], uint16(r.Y))
	xserver.Put16(ev[12:], r.Width)
	xserver.Put16(ev[14:], r.Height)
	xserver.Put32(ev[16:], s.srv.CurrentTime())
	if shaped {
		ev[20] = 1
	}

	logger.WithField("window", w.ID).Debugf("notify kind %d to %d clients",
		kind, len(st.subscribers))
	for _, c := range st.subscribers {
		c.WriteEvents(ev)
	}
}

// swapNotify swaps a ShapeNotify event
//
//	1 type, 1 kind, 2 sequence, 4 window, 2 x, 2 y, 2 width, 2 height,
//	4 time, 1 shaped, 11 unused
func swapNotify(from, to []byte) {
	copy(to, from)
	xserver.CopySwap16(to[2:], from[2:])
	xserver.CopySwap32(to[4:], from[4:])
	xserver.CopySwap16(to[8:], from[8:])
	xserver.CopySwap16(to[10:], from[10:])
	xserver.CopySwap16(to[12:], from[12:])
	xserver.CopySwap16(to[14:], from[14:])
	xserver.CopySwap32(to[16:], from[16:])
}
