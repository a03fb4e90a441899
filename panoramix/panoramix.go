// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package panoramix spreads one logical screen over several real ones.
// Every logical window or pixmap id a client sees stands for one
// resource per screen, and requests touching it are replayed on each.
package panoramix

import (
	"image"

	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/resource"
)

// Res maps a logical id to its per-screen ids, indexed by screen.
type Res struct {
	Info []uint32
}

// Panoramix is the replicated-screen state. A nil *Panoramix is inactive.
type Panoramix struct {
	// Screens holds each screen's place in the logical screen.
	Screens []xinerama.ScreenInfo

	// Check, when set, is asked about every successful lookup.
	Check resource.AccessChecker

	windows map[xproto.Window]*Res
	pixmaps map[xproto.Pixmap]*Res
}

func New(screens []xinerama.ScreenInfo) *Panoramix {
	return &Panoramix{
		Screens: screens,
		windows: make(map[xproto.Window]*Res),
		pixmaps: make(map[xproto.Pixmap]*Res),
	}
}

// Active reports whether requests have to be fanned out.
func (p *Panoramix) Active() bool {
	return p != nil && len(p.Screens) > 0
}

// Origin is the position of screen i in the logical screen.
func (p *Panoramix) Origin(i int) image.Point {
	s := p.Screens[i]
	return image.Point{X: int(s.XOrg), Y: int(s.YOrg)}
}

func (p *Panoramix) checkIds(ids []uint32) error {
	if len(ids) != len(p.Screens) {
		return errors.Errorf("%d per-screen ids for %d screens", len(ids), len(p.Screens))
	}
	return nil
}

// AddWindow records the per-screen windows behind a logical window.
func (p *Panoramix) AddWindow(id xproto.Window, perScreen ...xproto.Window) error {
	ids := make([]uint32, len(perScreen))
	for i, w := range perScreen {
		ids[i] = uint32(w)
	}
	if err := p.checkIds(ids); err != nil {
		return errors.WithMessagef(err, "window %#x", id)
	}
	p.windows[id] = &Res{Info: ids}
	return nil
}

// AddPixmap records the per-screen pixmaps behind a logical pixmap.
func (p *Panoramix) AddPixmap(id xproto.Pixmap, perScreen ...xproto.Pixmap) error {
	ids := make([]uint32, len(perScreen))
	for i, pm := range perScreen {
		ids[i] = uint32(pm)
	}
	if err := p.checkIds(ids); err != nil {
		return errors.WithMessagef(err, "pixmap %#x", id)
	}
	p.pixmaps[id] = &Res{Info: ids}
	return nil
}

// WindowDestroyed forgets the logical window w stands for, if any.
func (p *Panoramix) WindowDestroyed(w *resource.Window) {
	delete(p.windows, w.ID)
}

// LookupWindow resolves a logical window id.
func (p *Panoramix) LookupWindow(id xproto.Window, c *xserver.Client, mode resource.Access) (*Res, xserver.Status) {
	res, ok := p.windows[id]
	if !ok {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadWindow
	}
	if p.Check != nil && !p.Check(c, uint32(id), mode) {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadAccess
	}
	return res, xserver.Success
}

// LookupPixmap resolves a logical pixmap id.
func (p *Panoramix) LookupPixmap(id xproto.Pixmap, c *xserver.Client, mode resource.Access) (*Res, xserver.Status) {
	res, ok := p.pixmaps[id]
	if !ok {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadPixmap
	}
	if p.Check != nil && !p.Check(c, uint32(id), mode) {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadAccess
	}
	return res, xserver.Success
}

// ForEachScreenBackward runs fn for the last screen down to screen 0 and
// stops at the first failure, which it returns.
func (p *Panoramix) ForEachScreenBackward(fn func(i int) xserver.Status) xserver.Status {
	status := xserver.Success
	for i := len(p.Screens) - 1; i >= 0; i-- {
		if status = fn(i); status != xserver.Success {
			break
		}
	}
	return status
}
