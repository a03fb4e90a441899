// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resource keeps the server's screens, window tree and pixmaps and
// resolves client supplied ids to them.
package resource

import (
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/stefan11111/xserver"
)

var logger = xserver.NewLogger("resource")

// Access is the kind of use a lookup is made for. An access checker may
// refuse some of them.
type Access uint32

const (
	ReadAccess Access = 1 << iota
	WriteAccess
	GetAttrAccess
	SetAttrAccess
	ReceiveAccess
)

// ShapeHook is called after a window's shape of the given kind changed.
type ShapeHook func(w *Window, kind byte)

// Screen is one root window's screen.
type Screen struct {
	Index  int
	Root   *Window
	Width  int
	Height int

	// SetShape lets the screen react to shape changes. Every screen made
	// by AddScreen has one; a screen without it cannot take shapes.
	SetShape ShapeHook
}

// Window is a node of the window tree. X and Y are relative to the parent.
type Window struct {
	ID          xproto.Window
	Screen      *Screen
	Parent      *Window
	Children    []*Window
	X, Y        int
	Width       int
	Height      int
	BorderWidth int
}

// Origin is the window's position in root coordinates.
func (w *Window) Origin() image.Point {
	var p image.Point
	for ; w != nil; w = w.Parent {
		p.X += w.X
		p.Y += w.Y
	}
	return p
}

// IsRoot reports whether w is a root window.
func (w *Window) IsRoot() bool { return w.Parent == nil }

// Contains reports whether p, in root coordinates, falls inside w's
// border box.
func (w *Window) Contains(p image.Point) bool {
	o := w.Origin()
	box := image.Rectangle{
		Min: image.Point{X: o.X - w.BorderWidth, Y: o.Y - w.BorderWidth},
		Max: image.Point{X: o.X + w.Width + w.BorderWidth, Y: o.Y + w.Height + w.BorderWidth},
	}
	return p.In(box)
}

// Pixmap is an off-screen image. Depth 1 pixmaps hold one bit per pixel,
// Stride bytes per row.
type Pixmap struct {
	ID     xproto.Pixmap
	Screen *Screen
	Depth  byte
	Width  int
	Height int
	Stride int
	Data   []byte
}

// WindowHook is implemented by anything keeping per-window state.
// WindowDestroyed runs while the window can still be looked up.
type WindowHook interface {
	WindowDestroyed(w *Window)
}

// AccessChecker decides whether c may use the resource id for mode.
type AccessChecker func(c *xserver.Client, id uint32, mode Access) bool

// Table holds every screen, window and pixmap of the server.
type Table struct {
	// Check, when set, is asked about every successful lookup.
	Check AccessChecker

	screens []*Screen
	windows map[xproto.Window]*Window
	pixmaps map[xproto.Pixmap]*Pixmap
	hooks   []WindowHook
}

func NewTable() *Table {
	return &Table{
		windows: make(map[xproto.Window]*Window),
		pixmaps: make(map[xproto.Pixmap]*Pixmap),
	}
}

// AddScreen creates a screen and its root window.
func (t *Table) AddScreen(root xproto.Window, width, height int) (*Screen, error) {
	if _, ok := t.windows[root]; ok {
		return nil, errors.Errorf("root window %#x already exists", root)
	}
	s := &Screen{
		Index:    len(t.screens),
		Width:    width,
		Height:   height,
		SetShape: func(*Window, byte) {},
	}
	s.Root = &Window{ID: root, Screen: s, Width: width, Height: height}
	t.windows[root] = s.Root
	t.screens = append(t.screens, s)
	logger.WithField("screen", s.Index).Debugf("root %#x, %dx%d", root, width, height)
	return s, nil
}

// Screens returns the screens in index order.
func (t *Table) Screens() []*Screen { return t.screens }

// Screen returns the i-th screen or nil.
func (t *Table) Screen(i int) *Screen {
	if i < 0 || i >= len(t.screens) {
		return nil
	}
	return t.screens[i]
}

// CreateWindow adds a child window on top of parent's children.
func (t *Table) CreateWindow(id xproto.Window, parent *Window, x, y, width, height, border int) (*Window, error) {
	if _, ok := t.windows[id]; ok {
		return nil, errors.Errorf("window %#x already exists", id)
	}
	if parent == nil || t.windows[parent.ID] != parent {
		return nil, errors.Errorf("window %#x has no parent", id)
	}
	w := &Window{
		ID:          id,
		Screen:      parent.Screen,
		Parent:      parent,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BorderWidth: border,
	}
	parent.Children = append(parent.Children, w)
	t.windows[id] = w
	return w, nil
}

// AddWindowHook registers h to run on every window destruction.
func (t *Table) AddWindowHook(h WindowHook) {
	t.hooks = append(t.hooks, h)
}

// DestroyWindow destroys w and all its descendants, children first. Root
// windows are not destroyed.
func (t *Table) DestroyWindow(w *Window) {
	if w.IsRoot() {
		return
	}
	t.destroy(w)
	siblings := w.Parent.Children
	for i, sib := range siblings {
		if sib == w {
			w.Parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
}

func (t *Table) destroy(w *Window) {
	for _, child := range w.Children {
		t.destroy(child)
	}
	for _, h := range t.hooks {
		h.WindowDestroyed(w)
	}
	delete(t.windows, w.ID)
}

// AddPixmap registers a pixmap.
func (t *Table) AddPixmap(p *Pixmap) error {
	if _, ok := t.pixmaps[p.ID]; ok {
		return errors.Errorf("pixmap %#x already exists", p.ID)
	}
	if p.Screen == nil {
		return errors.Errorf("pixmap %#x has no screen", p.ID)
	}
	t.pixmaps[p.ID] = p
	return nil
}

// LookupWindow resolves a window id. A failed lookup leaves the id in the
// client's error value.
func (t *Table) LookupWindow(id xproto.Window, c *xserver.Client, mode Access) (*Window, xserver.Status) {
	w, ok := t.windows[id]
	if !ok {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadWindow
	}
	if t.Check != nil && !t.Check(c, uint32(id), mode) {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadAccess
	}
	return w, xserver.Success
}

// LookupPixmap resolves a pixmap id.
func (t *Table) LookupPixmap(id xproto.Pixmap, c *xserver.Client, mode Access) (*Pixmap, xserver.Status) {
	p, ok := t.pixmaps[id]
	if !ok {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadPixmap
	}
	if t.Check != nil && !t.Check(c, uint32(id), mode) {
		c.ErrorValue = uint32(id)
		return nil, xserver.BadAccess
	}
	return p, xserver.Success
}

// Window returns the window with the given id, without access checks.
func (t *Table) Window(id xproto.Window) *Window {
	return t.windows[id]
}
