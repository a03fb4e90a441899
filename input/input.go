// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package input keeps the server's input devices: master and slave
// pointers and keyboards, their button, touch and key classes, and the
// sprite a pointer moves around.
package input

import (
	"image"
	"math"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/resource"
)

var logger = xserver.NewLogger("input")

// Ids of the two master devices every server has.
const (
	CorePointer  = 2
	CoreKeyboard = 3
)

// Use is a device's role, with the values of the XI2 protocol.
type Use byte

const (
	MasterPointer Use = iota + 1
	MasterKeyboard
	SlavePointer
	SlaveKeyboard
	FloatingSlave
)

func (u Use) String() string {
	switch u {
	case MasterPointer:
		return "master pointer"
	case MasterKeyboard:
		return "master keyboard"
	case SlavePointer:
		return "slave pointer"
	case SlaveKeyboard:
		return "slave keyboard"
	case FloatingSlave:
		return "floating slave"
	}
	return "unknown"
}

// MaxButtons is the most buttons a device can have; button numbers are
// one byte on the wire.
const MaxButtons = 256

// ButtonClass is the button state of a device. Down is indexed by
// physical button, Map turns a physical button into a logical one.
type ButtonClass struct {
	NumButtons int
	Down       [32]byte
	Map        [256]byte
}

// NewButtonClass returns n buttons with the identity mapping. n is
// clamped to MaxButtons.
func NewButtonClass(n int) *ButtonClass {
	if n > MaxButtons {
		n = MaxButtons
	}
	b := &ButtonClass{NumButtons: n}
	for i := range b.Map {
		b.Map[i] = byte(i)
	}
	return b
}

func (b *ButtonClass) Press(button int)   { b.Down[button>>3] |= 1 << (button & 7) }
func (b *ButtonClass) Release(button int) { b.Down[button>>3] &^= 1 << (button & 7) }

func (b *ButtonClass) IsDown(button int) bool {
	return b.Down[button>>3]&(1<<(button&7)) != 0
}

// TouchClass counts the touches currently emulating a button press.
type TouchClass struct {
	ButtonsDown int
}

// State is the keyboard state the XKB protocol reports.
type State struct {
	Group        byte
	LockedGroup  byte
	BaseGroup    int16
	LatchedGroup int16

	Mods        byte
	BaseMods    byte
	LatchedMods byte
	LockedMods  byte

	CompatState      byte
	GrabMods         byte
	CompatGrabMods   byte
	LookupMods       byte
	CompatLookupMods byte
	PtrButtons       uint16
}

// KeyClass is the key state of a keyboard.
type KeyClass struct {
	MinKeycode, MaxKeycode byte
	Down                   [32]byte
	State                  State
}

// Sprite is the pointer position, in root coordinates of Screen. Win is
// the window the sprite is in.
type Sprite struct {
	X, Y   float64
	Screen *resource.Screen
	Win    *resource.Window
}

// Device is one input device.
type Device struct {
	ID   uint16
	Name string
	Use  Use

	// Master is the master of an attached slave.
	Master *Device
	// Paired is the other half of a master pair.
	Paired *Device

	// Valuators is the number of axes; zero for devices without a
	// valuator class.
	Valuators int

	Button *ButtonClass
	Touch  *TouchClass
	Key    *KeyClass

	// Sprite is set on master pointers and floating slaves.
	Sprite *Sprite
}

func (d *Device) IsMaster() bool {
	return d.Use == MasterPointer || d.Use == MasterKeyboard
}

func (d *Device) IsFloating() bool { return d.Use == FloatingSlave }

func (d *Device) IsKeyboard() bool {
	return d.Use == MasterKeyboard || d.Use == SlaveKeyboard
}

// Keyboard returns the keyboard whose state goes with d: the paired
// keyboard of a master pointer, d itself for anything with keys.
func (d *Device) Keyboard() *Device {
	switch {
	case d.Use == MasterPointer:
		return d.Paired
	case d.Key != nil:
		return d
	}
	return nil
}

// Pointer returns the pointer paired with a master keyboard, or d.
func (d *Device) Pointer() *Device {
	if d.Use == MasterKeyboard {
		return d.Paired
	}
	return d
}

// AccessChecker decides whether c may use the device for mode.
type AccessChecker func(c *xserver.Client, d *Device, mode resource.Access) bool

// Table holds every input device by id.
type Table struct {
	// Check, when set, is asked about every successful lookup.
	Check AccessChecker

	devices map[uint16]*Device
}

func NewTable() *Table {
	return &Table{devices: make(map[uint16]*Device)}
}

// Add registers a device.
func (t *Table) Add(d *Device) error {
	if d.ID < CorePointer {
		return errors.Errorf("device id %d is reserved", d.ID)
	}
	if _, ok := t.devices[d.ID]; ok {
		return errors.Errorf("device %d already exists", d.ID)
	}
	if b := d.Button; b != nil && (b.NumButtons < 0 || b.NumButtons > MaxButtons) {
		return errors.Errorf("device %d has %d buttons", d.ID, b.NumButtons)
	}
	if d.Use == SlavePointer || d.Use == SlaveKeyboard {
		if d.Master == nil || !d.Master.IsMaster() {
			return errors.Errorf("slave device %d has no master", d.ID)
		}
	}
	t.devices[d.ID] = d
	logger.WithField("device", d.ID).Debugf("%s %q", d.Use, d.Name)
	return nil
}

// AddCoreDevices creates the core pointer and keyboard, with the sprite
// in the middle of scr.
func (t *Table) AddCoreDevices(scr *resource.Screen) (ptr, kbd *Device, err error) {
	ptr = &Device{
		ID:        CorePointer,
		Name:      "Virtual core pointer",
		Use:       MasterPointer,
		Valuators: 2,
		Button:    NewButtonClass(10),
		Sprite: &Sprite{
			X:      float64(scr.Width / 2),
			Y:      float64(scr.Height / 2),
			Screen: scr,
			Win:    scr.Root,
		},
	}
	kbd = &Device{
		ID:   CoreKeyboard,
		Name: "Virtual core keyboard",
		Use:  MasterKeyboard,
		Key:  &KeyClass{MinKeycode: 8, MaxKeycode: 255},
	}
	ptr.Paired, kbd.Paired = kbd, ptr
	if err = t.Add(ptr); err != nil {
		return nil, nil, err
	}
	if err = t.Add(kbd); err != nil {
		return nil, nil, err
	}
	return ptr, kbd, nil
}

// Device returns the device with the given id, without access checks.
func (t *Table) Device(id uint16) *Device { return t.devices[id] }

// Lookup resolves a device id for c. It reports false for unknown
// devices and refused access alike; each extension has its own error
// for both.
func (t *Table) Lookup(id uint16, c *xserver.Client, mode resource.Access) (*Device, bool) {
	d, ok := t.devices[id]
	if !ok {
		return nil, false
	}
	if t.Check != nil && !t.Check(c, d, mode) {
		return nil, false
	}
	return d, true
}

// SpriteWindow returns the deepest window of the sprite's screen under
// its position. Stacking is child order, last on top.
func SpriteWindow(s *Sprite) *resource.Window {
	p := pointAt(s.X, s.Y)
	w := s.Screen.Root
	for {
		var next *resource.Window
		for i := len(w.Children) - 1; i >= 0; i-- {
			if w.Children[i].Contains(p) {
				next = w.Children[i]
				break
			}
		}
		if next == nil {
			return w
		}
		w = next
	}
}

func pointAt(x, y float64) image.Point {
	return image.Point{X: int(math.Floor(x)), Y: int(math.Floor(y))}
}

// Move puts the sprite at x, y and updates the window it is in.
func (s *Sprite) Move(x, y float64) {
	s.X, s.Y = x, y
	s.Win = SpriteWindow(s)
}

// RootID is the root window of the sprite's screen.
func (s *Sprite) RootID() xproto.Window { return s.Screen.Root.ID }
