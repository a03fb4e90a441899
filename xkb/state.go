// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xkb

import "github.com/stefan11111/xserver/input"

// State components, as reported in StateNotify.
const (
	ModifierStateMask = 1 << iota
	ModifierBaseMask
	ModifierLatchMask
	ModifierLockMask
	GroupStateMask
	GroupBaseMask
	GroupLatchMask
	GroupLockMask
	CompatStateMask
	GrabModsMask
	CompatGrabModsMask
	LookupModsMask
	CompatLookupModsMask
	PointerButtonMask

	allStateComponents = 1<<iota - 1
)

// Out of range group actions, in the top bits of GroupsWrap.
const (
	WrapIntoRange     = 0x00
	ClampIntoRange    = 0x40
	RedirectIntoRange = 0x80

	groupActionMask = 0xc0
	groupNumberMask = 0x0f
)

// Core modifier masks used by the default indicators.
const (
	lockMask = 1 << 1
	mod2Mask = 1 << 4
)

// adjustGroup brings a group number into range as the controls say.
func adjustGroup(group int, ctrls *Controls) byte {
	n := int(ctrls.NumGroups)
	if n < 1 {
		return 0
	}
	if group >= 0 && group < n {
		return byte(group)
	}
	switch ctrls.GroupsWrap & groupActionMask {
	case ClampIntoRange:
		if group < 0 {
			return 0
		}
		return byte(n - 1)
	case RedirectIntoRange:
		g := int(ctrls.GroupsWrap & groupNumberMask)
		if g >= n {
			g = 0
		}
		return byte(g)
	default:
		group %= n
		if group < 0 {
			group += n
		}
		return byte(group)
	}
}

// deriveState recomputes the effective fields of s from its base,
// latched and locked parts.
func deriveState(s *input.State, ctrls *Controls, ptr *input.Device) {
	s.Mods = s.BaseMods | s.LatchedMods | s.LockedMods
	s.LookupMods = s.Mods &^ ctrls.InternalRealMods
	s.GrabMods = s.LookupMods&^ctrls.IgnoreLockRealMods |
		(s.BaseMods|s.LatchedMods)&ctrls.IgnoreLockRealMods

	s.LockedGroup = adjustGroup(int(s.LockedGroup), ctrls)
	s.Group = adjustGroup(int(s.LockedGroup)+int(s.BaseGroup)+int(s.LatchedGroup), ctrls)

	// Without compatibility maps the core view is the XKB one.
	s.CompatState = s.Mods
	s.CompatGrabMods = s.GrabMods
	s.CompatLookupMods = s.LookupMods

	s.PtrButtons = 0
	if ptr != nil && ptr.Button != nil {
		for b := 1; b <= 5; b++ {
			if ptr.Button.IsDown(b) {
				s.PtrButtons |= 1 << (7 + b)
			}
		}
	}
}

// stateChanges returns the components that differ between prev and next.
func stateChanges(prev, next *input.State) uint16 {
	var changed uint16
	for _, f := range []struct {
		differ bool
		mask   uint16
	}{
		{prev.Mods != next.Mods, ModifierStateMask},
		{prev.BaseMods != next.BaseMods, ModifierBaseMask},
		{prev.LatchedMods != next.LatchedMods, ModifierLatchMask},
		{prev.LockedMods != next.LockedMods, ModifierLockMask},
		{prev.Group != next.Group, GroupStateMask},
		{prev.BaseGroup != next.BaseGroup, GroupBaseMask},
		{prev.LatchedGroup != next.LatchedGroup, GroupLatchMask},
		{prev.LockedGroup != next.LockedGroup, GroupLockMask},
		{prev.CompatState != next.CompatState, CompatStateMask},
		{prev.GrabMods != next.GrabMods, GrabModsMask},
		{prev.CompatGrabMods != next.CompatGrabMods, CompatGrabModsMask},
		{prev.LookupMods != next.LookupMods, LookupModsMask},
		{prev.CompatLookupMods != next.CompatLookupMods, CompatLookupModsMask},
		{prev.PtrButtons != next.PtrButtons, PointerButtonMask},
	} {
		if f.differ {
			changed |= f.mask
		}
	}
	return changed
}

// indicators computes the default indicators: Caps Lock follows a locked
// Lock modifier, Num Lock a locked Mod2.
func indicators(s *input.State) uint32 {
	var on uint32
	if s.LockedMods&lockMask != 0 {
		on |= 1 << 0
	}
	if s.LockedMods&mod2Mask != 0 {
		on |= 1 << 1
	}
	return on
}
