package xkb

import (
	"encoding/binary"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/input"
	"github.com/stefan11111/xserver/resource"
	"github.com/stefan11111/xserver/servertest"
)

func init() {
	xserver.PrintLog = false
}

const (
	rootID = xproto.Window(0x100)
	now    = 4321
)

type ring struct {
	dev                      uint16
	percent, pitch, duration int
}

type fixture struct {
	srv   *xserver.Server
	xkb   *Xkb
	ptr   *input.Device
	kbd   *input.Device
	rings []ring
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{srv: xserver.NewServer()}
	f.srv.Clock = func() uint32 { return now }

	res := resource.NewTable()
	scr, err := res.AddScreen(rootID, 640, 480)
	require.NoError(t, err)
	devs := input.NewTable()
	f.ptr, f.kbd, err = devs.AddCoreDevices(scr)
	require.NoError(t, err)

	f.xkb, err = Register(f.srv, res, devs)
	require.NoError(t, err)
	f.xkb.Ring = func(dev *input.Device, percent, pitch, duration int) {
		f.rings = append(f.rings, ring{dev.ID, percent, pitch, duration})
	}
	return f
}

// client attaches a client which, when use is set, has already
// negotiated the extension.
func (f *fixture) client(t *testing.T, swapped, use bool) (*xserver.Client, *servertest.Recorder, binary.ByteOrder) {
	order := xserver.HostOrder
	if swapped {
		order = servertest.Swapped()
	}
	c, rec := servertest.NewClient(f.srv, order)
	if use {
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, f.req(order, UseExtension).Card16(1, 0).Request()))
		rec.Reset()
	}
	return c, rec, order
}

func (f *fixture) req(order binary.ByteOrder, minor byte) *servertest.Builder {
	return servertest.NewRequest(order, f.xkb.ext.Major, minor)
}

func (f *fixture) selectAll(t *testing.T, c *xserver.Client, order binary.ByteOrder, types uint16) {
	req := f.req(order, SelectEvents).Card16(UseCoreKbd, types, 0, types, 0, 0).Request()
	require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))
}

func (f *fixture) events(order binary.ByteOrder, rec *servertest.Recorder) []*servertest.Reader {
	var evs []*servertest.Reader
	for _, w := range rec.Writes() {
		if len(w) == xserver.EventSize && w[0] == f.xkb.ext.Event(0) {
			evs = append(evs, servertest.NewReader(order, w))
		}
	}
	return evs
}

func lastError(order binary.ByteOrder, rec *servertest.Recorder) *servertest.Reader {
	var e *servertest.Reader
	for _, w := range rec.Writes() {
		if w[0] == 0 {
			e = servertest.NewReader(order, w)
		}
	}
	return e
}

func reply(t *testing.T, order binary.ByteOrder, rec *servertest.Recorder) *servertest.Reader {
	writes := rec.Writes()
	require.Len(t, writes, 1, spew.Sdump(writes))
	r := servertest.NewReader(order, writes[0])
	require.Equal(t, byte(xserver.ReplyType), r.Card8(0))
	return r
}

func TestUseExtension(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, false)

		st := f.srv.Dispatch(c, f.req(order, UseExtension).Card16(2, 0).Request())
		require.Equal(t, xserver.Success, st)
		r := reply(t, order, rec)
		assert.Equal(t, byte(0), r.Card8(1))
		assert.Equal(t, uint16(MajorVersion), r.Card16(8))
		assert.Equal(t, uint16(MinorVersion), r.Card16(10))

		rec.Reset()
		st = f.srv.Dispatch(c, f.req(order, GetState).Card16(UseCoreKbd, 0).Request())
		assert.Equal(t, xserver.BadAccess, st)

		rec.Reset()
		st = f.srv.Dispatch(c, f.req(order, UseExtension).Card16(1, 7).Request())
		require.Equal(t, xserver.Success, st)
		r = reply(t, order, rec)
		assert.Equal(t, byte(1), r.Card8(1))
		assert.Equal(t, uint32(0), r.Length())

		cs := f.xkb.lookupClient(c)
		require.NotNil(t, cs)
		assert.True(t, cs.initialized)
		assert.Equal(t, uint16(7), cs.minor)

		st = f.srv.Dispatch(c, f.req(order, GetState).Card16(UseCoreKbd, 0).Request())
		assert.Equal(t, xserver.Success, st)
	}
}

func TestUnknownRequest(t *testing.T) {
	f := newFixture(t)
	c, _, order := f.client(t, false, false)
	assert.Equal(t, xserver.BadRequest, f.srv.Dispatch(c, f.req(order, 2).Request()))
	assert.Equal(t, xserver.BadRequest, f.srv.Dispatch(c, f.req(order, 60).Request()))
}

func TestBadKeyboard(t *testing.T) {
	f := newFixture(t)
	c, rec, order := f.client(t, false, true)

	st := f.srv.Dispatch(c, f.req(order, GetState).Card16(99, 0).Request())
	assert.Equal(t, f.xkb.ext.Error(BadKeyboard), st)
	e := lastError(order, rec)
	require.NotNil(t, e)
	assert.Equal(t, errCode2(0xff, 99), e.Card32(4))
	assert.Equal(t, uint16(GetState), e.Card16(8))

	// The core pointer stands for its paired keyboard.
	rec.Reset()
	st = f.srv.Dispatch(c, f.req(order, GetState).Card16(UseCorePtr, 0).Request())
	require.Equal(t, xserver.Success, st)
	assert.Equal(t, byte(input.CoreKeyboard), reply(t, order, rec).Card8(1))
}

func TestGetState(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)

		s := &f.kbd.Key.State
		s.BaseMods = 0x01
		s.LatchedMods = 0x08
		s.LockedMods = 0x02
		s.BaseGroup = -1
		s.LatchedGroup = 0x102
		f.ptr.Button.Press(1)
		f.ptr.Button.Press(3)
		deriveState(s, &f.xkb.keyboard(f.kbd).ctrls, f.ptr)

		st := f.srv.Dispatch(c, f.req(order, GetState).Card16(UseCoreKbd, 0).Request())
		require.Equal(t, xserver.Success, st)
		r := reply(t, order, rec)
		assert.Equal(t, byte(input.CoreKeyboard), r.Card8(1))
		assert.Equal(t, byte(0x0b), r.Card8(8))
		assert.Equal(t, byte(0x01), r.Card8(9))
		assert.Equal(t, byte(0x08), r.Card8(10))
		assert.Equal(t, byte(0x02), r.Card8(11))
		assert.Equal(t, int16(-1), r.Int16(14))
		assert.Equal(t, int16(0x102), r.Int16(16))
		assert.Equal(t, byte(0x0b), r.Card8(18))
		assert.Equal(t, byte(0x0b), r.Card8(21))
		assert.Equal(t, uint16(1<<8|1<<10), r.Card16(24))
	}
}

func TestLatchLockState(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)
		f.selectAll(t, c, order, 1<<StateNotify|1<<IndicatorStateNotify)
		rec.Reset()

		// Lock the Lock modifier and group 2.
		req := f.req(order, LatchLockState).Card16(UseCoreKbd).
			Card8(lockMask, lockMask, 1, 2, 0, 0, 0, 0).Int16(0).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))

		s := f.kbd.Key.State
		assert.Equal(t, byte(lockMask), s.LockedMods)
		assert.Equal(t, byte(lockMask), s.Mods)
		// With a single group everything wraps to the first.
		assert.Equal(t, byte(0), s.LockedGroup)

		evs := f.events(order, rec)
		require.Len(t, evs, 2, spew.Sdump(rec.Writes()))
		ev := evs[0]
		assert.Equal(t, byte(StateNotify), ev.Card8(1))
		assert.Equal(t, uint16(c.Sequence), ev.Sequence())
		assert.Equal(t, uint32(now), ev.Card32(4))
		assert.Equal(t, byte(input.CoreKeyboard), ev.Card8(8))
		assert.Equal(t, byte(lockMask), ev.Card8(9))
		assert.Equal(t, byte(lockMask), ev.Card8(12))
		want := uint16(ModifierStateMask | ModifierLockMask | CompatStateMask |
			GrabModsMask | CompatGrabModsMask | LookupModsMask | CompatLookupModsMask)
		assert.Equal(t, want, ev.Card16(26))
		assert.Equal(t, f.xkb.ext.Major, ev.Card8(30))
		assert.Equal(t, byte(LatchLockState), ev.Card8(31))

		ind := evs[1]
		assert.Equal(t, byte(IndicatorStateNotify), ind.Card8(1))
		assert.Equal(t, uint32(1), ind.Card32(12))
		assert.Equal(t, uint32(1), ind.Card32(16))

		rec.Reset()
		req = f.req(order, GetIndicatorState).Card16(UseCoreKbd, 0).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))
		assert.Equal(t, uint32(1), reply(t, order, rec).Card32(8))
	}
}

func TestLatchLockStateMismatch(t *testing.T) {
	f := newFixture(t)
	c, rec, order := f.client(t, false, true)

	req := f.req(order, LatchLockState).Card16(UseCoreKbd).
		Card8(0x01, 0x03, 0, 0, 0, 0, 0, 0).Int16(0).Request()
	assert.Equal(t, xserver.BadMatch, f.srv.Dispatch(c, req))
	e := lastError(order, rec)
	require.NotNil(t, e)
	assert.Equal(t, errCode2(0x01, 0x02), e.Card32(4))
	assert.Zero(t, f.kbd.Key.State.LockedMods)
}

func TestSelectEventDetails(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)

		// Only changes to the locked modifiers are of interest.
		req := f.req(order, SelectEvents).
			Card16(UseCoreKbd, 1<<StateNotify, 0, 0, 0, 0).
			Card16(ModifierLockMask, ModifierLockMask).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))

		latch := f.req(order, LatchLockState).Card16(UseCoreKbd).
			Card8(0, 0, 0, 0, 0x08, 0x08, 0, 0).Int16(0).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, latch))
		assert.Empty(t, f.events(order, rec))

		lock := f.req(order, LatchLockState).Card16(UseCoreKbd).
			Card8(0x04, 0x04, 0, 0, 0, 0, 0, 0).Int16(0).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, lock))
		evs := f.events(order, rec)
		require.Len(t, evs, 1)
		assert.Equal(t, byte(StateNotify), evs[0].Card8(1))
		assert.NotZero(t, evs[0].Card16(26)&ModifierLockMask)
	}
}

func TestSelectEventsOneByteDetails(t *testing.T) {
	f := newFixture(t)
	c, rec, order := f.client(t, true, true)

	req := f.req(order, SelectEvents).
		Card16(UseCoreKbd, 1<<BellNotify, 0, 0, 0, 0).Card8(1, 1).Request()
	require.Equal(t, 5, req.Length)
	require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))

	bell := f.req(order, Bell).Card16(UseCoreKbd, 0, 0).Card8(0, 0, 1, 0).
		Int16(-1, -1).Pad(2).Card32(0, 0).Request()
	require.Equal(t, xserver.Success, f.srv.Dispatch(c, bell))
	require.Len(t, f.events(order, rec), 1)
}

func TestSelectEventsErrors(t *testing.T) {
	f := newFixture(t)
	c, rec, order := f.client(t, false, true)

	tests := []struct {
		name  string
		req   *xserver.Request
		st    xserver.Status
		value uint32
	}{
		{
			"unknown type",
			f.req(order, SelectEvents).Card16(UseCoreKbd, 1<<12, 0, 0, 0, 0).Request(),
			xserver.BadValue, errCode2(0x01, 1<<12),
		},
		{
			"clear outside affect",
			f.req(order, SelectEvents).Card16(UseCoreKbd, 0, 1<<StateNotify, 0, 0, 0).Request(),
			xserver.BadMatch, errCode2(0x02, 1<<StateNotify),
		},
		{
			"map outside affect",
			f.req(order, SelectEvents).Card16(UseCoreKbd, 1<<MapNotify, 0, 0, 0x01, 0x03).Request(),
			xserver.BadMatch, errCode2(0x04, 0x02),
		},
		{
			"details outside affect",
			f.req(order, SelectEvents).Card16(UseCoreKbd, 1<<StateNotify, 0, 0, 0, 0).
				Card16(0x01, 0x03).Request(),
			xserver.BadMatch, errCode2(0x06, 0x02),
		},
		{
			"short details",
			f.req(order, SelectEvents).Card16(UseCoreKbd, 1<<ControlsNotify, 0, 0, 0, 0).
				Card32(1).Request(),
			xserver.BadLength, 0,
		},
		{
			"trailing data",
			f.req(order, SelectEvents).Card16(UseCoreKbd, 1<<StateNotify, 0, 0, 0, 0).
				Card16(1, 1).Card32(0).Request(),
			xserver.BadLength, 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec.Reset()
			require.Equal(t, test.st, f.srv.Dispatch(c, test.req))
			e := lastError(order, rec)
			require.NotNil(t, e)
			assert.Equal(t, test.value, e.Card32(4))
		})
	}
	assert.Empty(t, f.xkb.lookupClient(c).interest)
}

func TestSelectEventsClear(t *testing.T) {
	f := newFixture(t)
	c, _, order := f.client(t, false, true)

	f.selectAll(t, c, order, 1<<StateNotify|1<<BellNotify)
	in := f.xkb.lookupClient(c).interest[input.CoreKeyboard]
	require.NotNil(t, in)
	assert.Equal(t, uint32(allStateComponents), in[StateNotify])

	req := f.req(order, SelectEvents).
		Card16(UseCoreKbd, 1<<StateNotify|1<<BellNotify, 1<<StateNotify|1<<BellNotify, 0, 0, 0).Request()
	require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))
	assert.Empty(t, f.xkb.lookupClient(c).interest)
}

func TestGetControls(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)

		st := f.srv.Dispatch(c, f.req(order, GetControls).Card16(UseCoreKbd, 0).Request())
		require.Equal(t, xserver.Success, st)
		r := reply(t, order, rec)
		require.Len(t, r.Buf, getControlsReplySize)
		assert.Equal(t, uint32(15), r.Length())
		assert.Equal(t, byte(1), r.Card8(8))
		assert.Equal(t, byte(1), r.Card8(9))
		assert.Equal(t, uint16(660), r.Card16(20))
		assert.Equal(t, uint16(40), r.Card16(22))
		assert.Equal(t, uint16(160), r.Card16(28))
		assert.Equal(t, int16(500), r.Int16(36))
		assert.Equal(t, uint16(120), r.Card16(40))
		assert.Equal(t, uint32(RepeatKeysMask|AudibleBellMask), r.Card32(56))
		for _, b := range r.Buf[60:] {
			assert.Equal(t, byte(0xff), b)
		}
	}
}

func setControls(b *servertest.Builder, r *setControlsRequest) *xserver.Request {
	perKey := make([]byte, 32)
	copy(perKey, r.perKeyRepeat)
	return b.Card16(r.device).
		Card8(r.affectInternalMods, r.internalMods, r.affectIgnoreLockMods, r.ignoreLockMods).
		Card16(r.affectInternalVMods, r.internalVMods, r.affectIgnoreLockVMods, r.ignoreLockVMods).
		Card8(r.mouseKeysDfltBtn, r.groupsWrap).
		Card16(r.axOptions, 0).
		Card32(r.affectEnabledCtrls, r.enabledCtrls, r.change).
		Card16(r.repeatDelay, r.repeatInterval, r.slowKeysDelay, r.debounceDelay,
			r.mkDelay, r.mkInterval, r.mkTimeToMax, r.mkMaxSpeed).
		Int16(r.mkCurve).
		Card16(r.axTimeout).
		Card32(r.axtCtrlsMask, r.axtCtrlsValues).
		Card16(r.axtOptsMask, r.axtOptsValues).
		Bytes(perKey).
		Request()
}

func TestSetControls(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)
		f.selectAll(t, c, order, 1<<ControlsNotify)
		rec.Reset()

		req := setControls(f.req(order, SetControls), &setControlsRequest{
			device:             UseCoreKbd,
			change:             RepeatKeysMask | ControlsEnabledMask | InternalModsMask,
			repeatDelay:        500,
			repeatInterval:     30,
			affectEnabledCtrls: AudibleBellMask | SlowKeysMask,
			enabledCtrls:       SlowKeysMask,
			affectInternalMods: 0x0f,
			internalMods:       0x05,
		})
		require.Equal(t, 25, req.Length)
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))

		ctrls := f.xkb.keyboard(f.kbd).ctrls
		assert.Equal(t, uint16(500), ctrls.RepeatDelay)
		assert.Equal(t, uint16(30), ctrls.RepeatInterval)
		assert.Equal(t, uint32(RepeatKeysMask|SlowKeysMask), ctrls.EnabledCtrls)
		assert.Equal(t, byte(0x05), ctrls.InternalRealMods)

		evs := f.events(order, rec)
		require.Len(t, evs, 1, spew.Sdump(rec.Writes()))
		ev := evs[0]
		assert.Equal(t, byte(ControlsNotify), ev.Card8(1))
		assert.Equal(t, byte(1), ev.Card8(9))
		assert.Equal(t, uint32(RepeatKeysMask|ControlsEnabledMask|InternalModsMask), ev.Card32(12))
		assert.Equal(t, uint32(RepeatKeysMask|SlowKeysMask), ev.Card32(16))
		assert.Equal(t, uint32(AudibleBellMask|SlowKeysMask), ev.Card32(20))
		assert.Equal(t, byte(SetControls), ev.Card8(27))

		rec.Reset()
		st := f.srv.Dispatch(c, f.req(order, GetControls).Card16(UseCoreKbd, 0).Request())
		require.Equal(t, xserver.Success, st)
		r := reply(t, order, rec)
		assert.Equal(t, uint16(500), r.Card16(20))
		assert.Equal(t, byte(0x05), r.Card8(13))
	}
}

func TestSetControlsErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   setControlsRequest
		st    xserver.Status
		value uint32
	}{
		{
			"unknown control",
			setControlsRequest{change: 1 << 20},
			xserver.BadValue, errCode2(0x01, 1<<20),
		},
		{
			"enabled outside affect",
			setControlsRequest{change: ControlsEnabledMask, affectEnabledCtrls: 1, enabledCtrls: 3},
			xserver.BadMatch, errCode2(0x02, 2),
		},
		{
			"zero repeat delay",
			setControlsRequest{change: RepeatKeysMask, repeatInterval: 30},
			xserver.BadValue, errCode3(0x06, 0, 30),
		},
		{
			"mouse keys button",
			setControlsRequest{change: MouseKeysMask, mouseKeysDfltBtn: 5},
			xserver.BadValue, errCode2(0x0b, 5),
		},
		{
			"mouse keys curve",
			setControlsRequest{change: MouseKeysAccelMask, mkDelay: 1, mkInterval: 1,
				mkTimeToMax: 1, mkMaxSpeed: 1, mkCurve: -1001},
			xserver.BadValue, errCode2(0x0c, 0),
		},
		{
			"redirect out of range",
			setControlsRequest{change: GroupsWrapMask, groupsWrap: RedirectIntoRange | 1},
			xserver.BadValue, errCode3(0x0d, 1, RedirectIntoRange|1),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			c, rec, order := f.client(t, false, true)
			// The checks come after earlier fields have been applied to
			// a copy; none of it may stick.
			test.req.device = UseCoreKbd
			test.req.change |= InternalModsMask
			test.req.affectInternalMods = 0xff
			test.req.internalMods = 0x10

			req := setControls(f.req(order, SetControls), &test.req)
			require.Equal(t, test.st, f.srv.Dispatch(c, req))
			e := lastError(order, rec)
			require.NotNil(t, e)
			assert.Equal(t, test.value, e.Card32(4))
			assert.Equal(t, DefaultControls(), f.xkb.keyboard(f.kbd).ctrls)
		})
	}
}

func TestSetControlsGroupsWrap(t *testing.T) {
	f := newFixture(t)
	c, _, order := f.client(t, false, true)

	req := setControls(f.req(order, SetControls), &setControlsRequest{
		device:     UseCoreKbd,
		change:     GroupsWrapMask,
		groupsWrap: ClampIntoRange,
	})
	require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))
	assert.Equal(t, byte(ClampIntoRange), f.xkb.keyboard(f.kbd).ctrls.GroupsWrap)
}

func TestAdjustGroup(t *testing.T) {
	ctrls := DefaultControls()
	ctrls.NumGroups = 3
	tests := []struct {
		wrap  byte
		group int
		want  byte
	}{
		{WrapIntoRange, 1, 1},
		{WrapIntoRange, 4, 1},
		{WrapIntoRange, -1, 2},
		{ClampIntoRange, 5, 2},
		{ClampIntoRange, -3, 0},
		{RedirectIntoRange | 1, 7, 1},
		{RedirectIntoRange | 5, 7, 0},
	}
	for _, test := range tests {
		ctrls.GroupsWrap = test.wrap
		assert.Equal(t, test.want, adjustGroup(test.group, &ctrls),
			"wrap %#x group %d", test.wrap, test.group)
	}
}

func TestBell(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)
		f.selectAll(t, c, order, 1<<BellNotify)
		rec.Reset()

		bell := func(percent int8, force, eventOnly byte, pitch, duration int16) xserver.Status {
			req := f.req(order, Bell).Card16(UseCoreKbd, DfltXIClass, DfltXIID).
				Card8(byte(percent), force, eventOnly, 0).Int16(pitch, duration).
				Pad(2).Card32(0x55, uint32(rootID)).Request()
			return f.srv.Dispatch(c, req)
		}

		require.Equal(t, xserver.Success, bell(50, 0, 0, -1, -1))
		require.Equal(t, xserver.Success, bell(-50, 0, 0, 880, 20))
		require.Equal(t, xserver.Success, bell(0, 0, 1, -1, -1))
		assert.Equal(t, []ring{
			{input.CoreKeyboard, 75, 400, 100},
			{input.CoreKeyboard, 25, 880, 20},
		}, f.rings)

		evs := f.events(order, rec)
		require.Len(t, evs, 3)
		ev := evs[1]
		assert.Equal(t, byte(BellNotify), ev.Card8(1))
		assert.Equal(t, byte(KbdFeedbackClass), ev.Card8(9))
		assert.Equal(t, byte(25), ev.Card8(11))
		assert.Equal(t, uint16(880), ev.Card16(12))
		assert.Equal(t, uint16(20), ev.Card16(14))
		assert.Equal(t, uint32(0x55), ev.Card32(16))
		assert.Equal(t, uint32(rootID), ev.Card32(20))
		assert.Equal(t, byte(0), ev.Card8(24))
		assert.Equal(t, byte(1), evs[2].Card8(24))
	}
}

func TestBellSilenced(t *testing.T) {
	f := newFixture(t)
	c, _, order := f.client(t, false, true)
	f.xkb.keyboard(f.kbd).ctrls.EnabledCtrls &^= AudibleBellMask

	bell := func(force byte) {
		req := f.req(order, Bell).Card16(UseCoreKbd, 0, 0).Card8(0, force, 0, 0).
			Int16(-1, -1).Pad(2).Card32(0, 0).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))
	}
	bell(0)
	assert.Empty(t, f.rings)
	bell(1)
	assert.Len(t, f.rings, 1)
}

func TestBellErrors(t *testing.T) {
	f := newFixture(t)
	c, rec, order := f.client(t, false, true)

	tests := []struct {
		name            string
		class, id       uint16
		percent         int8
		force, evOnly   byte
		pitch, duration int16
		window          uint32
		st              xserver.Status
		value           uint32
	}{
		{"force and event only", 0, 0, 0, 1, 1, 0, 0, 0, xserver.BadMatch, errCode3(0x01, 1, 1)},
		{"percent", 0, 0, 101, 0, 0, 0, 0, 0, xserver.BadValue, errCode2(0x02, 101)},
		{"duration", 0, 0, 0, 0, 0, 0, -2, 0, xserver.BadValue, errCode2(0x03, 0xfffe)},
		{"pitch", 0, 0, 0, 0, 0, -2, 0, 0, xserver.BadValue, errCode2(0x04, 0xfffe)},
		{"class", 7, 0, 0, 0, 0, 0, 0, 0, xserver.BadValue, errCode2(0x05, 7)},
		{"id", 0, 3, 0, 0, 0, 0, 0, 0, xserver.BadValue, errCode2(0x06, 3)},
		{"window", 0, 0, 0, 0, 0, 0, 0, 0x999, xserver.BadWindow, 0x999},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec.Reset()
			req := f.req(order, Bell).Card16(UseCoreKbd, test.class, test.id).
				Card8(byte(test.percent), test.force, test.evOnly, 0).
				Int16(test.pitch, test.duration).Pad(2).Card32(0, test.window).Request()
			require.Equal(t, test.st, f.srv.Dispatch(c, req))
			e := lastError(order, rec)
			require.NotNil(t, e)
			assert.Equal(t, test.value, e.Card32(4))
		})
	}
	assert.Empty(t, f.rings)
}

func TestPerClientFlags(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)

		req := f.req(order, PerClientFlags).Card16(UseCoreKbd, 0).
			Card32(PCFDetectableAutoRepeat|PCFAutoResetControls,
				PCFDetectableAutoRepeat|PCFAutoResetControls,
				SlowKeysMask|BounceKeysMask, SlowKeysMask, 0).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))
		r := reply(t, order, rec)
		assert.Equal(t, byte(input.CoreKeyboard), r.Card8(1))
		assert.Equal(t, uint32(pcfAllFlags), r.Card32(8))
		assert.Equal(t, uint32(PCFDetectableAutoRepeat|PCFAutoResetControls), r.Card32(12))
		assert.Equal(t, uint32(SlowKeysMask), r.Card32(16))
		assert.Equal(t, uint32(0), r.Card32(20))

		rec.Reset()
		req = f.req(order, PerClientFlags).Card16(UseCoreKbd, 0).
			Card32(PCFDetectableAutoRepeat, PCFGrabsUseXKBState, 0, 0, 0).Request()
		assert.Equal(t, xserver.BadMatch, f.srv.Dispatch(c, req))
		assert.Equal(t, errCode2(0x02, PCFGrabsUseXKBState), lastError(order, rec).Card32(4))
	}
}

func TestSetDebuggingFlags(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		f := newFixture(t)
		c, rec, order := f.client(t, swapped, true)

		msg := []byte("hello\x00")
		req := f.req(order, SetDebuggingFlags).Card16(uint16(len(msg)), 0).
			Card32(0x0f, 0x35, 0xff, 0x01).Bytes(msg).Request()
		require.Equal(t, xserver.Success, f.srv.Dispatch(c, req))
		r := reply(t, order, rec)
		assert.Equal(t, uint32(0x05), r.Card32(8))
		assert.Equal(t, uint32(0x01), r.Card32(12))
		assert.Equal(t, ^uint32(0), r.Card32(16))
		assert.Equal(t, ^uint32(0), r.Card32(20))

		req = f.req(order, SetDebuggingFlags).Card16(100, 0).Card32(0, 0, 0, 0).Request()
		assert.Equal(t, xserver.BadLength, f.srv.Dispatch(c, req))
	}
}

func TestKeymapHandlers(t *testing.T) {
	f := newFixture(t)
	c, _, order := f.client(t, true, true)

	getMap := f.req(order, GetMap).Card16(UseCoreKbd, 0).Request()
	assert.Equal(t, xserver.BadImplementation, f.srv.Dispatch(c, getMap))

	var device, present uint16
	f.xkb.Handle(SetMap, func(c *xserver.Client, req *xserver.Request) xserver.Status {
		device = xserver.Get16(req.Buf[4:])
		present = xserver.Get16(req.Buf[6:])
		return xserver.Success
	})
	setMap := f.req(order, SetMap).Card16(UseCoreKbd, 0x1234).Pad(setMapSize - 8).Request()
	require.Equal(t, xserver.Success, f.srv.Dispatch(c, setMap))
	assert.Equal(t, uint16(UseCoreKbd), device)
	assert.Equal(t, uint16(0x1234), present)

	short := f.req(order, SetMap).Card16(UseCoreKbd, 0).Request()
	assert.Equal(t, xserver.BadLength, f.srv.Dispatch(c, short))
}

func TestRequestLengths(t *testing.T) {
	f := newFixture(t)
	c, _, order := f.client(t, true, true)

	for _, op := range []byte{GetState, GetControls, GetIndicatorState} {
		req := f.req(order, op).Card16(UseCoreKbd, 0).Card32(0).Request()
		assert.Equal(t, xserver.BadLength, f.srv.Dispatch(c, req), "minor %d", op)
	}
	req := f.req(order, SetControls).Card16(UseCoreKbd, 0).Request()
	assert.Equal(t, xserver.BadLength, f.srv.Dispatch(c, req))
}

func TestClientGone(t *testing.T) {
	f := newFixture(t)
	c, _, order := f.client(t, false, true)
	f.selectAll(t, c, order, 1<<StateNotify)
	require.NotNil(t, f.xkb.lookupClient(c))

	f.srv.CloseClient(c)
	assert.Nil(t, f.xkb.lookupClient(c))
}

func TestSwapEvent(t *testing.T) {
	ev := make([]byte, xserver.EventSize)
	ev[1] = StateNotify
	xserver.Put16(ev[2:], 0x0102)
	xserver.Put32(ev[4:], 0x03040506)
	xserver.Put16(ev[14:], 0x0708)
	xserver.Put16(ev[26:], 0x090a)
	ev[9] = 0x42

	swapped := make([]byte, xserver.EventSize)
	swapEvent(ev, swapped)
	assert.Equal(t, byte(0x42), swapped[9])
	assert.Equal(t, uint16(0x0201), xserver.Get16(swapped[2:]))
	assert.Equal(t, uint32(0x06050403), xserver.Get32(swapped[4:]))
	assert.Equal(t, uint16(0x0807), xserver.Get16(swapped[14:]))
	assert.Equal(t, uint16(0x0a09), xserver.Get16(swapped[26:]))

	back := make([]byte, xserver.EventSize)
	swapEvent(swapped, back)
	assert.Equal(t, ev, back)
}
