package xserver_test

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/servertest"
)

// echo answers the 32-bit value at offset 4 in reply byte 8.
func echo(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, 8); st != xserver.Success {
		return st
	}
	v := xserver.Get32(req.Buf[4:])
	if v == 0 {
		c.ErrorValue = v
		return xserver.BadValue
	}
	reply := make([]byte, xserver.GenericReplySize)
	xserver.Put32(reply[8:], v)
	if c.Swapped {
		xserver.Swap32(reply[8:])
	}
	return xserver.SendReplySimple(c, reply)
}

func sEcho(c *xserver.Client, req *xserver.Request) xserver.Status {
	if st := xserver.RequestSizeMatch(req, 8); st != xserver.Success {
		return st
	}
	xserver.Swap32(req.Buf[4:])
	return echo(c, req)
}

func TestDispatch(t *testing.T) {
	for _, swapped := range []bool{false, true} {
		order := xserver.HostOrder
		if swapped {
			order = servertest.Swapped()
		}
		s := xserver.NewServer()
		ext, err := s.AddExtension("ECHO", 0, 1)
		require.NoError(t, err)
		ext.Procs.Set(2, echo)
		ext.SwappedProcs.Set(2, sEcho)

		c, rec := servertest.NewClient(s, order)

		req := servertest.NewRequest(order, ext.Major, 2).Card32(0x01020304).Request()
		require.Equal(t, xserver.Success, s.Dispatch(c, req))
		r := servertest.NewReader(order, rec.Writes()[0])
		assert.Equal(t, uint32(0x01020304), r.Card32(8))
		assert.Equal(t, uint16(1), r.Sequence())
		rec.Reset()

		for _, tc := range []struct {
			name  string
			req   *xserver.Request
			want  xserver.Status
			minor byte
		}{
			{"unknown minor", servertest.NewRequest(order, ext.Major, 9).Request(), xserver.BadRequest, 9},
			{"unassigned minor", servertest.NewRequest(order, ext.Major, 1).Request(), xserver.BadRequest, 1},
			{"short", servertest.NewRequest(order, ext.Major, 2).Request(), xserver.BadLength, 2},
			{"long", servertest.NewRequest(order, ext.Major, 2).Card32(1, 2).Request(), xserver.BadLength, 2},
			{"value", servertest.NewRequest(order, ext.Major, 2).Card32(0).Request(), xserver.BadValue, 2},
		} {
			rec.Reset()
			assert.Equal(t, tc.want, s.Dispatch(c, tc.req), tc.name)
			writes := rec.Writes()
			require.Len(t, writes, 1, tc.name)
			e := servertest.NewReader(order, writes[0])
			require.Len(t, e.Buf, 32)
			assert.Equal(t, byte(0), e.Card8(0), tc.name)
			assert.Equal(t, byte(tc.want), e.Card8(1), tc.name)
			assert.Equal(t, uint16(c.Sequence), e.Sequence(), tc.name)
			assert.Equal(t, uint16(tc.minor), e.Card16(8), tc.name)
			assert.Equal(t, ext.Major, e.Card8(10), tc.name)
		}
	}
}

func TestListExtensions(t *testing.T) {
	s := xserver.NewServer()
	for _, name := range []string{"XKEYBOARD", "SHAPE", "XInputExtension"} {
		_, err := s.AddExtension(name, 0, 0)
		require.NoError(t, err)
	}
	order := servertest.Swapped()
	c, rec := servertest.NewClient(s, order)
	require.Equal(t, xserver.Success, s.Dispatch(c, servertest.NewRequest(order, xserver.ListExtensionsOpcode, 0).Request()))

	writes := rec.Writes()
	require.Len(t, writes, 2)
	hdr := servertest.NewReader(order, writes[0])
	assert.Equal(t, byte(3), hdr.Card8(1))
	assert.Equal(t, uint32(len(writes[1])/4), hdr.Length())
	assert.Equal(t, "\x05SHAPE\x0fXInputExtension\x09XKEYBOARD", string(writes[1]))
}

func TestNoOperation(t *testing.T) {
	s := xserver.NewServer()
	c, rec := servertest.NewClient(s, nil)
	req := servertest.NewRequest(nil, xserver.NoOperationOpcode, 0).Pad(8).Request()
	assert.Equal(t, xserver.Success, s.Dispatch(c, req))
	assert.Empty(t, rec.Writes())
}

func TestWriteEvents(t *testing.T) {
	s := xserver.NewServer()
	const code = 70
	s.SetEventSwap(code, func(from, to []byte) {
		copy(to, from)
		xserver.CopySwap16(to[2:], from[2:])
		xserver.CopySwap32(to[4:], from[4:])
	})

	ev := make([]byte, xserver.EventSize)
	ev[0] = code
	xserver.Put32(ev[4:], 0xaabbccdd)

	order := servertest.Swapped()
	c, rec := servertest.NewClient(s, order)
	c.Sequence = 5
	c.WriteEvents(ev)

	got := servertest.NewReader(order, rec.Writes()[0])
	assert.Equal(t, byte(code), got.Card8(0))
	assert.Equal(t, uint16(5), got.Sequence())
	assert.Equal(t, uint32(0xaabbccdd), got.Card32(4))
	// The caller's event is left in host order.
	assert.Equal(t, uint32(0xaabbccdd), xserver.Get32(ev[4:]))

	// No swap function, nothing delivered.
	rec.Reset()
	ev[0] = code + 1
	c.WriteEvents(ev)
	assert.Empty(t, rec.Writes())
}

func TestClientWriteError(t *testing.T) {
	s := xserver.NewServer()
	c, rec := servertest.NewClient(s, nil)
	rec.Fail = assert.AnError
	c.Write([]byte{1, 2, 3})
	c.Flush()
	require.Error(t, c.Err())
	rec.Fail = nil
	c.Write([]byte{1, 2, 3, 4})
	assert.Empty(t, rec.Writes())
}

// stuckConn is a peer that never reads: writes block until it is closed.
type stuckConn struct {
	closed chan struct{}
	once   sync.Once
}

func newStuckConn() *stuckConn { return &stuckConn{closed: make(chan struct{})} }

func (s *stuckConn) Write(p []byte) (int, error) {
	<-s.closed
	return 0, io.ErrClosedPipe
}

func (s *stuckConn) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func TestClientOutputQueueFull(t *testing.T) {
	s := xserver.NewServer()
	s.OutputQueue = 2
	conn := newStuckConn()
	c := s.NewClient(conn, xserver.HostOrder)
	other, rec := servertest.NewClient(s, nil)

	// One in the writer and two queued at most, so the fourth overflows.
	for i := 0; i < 4; i++ {
		c.Write(make([]byte, xserver.EventSize))
	}
	require.Error(t, c.Err())
	select {
	case <-conn.closed:
	default:
		t.Fatal("connection of a client that stopped reading left open")
	}

	other.Write([]byte{1, 2, 3, 4})
	assert.Len(t, rec.Writes(), 1)

	s.CloseClient(c)
	c.Flush()
}
