package xserver_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/servertest"
)

func init() {
	xserver.PrintLog = false
}

func TestSendReply(t *testing.T) {
	for _, tc := range []struct {
		name    string
		swapped bool
	}{
		{"host", false},
		{"swapped", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			order := xserver.HostOrder
			if tc.swapped {
				order = servertest.Swapped()
			}
			s := xserver.NewServer()
			c, rec := servertest.NewClient(s, order)
			c.Sequence = 0x10002

			rb := xserver.NewReplyBuffer(c)
			rb.WriteCard16s(1, 2, 3)
			rb.WriteCard32s(0xdeadbeef)

			hdr := make([]byte, 40)
			st := xserver.SendReply(c, hdr, rb)
			require.Equal(t, xserver.Success, st)

			writes := rec.Writes()
			require.Len(t, writes, 2, spew.Sdump(writes))
			r := servertest.NewReader(order, writes[0])
			assert.Equal(t, byte(xserver.ReplyType), r.Card8(0))
			assert.Equal(t, uint16(2), r.Sequence())
			// 8 header bytes past 32, 10 payload bytes padded to 12.
			assert.Equal(t, uint32(2+3), r.Length())

			p := servertest.NewReader(order, writes[1])
			require.Len(t, p.Buf, 12)
			assert.Equal(t, uint16(1), p.Card16(0))
			assert.Equal(t, uint16(3), p.Card16(4))
			assert.Equal(t, uint32(0xdeadbeef), p.Card32(6))

			assert.Zero(t, rb.Len())
		})
	}
}

func TestSendReplyNoPayload(t *testing.T) {
	s := xserver.NewServer()
	c, rec := servertest.NewClient(s, nil)
	c.Sequence = 7

	rb := xserver.NewReplyBuffer(c)
	require.Equal(t, xserver.Success, xserver.SendReply(c, make([]byte, 32), rb))
	require.Len(t, rec.Writes(), 1)
	r := servertest.NewReader(nil, rec.Writes()[0])
	assert.Equal(t, uint16(7), r.Sequence())
	assert.Zero(t, r.Length())
}

func TestSendReplyPoisoned(t *testing.T) {
	s := xserver.NewServer()
	c, rec := servertest.NewClient(s, nil)

	rb := xserver.NewReplyBuffer(c)
	rb.Limit = 4
	assert.True(t, rb.WriteCard16s(1, 2))
	assert.False(t, rb.WriteCard8s(3))
	assert.True(t, rb.Err())

	st := xserver.SendReply(c, make([]byte, 32), rb)
	assert.Equal(t, xserver.BadAlloc, st)
	assert.Empty(t, rec.Writes())

	// The buffer is usable again after the failed send.
	assert.False(t, rb.Err())
	assert.Zero(t, rb.Len())
}

func TestSendReplyShortHeaderPanics(t *testing.T) {
	s := xserver.NewServer()
	c, _ := servertest.NewClient(s, nil)
	assert.Panics(t, func() {
		xserver.SendReplySimple(c, make([]byte, 28))
	})
}

func TestReplyBufferString(t *testing.T) {
	s := xserver.NewServer()
	c, _ := servertest.NewClient(s, nil)
	rb := xserver.NewReplyBuffer(c)
	rb.WriteString("SHAPE")
	rb.WriteString("XKEYBOARD")
	assert.Equal(t, "\x05SHAPE\x09XKEYBOARD", string(rb.Bytes()))
	assert.Equal(t, 4, rb.Units())
}
