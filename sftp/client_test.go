package sftp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/sftpd-openlist/bytechain"
)

// pushResponse appends a raw, already-framed response packet to an
// inbound chain the same shape a real channel would deliver.
func pushResponse(chain *bytechain.Chain, frame []byte) { chain.Append(frame) }

func TestInitAcceptsEqualVersion(t *testing.T) {
	c := NewClient(Options{})
	_ = c.Init()

	p := newOutPacket(FxpVersion, false, 0)
	p.B32(3)
	resp := finishOutPacket(p)

	in := bytechain.New()
	pushResponse(in, resp)
	require.NoError(t, c.Pump(in))

	pkt, ok := c.Dequeue()
	require.True(t, ok)
	require.NoError(t, c.InitRecv(pkt))
	require.EqualValues(t, 3, c.Version)
}

func TestInitRejectsNewerVersion(t *testing.T) {
	c := NewClient(Options{})
	p := newOutPacket(FxpVersion, false, 0)
	p.B32(5)
	resp := finishOutPacket(p)

	in := bytechain.New()
	pushResponse(in, resp)
	require.NoError(t, c.Pump(in))

	pkt, ok := c.Dequeue()
	require.True(t, ok)
	err := c.InitRecv(pkt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "more advanced than we support")
}

func TestRealpathSingleName(t *testing.T) {
	c := NewClient(Options{})
	req, _ := c.Realpath(".")

	p := newOutPacket(FxpName, true, req.ID)
	p.B32(1)
	p.B32String("/home/x").B32String("/home/x")
	encodeAttrs(p, Attr{})
	resp := finishOutPacket(p)

	in := bytechain.New()
	pushResponse(in, resp)
	require.NoError(t, c.Pump(in))
	pkt, ok := c.Dequeue()
	require.True(t, ok)

	name, err := c.RealpathRecv(pkt, req)
	require.NoError(t, err)
	require.Equal(t, "/home/x", name)
}

func TestRealpathRejectsMultipleNames(t *testing.T) {
	c := NewClient(Options{})
	req, _ := c.Realpath(".")

	p := newOutPacket(FxpName, true, req.ID)
	p.B32(2)
	p.B32String("a").B32String("a")
	encodeAttrs(p, Attr{})
	p.B32String("b").B32String("b")
	encodeAttrs(p, Attr{})
	resp := finishOutPacket(p)

	in := bytechain.New()
	pushResponse(in, resp)
	require.NoError(t, c.Pump(in))
	pkt, ok := c.Dequeue()
	require.True(t, ok)

	_, err := c.RealpathRecv(pkt, req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "count of 1")
}

func TestStatusSemanticFailureSurfacesCode(t *testing.T) {
	c := NewClient(Options{})
	req, _ := c.Remove("/no/such/file")

	p := newOutPacket(FxpStatus, true, req.ID)
	p.B32(FxNoSuchFile).B32String("").B32String("")
	resp := finishOutPacket(p)

	in := bytechain.New()
	pushResponse(in, resp)
	require.NoError(t, c.Pump(in))
	pkt, ok := c.Dequeue()
	require.True(t, ok)

	ok2, err := c.StatusRecv(pkt, req)
	require.False(t, ok2)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, FxNoSuchFile, statusErr.Code)
}

// TestRecvRejectsUnknownRequestID: a response whose ID was never
// allocated (or was already retired) must be discarded with an internal
// error, leaving the real in-flight request registered.
func TestRecvRejectsUnknownRequestID(t *testing.T) {
	c := NewClient(Options{})
	req, _ := c.Remove("/x")

	p := newOutPacket(FxpStatus, true, 999999)
	p.B32(FxOK).B32String("").B32String("")
	resp := finishOutPacket(p)

	in := bytechain.New()
	pushResponse(in, resp)
	require.NoError(t, c.Pump(in))
	pkt, ok := c.Dequeue()
	require.True(t, ok)

	_, err := c.StatusRecv(pkt, req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown request id")
	_, stillThere := c.registry.Find(req.ID)
	require.True(t, stillThere)
}

func TestFrameReaderSplitAcrossAppends(t *testing.T) {
	c := NewClient(Options{})
	req, _ := c.Stat("/x")
	p := newOutPacket(FxpAttrs, true, req.ID)
	encodeAttrs(p, Attr{Flags: AttrSize, Size: 42})
	resp := finishOutPacket(p)

	in := bytechain.New()
	in.Append(resp[:3])
	require.NoError(t, c.Pump(in))
	_, ok := c.Dequeue()
	require.False(t, ok)

	in.Append(resp[3:])
	require.NoError(t, c.Pump(in))
	pkt, ok := c.Dequeue()
	require.True(t, ok)

	attrs, err := c.AttrsRecv(pkt, req)
	require.NoError(t, err)
	require.EqualValues(t, 42, attrs.Size)
}
