package sftp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/sftpd-openlist/bytechain"
)

func recvOne(t *testing.T, c *Client, frame []byte) *inPacket {
	t.Helper()
	in := bytechain.New()
	in.Append(frame)
	require.NoError(t, c.Pump(in))
	pkt, ok := c.Dequeue()
	require.True(t, ok)
	return pkt
}

func dataFrame(id uint32, payload []byte) []byte {
	p := newOutPacket(FxpData, true, id)
	p.B32Bytes(payload)
	return finishOutPacket(p)
}

func statusFrame(id uint32, code uint32) []byte {
	p := newOutPacket(FxpStatus, true, id)
	p.B32(code).B32String("").B32String("")
	return finishOutPacket(p)
}

func collectIDs(x *Xfer) []uint32 {
	var ids []uint32
	for n := x.head; n != nil; n = n.next {
		ids = append(ids, n.req.ID)
	}
	return ids
}

func collectPendingIDs(x *Xfer) []uint32 {
	var ids []uint32
	for n := x.head; n != nil; n = n.next {
		if n.complete == 0 {
			ids = append(ids, n.req.ID)
		}
	}
	return ids
}

// TestDownloadScenario: a file read
// with a four-chunk in-flight ceiling and chunk=32768 starts with four
// in-flight reads; a short final read sets filesize, and DownloadData yields
// bytes in issue order regardless of the order completions arrive.
func TestDownloadScenario(t *testing.T) {
	// A 4-chunk window stands in for the default 1 MiB ceiling so four
	// in-flight reads cover the same path without a 32-chunk fixture.
	c := NewClient(Options{MaxInFlightBytes: 4 * downloadChunk})
	x, frames := DownloadInit(c, []byte("h"), 0)
	require.Len(t, frames, 4)

	ids := collectIDs(x)
	require.Len(t, ids, 4)

	full := make([]byte, downloadChunk)
	for i := range full {
		full[i] = byte(i)
	}
	short := make([]byte, 4096)
	for i := range short {
		short[i] = byte(200 + i)
	}

	// Completion arrives out of order: index 2, then 0, then 1, then 3
	// (the short final chunk).
	mine, err := x.DownloadGotpkt(recvOne(t, c, dataFrame(ids[2], full)))
	require.True(t, mine)
	require.NoError(t, err)

	mine, err = x.DownloadGotpkt(recvOne(t, c, dataFrame(ids[0], full)))
	require.True(t, mine)
	require.NoError(t, err)

	mine, err = x.DownloadGotpkt(recvOne(t, c, dataFrame(ids[1], full)))
	require.True(t, mine)
	require.NoError(t, err)

	mine, err = x.DownloadGotpkt(recvOne(t, c, dataFrame(ids[3], short)))
	require.True(t, mine)
	require.NoError(t, err)
	require.EqualValues(t, 3*downloadChunk+len(short), x.filesize)

	// A short read lowers filesize but doesn't end the transfer by
	// itself: the driver keeps the window full until a read past the
	// end comes back as STATUS(EOF), exactly as a live server answers.
	moreFrames := x.DownloadQueue()
	require.NotEmpty(t, moreFrames)
	for _, id := range collectPendingIDs(x) {
		mine, err = x.DownloadGotpkt(recvOne(t, c, statusFrame(id, FxEOF)))
		require.True(t, mine)
		require.NoError(t, err)
	}

	var all []byte
	for {
		_, data, ok := x.DownloadData()
		if !ok {
			break
		}
		all = append(all, data...)
	}
	require.Len(t, all, 3*downloadChunk+len(short))
	require.Equal(t, full, all[:downloadChunk])
	require.True(t, x.Done())
}

func TestUploadCompletesOutOfOrder(t *testing.T) {
	c := NewClient(Options{})
	x := UploadInit(c, []byte("h"))
	require.False(t, x.Done())

	_ = x.UploadData(0, []byte("aaaa"))
	_ = x.UploadData(4, []byte("bbbb"))
	ids := collectIDs(x)
	require.Len(t, ids, 2)

	mine, err := x.UploadGotpkt(recvOne(t, c, statusFrame(ids[1], FxOK)))
	require.True(t, mine)
	require.NoError(t, err)
	require.False(t, x.Done())

	mine, err = x.UploadGotpkt(recvOne(t, c, statusFrame(ids[0], FxOK)))
	require.True(t, mine)
	require.NoError(t, err)
	require.True(t, x.Done())
}

func TestUploadGotpktRejectsForeignID(t *testing.T) {
	c := NewClient(Options{})
	x := UploadInit(c, []byte("h"))
	_ = x.UploadData(0, []byte("aaaa"))

	mine, err := x.UploadGotpkt(recvOne(t, c, statusFrame(999999, FxOK)))
	require.False(t, mine)
	require.NoError(t, err)
}
