package sftp

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/sftpd-openlist/binp"
)

func TestAttrsRoundTripAllFields(t *testing.T) {
	a := Attr{
		Flags: AttrSize | AttrUidGid | AttrPermissions | AttrAcModTime,
		Size:  12345,
		Uid:   1000,
		Gid:   1000,
		Perms: 0644,
		ATime: time.Unix(1700000000, 0),
		MTime: time.Unix(1700000500, 0),
	}
	p := binp.Out()
	encodeAttrs(p, a)

	r := binp.NewReader(p.Out())
	got := decodeAttrs(r)
	require.NoError(t, r.End())
	require.Equal(t, a.Flags, got.Flags)
	require.Equal(t, a.Size, got.Size)
	require.Equal(t, a.Uid, got.Uid)
	require.Equal(t, a.Gid, got.Gid)
	require.Equal(t, a.Perms, got.Perms)
	require.Equal(t, a.ATime.Unix(), got.ATime.Unix())
	require.Equal(t, a.MTime.Unix(), got.MTime.Unix())
}

func TestAttrsExtendedPairsDiscardedOnDecode(t *testing.T) {
	p := binp.Out()
	p.B32(AttrSize | AttrExtended)
	p.B64(99)
	p.B32(2) // extended pair count
	p.B32String("key1").B32String("val1")
	p.B32String("key2").B32String("val2")

	r := binp.NewReader(p.Out())
	got := decodeAttrs(r)
	require.NoError(t, r.End())
	require.EqualValues(t, 99, got.Size)
}

func TestEncodeAttrsNeverEmitsExtended(t *testing.T) {
	a := Attr{Flags: AttrSize | AttrExtended, Size: 7}
	p := binp.Out()
	encodeAttrs(p, a)
	// Only flags(4) + size(8) bytes: no extended section written.
	require.Len(t, p.Out(), 12)
}

func TestFillFromDirectory(t *testing.T) {
	fi := dirInfo{name: "d", mode: os.ModeDir | 0755}
	var a Attr
	a.FillFrom(fi)
	require.True(t, a.IsDir())
}

type dirInfo struct {
	name string
	mode os.FileMode
}

func (d dirInfo) Name() string       { return d.name }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() os.FileMode  { return d.mode }
func (d dirInfo) ModTime() time.Time { return time.Unix(0, 0) }
func (d dirInfo) IsDir() bool        { return d.mode.IsDir() }
func (d dirInfo) Sys() interface{}   { return nil }
