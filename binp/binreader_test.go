package binp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/sftpd-openlist/binp"
)

func TestPrinterReaderRoundTrip(t *testing.T) {
	out := binp.Out().B32(42).B32String("hello").Byte(9).B64(1 << 40).Out()

	r := binp.NewReader(out)
	var u32 uint32
	var s string
	var b byte
	var u64 uint64
	r.B32(&u32).B32String(&s).Byte(&b).B64(&u64)
	require.NoError(t, r.End())
	require.Equal(t, uint32(42), u32)
	require.Equal(t, "hello", s)
	require.Equal(t, byte(9), b)
	require.Equal(t, uint64(1<<40), u64)
	require.Equal(t, 0, r.Avail())
}

func TestReaderStickyErrorOnTruncation(t *testing.T) {
	r := binp.NewReader([]byte{0, 0, 0, 1})
	var a, b uint32
	r.B32(&a).B32(&b)
	require.Error(t, r.End())
	require.True(t, r.Err())
}

func TestReaderBytesPeekReferencesUnderlyingSlice(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	r := binp.NewReader(data)
	var out []byte
	r.BytesPeek(3, &out)
	require.NoError(t, r.End())
	require.Equal(t, []byte{1, 2, 3}, out)
	require.Equal(t, 2, r.Avail())
}
