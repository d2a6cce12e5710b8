package binp_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/sftpd-openlist/binp"
)

func TestPrinterSkipReservesPatchableHeader(t *testing.T) {
	p := binp.OutCap(16).Skip(4).B32String("abc")
	out := p.Out()
	binary.BigEndian.PutUint32(out[:4], uint32(len(out)-4))

	require.Equal(t, []byte{0, 0, 0, 7, 0, 0, 0, 3, 'a', 'b', 'c'}, out)
	require.Equal(t, 11, p.Len())
}

func TestPrinterTruncateDiscardsTail(t *testing.T) {
	p := binp.Out().B32(1).B32(2)
	require.Equal(t, 8, p.Len())
	p.Truncate(4).B32(3)
	require.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 3}, p.Out())
}

func TestPrinterString0AppendsTerminator(t *testing.T) {
	out := binp.Out().String0("hi").Out()
	require.Equal(t, []byte{'h', 'i', 0}, out)
}
