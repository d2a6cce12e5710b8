package bytechain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/sftpd-openlist/bytechain"
)

func TestAppendAndFetchAcrossBlocks(t *testing.T) {
	c := bytechain.New()
	c.Append([]byte("hello"))
	c.Append([]byte(", "))
	c.Append([]byte("world"))
	require.Equal(t, 12, c.Size())

	dst := make([]byte, 8)
	require.True(t, c.TryFetchConsume(dst))
	require.Equal(t, "hello, w", string(dst))
	require.Equal(t, 4, c.Size())

	dst2 := make([]byte, 4)
	require.True(t, c.TryFetchConsume(dst2))
	require.Equal(t, "orld", string(dst2))
	require.Equal(t, 0, c.Size())
}

func TestTryFetchConsumeInsufficientDataLeavesChainUntouched(t *testing.T) {
	c := bytechain.New()
	c.Append([]byte("ab"))

	dst := make([]byte, 5)
	require.False(t, c.TryFetchConsume(dst))
	require.Equal(t, 2, c.Size())

	dst2 := make([]byte, 2)
	require.True(t, c.TryFetchConsume(dst2))
	require.Equal(t, "ab", string(dst2))
}

func TestEOF(t *testing.T) {
	c := bytechain.New()
	require.False(t, c.EOF())
	c.SetEOF()
	require.True(t, c.EOF())
}
