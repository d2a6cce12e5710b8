package sftp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAllocFreeAllocSequence: alloc -> 256, 257, 258; free 257;
// alloc -> 257, 259.
func TestAllocFreeAllocSequence(t *testing.T) {
	r := NewRegistry()
	a := r.Alloc(nil)
	b := r.Alloc(nil)
	c := r.Alloc(nil)
	require.EqualValues(t, 256, a.ID)
	require.EqualValues(t, 257, b.ID)
	require.EqualValues(t, 258, c.ID)

	r.Remove(b.ID)
	d := r.Alloc(nil)
	e := r.Alloc(nil)
	require.EqualValues(t, 257, d.ID)
	require.EqualValues(t, 259, e.ID)
}

func TestFindAfterAlloc(t *testing.T) {
	r := NewRegistry()
	req := r.Alloc("payload")
	found, ok := r.Find(req.ID)
	require.True(t, ok)
	require.Equal(t, "payload", found.Userdata)

	r.Remove(req.ID)
	_, ok = r.Find(req.ID)
	require.False(t, ok)
}

func TestNConsecutiveAllocsAreContiguous(t *testing.T) {
	r := NewRegistry()
	const n = 20
	for i := 0; i < n; i++ {
		req := r.Alloc(nil)
		require.EqualValues(t, firstRequestID+i, req.ID)
	}
	require.Equal(t, n, r.Len())
}
