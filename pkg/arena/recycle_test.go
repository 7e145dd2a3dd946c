package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ckern-go/ckern/pkg/arena"
)

func TestRecycledReusesFreedBlock(t *testing.T) {
	var a arena.Recycled

	b1, err := a.Alloc(64)
	require.NoError(t, err)
	first := &b1[0]
	a.Free(b1)

	b2, err := a.Alloc(64)
	require.NoError(t, err)
	require.Same(t, first, &b2[0], "same size class should reuse the freed block")
}

func TestRecycledFreeClearsBytes(t *testing.T) {
	var a arena.Recycled

	b1, err := a.Alloc(32)
	require.NoError(t, err)
	for i := range b1 {
		b1[i] = 0xFF
	}
	a.Free(b1)

	b2, err := a.Alloc(32)
	require.NoError(t, err)
	for _, c := range b2 {
		require.Zero(t, c)
	}
}

func TestRecycledDistinctSizeClasses(t *testing.T) {
	var a arena.Recycled

	small, err := a.Alloc(8)
	require.NoError(t, err)
	large, err := a.Alloc(256)
	require.NoError(t, err)

	a.Free(small)
	a.Free(large)

	// Requesting the large class must not hand back the small block.
	got, err := a.Alloc(256)
	require.NoError(t, err)
	require.Len(t, got, 256)
	require.NotSame(t, &small[0], &got[0])
}

func TestRecycledZeroSizeDelegatesToArena(t *testing.T) {
	var a arena.Recycled

	b, err := a.Alloc(0)
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestRecycledFreeEmptyIsNoop(t *testing.T) {
	var a arena.Recycled
	a.Free(nil)
	a.Free([]byte{})
}

func TestRecycledReset(t *testing.T) {
	var a arena.Recycled

	b, err := a.Alloc(32)
	require.NoError(t, err)
	a.Free(b)

	a.Reset()

	// After Reset the free list is gone, so this must come from a fresh chunk.
	b2, err := a.Alloc(32)
	require.NoError(t, err)
	require.NotSame(t, &b[0], &b2[0])
}
