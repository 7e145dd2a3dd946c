package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ckern-go/ckern/pkg/arena"
)

func TestArenaAllocZeroed(t *testing.T) {
	var a arena.Arena

	b, err := a.Alloc(16)
	require.NoError(t, err)
	require.Len(t, b, 16)
	for _, c := range b {
		require.Zero(t, c)
	}
}

func TestArenaAllocContiguous(t *testing.T) {
	var a arena.Arena

	b1, err := a.Alloc(8)
	require.NoError(t, err)
	b2, err := a.Alloc(8)
	require.NoError(t, err)

	b1[0] = 1
	require.Zero(t, b2[0], "second allocation must not alias the first")
}

func TestArenaAllocGrowsChunk(t *testing.T) {
	var a arena.Arena

	// First allocation seeds a minChunk-sized chunk; this one forces growth.
	_, err := a.Alloc(1)
	require.NoError(t, err)

	b, err := a.Alloc(1 << 20)
	require.NoError(t, err)
	require.Len(t, b, 1<<20)
}

func TestArenaAllocZero(t *testing.T) {
	var a arena.Arena

	b, err := a.Alloc(0)
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestArenaAllocNegative(t *testing.T) {
	var a arena.Arena

	_, err := a.Alloc(-1)
	require.Error(t, err)
}

func TestArenaFreeIsNoop(t *testing.T) {
	var a arena.Arena

	b, err := a.Alloc(8)
	require.NoError(t, err)
	a.Free(b)

	b2, err := a.Alloc(8)
	require.NoError(t, err)
	require.NotSame(t, &b[0], &b2[0])
}

func TestArenaReset(t *testing.T) {
	var a arena.Arena

	for i := 0; i < 100; i++ {
		_, err := a.Alloc(16)
		require.NoError(t, err)
	}

	a.Reset()

	b, err := a.Alloc(16)
	require.NoError(t, err)
	require.Len(t, b, 16)
}

func TestDefaultAllocator(t *testing.T) {
	b, err := arena.Default.Alloc(32)
	require.NoError(t, err)
	require.Len(t, b, 32)
	arena.Default.Free(b)
}

func TestSuggestSize(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{64, 64},
		{65, 128},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, arena.SuggestSize(tc.in), "SuggestSize(%d)", tc.in)
	}
}
