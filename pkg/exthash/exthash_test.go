package exthash_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ckern-go/ckern/pkg/ckernerr"
	"github.com/ckern-go/ckern/pkg/exthash"
	"github.com/ckern-go/ckern/pkg/typeadapt"
)

type intNode struct {
	hdr typeadapt.RBHeader[*intNode]
	key int
}

func (n *intNode) RBHeader() *typeadapt.RBHeader[*intNode] { return &n.hdr }

// identityAdapter hashes each key to itself, the same adapter spec.md §8
// scenario 2 drives the directory to its maximum size with.
type identityAdapter struct{}

func (identityAdapter) CompareObj(a, b *intNode) int    { return a.key - b.key }
func (identityAdapter) CompareKeyObj(k int, o *intNode) int { return k - o.key }
func (identityAdapter) HashKey(k int) uint64                { return uint64(k) }
func (identityAdapter) HashObj(o *intNode) uint64            { return uint64(o.key) }

func newTable(t *testing.T, initial, max int) *exthash.Table[int, *intNode] {
	tbl, err := exthash.New[int, *intNode](identityAdapter{}, initial, max, nil)
	require.NoError(t, err)
	return tbl
}

func TestInsertFindRemove(t *testing.T) {
	tbl := newTable(t, 1, 1024)

	for _, k := range []int{1, 2, 3, 4, 5, 6, 7, 8, 9} {
		require.NoError(t, tbl.Insert(&intNode{key: k}))
		require.NoError(t, tbl.CheckInvariant())
	}
	require.Equal(t, 9, tbl.Len())

	for _, k := range []int{1, 2, 3, 4, 5, 6, 7, 8, 9} {
		n, ok := tbl.Find(k)
		require.True(t, ok)
		require.Equal(t, k, n.key)
	}

	removed, err := tbl.Remove(5)
	require.NoError(t, err)
	require.Equal(t, 5, removed.key)
	require.NoError(t, tbl.CheckInvariant())

	_, ok := tbl.Find(5)
	require.False(t, ok)
}

// refusingAllocator always reports ckernerr.ErrOutOfMemory, letting a
// test drive a directory-growth attempt past its allocator limit.
type refusingAllocator struct{}

func (refusingAllocator) Alloc(int) ([]byte, error) { return nil, ckernerr.ErrOutOfMemory }
func (refusingAllocator) Free([]byte)               {}

func TestInsertOutOfMemoryOnGrow(t *testing.T) {
	tbl, err := exthash.New[int, *intNode](identityAdapter{}, 1, 1024, refusingAllocator{})
	require.NoError(t, err)

	require.NoError(t, tbl.Insert(&intNode{key: 0}))
	require.NoError(t, tbl.Insert(&intNode{key: 1}))
	require.NoError(t, tbl.Insert(&intNode{key: 2}))
	err = tbl.Insert(&intNode{key: 3})
	require.True(t, errors.Is(err, ckernerr.ErrOutOfMemory))
}

func TestRemoveNotFound(t *testing.T) {
	tbl := newTable(t, 1, 8)
	require.NoError(t, tbl.Insert(&intNode{key: 1}))
	_, err := tbl.Remove(2)
	require.True(t, errors.Is(err, ckernerr.ErrNotFound))
}

func TestInsertDuplicate(t *testing.T) {
	tbl := newTable(t, 1, 8)
	require.NoError(t, tbl.Insert(&intNode{key: 1}))
	err := tbl.Insert(&intNode{key: 1})
	require.True(t, errors.Is(err, ckernerr.ErrAlreadyExists))
}

// TestGrowToMaxSize is spec.md §8 scenario 3: an identity hash over
// 0..524287 drives the directory to double repeatedly until it reaches
// max_size, after which buckets keep accumulating instead of splitting
// further.
func TestGrowToMaxSize(t *testing.T) {
	const n = 524288 // 2^19
	tbl := newTable(t, 1, n)

	for k := 0; k < n; k++ {
		require.NoError(t, tbl.Insert(&intNode{key: k}))
	}
	require.Equal(t, n, tbl.Len())
	require.NoError(t, tbl.CheckInvariant())

	for _, k := range []int{0, 1, 2, n / 2, n - 1} {
		found, ok := tbl.Find(k)
		require.True(t, ok)
		require.Equal(t, k, found.key)
	}

	var count int
	tbl.Iterate(func(n *intNode) bool {
		count++
		return true
	})
	require.Equal(t, n, count)
}

func TestRemoveAllInvokesLifetime(t *testing.T) {
	var deleted []int
	adapter := lifetimeAdapterWithDelete(identityAdapter{}, &deleted)

	tbl, err := exthash.New[int, *intNode](adapter, 1, 16, nil)
	require.NoError(t, err)

	for _, k := range []int{1, 2, 3, 4, 5} {
		require.NoError(t, tbl.Insert(&intNode{key: k}))
	}

	require.NoError(t, tbl.RemoveAll())
	require.True(t, tbl.IsEmpty())
	require.ElementsMatch(t, []int{1, 2, 3, 4, 5}, deleted)
}

type deletingAdapter struct {
	identityAdapter
	deleted *[]int
}

func (a deletingAdapter) Delete(n *intNode) error {
	*a.deleted = append(*a.deleted, n.key)
	return nil
}

func lifetimeAdapterWithDelete(base identityAdapter, deleted *[]int) deletingAdapter {
	return deletingAdapter{identityAdapter: base, deleted: deleted}
}
