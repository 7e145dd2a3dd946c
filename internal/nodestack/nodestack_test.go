package nodestack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ckern-go/ckern/internal/nodestack"
	"github.com/ckern-go/ckern/pkg/ckernerr"
)

func TestPushPopOrder(t *testing.T) {
	s := nodestack.New[int](nil)
	require.True(t, s.Empty())

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Push(i))
	}
	require.False(t, s.Empty())

	for i := 4; i >= 0; i-- {
		v, ok := s.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	require.True(t, s.Empty())

	_, ok := s.Pop()
	require.False(t, ok)
}

func TestReset(t *testing.T) {
	s := nodestack.New[string](nil)
	require.NoError(t, s.Push("a"))
	require.NoError(t, s.Push("b"))

	s.Reset()
	require.True(t, s.Empty())
	_, ok := s.Pop()
	require.False(t, ok)
}

type refusingAllocator struct{}

func (refusingAllocator) Alloc(int) ([]byte, error) { return nil, ckernerr.ErrOutOfMemory }
func (refusingAllocator) Free([]byte)               {}

func TestPushOutOfMemory(t *testing.T) {
	s := nodestack.New[int](refusingAllocator{})
	err := s.Push(1)
	require.ErrorIs(t, err, ckernerr.ErrOutOfMemory)
}
