package list_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ckern-go/ckern/pkg/list"
	"github.com/ckern-go/ckern/pkg/typeadapt"
)

type elem struct {
	hdr typeadapt.ListHeader[*elem]
	val int
}

func (e *elem) ListHeader() *typeadapt.ListHeader[*elem] { return &e.hdr }

func newList() *list.List[*elem] { return list.New[*elem]() }

func collect(l *list.List[*elem]) []int {
	var out []int
	l.Iterate(func(e *elem) bool {
		out = append(out, e.val)
		return true
	})
	return out
}

func TestEmptyList(t *testing.T) {
	l := newList()
	require.True(t, l.IsEmpty())

	_, ok := l.First()
	require.False(t, ok)
	_, ok = l.Last()
	require.False(t, ok)
	_, ok = l.RemoveFirst()
	require.False(t, ok)
}

func TestInsertFirstOrder(t *testing.T) {
	l := newList()
	l.InsertFirst(&elem{val: 3})
	l.InsertFirst(&elem{val: 2})
	l.InsertFirst(&elem{val: 1})

	require.Equal(t, []int{1, 2, 3}, collect(l))

	head, ok := l.First()
	require.True(t, ok)
	require.Equal(t, 1, head.val)

	tail, ok := l.Last()
	require.True(t, ok)
	require.Equal(t, 3, tail.val)
}

func TestInsertLastOrder(t *testing.T) {
	l := newList()
	l.InsertLast(&elem{val: 1})
	l.InsertLast(&elem{val: 2})
	l.InsertLast(&elem{val: 3})

	require.Equal(t, []int{1, 2, 3}, collect(l))
}

func TestInsertAfter(t *testing.T) {
	l := newList()
	a := &elem{val: 1}
	c := &elem{val: 3}
	l.InsertFirst(a)
	l.InsertLast(c)

	b := &elem{val: 2}
	l.InsertAfter(a, b)
	require.Equal(t, []int{1, 2, 3}, collect(l))

	tail, ok := l.Last()
	require.True(t, ok)
	require.Equal(t, 3, tail.val)
}

func TestNextIsCircular(t *testing.T) {
	l := newList()
	a := &elem{val: 1}
	b := &elem{val: 2}
	l.InsertLast(a)
	l.InsertLast(b)

	n, ok := l.Next(a)
	require.True(t, ok)
	require.Equal(t, b, n)

	n, ok = l.Next(b)
	require.True(t, ok)
	require.Equal(t, a, n)
}

func TestRemoveFirst(t *testing.T) {
	l := newList()
	l.InsertLast(&elem{val: 1})
	l.InsertLast(&elem{val: 2})
	l.InsertLast(&elem{val: 3})

	removed, ok := l.RemoveFirst()
	require.True(t, ok)
	require.Equal(t, 1, removed.val)
	require.Equal(t, []int{2, 3}, collect(l))

	removed, ok = l.RemoveFirst()
	require.True(t, ok)
	require.Equal(t, 2, removed.val)
	removed, ok = l.RemoveFirst()
	require.True(t, ok)
	require.Equal(t, 3, removed.val)

	require.True(t, l.IsEmpty())
}

func TestRemoveAfter(t *testing.T) {
	l := newList()
	a := &elem{val: 1}
	b := &elem{val: 2}
	c := &elem{val: 3}
	l.InsertLast(a)
	l.InsertLast(b)
	l.InsertLast(c)

	removed, ok := l.RemoveAfter(a)
	require.True(t, ok)
	require.Equal(t, b, removed)
	require.Equal(t, []int{1, 3}, collect(l))

	tail, ok := l.Last()
	require.True(t, ok)
	require.Equal(t, c, tail)

	_, ok = l.RemoveAfter(a)
	require.True(t, ok)
	require.Equal(t, []int{1}, collect(l))

	_, ok = l.RemoveAfter(a)
	require.False(t, ok)
}

func TestRemoveAllInvokesLifetime(t *testing.T) {
	l := newList()
	l.InsertLast(&elem{val: 1})
	l.InsertLast(&elem{val: 2})
	l.InsertLast(&elem{val: 3})

	var deleted []int
	adapter := deleteFunc(func(e *elem) error {
		deleted = append(deleted, e.val)
		return nil
	})

	require.NoError(t, l.RemoveAll(adapter))
	require.True(t, l.IsEmpty())
	require.Equal(t, []int{1, 2, 3}, deleted)
}

type deleteFunc func(*elem) error

func (f deleteFunc) Delete(e *elem) error { return f(e) }

func TestIterateStopsEarly(t *testing.T) {
	l := newList()
	l.InsertLast(&elem{val: 1})
	l.InsertLast(&elem{val: 2})
	l.InsertLast(&elem{val: 3})

	var seen []int
	l.Iterate(func(e *elem) bool {
		seen = append(seen, e.val)
		return e.val < 2
	})
	require.Equal(t, []int{1, 2}, seen)
}

func TestIterateAllowsRemoveFirstDuringWalk(t *testing.T) {
	l := newList()
	l.InsertLast(&elem{val: 1})
	l.InsertLast(&elem{val: 2})
	l.InsertLast(&elem{val: 3})

	var seen []int
	l.Iterate(func(e *elem) bool {
		seen = append(seen, e.val)
		if e.val == 1 {
			l.RemoveFirst()
		}
		return true
	})
	require.Equal(t, []int{1, 2, 3}, seen)
	require.Equal(t, []int{2, 3}, collect(l))
}
