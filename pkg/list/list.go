// Package list implements the singly linked circular list spec.md §4.5
// describes. No other package of this module builds on it: suffixtree
// threads its child lists through its own sibling links and the iterative
// walks use internal/nodestack.
package list

import (
	"github.com/ckern-go/ckern/internal/debug"
	"github.com/ckern-go/ckern/internal/singlethread"
	"github.com/ckern-go/ckern/pkg/typeadapt"
)

// Node is the constraint a list element's pointer type must satisfy: it
// must be comparable (so the list can test it against a nil zero value)
// and expose its embedded ListHeader.
type Node[P any] interface {
	comparable
	typeadapt.ListNode[P]
}

// List is a circular singly-linked list whose sole state is the pointer
// to its tail; last.Next is the head. An empty list has last == the zero
// value of P.
//
// Generic instantiation allows multiple different lists to thread through
// the same object type via distinct embedded ListHeader fields — just
// implement ListHeader() once per list role, e.g. with two differently
// named embedded typeadapt.ListHeader[P] fields and two wrapper types.
type List[P Node[P]] struct {
	last  P
	guard singlethread.Guard
}

// New returns an empty list.
func New[P Node[P]]() *List[P] { return &List[P]{} }

func header[P Node[P]](n P) *typeadapt.ListHeader[P] { return n.ListHeader() }

// IsEmpty reports whether the list has no elements.
func (l *List[P]) IsEmpty() bool {
	var zero P
	return l.last == zero
}

// First returns the head of the list, or the zero value and false if
// empty.
func (l *List[P]) First() (P, bool) {
	var zero P
	if l.last == zero {
		return zero, false
	}
	return header(l.last).Next, true
}

// Last returns the tail of the list, or the zero value and false if
// empty.
func (l *List[P]) Last() (P, bool) {
	var zero P
	if l.last == zero {
		return zero, false
	}
	return l.last, true
}

// Next returns the element following n, or the zero value and false if n
// is the list's own tail pointing back to an empty list (never actually
// reachable) — for a non-empty list Next always succeeds, because the
// list is circular.
func (l *List[P]) Next(n P) (P, bool) {
	var zero P
	if l.last == zero {
		return zero, false
	}
	return header(n).Next, true
}

// InsertFirst makes n the new head of the list.
func (l *List[P]) InsertFirst(n P) {
	l.guard.Enter("list.List")
	var zero P
	if l.last == zero {
		header(n).Next = n
		l.last = n
		debug.Log(nil, "list.insert_first", "n=%v (was empty)", n)
		return
	}
	head := header(l.last).Next
	header(n).Next = head
	header(l.last).Next = n
	debug.Log(nil, "list.insert_first", "n=%v", n)
}

// InsertLast makes n the new tail of the list.
func (l *List[P]) InsertLast(n P) {
	l.InsertFirst(n)
	l.last = n
	debug.Log(nil, "list.insert_last", "n=%v", n)
}

// InsertAfter inserts n immediately after prev, which must already be in
// the list.
func (l *List[P]) InsertAfter(prev, n P) {
	l.guard.Enter("list.List")
	header(n).Next = header(prev).Next
	header(prev).Next = n
	if prev == l.last {
		l.last = n
	}
	debug.Log(nil, "list.insert_after", "prev=%v n=%v", prev, n)
}

// RemoveFirst removes and returns the head of the list, or ok=false if
// empty.
func (l *List[P]) RemoveFirst() (n P, ok bool) {
	l.guard.Enter("list.List")
	var zero P
	if l.last == zero {
		return zero, false
	}
	head := header(l.last).Next
	if head == l.last {
		l.last = zero
	} else {
		header(l.last).Next = header(head).Next
	}
	header(head).Next = zero
	debug.Log(nil, "list.remove_first", "n=%v", head)
	return head, true
}

// RemoveAfter removes and returns the element following prev, or
// ok=false if prev has no successor distinct from itself in a one-element
// list being asked to remove its own single element via this path (use
// RemoveFirst for that case instead).
func (l *List[P]) RemoveAfter(prev P) (n P, ok bool) {
	l.guard.Enter("list.List")
	var zero P
	next := header(prev).Next
	if prev == l.last && next == prev {
		return zero, false
	}
	header(prev).Next = header(next).Next
	if next == l.last {
		l.last = prev
	}
	header(next).Next = zero
	debug.Log(nil, "list.remove_after", "prev=%v n=%v", prev, next)
	return next, true
}

// RemoveAll empties the list. If adapter implements
// typeadapt.LifetimeAdapter[P], Delete is invoked for every removed
// element; the list is fully cleared even if a Delete call fails, and the
// first error encountered is returned, per spec.md §4.5/§7.
func (l *List[P]) RemoveAll(adapter any) error {
	l.guard.Enter("list.List")
	var firstErr error
	var zero P

	for l.last != zero {
		n, _ := l.RemoveFirst()
		if err := typeadapt.Lifetime(adapter, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Iterate calls yield for every element from head to tail. Removing the
// current element during iteration (via RemoveFirst/RemoveAfter) is
// permitted; Iterate caches the next pointer before yielding.
func (l *List[P]) Iterate(yield func(P) bool) {
	var zero P
	if l.last == zero {
		return
	}

	cur := header(l.last).Next
	for {
		next := header(cur).Next
		isTail := cur == l.last
		if !yield(cur) {
			return
		}
		if isTail {
			return
		}
		cur = next
	}
}
