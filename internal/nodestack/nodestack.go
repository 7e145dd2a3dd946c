// Package nodestack provides a small growable LIFO stack used by
// suffixtree's iterative walks (spec.md §9's "replace the
// iterator-holding-list with a plain growable stack"). Growth is routed
// through an arena.Allocator exactly like exthash's directory doubling:
// the allocator call exists purely to surface out-of-memory before the
// real append runs, not to back the actual storage, since a generic T
// cannot safely live inside a raw []byte without unsafe pointer tricks.
package nodestack

import "github.com/ckern-go/ckern/pkg/arena"

const bytesPerSlot = 8

// Stack is a growable LIFO stack of T.
type Stack[T any] struct {
	items []T
	alloc arena.Allocator
}

// New returns an empty stack gated by alloc. A nil alloc defaults to
// arena.Default.
func New[T any](alloc arena.Allocator) *Stack[T] {
	if alloc == nil {
		alloc = arena.Default
	}
	return &Stack[T]{alloc: alloc}
}

// Push appends v, growing the stack's backing storage if it is full.
func (s *Stack[T]) Push(v T) error {
	if len(s.items) == cap(s.items) {
		newCap := 2*cap(s.items) + 1
		if _, err := s.alloc.Alloc(newCap * bytesPerSlot); err != nil {
			return err
		}
	}
	s.items = append(s.items, v)
	return nil
}

// Pop removes and returns the top of the stack. ok is false if the stack
// is empty.
func (s *Stack[T]) Pop() (v T, ok bool) {
	if len(s.items) == 0 {
		return v, false
	}
	n := len(s.items) - 1
	v = s.items[n]
	var zero T
	s.items[n] = zero
	s.items = s.items[:n]
	return v, true
}

// Empty reports whether the stack holds no elements.
func (s *Stack[T]) Empty() bool { return len(s.items) == 0 }

// Reset empties the stack for reuse without discarding its backing array.
func (s *Stack[T]) Reset() {
	clear(s.items)
	s.items = s.items[:0]
}
